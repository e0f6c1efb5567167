// MusicBrainz implementation of [GenreSource]
//
// MusicBrainz is strict about clients: a descriptive User-Agent is required
// and requests must be spaced at least a second apart, so the gate here is
// not optional tuning.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tunetrivia/curator/internal/models"
	"github.com/tunetrivia/curator/internal/shared"
)

const musicBrainzBaseURL = "https://musicbrainz.org/ws/2"

// mbRecording is a recording entry in a MusicBrainz search response.
type mbRecording struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Score        int    `json:"score"`
	ArtistCredit []struct {
		Name string `json:"name"`
	} `json:"artist-credit"`
	Releases []struct {
		Title string `json:"title"`
	} `json:"releases"`
}

// MusicBrainzService implements [GenreSource] against the MusicBrainz
// recording search API.
type MusicBrainzService struct {
	userAgent  string
	httpClient *http.Client
	gate       *gate
	logger     *log.Logger
	baseURL    string
}

// MusicBrainzOpts configures a [MusicBrainzService].
type MusicBrainzOpts struct {
	Config     shared.MusicBrainzConfig
	Timeout    time.Duration
	Logger     *log.Logger
	BaseURL    string // overridable for tests
	HTTPClient *http.Client
}

// NewMusicBrainzService creates a MusicBrainz genre source.
func NewMusicBrainzService(opts MusicBrainzOpts) (*MusicBrainzService, error) {
	if opts.Config.UserAgent == "" {
		return nil, fmt.Errorf("%w: musicbrainz user_agent required", shared.ErrMissingCredentials)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = musicBrainzBaseURL
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = newHTTPClient(opts.Timeout)
	}

	delay := time.Duration(opts.Config.DelayMs) * time.Millisecond
	if delay < time.Second {
		delay = time.Second
	}

	return &MusicBrainzService{
		userAgent:  opts.Config.UserAgent,
		httpClient: opts.HTTPClient,
		gate:       newGate(delay),
		logger:     shared.WithLogger(opts.Logger, "source", "musicbrainz"),
		baseURL:    opts.BaseURL,
	}, nil
}

func (m *MusicBrainzService) Name() string {
	return "MusicBrainz"
}

// RecordingsByTag retrieves track ideas tagged with a genre.
func (m *MusicBrainzService) RecordingsByTag(ctx context.Context, tag string, limit int) ([]models.TrackIdea, error) {
	if tag == "" {
		return nil, fmt.Errorf("%w: tag required", shared.ErrInvalidInput)
	}
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	if err := m.gate.wait(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`tag:"%s"`, tag)
	endpoint := fmt.Sprintf("%s/recording?query=%s&fmt=json&limit=%d", m.baseURL, url.QueryEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("musicbrainz API error (status %d): %w", resp.StatusCode, ClassifyStatus(resp.StatusCode, string(body)))
	}

	var response struct {
		Recordings []mbRecording `json:"recordings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	ideas := make([]models.TrackIdea, 0, len(response.Recordings))
	for _, rec := range response.Recordings {
		if rec.Title == "" || len(rec.ArtistCredit) == 0 {
			continue
		}
		idea := models.TrackIdea{
			Title:  rec.Title,
			Artist: rec.ArtistCredit[0].Name,
		}
		if len(rec.Releases) > 0 {
			idea.Album = rec.Releases[0].Title
		}
		ideas = append(ideas, idea)
	}

	m.logger.Debug("tag search complete", "tag", tag, "ideas", len(ideas))
	return ideas, nil
}
