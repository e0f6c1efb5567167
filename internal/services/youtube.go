// YouTube Data API v3 implementation of [VideoSource]
//
// Search is restricted to the Music category. The API bills searches against
// a small daily unit budget; quota exhaustion on one key rotates to the next
// configured key, and only when every key is spent does the error surface as
// [shared.ErrQuotaExhausted].
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tunetrivia/curator/internal/shared"
)

const (
	youtubeBaseURL   = "https://www.googleapis.com/youtube/v3"
	musicCategoryID  = "10"
	maxSearchResults = 10
)

// YouTubeService implements [VideoSource] against the YouTube Data API.
type YouTubeService struct {
	keys       []string
	httpClient *http.Client
	gate       *gate
	logger     *log.Logger
	baseURL    string

	mu     sync.Mutex
	keyIdx int
}

// YouTubeOpts configures a [YouTubeService].
type YouTubeOpts struct {
	Config     shared.YouTubeConfig
	Timeout    time.Duration
	Logger     *log.Logger
	BaseURL    string // overridable for tests
	HTTPClient *http.Client
}

// NewYouTubeService creates a YouTube video source.
func NewYouTubeService(opts YouTubeOpts) (*YouTubeService, error) {
	if len(opts.Config.APIKeys) == 0 {
		return nil, fmt.Errorf("%w: at least one youtube api key required", shared.ErrMissingCredentials)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = youtubeBaseURL
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = newHTTPClient(opts.Timeout)
	}

	delay := time.Duration(opts.Config.DelayMs) * time.Millisecond

	return &YouTubeService{
		keys:       opts.Config.APIKeys,
		httpClient: opts.HTTPClient,
		gate:       newGate(delay),
		logger:     shared.WithLogger(opts.Logger, "source", "youtube"),
		baseURL:    opts.BaseURL,
	}, nil
}

func (y *YouTubeService) Name() string {
	return "YouTube"
}

// currentKey returns the active API key.
func (y *YouTubeService) currentKey() string {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.keys[y.keyIdx]
}

// rotateKey advances to the next configured key. Returns false when all
// keys have been consumed.
func (y *YouTubeService) rotateKey() bool {
	y.mu.Lock()
	defer y.mu.Unlock()
	if y.keyIdx+1 >= len(y.keys) {
		return false
	}
	y.keyIdx++
	y.logger.Warn("rotated to backup API key", "key_index", y.keyIdx)
	return true
}

// doRequest performs a rate-gated GET, rotating keys on quota exhaustion.
func (y *YouTubeService) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	for {
		if err := y.gate.wait(ctx); err != nil {
			return err
		}

		params.Set("key", y.currentKey())
		apiURL := fmt.Sprintf("%s%s?%s", y.baseURL, endpoint, params.Encode())

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := y.httpClient.Do(req)
		if err != nil {
			return classifyTransportError(err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			err := json.NewDecoder(resp.Body).Decode(result)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			return nil
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		classified := ClassifyStatus(resp.StatusCode, string(body))
		if errors.Is(classified, shared.ErrQuotaExhausted) && y.rotateKey() {
			continue
		}
		return fmt.Errorf("youtube API error (status %d): %w", resp.StatusCode, classified)
	}
}

// Search runs a video search restricted to music content.
func (y *YouTubeService) Search(ctx context.Context, query string, limit int) ([]VideoSearchResult, error) {
	if limit <= 0 || limit > maxSearchResults {
		limit = maxSearchResults
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("videoCategoryId", musicCategoryID)
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(limit))

	var response struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet struct {
				Title        string `json:"title"`
				ChannelTitle string `json:"channelTitle"`
			} `json:"snippet"`
		} `json:"items"`
	}

	if err := y.doRequest(ctx, "/search", params, &response); err != nil {
		return nil, err
	}

	results := make([]VideoSearchResult, 0, len(response.Items))
	for _, item := range response.Items {
		if item.ID.VideoID == "" {
			continue
		}
		results = append(results, VideoSearchResult{
			ID:           item.ID.VideoID,
			Title:        item.Snippet.Title,
			ChannelTitle: item.Snippet.ChannelTitle,
		})
	}

	return results, nil
}

// VideoDuration returns a video's exact duration in milliseconds via the
// contentDetails part.
func (y *YouTubeService) VideoDuration(ctx context.Context, videoID string) (int, error) {
	params := url.Values{}
	params.Set("part", "contentDetails")
	params.Set("id", videoID)

	var response struct {
		Items []struct {
			ContentDetails struct {
				Duration string `json:"duration"`
			} `json:"contentDetails"`
		} `json:"items"`
	}

	if err := y.doRequest(ctx, "/videos", params, &response); err != nil {
		return 0, err
	}

	if len(response.Items) == 0 {
		return 0, fmt.Errorf("%w: video %s", shared.ErrTrackNotFound, videoID)
	}

	return ParseISO8601Duration(response.Items[0].ContentDetails.Duration)
}

var isoDurationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseISO8601Duration converts a YouTube contentDetails duration
// (e.g. "PT3M42S") to milliseconds.
func ParseISO8601Duration(raw string) (int, error) {
	m := isoDurationPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, fmt.Errorf("%w: unparseable duration %q", shared.ErrInvalidInput, raw)
	}

	total := 0
	for i, mult := range []int{3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, fmt.Errorf("%w: unparseable duration %q", shared.ErrInvalidInput, raw)
		}
		total += n * mult
	}

	return total * 1000, nil
}
