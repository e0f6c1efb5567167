// Spotify Web API implementation of [MetadataSource]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
// Uses the client-credentials flow; tokens are cached and refreshed
// transparently by [clientcredentials.Config]'s token source.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/tunetrivia/curator/internal/models"
	"github.com/tunetrivia/curator/internal/shared"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	Images      []SpotifyImage  `json:"images"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Popularity int             `json:"popularity"`
}

// SpotifySimplePlaylist represents a playlist hit in search results.
type SpotifySimplePlaylist struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Tracks struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

// SpotifyService implements [MetadataSource] against the Spotify Web API.
type SpotifyService struct {
	tokens     oauth2.TokenSource
	httpClient *http.Client
	gate       *gate
	logger     *log.Logger
	baseURL    string
}

// SpotifyOpts configures a [SpotifyService].
type SpotifyOpts struct {
	Config     shared.SpotifyConfig
	Timeout    time.Duration
	Logger     *log.Logger
	BaseURL    string // overridable for tests
	TokenURL   string // overridable for tests
	HTTPClient *http.Client
}

// NewSpotifyService creates a Spotify metadata source using the
// client-credentials flow.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	if opts.Config.ClientID == "" || opts.Config.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret required", shared.ErrMissingCredentials)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = newHTTPClient(opts.Timeout)
	}

	cc := &clientcredentials.Config{
		ClientID:     opts.Config.ClientID,
		ClientSecret: opts.Config.ClientSecret,
		TokenURL:     opts.TokenURL,
	}

	delay := time.Duration(opts.Config.DelayMs) * time.Millisecond

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, opts.HTTPClient)

	return &SpotifyService{
		tokens:     cc.TokenSource(ctx),
		httpClient: opts.HTTPClient,
		gate:       newGate(delay),
		logger:     shared.WithLogger(opts.Logger, "source", "spotify"),
		baseURL:    opts.BaseURL,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs a rate-gated, authenticated GET against the API and
// decodes the JSON response into result.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	if err := s.gate.wait(ctx); err != nil {
		return err
	}

	token, err := s.tokens.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrSourceAuth, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	token.SetAuthHeader(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("spotify API error (status %d): %w", resp.StatusCode, ClassifyStatus(resp.StatusCode, string(body)))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// SearchTracks searches for tracks matching a free-text query.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]models.CanonicalTrack, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), limit)

	var response struct {
		Tracks struct {
			Items []SpotifyTrack `json:"items"`
		} `json:"tracks"`
	}

	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	return canonicalTracks(response.Tracks.Items), nil
}

// TracksByIDs retrieves canonical metadata for multiple tracks (up to 50).
func (s *SpotifyService) TracksByIDs(ctx context.Context, ids []string) ([]models.CanonicalTrack, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no track IDs provided", shared.ErrInvalidInput)
	}
	if len(ids) > 50 {
		return nil, fmt.Errorf("%w: maximum 50 track IDs allowed", shared.ErrInvalidInput)
	}

	endpoint := fmt.Sprintf("/tracks?ids=%s", url.QueryEscape(strings.Join(ids, ",")))

	var response struct {
		Tracks []SpotifyTrack `json:"tracks"`
	}

	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	return canonicalTracks(response.Tracks), nil
}

// SearchPlaylists searches public playlists by keyword.
func (s *SpotifyService) SearchPlaylists(ctx context.Context, query string, limit int) ([]Playlist, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=playlist&limit=%d", url.QueryEscape(query), limit)

	var response struct {
		Playlists struct {
			Items []SpotifySimplePlaylist `json:"items"`
		} `json:"playlists"`
	}

	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	playlists := make([]Playlist, 0, len(response.Playlists.Items))
	for _, sp := range response.Playlists.Items {
		if sp.ID == "" {
			continue
		}
		playlists = append(playlists, Playlist{
			ID:         sp.ID,
			Name:       sp.Name,
			TrackCount: sp.Tracks.Total,
		})
	}

	return playlists, nil
}

// PlaylistTracks retrieves the tracks of a playlist.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string, limit int) ([]models.CanonicalTrack, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d", playlistID, limit)

	var response struct {
		Items []struct {
			Track SpotifyTrack `json:"track"`
		} `json:"items"`
	}

	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	tracks := make([]SpotifyTrack, 0, len(response.Items))
	for _, item := range response.Items {
		tracks = append(tracks, item.Track)
	}

	return canonicalTracks(tracks), nil
}

// NewReleaseAlbums retrieves recently released albums.
func (s *SpotifyService) NewReleaseAlbums(ctx context.Context, limit int) ([]Album, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	endpoint := fmt.Sprintf("/browse/new-releases?limit=%d", limit)

	var response struct {
		Albums struct {
			Items []SpotifyAlbum `json:"items"`
		} `json:"albums"`
	}

	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	albums := make([]Album, 0, len(response.Albums.Items))
	for _, sa := range response.Albums.Items {
		album := Album{ID: sa.ID, Name: sa.Name}
		if len(sa.Artists) > 0 {
			album.Artist = sa.Artists[0].Name
		}
		albums = append(albums, album)
	}

	return albums, nil
}

// AlbumTracks retrieves an album with its tracks. The album endpoint is used
// instead of /albums/{id}/tracks because its simplified track objects omit
// the cover art the catalog stores.
func (s *SpotifyService) AlbumTracks(ctx context.Context, albumID string) ([]models.CanonicalTrack, error) {
	endpoint := fmt.Sprintf("/albums/%s", albumID)

	var response struct {
		ID     string          `json:"id"`
		Name   string          `json:"name"`
		Images []SpotifyImage  `json:"images"`
		Tracks struct {
			Items []SpotifyTrack `json:"items"`
		} `json:"tracks"`
	}

	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	art := ""
	if len(response.Images) > 0 {
		art = response.Images[0].URL
	}

	tracks := make([]models.CanonicalTrack, 0, len(response.Tracks.Items))
	for _, st := range response.Tracks.Items {
		track := canonicalTrack(st)
		if track.AlbumArtURL == "" {
			track.AlbumArtURL = art
		}
		tracks = append(tracks, track)
	}

	return tracks, nil
}

// canonicalTrack converts a Spotify track to the pipeline's canonical form,
// joining multiple artists into one display string.
func canonicalTrack(st SpotifyTrack) models.CanonicalTrack {
	names := make([]string, 0, len(st.Artists))
	for _, a := range st.Artists {
		names = append(names, a.Name)
	}

	art := ""
	if len(st.Album.Images) > 0 {
		art = st.Album.Images[0].URL
	}

	return models.CanonicalTrack{
		SourceTrackID: st.ID,
		Title:         st.Name,
		Artist:        strings.Join(names, ", "),
		AlbumArtURL:   art,
		DurationMs:    st.DurationMS,
	}
}

func canonicalTracks(sts []SpotifyTrack) []models.CanonicalTrack {
	tracks := make([]models.CanonicalTrack, 0, len(sts))
	for _, st := range sts {
		if st.ID == "" {
			continue
		}
		tracks = append(tracks, canonicalTrack(st))
	}
	return tracks
}
