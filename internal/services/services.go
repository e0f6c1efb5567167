// package services defines interfaces for the external data sources the
// curation pipeline chains together, plus their HTTP client implementations.
//
// Spotify (metadata), MusicBrainz (genre tags), YouTube (video lookup)
package services

import (
	"context"

	"github.com/tunetrivia/curator/internal/models"
)

// MetadataSource is the authoritative track metadata provider.
type MetadataSource interface {
	// SearchTracks searches for tracks matching a free-text query.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.CanonicalTrack, error)

	// TracksByIDs retrieves canonical metadata for up to 50 track IDs.
	TracksByIDs(ctx context.Context, ids []string) ([]models.CanonicalTrack, error)

	// SearchPlaylists searches public playlists by keyword.
	SearchPlaylists(ctx context.Context, query string, limit int) ([]Playlist, error)

	// PlaylistTracks retrieves the tracks of a playlist.
	PlaylistTracks(ctx context.Context, playlistID string, limit int) ([]models.CanonicalTrack, error)

	// NewReleaseAlbums retrieves recently released albums.
	NewReleaseAlbums(ctx context.Context, limit int) ([]Album, error)

	// AlbumTracks retrieves the tracks of an album.
	AlbumTracks(ctx context.Context, albumID string) ([]models.CanonicalTrack, error)

	// Name returns the source name for logging.
	Name() string
}

// GenreSource provides tag/genre-associated track ideas. Results are not
// authoritative; each idea must be canonicalized via a [MetadataSource].
type GenreSource interface {
	// RecordingsByTag retrieves track ideas associated with a genre tag.
	RecordingsByTag(ctx context.Context, tag string, limit int) ([]models.TrackIdea, error)

	Name() string
}

// VideoSource resolves playable video identifiers.
type VideoSource interface {
	// Search runs a video search restricted to music content.
	Search(ctx context.Context, query string, limit int) ([]VideoSearchResult, error)

	// VideoDuration returns a video's exact duration in milliseconds.
	VideoDuration(ctx context.Context, videoID string) (int, error)

	Name() string
}

// Playlist is a playlist reference from the metadata source.
type Playlist struct {
	ID         string
	Name       string
	TrackCount int
}

// Album is an album reference from the metadata source.
type Album struct {
	ID     string
	Name   string
	Artist string
}

// VideoSearchResult is a single hit from the video source.
type VideoSearchResult struct {
	ID           string
	Title        string
	ChannelTitle string
}
