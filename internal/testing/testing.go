// package testing contains shared testing utilities: in-memory fakes for
// the three external sources.
package testing

import (
	"context"
	"sync"

	"github.com/tunetrivia/curator/internal/models"
	"github.com/tunetrivia/curator/internal/services"
)

// FakeMetadataSource is a scriptable test double for [services.MetadataSource].
type FakeMetadataSource struct {
	SearchResults   map[string][]models.CanonicalTrack // keyed by query
	Playlists       []services.Playlist
	PlaylistItems   map[string][]models.CanonicalTrack // keyed by playlist ID
	Albums          []services.Album
	AlbumItems      map[string][]models.CanonicalTrack // keyed by album ID
	SearchErr       error
	PlaylistErr     error
	NewReleasesErr  error
	SearchCallCount int
}

func (f *FakeMetadataSource) SearchTracks(_ context.Context, query string, _ int) ([]models.CanonicalTrack, error) {
	f.SearchCallCount++
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	return f.SearchResults[query], nil
}

func (f *FakeMetadataSource) TracksByIDs(_ context.Context, ids []string) ([]models.CanonicalTrack, error) {
	var tracks []models.CanonicalTrack
	for _, results := range f.SearchResults {
		for _, t := range results {
			for _, id := range ids {
				if t.SourceTrackID == id {
					tracks = append(tracks, t)
				}
			}
		}
	}
	return tracks, nil
}

func (f *FakeMetadataSource) SearchPlaylists(_ context.Context, _ string, _ int) ([]services.Playlist, error) {
	if f.PlaylistErr != nil {
		return nil, f.PlaylistErr
	}
	return f.Playlists, nil
}

func (f *FakeMetadataSource) PlaylistTracks(_ context.Context, playlistID string, _ int) ([]models.CanonicalTrack, error) {
	if f.PlaylistErr != nil {
		return nil, f.PlaylistErr
	}
	return f.PlaylistItems[playlistID], nil
}

func (f *FakeMetadataSource) NewReleaseAlbums(_ context.Context, _ int) ([]services.Album, error) {
	if f.NewReleasesErr != nil {
		return nil, f.NewReleasesErr
	}
	return f.Albums, nil
}

func (f *FakeMetadataSource) AlbumTracks(_ context.Context, albumID string) ([]models.CanonicalTrack, error) {
	return f.AlbumItems[albumID], nil
}

func (f *FakeMetadataSource) Name() string { return "fake-metadata" }

// FakeGenreSource is a scriptable test double for [services.GenreSource].
type FakeGenreSource struct {
	IdeasByTag map[string][]models.TrackIdea
	Err        error
	CallCount  int
}

func (f *FakeGenreSource) RecordingsByTag(_ context.Context, tag string, _ int) ([]models.TrackIdea, error) {
	f.CallCount++
	if f.Err != nil {
		return nil, f.Err
	}
	return f.IdeasByTag[tag], nil
}

func (f *FakeGenreSource) Name() string { return "fake-genre" }

// FakeVideoSource is a scriptable test double for [services.VideoSource].
type FakeVideoSource struct {
	mu        sync.Mutex
	Results   map[string][]services.VideoSearchResult // keyed by query
	Durations map[string]int                          // keyed by video ID, ms
	SearchErr error
	Queries   []string // queries seen, in order
}

func (f *FakeVideoSource) Search(_ context.Context, query string, _ int) ([]services.VideoSearchResult, error) {
	f.mu.Lock()
	f.Queries = append(f.Queries, query)
	f.mu.Unlock()

	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	return f.Results[query], nil
}

func (f *FakeVideoSource) VideoDuration(_ context.Context, videoID string) (int, error) {
	if d, ok := f.Durations[videoID]; ok {
		return d, nil
	}
	return 0, nil
}

func (f *FakeVideoSource) Name() string { return "fake-video" }
