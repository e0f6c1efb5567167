package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tunetrivia/curator/internal/shared"
)

func newTestMusicBrainz(t *testing.T, handler http.HandlerFunc) *MusicBrainzService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewMusicBrainzService(MusicBrainzOpts{
		Config:  shared.MusicBrainzConfig{UserAgent: "curator-test/1.0 (test@example.com)"},
		BaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc
}

func TestNewMusicBrainzService(t *testing.T) {
	t.Run("Requires User Agent", func(t *testing.T) {
		_, err := NewMusicBrainzService(MusicBrainzOpts{})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected missing credentials error, got %v", err)
		}
	})
}

func TestRecordingsByTag(t *testing.T) {
	t.Run("Sends User Agent And Parses Recordings", func(t *testing.T) {
		svc := newTestMusicBrainz(t, func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("User-Agent"); got != "curator-test/1.0 (test@example.com)" {
				t.Errorf("unexpected User-Agent %q", got)
			}
			if got := r.URL.Query().Get("fmt"); got != "json" {
				t.Errorf("unexpected fmt param %q", got)
			}
			if got := r.URL.Query().Get("query"); got != `tag:"hip hop"` {
				t.Errorf("unexpected query param %q", got)
			}
			fmt.Fprint(w, `{"recordings":[
				{"id":"r1","title":"Juicy","score":100,
				 "artist-credit":[{"name":"The Notorious B.I.G."}],
				 "releases":[{"title":"Ready to Die"}]},
				{"id":"r2","title":"","artist-credit":[{"name":"Nobody"}]},
				{"id":"r3","title":"Orphan","artist-credit":[]}
			]}`)
		})

		ideas, err := svc.RecordingsByTag(context.Background(), "hip hop", 25)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(ideas) != 1 {
			t.Fatalf("expected 1 idea after filtering, got %d", len(ideas))
		}
		idea := ideas[0]
		if idea.Title != "Juicy" {
			t.Errorf("unexpected title %q", idea.Title)
		}
		if idea.Artist != "The Notorious B.I.G." {
			t.Errorf("unexpected artist %q", idea.Artist)
		}
		if idea.Album != "Ready to Die" {
			t.Errorf("unexpected album %q", idea.Album)
		}
	})

	t.Run("Requires Tag", func(t *testing.T) {
		svc := newTestMusicBrainz(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})

		if _, err := svc.RecordingsByTag(context.Background(), "", 25); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected invalid input error, got %v", err)
		}
	})

	t.Run("Classifies Service Unavailable", func(t *testing.T) {
		svc := newTestMusicBrainz(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "busy", http.StatusServiceUnavailable)
		})

		if _, err := svc.RecordingsByTag(context.Background(), "rock", 25); !errors.Is(err, shared.ErrTransient) {
			t.Errorf("expected transient error, got %v", err)
		}
	})
}
