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

func newTestYouTube(t *testing.T, keys []string, handler http.HandlerFunc) *YouTubeService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewYouTubeService(YouTubeOpts{
		Config:  shared.YouTubeConfig{APIKeys: keys},
		BaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc
}

func TestNewYouTubeService(t *testing.T) {
	t.Run("Requires API Key", func(t *testing.T) {
		_, err := NewYouTubeService(YouTubeOpts{})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected missing credentials error, got %v", err)
		}
	})
}

func TestYouTubeSearch(t *testing.T) {
	t.Run("Restricts To Music Category", func(t *testing.T) {
		svc := newTestYouTube(t, []string{"k1"}, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if got := q.Get("videoCategoryId"); got != "10" {
				t.Errorf("unexpected category %q", got)
			}
			if got := q.Get("type"); got != "video" {
				t.Errorf("unexpected type %q", got)
			}
			if got := q.Get("key"); got != "k1" {
				t.Errorf("unexpected key %q", got)
			}
			fmt.Fprint(w, `{"items":[
				{"id":{"videoId":"v1"},"snippet":{"title":"Song (Official Audio)","channelTitle":"ArtistVEVO"}},
				{"id":{},"snippet":{"title":"channel result"}}
			]}`)
		})

		results, err := svc.Search(context.Background(), "Song Artist Official Audio", 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(results))
		}
		if results[0].ID != "v1" || results[0].ChannelTitle != "ArtistVEVO" {
			t.Errorf("unexpected result %+v", results[0])
		}
	})

	t.Run("Rotates Keys On Quota Exhaustion", func(t *testing.T) {
		var requests int
		svc := newTestYouTube(t, []string{"k1", "k2"}, func(w http.ResponseWriter, r *http.Request) {
			requests++
			if r.URL.Query().Get("key") == "k1" {
				w.WriteHeader(http.StatusForbidden)
				fmt.Fprint(w, `{"error":{"errors":[{"reason":"quotaExceeded"}]}}`)
				return
			}
			fmt.Fprint(w, `{"items":[{"id":{"videoId":"v2"},"snippet":{"title":"Song"}}]}`)
		})

		results, err := svc.Search(context.Background(), "Song", 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if requests != 2 {
			t.Errorf("expected retry on backup key, saw %d requests", requests)
		}
		if len(results) != 1 || results[0].ID != "v2" {
			t.Errorf("unexpected results %+v", results)
		}
	})

	t.Run("Surfaces Quota When All Keys Spent", func(t *testing.T) {
		svc := newTestYouTube(t, []string{"k1", "k2"}, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"error":{"errors":[{"reason":"quotaExceeded"}]}}`)
		})

		_, err := svc.Search(context.Background(), "Song", 5)
		if !errors.Is(err, shared.ErrQuotaExhausted) {
			t.Errorf("expected quota error, got %v", err)
		}
	})

	t.Run("Permanent Forbidden Does Not Rotate", func(t *testing.T) {
		var requests int
		svc := newTestYouTube(t, []string{"k1", "k2"}, func(w http.ResponseWriter, r *http.Request) {
			requests++
			http.Error(w, `{"error":"api not enabled"}`, http.StatusForbidden)
		})

		_, err := svc.Search(context.Background(), "Song", 5)
		if !errors.Is(err, shared.ErrPermanent) {
			t.Errorf("expected permanent error, got %v", err)
		}
		if requests != 1 {
			t.Errorf("expected no retry, saw %d requests", requests)
		}
	})
}

func TestVideoDuration(t *testing.T) {
	t.Run("Parses Content Details", func(t *testing.T) {
		svc := newTestYouTube(t, []string{"k1"}, func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("part"); got != "contentDetails" {
				t.Errorf("unexpected part %q", got)
			}
			fmt.Fprint(w, `{"items":[{"contentDetails":{"duration":"PT3M42S"}}]}`)
		})

		ms, err := svc.VideoDuration(context.Background(), "v1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ms != 222000 {
			t.Errorf("expected 222000ms, got %d", ms)
		}
	})

	t.Run("Missing Video", func(t *testing.T) {
		svc := newTestYouTube(t, []string{"k1"}, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"items":[]}`)
		})

		if _, err := svc.VideoDuration(context.Background(), "gone"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected not-found error, got %v", err)
		}
	})
}

func TestParseISO8601Duration(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		wantMs  int
		wantErr bool
	}{
		{"Minutes And Seconds", "PT3M42S", 222000, false},
		{"Hours", "PT1H2M3S", 3723000, false},
		{"Seconds Only", "PT45S", 45000, false},
		{"Minutes Only", "PT2M", 120000, false},
		{"Zero", "PT", 0, false},
		{"Clock Format", "3:42", 0, true},
		{"Empty", "", 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseISO8601Duration(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.wantMs {
				t.Errorf("ParseISO8601Duration(%q) = %d, want %d", tc.input, got, tc.wantMs)
			}
		})
	}
}
