package video

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tunetrivia/curator/internal/services"
	"github.com/tunetrivia/curator/internal/shared"
	fake "github.com/tunetrivia/curator/internal/testing"
)

func TestHasUndesiredKeyword(t *testing.T) {
	cases := []struct {
		name  string
		title string
		want  bool
	}{
		{"Clean Title", "song official audio", false},
		{"Live Token", "song live at wembley", true},
		{"Live Inside Word Ignored", "alive and kicking", false},
		{"Cover", "song acoustic cover", true},
		{"Official Video Phrase", "song official video", true},
		{"Music Video Phrase", "song official music video", true},
		{"Lyric Exemption", "song official music video lyric video", false},
		{"Lyric Does Not Excuse Live", "song live lyric video", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := hasUndesiredKeyword(tc.title); got != tc.want {
				t.Errorf("hasUndesiredKeyword(%q) = %v, want %v", tc.title, got, tc.want)
			}
		})
	}
}

func TestReputableChannel(t *testing.T) {
	cases := []struct {
		name    string
		channel string
		artist  string
		want    bool
	}{
		{"Topic Channel", "Rihanna - Topic", "Rihanna", true},
		{"Vevo Channel", "RihannaVEVO", "Rihanna", true},
		{"Official Marker", "Queen Official", "Queen", true},
		{"Artist First Token", "The Beatles", "The Beatles", true},
		{"Unrelated Channel", "RandomUploads99", "Rihanna", false},
		{"Empty Channel", "", "Rihanna", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := reputableChannel(tc.channel, tc.artist); got != tc.want {
				t.Errorf("reputableChannel(%q, %q) = %v, want %v", tc.channel, tc.artist, got, tc.want)
			}
		})
	}
}

func TestWithinTolerance(t *testing.T) {
	cases := []struct {
		name     string
		targetMs int
		actualMs int
		want     bool
	}{
		{"Exact", 200000, 200000, true},
		{"Within Fixed Cap", 200000, 220000, true},
		{"Over Fixed Cap", 200000, 235000, false},
		{"Short Track Tight Cap", 60000, 80000, false},
		{"Short Track Within Proportional", 60000, 70000, true},
		{"Shorter Than Target", 200000, 175000, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := WithinTolerance(tc.targetMs, tc.actualMs, 30000, 0.2)
			if got != tc.want {
				t.Errorf("WithinTolerance(%d, %d) = %v, want %v", tc.targetMs, tc.actualMs, got, tc.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	queryFor := func(suffix string) string {
		if suffix == "" {
			return "Song Artist"
		}
		return fmt.Sprintf("Song Artist %s", suffix)
	}

	t.Run("Rejects Undesired Result On Every Template", func(t *testing.T) {
		source := &fake.FakeVideoSource{Results: map[string][]services.VideoSearchResult{}}
		for _, tpl := range templates {
			source.Results[queryFor(tpl.suffix)] = []services.VideoSearchResult{
				{ID: "bad", Title: "Song (Official Live Performance)", ChannelTitle: "ArtistVEVO"},
			}
		}

		resolver := NewResolver(Opts{Source: source})
		id, err := resolver.Resolve(context.Background(), "Song", "Artist", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "" {
			t.Errorf("expected no video, got %q", id)
		}
		if len(source.Queries) != len(templates) {
			t.Errorf("expected %d queries, got %d", len(templates), len(source.Queries))
		}
	})

	t.Run("First Template Wins", func(t *testing.T) {
		source := &fake.FakeVideoSource{Results: map[string][]services.VideoSearchResult{
			queryFor("Official Audio"): {{ID: "good", Title: "Song (Official Audio)"}},
		}}

		resolver := NewResolver(Opts{Source: source})
		id, err := resolver.Resolve(context.Background(), "Song", "Artist", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "good" {
			t.Errorf("expected good, got %q", id)
		}
		if len(source.Queries) != 1 {
			t.Errorf("expected search to stop after first template, saw %d queries", len(source.Queries))
		}
	})

	t.Run("Falls Through Templates In Order", func(t *testing.T) {
		source := &fake.FakeVideoSource{Results: map[string][]services.VideoSearchResult{
			queryFor("Audio"): {{ID: "plain", Title: "Song Audio"}},
		}}

		resolver := NewResolver(Opts{Source: source})
		id, err := resolver.Resolve(context.Background(), "Song", "Artist", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "plain" {
			t.Errorf("expected plain, got %q", id)
		}

		want := []string{
			queryFor("Official Audio"),
			queryFor("Lyric Video"),
			queryFor("(Lyrics)"),
			queryFor("Audio"),
		}
		if len(source.Queries) != len(want) {
			t.Fatalf("expected %d queries, got %d: %v", len(want), len(source.Queries), source.Queries)
		}
		for i, q := range want {
			if source.Queries[i] != q {
				t.Errorf("query %d = %q, want %q", i, source.Queries[i], q)
			}
		}
	})

	t.Run("Template Phrase Required", func(t *testing.T) {
		// The result is clean but lacks "official audio" in its title, so
		// the first template rejects it and the bare template accepts it.
		source := &fake.FakeVideoSource{Results: map[string][]services.VideoSearchResult{
			queryFor("Official Audio"): {{ID: "v", Title: "Song"}},
			queryFor(""):               {{ID: "v", Title: "Song"}},
		}}

		resolver := NewResolver(Opts{Source: source})
		id, err := resolver.Resolve(context.Background(), "Song", "Artist", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "v" {
			t.Errorf("expected v, got %q", id)
		}
		if len(source.Queries) != len(templates) {
			t.Errorf("expected all templates queried, got %d", len(source.Queries))
		}
	})

	t.Run("Topic Template Checks Channel", func(t *testing.T) {
		source := &fake.FakeVideoSource{Results: map[string][]services.VideoSearchResult{
			queryFor("Topic"): {
				{ID: "impostor", Title: "Song", ChannelTitle: "RandomUploads99"},
				{ID: "topic", Title: "Song", ChannelTitle: "Artist - Topic"},
			},
		}}

		resolver := NewResolver(Opts{Source: source})
		id, err := resolver.Resolve(context.Background(), "Song", "Artist", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "topic" {
			t.Errorf("expected topic channel result, got %q", id)
		}
	})

	t.Run("Duration Filter", func(t *testing.T) {
		source := &fake.FakeVideoSource{
			Results: map[string][]services.VideoSearchResult{
				queryFor("Official Audio"): {
					{ID: "far", Title: "Song Official Audio"},
					{ID: "near", Title: "Song Official Audio"},
				},
			},
			Durations: map[string]int{"far": 235000, "near": 220000},
		}

		resolver := NewResolver(Opts{Source: source})
		id, err := resolver.Resolve(context.Background(), "Song", "Artist", 200000)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "near" {
			t.Errorf("expected near, got %q", id)
		}
	})

	t.Run("Zero Target Skips Duration Check", func(t *testing.T) {
		source := &fake.FakeVideoSource{Results: map[string][]services.VideoSearchResult{
			queryFor("Official Audio"): {{ID: "v", Title: "Song Official Audio"}},
		}}

		resolver := NewResolver(Opts{Source: source})
		id, err := resolver.Resolve(context.Background(), "Song", "Artist", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "v" {
			t.Errorf("expected v, got %q", id)
		}
	})

	t.Run("Quota Error Propagates", func(t *testing.T) {
		source := &fake.FakeVideoSource{
			SearchErr: fmt.Errorf("%w: video source", shared.ErrQuotaExhausted),
		}

		resolver := NewResolver(Opts{Source: source})
		_, err := resolver.Resolve(context.Background(), "Song", "Artist", 0)
		if !errors.Is(err, shared.ErrQuotaExhausted) {
			t.Errorf("expected quota error, got %v", err)
		}
		if len(source.Queries) != 1 {
			t.Errorf("expected resolution to stop immediately, saw %d queries", len(source.Queries))
		}
	})

	t.Run("Transient Error Advances Template", func(t *testing.T) {
		// A transient failure on every search exhausts the plan without
		// surfacing an error.
		source := &fake.FakeVideoSource{
			SearchErr: fmt.Errorf("%w: connection reset", shared.ErrTransient),
		}

		resolver := NewResolver(Opts{Source: source})
		id, err := resolver.Resolve(context.Background(), "Song", "Artist", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "" {
			t.Errorf("expected no video, got %q", id)
		}
		if len(source.Queries) != len(templates) {
			t.Errorf("expected %d queries, got %d", len(templates), len(source.Queries))
		}
	})
}
