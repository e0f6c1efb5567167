package match

import (
	"testing"

	"github.com/tunetrivia/curator/internal/models"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"Lowercases", "YESTERDAY", "yesterday"},
		{"Strips Punctuation", "Don't Stop Me Now!", "dont stop me now"},
		{"Collapses Whitespace", "  The   Beatles ", "the beatles"},
		{"Keeps Digits", "Summer of '69", "summer of 69"},
		{"Empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.input); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestCleanArtist(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"Plain Artist", "Rihanna", "Rihanna"},
		{"Featuring", "Rihanna featuring Jay-Z", "Rihanna"},
		{"Feat Dot", "Rihanna feat. Jay-Z", "Rihanna"},
		{"Ampersand", "Simon & Garfunkel", "Simon"},
		{"Duet With Beats With", "Tony Bennett duet with Lady Gaga", "Tony Bennett"},
		{"Various Artists", "Various Artists", ""},
		{"Case Insensitive Separator", "A Featuring B", "A"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanArtist(tc.input); got != tc.want {
				t.Errorf("CleanArtist(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestCleanTitle(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"Plain Title", "Umbrella", "Umbrella"},
		{"Parenthetical", "Umbrella (feat. Jay-Z)", "Umbrella"},
		{"Bracket", "Umbrella[Remastered]", "Umbrella"},
		{"Dash Suffix", "Umbrella - 2016 Remaster", "Umbrella"},
		{"Wrapping Quotes", `"Umbrella"`, "Umbrella"},
		{"Slash", "Umbrella / Cinderella", "Umbrella"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanTitle(tc.input); got != tc.want {
				t.Errorf("CleanTitle(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestFindBestMatch(t *testing.T) {
	matcher := NewMatcher(0)

	t.Run("Exact Match Beats Artist Mismatch", func(t *testing.T) {
		idea := models.TrackIdea{Title: "Yesterday", Artist: "The Beatles"}
		candidates := []models.CanonicalTrack{
			{SourceTrackID: "a", Title: "Yesterday", Artist: "The Beatles"},
			{SourceTrackID: "b", Title: "Yesterday (Live)", Artist: "Beatles Tribute"},
		}

		got := matcher.FindBestMatch(idea, candidates)
		if got == nil {
			t.Fatal("expected a match")
		}
		if got.SourceTrackID != "a" {
			t.Errorf("expected exact match candidate, got %s", got.SourceTrackID)
		}
	})

	t.Run("Artist Mismatch Disqualifies", func(t *testing.T) {
		idea := models.TrackIdea{Title: "Yesterday", Artist: "The Beatles"}
		candidates := []models.CanonicalTrack{
			{SourceTrackID: "b", Title: "Yesterday", Artist: "Boyz II Men"},
		}

		if got := matcher.FindBestMatch(idea, candidates); got != nil {
			t.Errorf("expected no match, got %s", got.SourceTrackID)
		}
	})

	t.Run("Below Threshold Rejected", func(t *testing.T) {
		// Artist containment alone scores 5, under the floor of 8.
		idea := models.TrackIdea{Title: "Yesterday", Artist: "Beatles"}
		candidates := []models.CanonicalTrack{
			{SourceTrackID: "c", Title: "Something Else Entirely", Artist: "The Beatles Revival Band"},
		}

		if got := matcher.FindBestMatch(idea, candidates); got != nil {
			t.Errorf("expected no match below threshold, got %s", got.SourceTrackID)
		}
	})

	t.Run("Title Containment Qualifies", func(t *testing.T) {
		idea := models.TrackIdea{Title: "Yesterday", Artist: "The Beatles"}
		candidates := []models.CanonicalTrack{
			{SourceTrackID: "d", Title: "Yesterday - Remastered 2009", Artist: "The Beatles"},
		}

		got := matcher.FindBestMatch(idea, candidates)
		if got == nil {
			t.Fatal("expected containment match")
		}
		if got.SourceTrackID != "d" {
			t.Errorf("unexpected candidate %s", got.SourceTrackID)
		}
	})

	t.Run("Ties Keep First Encountered", func(t *testing.T) {
		idea := models.TrackIdea{Title: "Yesterday", Artist: "The Beatles"}
		candidates := []models.CanonicalTrack{
			{SourceTrackID: "first", Title: "Yesterday", Artist: "The Beatles"},
			{SourceTrackID: "second", Title: "Yesterday", Artist: "The Beatles"},
		}

		got := matcher.FindBestMatch(idea, candidates)
		if got == nil {
			t.Fatal("expected a match")
		}
		if got.SourceTrackID != "first" {
			t.Errorf("expected first candidate on tie, got %s", got.SourceTrackID)
		}
	})

	t.Run("Empty Idea Returns None", func(t *testing.T) {
		idea := models.TrackIdea{}
		candidates := []models.CanonicalTrack{
			{SourceTrackID: "x", Title: "Anything", Artist: "Anyone"},
		}

		if got := matcher.FindBestMatch(idea, candidates); got != nil {
			t.Error("expected no match for empty idea")
		}
	})

	t.Run("Custom Threshold", func(t *testing.T) {
		strict := NewMatcher(20)
		idea := models.TrackIdea{Title: "Yesterday", Artist: "The Beatles"}
		candidates := []models.CanonicalTrack{
			{SourceTrackID: "a", Title: "Yesterday", Artist: "The Beatles"},
		}

		// Exact title + exact artist + raw containment scores 22.
		if got := strict.FindBestMatch(idea, candidates); got == nil {
			t.Error("expected exact match to clear a threshold of 20")
		}

		stricter := NewMatcher(23)
		if got := stricter.FindBestMatch(idea, candidates); got != nil {
			t.Error("expected match to fail a threshold of 23")
		}
	})
}
