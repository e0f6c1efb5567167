package match

import (
	"strings"

	"github.com/tunetrivia/curator/internal/models"
)

// Scoring weights. An artist containment match is the entry gate; title
// evidence pushes a candidate over the confidence floor.
const (
	scoreArtistContains = 5
	scoreArtistExact    = 5
	scoreTitleExact     = 10
	scoreTitleContains  = 3
	scoreRawTitleInside = 2

	// DefaultThreshold is the minimum accepted score. A bare artist
	// containment match scores 5 and fails the floor; it takes an exact
	// artist or title evidence to qualify.
	DefaultThreshold = 8
)

// Matcher scores metadata search results against a track idea.
type Matcher struct {
	threshold int
}

// NewMatcher creates a matcher with the given confidence floor. A
// non-positive threshold falls back to [DefaultThreshold].
func NewMatcher(threshold int) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// FindBestMatch returns the highest-scoring candidate at or above the
// confidence floor, or nil when none qualifies. Ties keep the first
// encountered candidate, so iteration order is deterministic.
func (m *Matcher) FindBestMatch(idea models.TrackIdea, candidates []models.CanonicalTrack) *models.CanonicalTrack {
	ideaTitle := Normalize(idea.Title)
	ideaArtist := Normalize(idea.Artist)
	if ideaTitle == "" || ideaArtist == "" {
		return nil
	}

	best := -1
	bestScore := 0

	for i, candidate := range candidates {
		score, ok := m.score(idea, ideaTitle, ideaArtist, candidate)
		if !ok {
			continue
		}
		if score > bestScore {
			best = i
			bestScore = score
		}
	}

	if best < 0 || bestScore < m.threshold {
		return nil
	}
	return &candidates[best]
}

// score computes a single candidate's score. The second return is false when
// the candidate is disqualified outright (artist mismatch).
func (m *Matcher) score(idea models.TrackIdea, ideaTitle, ideaArtist string, candidate models.CanonicalTrack) (int, bool) {
	candTitle := Normalize(candidate.Title)
	candArtist := Normalize(candidate.Artist)

	if !strings.Contains(candArtist, ideaArtist) && !strings.Contains(ideaArtist, candArtist) {
		return 0, false
	}

	score := scoreArtistContains
	if candArtist == ideaArtist {
		score += scoreArtistExact
	}

	switch {
	case candTitle == ideaTitle:
		score += scoreTitleExact
	case strings.Contains(candTitle, ideaTitle) || strings.Contains(ideaTitle, candTitle):
		score += scoreTitleContains
	}

	if idea.Title != "" && strings.Contains(candidate.Title, idea.Title) {
		score += scoreRawTitleInside
	}

	return score, true
}
