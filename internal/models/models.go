package models

import (
	"fmt"
	"time"
)

// TrackIdea is an unverified candidate from a non-authoritative source
// (genre tags, chart imports). Ephemeral: matched against the metadata
// source and then discarded.
type TrackIdea struct {
	Title  string
	Artist string
	Album  string
}

// CanonicalTrack is authoritative metadata resolved via the metadata source.
//
// SourceTrackID uniquely identifies the track within a curation run;
// candidates from different strategies are deduplicated on it before video
// resolution.
type CanonicalTrack struct {
	SourceTrackID string
	Title         string
	Artist        string // joined multi-artist string
	AlbumArtURL   string
	DurationMs    int // 0 when the source did not report one
}

// Validate checks that the track carries the fields curation depends on.
func (t CanonicalTrack) Validate() error {
	if t.SourceTrackID == "" {
		return fmt.Errorf("canonical track missing source track id")
	}
	if t.Title == "" || t.Artist == "" {
		return fmt.Errorf("canonical track %s missing title or artist", t.SourceTrackID)
	}
	return nil
}

// CuratedTrack is a catalog row: a canonical track plus its resolved video
// and usage bookkeeping. Rows are never hard-deleted; irrecoverable lookup
// failures deactivate them instead.
type CuratedTrack struct {
	ID            string
	SourceTrackID string
	Title         string
	Artist        string
	AlbumArtURL   string
	DurationMs    int
	VideoID       string // empty until resolved
	ChartYear     int
	ChartRank     int
	IsActive      bool
	LastUsedDate  string // "YYYY-MM-DD", empty when never used
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasVideo reports whether the track already carries a playable video and
// can skip resolution during catalog reuse.
func (t CuratedTrack) HasVideo() bool {
	return t.VideoID != ""
}

// Canonical converts the catalog row back to its canonical form for use in
// a run's candidate list.
func (t CuratedTrack) Canonical() CanonicalTrack {
	return CanonicalTrack{
		SourceTrackID: t.SourceTrackID,
		Title:         t.Title,
		Artist:        t.Artist,
		AlbumArtURL:   t.AlbumArtURL,
		DurationMs:    t.DurationMs,
	}
}

// ChallengeEntry is one persisted row of a daily challenge: a snapshot of a
// curated track at a position for a date. Immutable once written.
type ChallengeEntry struct {
	ID            string
	ChallengeDate string // "YYYY-MM-DD"
	Position      int    // 1-based order within the challenge
	SourceTrackID string
	Title         string
	Artist        string
	AlbumArtURL   string
	DurationMs    int
	VideoID       string
	CreatedAt     time.Time
}

// Validate checks entry invariants before insert.
func (e ChallengeEntry) Validate() error {
	if e.ChallengeDate == "" {
		return fmt.Errorf("challenge entry missing date")
	}
	if e.Position <= 0 {
		return fmt.Errorf("challenge entry position must be positive, got %d", e.Position)
	}
	if e.SourceTrackID == "" || e.VideoID == "" {
		return fmt.Errorf("challenge entry for %s missing track or video id", e.ChallengeDate)
	}
	return nil
}

// DateFormat is the canonical layout for challenge and last-used dates.
const DateFormat = "2006-01-02"
