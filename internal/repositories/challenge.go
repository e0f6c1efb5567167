package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tunetrivia/curator/internal/models"
	"github.com/tunetrivia/curator/internal/shared"
)

// ChallengeRepository is the persistence sink for daily challenges.
type ChallengeRepository struct {
	db *sql.DB
}

// NewChallengeRepository creates a ChallengeRepository with the given database connection
func NewChallengeRepository(db *sql.DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

// ExistingCountForDate returns how many challenge entries already exist for
// a date. A non-zero count means the period is curated and a run is a no-op.
func (r *ChallengeRepository) ExistingCountForDate(date string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM daily_challenges WHERE challenge_date = ?`, date).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count challenge entries: %w", err)
	}
	return count, nil
}

// Commit writes a full challenge for a date in a single transaction:
// one row per track with sequential positions starting at 1, plus a
// last_used_date mark on each catalog entry. Any failure rolls back the
// whole batch; a half-written challenge is worse than none.
//
// When entries already exist for the date the commit short-circuits and
// returns the existing count, making re-runs idempotent.
func (r *ChallengeRepository) Commit(date string, tracks []models.CuratedTrack) (int, error) {
	if date == "" {
		return 0, fmt.Errorf("%w: challenge date required", shared.ErrInvalidInput)
	}
	if len(tracks) == 0 {
		return 0, fmt.Errorf("%w: no tracks to commit", shared.ErrInvalidInput)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM daily_challenges WHERE challenge_date = ?`, date).Scan(&existing); err != nil {
		return 0, fmt.Errorf("failed to check existing entries: %w", err)
	}
	if existing > 0 {
		return existing, nil
	}

	now := time.Now()
	for i, track := range tracks {
		entry := models.ChallengeEntry{
			ID:            shared.GenerateID(),
			ChallengeDate: date,
			Position:      i + 1,
			SourceTrackID: track.SourceTrackID,
			Title:         track.Title,
			Artist:        track.Artist,
			AlbumArtURL:   track.AlbumArtURL,
			DurationMs:    track.DurationMs,
			VideoID:       track.VideoID,
			CreatedAt:     now,
		}
		if err := entry.Validate(); err != nil {
			return 0, fmt.Errorf("validation failed: %w", err)
		}

		_, err := tx.Exec(`
			INSERT INTO daily_challenges (id, challenge_date, position, source_track_id, title, artist, album_art_url, duration_ms, video_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			entry.ID,
			entry.ChallengeDate,
			entry.Position,
			entry.SourceTrackID,
			entry.Title,
			entry.Artist,
			entry.AlbumArtURL,
			entry.DurationMs,
			entry.VideoID,
			entry.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return 0, fmt.Errorf("challenge entry conflict for %s position %d: %w", date, entry.Position, err)
			}
			return 0, fmt.Errorf("failed to insert challenge entry: %w", err)
		}

		if _, err := tx.Exec(
			`UPDATE catalog_tracks SET last_used_date = ?, updated_at = ? WHERE source_track_id = ?`,
			date, now, track.SourceTrackID,
		); err != nil {
			return 0, fmt.Errorf("failed to mark catalog entry used: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit challenge: %w", err)
	}

	return len(tracks), nil
}

// EntriesForDate retrieves a date's challenge entries in position order.
func (r *ChallengeRepository) EntriesForDate(date string) ([]models.ChallengeEntry, error) {
	rows, err := r.db.Query(`
		SELECT id, challenge_date, position, source_track_id, title, artist, album_art_url, duration_ms, video_id, created_at
		FROM daily_challenges
		WHERE challenge_date = ?
		ORDER BY position ASC
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenge entries: %w", err)
	}
	defer rows.Close()

	var entries []models.ChallengeEntry
	for rows.Next() {
		var entry models.ChallengeEntry
		var albumArt sql.NullString
		var durationMs sql.NullInt64

		err := rows.Scan(
			&entry.ID,
			&entry.ChallengeDate,
			&entry.Position,
			&entry.SourceTrackID,
			&entry.Title,
			&entry.Artist,
			&albumArt,
			&durationMs,
			&entry.VideoID,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge entry: %w", err)
		}

		entry.AlbumArtURL = albumArt.String
		entry.DurationMs = int(durationMs.Int64)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate challenge entries: %w", err)
	}

	return entries, nil
}

// isUniqueViolation reports whether an insert failed on a unique constraint.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
