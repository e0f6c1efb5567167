package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tunetrivia/curator/internal/models"
	"github.com/tunetrivia/curator/internal/shared"
)

// CatalogRepository manages the curated track catalog.
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a CatalogRepository with the given database connection
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const catalogColumns = `id, source_track_id, title, artist, album_art_url, duration_ms, video_id, chart_year, chart_rank, is_active, last_used_date, created_at, updated_at`

// Upsert inserts a catalog track or refreshes its metadata when the source
// track already exists. Usage bookkeeping (last_used_date, is_active) is
// left untouched on conflict.
func (r *CatalogRepository) Upsert(track *models.CuratedTrack) error {
	if track.SourceTrackID == "" {
		return fmt.Errorf("%w: catalog track missing source track id", shared.ErrInvalidInput)
	}

	now := time.Now()
	if track.ID == "" {
		track.ID = shared.GenerateID()
		track.CreatedAt = now
	}
	track.UpdatedAt = now

	query := `
		INSERT INTO catalog_tracks (` + catalogColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_track_id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			album_art_url = excluded.album_art_url,
			duration_ms = excluded.duration_ms,
			video_id = CASE WHEN excluded.video_id != '' THEN excluded.video_id ELSE catalog_tracks.video_id END,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		track.ID,
		track.SourceTrackID,
		track.Title,
		track.Artist,
		track.AlbumArtURL,
		track.DurationMs,
		track.VideoID,
		track.ChartYear,
		track.ChartRank,
		track.IsActive,
		nullableDate(track.LastUsedDate),
		track.CreatedAt,
		track.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert catalog track: %w", err)
	}

	return nil
}

// GetBySourceTrackID retrieves a catalog track by its metadata-source ID.
func (r *CatalogRepository) GetBySourceTrackID(sourceTrackID string) (*models.CuratedTrack, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_tracks WHERE source_track_id = ?`
	return r.scanOne(r.db.QueryRow(query, sourceTrackID))
}

// ReusableTracks returns active tracks that already carry a resolved video
// and have not been used since the cooldown cutoff, in random order.
// Random order keeps repeated runs from exhausting the same tracks first.
func (r *CatalogRepository) ReusableTracks(cooldownCutoff string, limit int) ([]models.CuratedTrack, error) {
	query := `
		SELECT ` + catalogColumns + `
		FROM catalog_tracks
		WHERE is_active = 1
		  AND video_id IS NOT NULL AND video_id != ''
		  AND (last_used_date IS NULL OR last_used_date < ?)
		ORDER BY RANDOM()
		LIMIT ?
	`

	rows, err := r.db.Query(query, cooldownCutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reusable tracks: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// UnresolvedTracks returns active catalog tracks that still lack a video,
// oldest first. Used by curation to lazily resolve imported chart tracks.
func (r *CatalogRepository) UnresolvedTracks(limit int) ([]models.CuratedTrack, error) {
	query := `
		SELECT ` + catalogColumns + `
		FROM catalog_tracks
		WHERE is_active = 1 AND (video_id IS NULL OR video_id = '')
		ORDER BY created_at ASC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unresolved tracks: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// SetVideo records a resolved video for a catalog track.
func (r *CatalogRepository) SetVideo(sourceTrackID, videoID string) error {
	result, err := r.db.Exec(
		`UPDATE catalog_tracks SET video_id = ?, updated_at = ? WHERE source_track_id = ?`,
		videoID, time.Now(), sourceTrackID,
	)
	if err != nil {
		return fmt.Errorf("failed to set video: %w", err)
	}
	return requireRow(result, sourceTrackID)
}

// Deactivate marks a track unusable after an irrecoverable lookup failure.
// Rows are never hard-deleted.
func (r *CatalogRepository) Deactivate(sourceTrackID string) error {
	result, err := r.db.Exec(
		`UPDATE catalog_tracks SET is_active = 0, updated_at = ? WHERE source_track_id = ?`,
		time.Now(), sourceTrackID,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate track: %w", err)
	}
	return requireRow(result, sourceTrackID)
}

// CatalogStats summarizes the catalog for status reporting.
type CatalogStats struct {
	Total    int
	Active   int
	Resolved int // active tracks with a video
	Used     int // tracks with a last_used_date
}

// Stats computes catalog counts.
func (r *CatalogRepository) Stats() (CatalogStats, error) {
	var stats CatalogStats
	err := r.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(is_active), 0),
			COALESCE(SUM(CASE WHEN is_active = 1 AND video_id IS NOT NULL AND video_id != '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN last_used_date IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM catalog_tracks
	`).Scan(&stats.Total, &stats.Active, &stats.Resolved, &stats.Used)
	if err != nil {
		return stats, fmt.Errorf("failed to compute catalog stats: %w", err)
	}
	return stats, nil
}

// scanOne scans a single catalog row.
func (r *CatalogRepository) scanOne(row *sql.Row) (*models.CuratedTrack, error) {
	track, err := scanCatalogTrack(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: catalog track", shared.ErrTrackNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan catalog track: %w", err)
	}
	return track, nil
}

// scanAll scans every row of a catalog query.
func (r *CatalogRepository) scanAll(rows *sql.Rows) ([]models.CuratedTrack, error) {
	var tracks []models.CuratedTrack
	for rows.Next() {
		track, err := scanCatalogTrack(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog track: %w", err)
		}
		tracks = append(tracks, *track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate catalog tracks: %w", err)
	}
	return tracks, nil
}

func scanCatalogTrack(scan func(...any) error) (*models.CuratedTrack, error) {
	var track models.CuratedTrack
	var albumArt, videoID, lastUsed sql.NullString
	var durationMs, chartYear, chartRank sql.NullInt64

	err := scan(
		&track.ID,
		&track.SourceTrackID,
		&track.Title,
		&track.Artist,
		&albumArt,
		&durationMs,
		&videoID,
		&chartYear,
		&chartRank,
		&track.IsActive,
		&lastUsed,
		&track.CreatedAt,
		&track.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	track.AlbumArtURL = albumArt.String
	track.VideoID = videoID.String
	track.LastUsedDate = lastUsed.String
	track.DurationMs = int(durationMs.Int64)
	track.ChartYear = int(chartYear.Int64)
	track.ChartRank = int(chartRank.Int64)
	return &track, nil
}

// nullableDate converts an empty date string to NULL.
func nullableDate(date string) any {
	if date == "" {
		return nil
	}
	return date
}

// requireRow converts a zero-row update into a not-found error.
func requireRow(result sql.Result, sourceTrackID string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: catalog track %s", shared.ErrTrackNotFound, sourceTrackID)
	}
	return nil
}
