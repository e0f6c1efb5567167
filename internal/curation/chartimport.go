package curation

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/tunetrivia/curator/internal/match"
	"github.com/tunetrivia/curator/internal/models"
	"github.com/tunetrivia/curator/internal/repositories"
	"github.com/tunetrivia/curator/internal/services"
	"github.com/tunetrivia/curator/internal/shared"
)

// ChartImporter seeds the catalog from year-end chart CSVs
// (year,rank,title,artist). Each row is cleaned, canonicalized against the
// metadata source through the matcher, and upserted into the catalog.
// Videos are not resolved at import time; the backlog strategy picks
// imported tracks up lazily during curation runs.
type ChartImporter struct {
	metadata services.MetadataSource
	matcher  *match.Matcher
	catalog  *repositories.CatalogRepository
	logger   *log.Logger
}

// NewChartImporter creates a chart importer.
func NewChartImporter(metadata services.MetadataSource, matcher *match.Matcher, catalog *repositories.CatalogRepository, logger *log.Logger) *ChartImporter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ChartImporter{
		metadata: metadata,
		matcher:  matcher,
		catalog:  catalog,
		logger:   shared.WithLogger(logger, "component", "chart_import"),
	}
}

// ImportResult summarizes an import.
type ImportResult struct {
	Rows    int // data rows read
	Matched int // rows canonicalized and stored
	Skipped int // rows with no confident match or unusable fields
}

// ImportCSV reads chart rows and stores matched tracks. Auth and quota
// failures abort the import; per-row match failures are skipped and
// counted.
func (im *ChartImporter) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	result := &ImportResult{}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, fmt.Errorf("failed to read chart csv: %w", err)
		}

		if len(record) < 4 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(record[0]), "year") {
			continue // header row
		}

		result.Rows++

		year, _ := strconv.Atoi(strings.TrimSpace(record[0]))
		rank, _ := strconv.Atoi(strings.TrimSpace(record[1]))
		title := match.CleanTitle(strings.TrimSpace(record[2]))
		artist := match.CleanArtist(strings.TrimSpace(record[3]))

		if title == "" || artist == "" {
			result.Skipped++
			continue
		}

		idea := models.TrackIdea{Title: title, Artist: artist}

		query := fmt.Sprintf("%s %s", title, artist)
		results, err := im.metadata.SearchTracks(ctx, query, 5)
		if err != nil {
			if errors.Is(err, shared.ErrSourceAuth) || errors.Is(err, shared.ErrQuotaExhausted) || errors.Is(err, context.Canceled) {
				return result, err
			}
			im.logger.Warn("metadata search failed", "query", query, "error", err)
			result.Skipped++
			continue
		}

		best := im.matcher.FindBestMatch(idea, results)
		if best == nil {
			im.logger.Debug("no confident match", "title", title, "artist", artist)
			result.Skipped++
			continue
		}

		track := models.CuratedTrack{
			SourceTrackID: best.SourceTrackID,
			Title:         best.Title,
			Artist:        best.Artist,
			AlbumArtURL:   best.AlbumArtURL,
			DurationMs:    best.DurationMs,
			ChartYear:     year,
			ChartRank:     rank,
			IsActive:      true,
		}
		if err := im.catalog.Upsert(&track); err != nil {
			return result, fmt.Errorf("failed to store imported track: %w", err)
		}
		result.Matched++
	}

	im.logger.Info("chart import complete", "rows", result.Rows, "matched", result.Matched, "skipped", result.Skipped)
	return result, nil
}
