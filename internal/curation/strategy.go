// package curation implements track discovery for daily challenges.
//
// An ordered chain of [Strategy] implementations feeds the [Orchestrator]:
// catalog reuse first (cheapest, highest confidence), then the catalog
// backlog of imported-but-unresolved tracks, then genre-tag discovery,
// playlist popularity search, and finally new-release scraping. The chain
// short-circuits once enough raw candidates are accumulated.
package curation

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/tunetrivia/curator/internal/match"
	"github.com/tunetrivia/curator/internal/models"
	"github.com/tunetrivia/curator/internal/repositories"
	"github.com/tunetrivia/curator/internal/services"
	"github.com/tunetrivia/curator/internal/shared"
)

// RunInfo carries per-run parameters shared by all strategies.
type RunInfo struct {
	Date           string // challenge date being curated, "YYYY-MM-DD"
	CooldownCutoff string // last_used_date cutoff for catalog reuse
}

// Candidate is a discovered track, optionally carrying a pre-resolved video
// (catalog reuse) and its catalog provenance.
type Candidate struct {
	Track       models.CanonicalTrack
	VideoID     string // non-empty when the catalog already resolved it
	FromCatalog bool
}

// Strategy discovers up to need candidate tracks. A strategy may return
// partial results alongside an error; the orchestrator keeps what it got.
type Strategy interface {
	Name() string
	Discover(ctx context.Context, run RunInfo, need int) ([]Candidate, error)
}

// maxConsecutiveTransient bounds how many transient failures a discovery
// loop tolerates before abandoning the strategy for this run.
const maxConsecutiveTransient = 3

// CatalogReuseStrategy returns previously validated tracks that already
// carry a resolved video and are outside the cooldown window.
type CatalogReuseStrategy struct {
	catalog *repositories.CatalogRepository
}

// NewCatalogReuseStrategy creates the reuse strategy.
func NewCatalogReuseStrategy(catalog *repositories.CatalogRepository) *CatalogReuseStrategy {
	return &CatalogReuseStrategy{catalog: catalog}
}

func (s *CatalogReuseStrategy) Name() string { return "catalog_reuse" }

func (s *CatalogReuseStrategy) Discover(_ context.Context, run RunInfo, need int) ([]Candidate, error) {
	tracks, err := s.catalog.ReusableTracks(run.CooldownCutoff, need)
	if err != nil {
		return nil, fmt.Errorf("catalog reuse failed: %w", err)
	}

	candidates := make([]Candidate, 0, len(tracks))
	for _, track := range tracks {
		candidates = append(candidates, Candidate{
			Track:       track.Canonical(),
			VideoID:     track.VideoID,
			FromCatalog: true,
		})
	}
	return candidates, nil
}

// CatalogBacklogStrategy returns imported catalog tracks that are still
// missing a video, so chart imports get resolved lazily during curation.
type CatalogBacklogStrategy struct {
	catalog *repositories.CatalogRepository
}

// NewCatalogBacklogStrategy creates the backlog strategy.
func NewCatalogBacklogStrategy(catalog *repositories.CatalogRepository) *CatalogBacklogStrategy {
	return &CatalogBacklogStrategy{catalog: catalog}
}

func (s *CatalogBacklogStrategy) Name() string { return "catalog_backlog" }

func (s *CatalogBacklogStrategy) Discover(_ context.Context, _ RunInfo, need int) ([]Candidate, error) {
	tracks, err := s.catalog.UnresolvedTracks(need)
	if err != nil {
		return nil, fmt.Errorf("catalog backlog failed: %w", err)
	}

	candidates := make([]Candidate, 0, len(tracks))
	for _, track := range tracks {
		candidates = append(candidates, Candidate{
			Track:       track.Canonical(),
			FromCatalog: true,
		})
	}
	return candidates, nil
}

// GenreStrategy discovers tracks by genre tag: the genre source produces
// unverified ideas, each canonicalized against the metadata source through
// the matcher.
type GenreStrategy struct {
	genres   services.GenreSource
	metadata services.MetadataSource
	matcher  *match.Matcher
	tags     []string
	perTag   int
	logger   *log.Logger
}

// GenreStrategyOpts configures a [GenreStrategy].
type GenreStrategyOpts struct {
	Genres   services.GenreSource
	Metadata services.MetadataSource
	Matcher  *match.Matcher
	Tags     []string
	PerTag   int // ideas fetched per tag (default 25)
	Logger   *log.Logger
}

// NewGenreStrategy creates the genre/tag discovery strategy.
func NewGenreStrategy(opts GenreStrategyOpts) *GenreStrategy {
	if opts.PerTag <= 0 {
		opts.PerTag = 25
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &GenreStrategy{
		genres:   opts.Genres,
		metadata: opts.Metadata,
		matcher:  opts.Matcher,
		tags:     opts.Tags,
		perTag:   opts.PerTag,
		logger:   shared.WithLogger(opts.Logger, "strategy", "genre"),
	}
}

func (s *GenreStrategy) Name() string { return "genre" }

func (s *GenreStrategy) Discover(ctx context.Context, _ RunInfo, need int) ([]Candidate, error) {
	var candidates []Candidate
	transientRun := 0

	for _, tag := range s.tags {
		if len(candidates) >= need {
			break
		}

		ideas, err := s.genres.RecordingsByTag(ctx, tag, s.perTag)
		if err != nil {
			if abandon := s.classifyStrategyError(err, &transientRun, "tag search", tag); abandon != nil {
				return candidates, abandon
			}
			continue
		}
		transientRun = 0

		for _, idea := range ideas {
			if len(candidates) >= need {
				break
			}

			idea.Title = match.CleanTitle(idea.Title)
			idea.Artist = match.CleanArtist(idea.Artist)
			if idea.Title == "" || idea.Artist == "" {
				continue
			}

			query := fmt.Sprintf("%s %s", idea.Title, idea.Artist)
			results, err := s.metadata.SearchTracks(ctx, query, 5)
			if err != nil {
				if abandon := s.classifyStrategyError(err, &transientRun, "metadata search", query); abandon != nil {
					return candidates, abandon
				}
				continue
			}
			transientRun = 0

			if best := s.matcher.FindBestMatch(idea, results); best != nil {
				candidates = append(candidates, Candidate{Track: *best})
			}
		}
	}

	return candidates, nil
}

// classifyStrategyError decides whether a source error abandons the
// strategy. Auth and quota errors always abandon (the orchestrator decides
// whether the whole run dies); transient errors abandon only after a
// consecutive run of them.
func (s *GenreStrategy) classifyStrategyError(err error, transientRun *int, op, subject string) error {
	if errors.Is(err, shared.ErrSourceAuth) || errors.Is(err, shared.ErrQuotaExhausted) || errors.Is(err, context.Canceled) {
		return err
	}

	s.logger.Warn(op+" failed", "subject", subject, "error", err)
	if errors.Is(err, shared.ErrTransient) {
		*transientRun++
		if *transientRun >= maxConsecutiveTransient {
			return fmt.Errorf("%w: %d consecutive failures", shared.ErrTransient, *transientRun)
		}
	}
	return nil
}

// popularityQueries seed the playlist search strategy.
var popularityQueries = []string{"Today's Top Hits", "Top 50", "Viral Hits"}

// PlaylistStrategy discovers tracks from popular public playlists.
type PlaylistStrategy struct {
	metadata services.MetadataSource
	logger   *log.Logger
}

// NewPlaylistStrategy creates the playlist popularity strategy.
func NewPlaylistStrategy(metadata services.MetadataSource, logger *log.Logger) *PlaylistStrategy {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &PlaylistStrategy{
		metadata: metadata,
		logger:   shared.WithLogger(logger, "strategy", "playlist"),
	}
}

func (s *PlaylistStrategy) Name() string { return "playlist" }

func (s *PlaylistStrategy) Discover(ctx context.Context, _ RunInfo, need int) ([]Candidate, error) {
	var candidates []Candidate

	for _, query := range popularityQueries {
		if len(candidates) >= need {
			break
		}

		playlists, err := s.metadata.SearchPlaylists(ctx, query, 3)
		if err != nil {
			if errors.Is(err, shared.ErrSourceAuth) || errors.Is(err, shared.ErrQuotaExhausted) || errors.Is(err, context.Canceled) {
				return candidates, err
			}
			s.logger.Warn("playlist search failed", "query", query, "error", err)
			continue
		}

		for _, playlist := range playlists {
			if len(candidates) >= need {
				break
			}

			tracks, err := s.metadata.PlaylistTracks(ctx, playlist.ID, need-len(candidates))
			if err != nil {
				if errors.Is(err, shared.ErrSourceAuth) || errors.Is(err, shared.ErrQuotaExhausted) || errors.Is(err, context.Canceled) {
					return candidates, err
				}
				s.logger.Warn("playlist fetch failed", "playlist", playlist.ID, "error", err)
				continue
			}

			for _, track := range tracks {
				candidates = append(candidates, Candidate{Track: track})
			}
		}
	}

	return candidates, nil
}

// NewReleasesStrategy discovers tracks from recently released albums.
type NewReleasesStrategy struct {
	metadata services.MetadataSource
	logger   *log.Logger
}

// NewNewReleasesStrategy creates the new-releases strategy.
func NewNewReleasesStrategy(metadata services.MetadataSource, logger *log.Logger) *NewReleasesStrategy {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &NewReleasesStrategy{
		metadata: metadata,
		logger:   shared.WithLogger(logger, "strategy", "new_releases"),
	}
}

func (s *NewReleasesStrategy) Name() string { return "new_releases" }

func (s *NewReleasesStrategy) Discover(ctx context.Context, _ RunInfo, need int) ([]Candidate, error) {
	albums, err := s.metadata.NewReleaseAlbums(ctx, 10)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, album := range albums {
		if len(candidates) >= need {
			break
		}

		tracks, err := s.metadata.AlbumTracks(ctx, album.ID)
		if err != nil {
			if errors.Is(err, shared.ErrSourceAuth) || errors.Is(err, shared.ErrQuotaExhausted) || errors.Is(err, context.Canceled) {
				return candidates, err
			}
			s.logger.Warn("album fetch failed", "album", album.ID, "error", err)
			continue
		}

		for _, track := range tracks {
			if len(candidates) >= need {
				break
			}
			candidates = append(candidates, Candidate{Track: track})
		}
	}

	return candidates, nil
}
