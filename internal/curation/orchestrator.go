package curation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tunetrivia/curator/internal/models"
	"github.com/tunetrivia/curator/internal/repositories"
	"github.com/tunetrivia/curator/internal/shared"
)

// VideoResolver is the part of the video resolver the orchestrator needs;
// an interface so tests can substitute a fake.
type VideoResolver interface {
	Resolve(ctx context.Context, title, artist string, durationMs int) (string, error)
}

// RunResult summarizes one curation run.
type RunResult struct {
	Date           string
	Desired        int
	Persisted      int
	CandidatesSeen int  // unique candidates accumulated before resolution
	Reused         int  // accepted tracks that skipped video resolution
	AlreadyCurated bool // run short-circuited, Persisted holds existing count
}

// Orchestrator runs the discovery strategy chain, resolves videos, and
// persists the day's challenge.
type Orchestrator struct {
	strategies []Strategy
	resolver   VideoResolver
	catalog    *repositories.CatalogRepository
	challenges *repositories.ChallengeRepository
	cfg        shared.CurationConfig
	logger     *log.Logger
	rng        *rand.Rand
}

// OrchestratorOpts configures an [Orchestrator].
type OrchestratorOpts struct {
	Strategies []Strategy
	Resolver   VideoResolver
	Catalog    *repositories.CatalogRepository
	Challenges *repositories.ChallengeRepository
	Config     shared.CurationConfig
	Logger     *log.Logger
	Seed       int64 // shuffle seed, 0 means time-based
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(opts OrchestratorOpts) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Config.DailyCount <= 0 {
		opts.Config.DailyCount = 10
	}
	if opts.Config.OverfetchMultiplier <= 0 {
		opts.Config.OverfetchMultiplier = 2
	}
	if opts.Config.ReuseCooldownDays <= 0 {
		opts.Config.ReuseCooldownDays = 30
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}

	return &Orchestrator{
		strategies: opts.Strategies,
		resolver:   opts.Resolver,
		catalog:    opts.Catalog,
		challenges: opts.Challenges,
		cfg:        opts.Config,
		logger:     shared.WithLogger(opts.Logger, "component", "orchestrator"),
		rng:        rand.New(rand.NewSource(opts.Seed)),
	}
}

// Curate runs the full pipeline for a challenge date. Idempotent: when the
// date already has persisted entries the run is a no-op returning the
// existing count. The run fails only when zero tracks survive end to end;
// a partial count below the target is persisted with a warning, since
// gameplay degrades gracefully with fewer songs.
func (o *Orchestrator) Curate(ctx context.Context, date string) (*RunResult, error) {
	logger := shared.WithLogger(o.logger, "date", date)
	result := &RunResult{Date: date, Desired: o.cfg.DailyCount}

	existing, err := o.challenges.ExistingCountForDate(date)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		logger.Info("period already curated, skipping", "entries", existing)
		result.AlreadyCurated = true
		result.Persisted = existing
		return result, nil
	}

	run, err := o.runInfo(date)
	if err != nil {
		return nil, err
	}

	candidates, err := o.discover(ctx, run, logger)
	if err != nil {
		return nil, err
	}
	result.CandidatesSeen = len(candidates)

	o.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	accepted, reused := o.resolve(ctx, candidates, logger)
	result.Reused = reused

	if len(accepted) == 0 {
		return nil, fmt.Errorf("%w: date %s", shared.ErrNoCandidates, date)
	}
	if len(accepted) < o.cfg.DailyCount {
		logger.Warn("partial curation", "resolved", len(accepted), "desired", o.cfg.DailyCount)
	}

	tracks := make([]models.CuratedTrack, 0, len(accepted))
	for _, c := range accepted {
		track := models.CuratedTrack{
			SourceTrackID: c.Track.SourceTrackID,
			Title:         c.Track.Title,
			Artist:        c.Track.Artist,
			AlbumArtURL:   c.Track.AlbumArtURL,
			DurationMs:    c.Track.DurationMs,
			VideoID:       c.VideoID,
			IsActive:      true,
		}
		if err := o.catalog.Upsert(&track); err != nil {
			return nil, fmt.Errorf("failed to store curated track: %w", err)
		}
		tracks = append(tracks, track)
	}

	persisted, err := o.challenges.Commit(date, tracks)
	if err != nil {
		return nil, fmt.Errorf("failed to persist challenge: %w", err)
	}
	result.Persisted = persisted

	logger.Info("curation complete", "persisted", persisted, "reused", result.Reused, "candidates", result.CandidatesSeen)
	return result, nil
}

// runInfo derives per-run parameters from the challenge date.
func (o *Orchestrator) runInfo(date string) (RunInfo, error) {
	day, err := time.Parse(models.DateFormat, date)
	if err != nil {
		return RunInfo{}, fmt.Errorf("%w: bad challenge date %q", shared.ErrInvalidInput, date)
	}

	cutoff := day.AddDate(0, 0, -o.cfg.ReuseCooldownDays)
	return RunInfo{
		Date:           date,
		CooldownCutoff: cutoff.Format(models.DateFormat),
	}, nil
}

// discover runs the strategy chain, accumulating unique candidates (deduped
// by source track ID) until the over-fetch target is reached or strategies
// exhaust. Quota exhaustion abandons the failing strategy but keeps what
// earlier strategies accumulated; only auth failures abort the run.
func (o *Orchestrator) discover(ctx context.Context, run RunInfo, logger *log.Logger) ([]Candidate, error) {
	target := o.cfg.DailyCount * o.cfg.OverfetchMultiplier
	seen := make(map[string]bool)
	var candidates []Candidate

	for _, strategy := range o.strategies {
		need := target - len(candidates)
		if need <= 0 {
			break
		}

		found, err := strategy.Discover(ctx, run, need)

		added := 0
		for _, c := range found {
			if c.Track.SourceTrackID == "" || seen[c.Track.SourceTrackID] {
				continue
			}
			if err := c.Track.Validate(); err != nil {
				continue
			}
			seen[c.Track.SourceTrackID] = true
			candidates = append(candidates, c)
			added++
		}

		if err != nil {
			if errors.Is(err, shared.ErrSourceAuth) {
				return nil, fmt.Errorf("strategy %s: %w", strategy.Name(), err)
			}
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			logger.Warn("strategy abandoned", "strategy", strategy.Name(), "yielded", added, "error", err)
			continue
		}

		logger.Info("strategy complete", "strategy", strategy.Name(), "yielded", added, "total", len(candidates))
	}

	return candidates, nil
}

// resolve walks shuffled candidates, accepting pre-resolved ones directly
// and calling the video resolver for the rest, until the daily count is
// reached. A quota or auth failure from the video source stops resolution
// and keeps what was already accepted. Catalog backlog tracks that exhaust
// every template are deactivated so they stop clogging future runs.
func (o *Orchestrator) resolve(ctx context.Context, candidates []Candidate, logger *log.Logger) ([]Candidate, int) {
	var accepted []Candidate
	reused := 0

	for _, c := range candidates {
		if len(accepted) >= o.cfg.DailyCount {
			break
		}

		if c.VideoID != "" {
			accepted = append(accepted, c)
			reused++
			continue
		}

		videoID, err := o.resolver.Resolve(ctx, c.Track.Title, c.Track.Artist, c.Track.DurationMs)
		if err != nil {
			logger.Warn("video resolution stopped", "error", err)
			break
		}
		if videoID == "" {
			if c.FromCatalog {
				if err := o.catalog.Deactivate(c.Track.SourceTrackID); err != nil {
					logger.Warn("failed to deactivate track", "track", c.Track.SourceTrackID, "error", err)
				}
			}
			continue
		}

		c.VideoID = videoID
		accepted = append(accepted, c)
	}

	return accepted, reused
}
