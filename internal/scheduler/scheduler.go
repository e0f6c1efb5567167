// package scheduler triggers curation runs: once at process startup after a
// settle delay, then daily at a fixed local time.
//
// Exclusivity is a run-state flag, not a distributed lock; a single-process
// deployment is assumed. A trigger that finds a run in progress is a no-op,
// not an error, and a failed run never stops later triggers.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tunetrivia/curator/internal/curation"
	"github.com/tunetrivia/curator/internal/models"
	"github.com/tunetrivia/curator/internal/shared"
)

// Curator is the part of the orchestrator the scheduler drives.
type Curator interface {
	Curate(ctx context.Context, date string) (*curation.RunResult, error)
}

// Scheduler owns the curation trigger loop.
type Scheduler struct {
	curator Curator
	cfg     shared.ScheduleConfig
	logger  *log.Logger
	running atomic.Bool
	now     func() time.Time // injectable clock for tests
}

// New creates a scheduler.
func New(curator Curator, cfg shared.ScheduleConfig, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Scheduler{
		curator: curator,
		cfg:     cfg,
		logger:  shared.WithLogger(logger, "component", "scheduler"),
		now:     time.Now,
	}
}

// TriggerFor runs curation for a date, guarded by the run-state flag.
// Returns [shared.ErrRunInProgress] when another run holds the flag; the
// caller treats that as a skip, not a failure.
func (s *Scheduler) TriggerFor(ctx context.Context, date string) (*curation.RunResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Info("run already in progress, skipping trigger", "date", date)
		return nil, shared.ErrRunInProgress
	}
	defer s.running.Store(false)

	return s.curator.Curate(ctx, date)
}

// Run blocks until the context is canceled, firing curation on startup and
// then daily at the configured time. Failures are logged and the loop
// continues; only context cancellation ends it.
func (s *Scheduler) Run(ctx context.Context) error {
	settle := time.Duration(s.cfg.SettleDelaySecs) * time.Second

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(settle):
	}

	s.fire(ctx)

	for {
		next, err := s.nextRunAt(s.now())
		if err != nil {
			return err
		}
		s.logger.Info("next scheduled run", "at", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(next)):
			s.fire(ctx)
		}
	}
}

// fire triggers a run for the current period and logs the outcome.
func (s *Scheduler) fire(ctx context.Context) {
	date := s.targetDate()

	result, err := s.TriggerFor(ctx, date)
	switch {
	case errors.Is(err, shared.ErrRunInProgress):
		return
	case errors.Is(err, shared.ErrNoCandidates):
		s.logger.Error("curation run failed, nothing persisted", "date", date, "error", err)
	case err != nil:
		s.logger.Error("curation run failed", "date", date, "error", err)
	case result.AlreadyCurated:
		s.logger.Info("period already curated", "date", date, "entries", result.Persisted)
	default:
		s.logger.Info("curation run succeeded", "date", date, "persisted", result.Persisted)
	}
}

// targetDate returns the challenge date a trigger should curate: today, or
// tomorrow when lookahead is enabled.
func (s *Scheduler) targetDate() string {
	day := s.now()
	if s.cfg.LookaheadEnabled {
		day = day.AddDate(0, 0, 1)
	}
	return day.Format(models.DateFormat)
}

// nextRunAt computes the next occurrence of the configured "HH:MM" local
// time strictly after now.
func (s *Scheduler) nextRunAt(now time.Time) (time.Time, error) {
	at, err := time.Parse("15:04", s.cfg.Time)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad schedule time %q", shared.ErrInvalidConfig, s.cfg.Time)
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}
