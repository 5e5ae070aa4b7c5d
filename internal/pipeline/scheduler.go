package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	v1 "github.com/aevon-lab/review-history/internal/api/v1"
	"github.com/aevon-lab/review-history/internal/source"
)

// Scheduler runs incremental pipeline runs on a periodic interval.
// It is stateless: each tick fetches the full source batch and lets change
// detection decide what is new.
type Scheduler struct {
	interval time.Duration
	runner   *Runner
	source   source.Source
}

// NewScheduler creates a scheduler feeding src into runner every interval.
func NewScheduler(interval time.Duration, runner *Runner, src source.Source) *Scheduler {
	return &Scheduler{
		interval: interval,
		runner:   runner,
		source:   src,
	}
}

// Start runs one tick immediately, then one per interval until ctx is
// cancelled. No run is started once shutdown begins: an interrupted run would
// only leave work for the expire repair.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[Scheduler] Starting incremental run scheduler", "interval", s.interval)

	s.tick(ctx)

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			slog.Info("[Scheduler] Stopping (context cancelled)")
			return nil
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	raws, err := s.source.Fetch(ctx)
	if err != nil {
		slog.Error("[Scheduler] Source fetch failed", "error", err)
		return
	}

	report, err := s.runner.Run(ctx, v1.ModeIncremental, raws)
	switch {
	case errors.Is(err, ErrRunInProgress):
		slog.Info("[Scheduler] Skipping tick, a run is already in progress")
	case err != nil:
		slog.Error("[Scheduler] Scheduled run failed", "run_id", report.RunID, "error", err)
	default:
		slog.Info("[Scheduler] Scheduled run complete",
			"run_id", report.RunID,
			"inserted", report.Inserted,
			"expired", report.Expired,
		)
	}
}
