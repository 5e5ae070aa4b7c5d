package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	v1 "github.com/aevon-lab/review-history/internal/api/v1"
	"github.com/aevon-lab/review-history/internal/core/dedup"
	"github.com/aevon-lab/review-history/internal/core/identity"
	"github.com/aevon-lab/review-history/internal/core/mutation"
	"github.com/aevon-lab/review-history/internal/core/normalize"
	"github.com/aevon-lab/review-history/internal/core/storage"
	"github.com/aevon-lab/review-history/internal/core/versioning"
	"github.com/google/uuid"
)

const (
	defaultExpireRetries    = 3
	defaultRetryBackoff     = 500 * time.Millisecond
	defaultInconsistentScan = 20
	recordRunTimeout        = 5 * time.Second
)

var (
	// ErrRunInProgress is returned when another run holds the writer slot.
	ErrRunInProgress = errors.New("a pipeline run is already in progress")

	// ErrExpirePending means new versions were inserted but superseded rows
	// are still current. Running the expire phase again repairs it.
	ErrExpirePending = errors.New("expire phase incomplete, run `revhist expire` to repair")
)

// Options controls retry and diagnostics behavior of a Runner.
type Options struct {
	ExpireRetries    int
	RetryBackoff     time.Duration
	InconsistentScan int
}

func (o Options) normalized() Options {
	n := o
	if n.ExpireRetries < 0 {
		n.ExpireRetries = defaultExpireRetries
	}
	if n.RetryBackoff <= 0 {
		n.RetryBackoff = defaultRetryBackoff
	}
	if n.InconsistentScan <= 0 {
		n.InconsistentScan = defaultInconsistentScan
	}
	return n
}

// Runner executes one pipeline run at a time:
// normalize, dedupe, key, plan, insert, expire.
type Runner struct {
	store      storage.HistoryStore
	normalizer *normalize.Normalizer
	engine     *versioning.Engine
	simulator  mutation.Simulator
	opts       Options

	mu       sync.Mutex
	nowFn    func() time.Time
	newRunID func() uuid.UUID
}

// NewRunner wires a runner. A nil simulator disables mutation.
func NewRunner(
	store storage.HistoryStore,
	normalizer *normalize.Normalizer,
	engine *versioning.Engine,
	simulator mutation.Simulator,
	opts Options,
) *Runner {
	if simulator == nil {
		simulator = mutation.Noop{}
	}
	return &Runner{
		store:      store,
		normalizer: normalizer,
		engine:     engine,
		simulator:  simulator,
		opts:       opts.normalized(),
		nowFn:      func() time.Time { return time.Now().UTC() },
		newRunID:   uuid.New,
	}
}

// Run processes one raw batch in the given mode and records the outcome.
//
// A failure before the insert phase leaves storage untouched. A failure in the
// expire phase is reported with ErrExpirePending; history then holds extra
// current rows that Repair closes.
func (r *Runner) Run(ctx context.Context, mode v1.RunMode, raws []v1.RawRecord) (v1.RunReport, error) {
	if !r.mu.TryLock() {
		return v1.RunReport{}, ErrRunInProgress
	}
	defer r.mu.Unlock()

	report := v1.RunReport{
		RunID:     r.newRunID(),
		Mode:      mode,
		StartedAt: r.nowFn(),
		Received:  len(raws),
	}

	slog.Info("[Pipeline] Run started",
		"run_id", report.RunID,
		"mode", mode,
		"received", report.Received,
	)

	err := r.run(ctx, &report, raws)
	r.finish(ctx, &report, err, v1.RunStatusSucceeded)
	return report, err
}

func (r *Runner) run(ctx context.Context, report *v1.RunReport, raws []v1.RawRecord) error {
	switch report.Mode {
	case v1.ModeSeed, v1.ModeIncremental:
	default:
		return fmt.Errorf("pipeline: %w %q", v1.ErrInvalidRunMode, report.Mode)
	}

	candidates, err := r.prepare(ctx, report, raws)
	if err != nil {
		return err
	}

	if err := r.checkConsistency(ctx, report); err != nil {
		return err
	}

	now := report.StartedAt
	if report.Mode == v1.ModeIncremental {
		hasHistory, err := r.store.HasHistory(ctx)
		if err != nil {
			return fmt.Errorf("pipeline: check history: %w", err)
		}
		if !hasHistory {
			slog.Info("[Pipeline] History is empty, falling back to seed", "run_id", report.RunID)
			report.Mode = v1.ModeSeed
		}
	}

	if report.Mode == v1.ModeSeed {
		entries := r.engine.Seed(candidates, now, report.RunID)
		if err := r.store.Rebuild(ctx, entries); err != nil {
			return fmt.Errorf("pipeline: rebuild history: %w", err)
		}
		report.NewEntities = len(entries)
		report.Inserted = len(entries)
		return nil
	}

	keys := businessKeys(candidates)
	current, err := r.store.CurrentByKeys(ctx, keys)
	if err != nil {
		return fmt.Errorf("pipeline: load current rows: %w", err)
	}
	maxVersions, err := r.store.MaxVersions(ctx, keys)
	if err != nil {
		return fmt.Errorf("pipeline: load max versions: %w", err)
	}

	candidates, mutated := r.simulator.Mutate(ctx, candidates, current)
	report.Mutated = len(mutated)

	entries, plan := r.engine.ApplyIncrement(candidates, current, maxVersions, now, report.RunID)
	report.NewEntities = plan.NewEntities
	report.Changed = plan.Changed
	report.Unchanged = plan.Unchanged

	if err := r.store.InsertEntries(ctx, entries); err != nil {
		return fmt.Errorf("pipeline: insert versions: %w", err)
	}
	report.Inserted = len(entries)

	// Runs even without changes so rows left current by an earlier
	// interrupted run get closed.
	expired, err := r.expireWithRetry(ctx, now)
	report.Expired = expired
	if err != nil {
		return fmt.Errorf("pipeline: %w: %w", ErrExpirePending, err)
	}
	return nil
}

// prepare runs the pure stages. Nothing is written.
func (r *Runner) prepare(ctx context.Context, report *v1.RunReport, raws []v1.RawRecord) ([]v1.KeyedRecord, error) {
	records, rejected, err := r.normalizer.Batch(ctx, raws)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	report.Rejected = rejected
	if rejected > 0 {
		slog.Warn("[Pipeline] Rejected malformed records", "run_id", report.RunID, "rejected", rejected)
	}

	records, duplicates := dedup.Deduplicate(records)
	report.Duplicates = duplicates

	candidates := identity.KeyBatch(records)
	report.Candidates = len(candidates)
	return candidates, nil
}

func (r *Runner) checkConsistency(ctx context.Context, report *v1.RunReport) error {
	keys, err := r.store.InconsistentKeys(ctx, r.opts.InconsistentScan)
	if err != nil {
		return fmt.Errorf("pipeline: check consistency: %w", err)
	}
	if len(keys) > 0 {
		report.InconsistentKeys = len(keys)
		slog.Warn("[Pipeline] Keys with more than one current row, a previous expire phase did not finish",
			"run_id", report.RunID,
			"sample", keys,
		)
	}
	return nil
}

// Repair runs the expire phase alone and records it as a run.
func (r *Runner) Repair(ctx context.Context) (v1.RunReport, error) {
	if !r.mu.TryLock() {
		return v1.RunReport{}, ErrRunInProgress
	}
	defer r.mu.Unlock()

	report := v1.RunReport{
		RunID:     r.newRunID(),
		Mode:      v1.ModeIncremental,
		StartedAt: r.nowFn(),
	}

	err := r.checkConsistency(ctx, &report)
	if err == nil {
		report.Expired, err = r.expireWithRetry(ctx, report.StartedAt)
		if err != nil {
			err = fmt.Errorf("pipeline: repair: %w", err)
		}
	}
	r.finish(ctx, &report, err, v1.RunStatusRepaired)
	return report, err
}

func (r *Runner) expireWithRetry(ctx context.Context, now time.Time) (int64, error) {
	backoff := r.opts.RetryBackoff
	var lastErr error

	for attempt := 0; attempt <= r.opts.ExpireRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("[Pipeline] Expire phase failed, retrying",
				"attempt", attempt,
				"backoff", backoff,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return 0, fmt.Errorf("expire superseded: %w (last error: %v)", ctx.Err(), lastErr)
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		expired, err := r.store.ExpireSuperseded(ctx, now)
		if err == nil {
			return expired, nil
		}
		lastErr = err
	}

	return 0, fmt.Errorf("expire superseded after %d attempts: %w", r.opts.ExpireRetries+1, lastErr)
}

func (r *Runner) finish(ctx context.Context, report *v1.RunReport, err error, okStatus string) {
	report.FinishedAt = r.nowFn()
	if err != nil {
		report.Status = v1.RunStatusFailed
		report.Error = err.Error()
		slog.Error("[Pipeline] Run failed",
			"run_id", report.RunID,
			"mode", report.Mode,
			"error", err,
		)
	} else {
		report.Status = okStatus
		slog.Info("[Pipeline] Run completed",
			"run_id", report.RunID,
			"mode", report.Mode,
			"candidates", report.Candidates,
			"new_entities", report.NewEntities,
			"changed", report.Changed,
			"unchanged", report.Unchanged,
			"inserted", report.Inserted,
			"expired", report.Expired,
			"duration", report.FinishedAt.Sub(report.StartedAt),
		)
	}

	// The run log is best effort and must not mask the run's own outcome.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordRunTimeout)
	defer cancel()
	if recErr := r.store.RecordRun(recordCtx, *report); recErr != nil {
		slog.Warn("[Pipeline] Failed to record run", "run_id", report.RunID, "error", recErr)
	}
}

func businessKeys(batch []v1.KeyedRecord) []string {
	seen := make(map[string]struct{}, len(batch))
	keys := make([]string, 0, len(batch))
	for _, cand := range batch {
		if _, dup := seen[cand.BusinessKey]; dup {
			continue
		}
		seen[cand.BusinessKey] = struct{}{}
		keys = append(keys, cand.BusinessKey)
	}
	return keys
}
