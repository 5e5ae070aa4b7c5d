package storage

import (
	"context"
	"errors"
	"time"

	v1 "github.com/aevon-lab/review-history/internal/api/v1"
)

// ErrStorageUnavailable marks failures to reach the history table. A run that
// hits it before its insert phase commits has written nothing.
var ErrStorageUnavailable = errors.New("storage unavailable")

// HistoryStore is the single logical history table plus its run log.
//
// Writers are assumed to be single: one pipeline run at a time.
// InsertEntries and ExpireSuperseded are each atomic.
type HistoryStore interface {
	// HasHistory reports whether any history row exists.
	HasHistory(ctx context.Context) (bool, error)

	// CurrentByKeys returns the isCurrent row per key. When more than one row is
	// current for a key (an interrupted run) the highest version is returned.
	CurrentByKeys(ctx context.Context, keys []string) (map[string]v1.HistoryEntry, error)

	// MaxVersions returns the highest version per key over all rows.
	MaxVersions(ctx context.Context, keys []string) (map[string]int, error)

	// InsertEntries appends rows in one transaction. Existing rows are untouched.
	InsertEntries(ctx context.Context, entries []v1.HistoryEntry) error

	// ExpireSuperseded closes every current row that has a strictly greater
	// current version of the same key. Returns the number of rows expired.
	ExpireSuperseded(ctx context.Context, now time.Time) (int64, error)

	// InconsistentKeys returns up to limit keys with more than one current row.
	InconsistentKeys(ctx context.Context, limit int) ([]string, error)

	// Rebuild replaces the whole table with entries in one transaction.
	// Used by seed runs; readers see either the old table or the new one.
	Rebuild(ctx context.Context, entries []v1.HistoryEntry) error

	// History returns every version of a key, ordered by version.
	History(ctx context.Context, businessKey string) ([]v1.HistoryEntry, error)

	// CurrentByEntity returns current rows for an entity reference.
	CurrentByEntity(ctx context.Context, entityRef string, limit int) ([]v1.HistoryEntry, error)

	// RecordRun appends a run report to the run log.
	RecordRun(ctx context.Context, report v1.RunReport) error

	// RecentRuns returns the latest run reports, newest first.
	RecentRuns(ctx context.Context, limit int) ([]v1.RunReport, error)
}
