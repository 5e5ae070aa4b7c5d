package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	v1 "github.com/aevon-lab/review-history/internal/api/v1"
	"github.com/aevon-lab/review-history/internal/core/mutation"
	"github.com/aevon-lab/review-history/internal/core/normalize"
	"github.com/aevon-lab/review-history/internal/core/storage"
	"github.com/aevon-lab/review-history/internal/core/storage/memory"
	"github.com/aevon-lab/review-history/internal/core/versioning"
	storagemocks "github.com/aevon-lab/review-history/internal/mocks/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func rawReview(asin, reviewer string, overall float64, epoch int64, text string) v1.RawRecord {
	return v1.RawRecord{
		"asin":           asin,
		"reviewerID":     reviewer,
		"reviewerName":   "Reviewer " + reviewer,
		"overall":        overall,
		"verified":       true,
		"reviewTime":     "09 13, 2009",
		"unixReviewTime": float64(epoch),
		"reviewText":     text,
		"summary":        "summary",
	}
}

// newTestRunner returns a runner whose clock advances one hour per run.
func newTestRunner(t *testing.T, store storage.HistoryStore, sim mutation.Simulator) *Runner {
	t.Helper()

	r := NewRunner(
		store,
		normalize.New(normalize.DefaultFieldMapping(), 2),
		versioning.NewEngine(versioning.DefaultTrackedFields()),
		sim,
		Options{ExpireRetries: 2, RetryBackoff: time.Millisecond},
	)
	tick := 0
	r.nowFn = func() time.Time {
		tick++
		return baseTime.Add(time.Duration(tick) * time.Hour)
	}
	return r
}

func assertHistoryInvariants(t *testing.T, store *memory.Store) {
	t.Helper()
	violations := versioning.Audit(store.Snapshot())
	assert.Empty(t, violations, "history invariants violated: %v", violations)
}

func TestRun_SeedTwoActorsSameEntity(t *testing.T) {
	store := memory.New()
	r := newTestRunner(t, store, nil)

	report, err := r.Run(context.Background(), v1.ModeSeed, []v1.RawRecord{
		rawReview("B0001", "A1", 4, 1252800000, "good"),
		rawReview("B0001", "A2", 2, 1252800000, "meh"),
	})
	require.NoError(t, err)

	assert.Equal(t, v1.RunStatusSucceeded, report.Status)
	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, 2, report.NewEntities)

	rows := store.Snapshot()
	require.Len(t, rows, 2)
	assert.NotEqual(t, rows[0].BusinessKey, rows[1].BusinessKey)
	for _, row := range rows {
		assert.Equal(t, 1, row.Version)
		assert.True(t, row.IsCurrent)
		assert.Nil(t, row.EffectiveTo)
		assert.Equal(t, report.RunID, row.RunID)
	}
	assertHistoryInvariants(t, store)
}

func TestRun_IncrementalChangedValueCreatesVersion(t *testing.T) {
	store := memory.New()
	r := newTestRunner(t, store, nil)
	ctx := context.Background()

	_, err := r.Run(ctx, v1.ModeSeed, []v1.RawRecord{rawReview("B0001", "A1", 3.0, 1252800000, "ok")})
	require.NoError(t, err)
	v1Row := store.Snapshot()[0]

	report, err := r.Run(ctx, v1.ModeIncremental, []v1.RawRecord{rawReview("B0001", "A1", 4.5, 1252800000, "ok")})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 1, report.Changed)
	assert.Equal(t, int64(1), report.Expired)

	history, err := store.History(ctx, v1Row.BusinessKey)
	require.NoError(t, err)
	require.Len(t, history, 2)

	old, cur := history[0], history[1]
	assert.Equal(t, 1, old.Version)
	assert.False(t, old.IsCurrent)
	require.NotNil(t, old.EffectiveTo)
	assert.True(t, old.EffectiveTo.Equal(cur.EffectiveFrom))
	assert.Equal(t, "3", old.MeasuredValue.String())

	assert.Equal(t, 2, cur.Version)
	assert.True(t, cur.IsCurrent)
	assert.Equal(t, "4.5", cur.MeasuredValue.String())

	// The superseded row keeps its original attributes.
	assert.Equal(t, v1Row.SurrogateID, old.SurrogateID)
	assert.Equal(t, v1Row.CanonicalRecord, old.CanonicalRecord)
	assert.Equal(t, v1Row.EffectiveFrom, old.EffectiveFrom)
	assertHistoryInvariants(t, store)
}

func TestRun_IncrementalUnchangedIsNoop(t *testing.T) {
	store := memory.New()
	r := newTestRunner(t, store, nil)
	ctx := context.Background()
	batch := []v1.RawRecord{
		rawReview("B0001", "A1", 3.0, 1252800000, "ok"),
		rawReview("B0002", "A1", 5.0, 1252800100, "great"),
	}

	_, err := r.Run(ctx, v1.ModeSeed, batch)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		report, err := r.Run(ctx, v1.ModeIncremental, batch)
		require.NoError(t, err)
		assert.Zero(t, report.Inserted)
		assert.Zero(t, report.Expired)
		assert.Equal(t, 2, report.Unchanged)
	}
	assert.Len(t, store.Snapshot(), 2)
}

// fixedScaleStore stores measured values at a fixed scale the way a
// NUMERIC(4, 2) column does.
type fixedScaleStore struct {
	*memory.Store
}

func (s fixedScaleStore) InsertEntries(ctx context.Context, entries []v1.HistoryEntry) error {
	return s.Store.InsertEntries(ctx, s.rounded(entries))
}

func (s fixedScaleStore) Rebuild(ctx context.Context, entries []v1.HistoryEntry) error {
	return s.Store.Rebuild(ctx, s.rounded(entries))
}

func (fixedScaleStore) rounded(entries []v1.HistoryEntry) []v1.HistoryEntry {
	out := make([]v1.HistoryEntry, len(entries))
	for i, e := range entries {
		if e.MeasuredValue != nil {
			v := e.MeasuredValue.Round(2)
			e.MeasuredValue = &v
		}
		out[i] = e
	}
	return out
}

func TestRun_UnchangedFractionalValueSurvivesColumnScale(t *testing.T) {
	mem := memory.New()
	r := newTestRunner(t, fixedScaleStore{Store: mem}, nil)
	ctx := context.Background()
	batch := []v1.RawRecord{rawReview("B0001", "A1", 4.333, 1252800000, "ok")}

	_, err := r.Run(ctx, v1.ModeSeed, batch)
	require.NoError(t, err)

	report, err := r.Run(ctx, v1.ModeIncremental, batch)
	require.NoError(t, err)
	assert.Zero(t, report.Inserted)
	assert.Zero(t, report.Changed)
	assert.Equal(t, 1, report.Unchanged)

	rows := mem.Snapshot()
	require.Len(t, rows, 1)
	assert.Equal(t, "4.33", rows[0].MeasuredValue.String())
}

func TestRun_DuplicateNaturalKeyKeepsFirst(t *testing.T) {
	store := memory.New()
	r := newTestRunner(t, store, nil)

	report, err := r.Run(context.Background(), v1.ModeSeed, []v1.RawRecord{
		rawReview("B0001", "A1", 4, 1252800000, "first text"),
		rawReview("B0001", "A1", 1, 1252800000, "second text"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, 1, report.Candidates)

	rows := store.Snapshot()
	require.Len(t, rows, 1)
	assert.Equal(t, "first text", *rows[0].FreeText1)
}

func TestRun_RejectsMalformedRecords(t *testing.T) {
	store := memory.New()
	r := newTestRunner(t, store, nil)

	bad := rawReview("B0001", "A1", 4, 1252800000, "x")
	bad["overall"] = "not a number"

	report, err := r.Run(context.Background(), v1.ModeSeed, []v1.RawRecord{
		bad,
		rawReview("B0002", "A1", 4, 1252800000, "x"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Received)
	assert.Equal(t, 1, report.Rejected)
	assert.Equal(t, 1, report.Inserted)
}

func TestRun_IncrementalOnEmptyHistoryFallsBackToSeed(t *testing.T) {
	store := memory.New()
	r := newTestRunner(t, store, nil)

	report, err := r.Run(context.Background(), v1.ModeIncremental, []v1.RawRecord{
		rawReview("B0001", "A1", 4, 1252800000, "x"),
	})
	require.NoError(t, err)
	assert.Equal(t, v1.ModeSeed, report.Mode)
	assert.Equal(t, 1, report.Inserted)
}

func TestRun_SeedReplacesHistory(t *testing.T) {
	store := memory.New()
	r := newTestRunner(t, store, nil)
	ctx := context.Background()

	_, err := r.Run(ctx, v1.ModeSeed, []v1.RawRecord{rawReview("B0001", "A1", 4, 1252800000, "x")})
	require.NoError(t, err)
	_, err = r.Run(ctx, v1.ModeSeed, []v1.RawRecord{rawReview("B0002", "A2", 4, 1252800000, "y")})
	require.NoError(t, err)

	rows := store.Snapshot()
	require.Len(t, rows, 1)
	assert.Equal(t, "B0002", rows[0].EntityRef)
}

func TestRun_InvariantsHoldAcrossMutatedRuns(t *testing.T) {
	store := memory.New()
	r := newTestRunner(t, store, mutation.NewRandom(3, 7, versioning.DefaultTrackedFields()))
	ctx := context.Background()

	batch := make([]v1.RawRecord, 0, 10)
	for i := 0; i < 10; i++ {
		batch = append(batch, rawReview(fmt.Sprintf("B%04d", i), "A1", 3, int64(1252800000+i), "text"))
	}

	_, err := r.Run(ctx, v1.ModeSeed, batch)
	require.NoError(t, err)
	seeded := make(map[uuid.UUID]v1.HistoryEntry)
	for _, row := range store.Snapshot() {
		seeded[row.SurrogateID] = row
	}

	totalInserted := 10
	for i := 0; i < 5; i++ {
		report, err := r.Run(ctx, v1.ModeIncremental, batch)
		require.NoError(t, err)
		assert.Equal(t, 3, report.Mutated)
		// Keys mutated in an earlier run revert to the source value and count as changed too.
		assert.GreaterOrEqual(t, report.Changed, report.Mutated)
		assert.Equal(t, int64(report.Changed), report.Expired)
		totalInserted += report.Inserted
		assertHistoryInvariants(t, store)
	}

	rows := store.Snapshot()
	assert.Len(t, rows, totalInserted)
	for _, row := range rows {
		orig, ok := seeded[row.SurrogateID]
		if !ok {
			continue
		}
		assert.Equal(t, orig.CanonicalRecord, row.CanonicalRecord)
		assert.Equal(t, orig.Version, row.Version)
		assert.Equal(t, orig.EffectiveFrom, row.EffectiveFrom)
	}
}

func TestRun_MutationOfTrackedFlagIsDetected(t *testing.T) {
	store := memory.New()
	tracked := versioning.TrackedFields{versioning.FieldFlag}
	r := newTestRunner(t, store, mutation.NewRandom(5, 7, tracked))
	r.engine = versioning.NewEngine(tracked)
	ctx := context.Background()
	batch := []v1.RawRecord{
		rawReview("B0001", "A1", 3, 1252800000, "x"),
		rawReview("B0002", "A1", 4, 1252800100, "y"),
	}

	_, err := r.Run(ctx, v1.ModeSeed, batch)
	require.NoError(t, err)

	report, err := r.Run(ctx, v1.ModeIncremental, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Mutated)
	assert.Equal(t, 2, report.Changed)
	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, int64(2), report.Expired)

	for _, row := range store.Snapshot() {
		if row.IsCurrent {
			assert.NotEqual(t, v1.FlagTrue, row.Flag, "current row should carry the perturbed flag")
		}
	}
	assertHistoryInvariants(t, store)
}

func TestRun_ClosesRowsLeftCurrentByInterruptedRun(t *testing.T) {
	store := memory.New()
	r := newTestRunner(t, store, nil)
	ctx := context.Background()

	_, err := r.Run(ctx, v1.ModeSeed, []v1.RawRecord{rawReview("B0001", "A1", 3, 1252800000, "x")})
	require.NoError(t, err)

	// Simulate an insert phase that committed without its expire phase.
	prev := store.Snapshot()[0]
	next := prev
	next.SurrogateID = uuid.New()
	next.Version = 2
	next.EffectiveFrom = baseTime.Add(90 * time.Minute)
	require.NoError(t, store.InsertEntries(ctx, []v1.HistoryEntry{next}))

	report, err := r.Run(ctx, v1.ModeIncremental, []v1.RawRecord{rawReview("B0001", "A1", 3, 1252800000, "x")})
	require.NoError(t, err)
	assert.Equal(t, 1, report.InconsistentKeys)
	assert.Equal(t, int64(1), report.Expired)
	assertHistoryInvariants(t, store)
}

func TestRun_RecordsRunLog(t *testing.T) {
	store := memory.New()
	r := newTestRunner(t, store, nil)

	report, err := r.Run(context.Background(), v1.ModeSeed, []v1.RawRecord{rawReview("B0001", "A1", 3, 1252800000, "x")})
	require.NoError(t, err)

	runs, err := store.RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, report, runs[0])
	assert.True(t, report.FinishedAt.After(report.StartedAt))
}

func TestRun_InvalidMode(t *testing.T) {
	store := storagemocks.NewHistoryStore(t)
	store.EXPECT().RecordRun(mock.Anything, mock.Anything).Return(nil).Once()

	r := newTestRunner(t, store, nil)
	report, err := r.Run(context.Background(), v1.RunMode("full"), nil)
	require.ErrorIs(t, err, v1.ErrInvalidRunMode)
	assert.Equal(t, v1.RunStatusFailed, report.Status)
}

func TestRun_StorageUnavailableBeforeInsertWritesNothing(t *testing.T) {
	store := storagemocks.NewHistoryStore(t)
	unavailable := fmt.Errorf("%w: connection refused", storage.ErrStorageUnavailable)

	store.EXPECT().InconsistentKeys(mock.Anything, defaultInconsistentScan).Return(nil, unavailable).Once()
	store.EXPECT().RecordRun(mock.Anything, mock.Anything).Return(unavailable).Once()

	r := newTestRunner(t, store, nil)
	report, err := r.Run(context.Background(), v1.ModeIncremental, []v1.RawRecord{
		rawReview("B0001", "A1", 3, 1252800000, "x"),
	})

	require.ErrorIs(t, err, storage.ErrStorageUnavailable)
	assert.Equal(t, v1.RunStatusFailed, report.Status)
	assert.Zero(t, report.Inserted)
	store.AssertNotCalled(t, "InsertEntries", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Rebuild", mock.Anything, mock.Anything)
}

func expectIncrementalInsert(store *storagemocks.HistoryStore, current map[string]v1.HistoryEntry) {
	store.EXPECT().InconsistentKeys(mock.Anything, mock.Anything).Return(nil, nil).Once()
	store.EXPECT().HasHistory(mock.Anything).Return(true, nil).Once()
	store.EXPECT().CurrentByKeys(mock.Anything, mock.Anything).Return(current, nil).Once()
	store.EXPECT().MaxVersions(mock.Anything, mock.Anything).Return(map[string]int{}, nil).Once()
	store.EXPECT().InsertEntries(mock.Anything, mock.Anything).Return(nil).Once()
}

func TestRun_ExpireRetriedThenSucceeds(t *testing.T) {
	store := storagemocks.NewHistoryStore(t)
	expectIncrementalInsert(store, map[string]v1.HistoryEntry{})
	store.EXPECT().ExpireSuperseded(mock.Anything, mock.Anything).
		Return(int64(0), storage.ErrStorageUnavailable).Once()
	store.EXPECT().ExpireSuperseded(mock.Anything, mock.Anything).Return(int64(0), nil).Once()
	store.EXPECT().RecordRun(mock.Anything, mock.Anything).Return(nil).Once()

	r := newTestRunner(t, store, nil)
	report, err := r.Run(context.Background(), v1.ModeIncremental, []v1.RawRecord{
		rawReview("B0001", "A1", 3, 1252800000, "x"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, v1.RunStatusSucceeded, report.Status)
}

func TestRun_ExpireExhaustedReportsPendingThenRepair(t *testing.T) {
	store := storagemocks.NewHistoryStore(t)
	expectIncrementalInsert(store, map[string]v1.HistoryEntry{})
	store.EXPECT().ExpireSuperseded(mock.Anything, mock.Anything).
		Return(int64(0), storage.ErrStorageUnavailable).Times(3)
	store.EXPECT().RecordRun(mock.Anything, mock.Anything).Return(nil).Twice()

	r := newTestRunner(t, store, nil)
	report, err := r.Run(context.Background(), v1.ModeIncremental, []v1.RawRecord{
		rawReview("B0001", "A1", 3, 1252800000, "x"),
	})
	require.ErrorIs(t, err, ErrExpirePending)
	require.ErrorIs(t, err, storage.ErrStorageUnavailable)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, v1.RunStatusFailed, report.Status)
	assert.Contains(t, report.Error, "revhist expire")

	store.EXPECT().InconsistentKeys(mock.Anything, mock.Anything).Return([]string{"k"}, nil).Once()
	store.EXPECT().ExpireSuperseded(mock.Anything, mock.Anything).Return(int64(1), nil).Once()

	repaired, err := r.Repair(context.Background())
	require.NoError(t, err)
	assert.Equal(t, v1.RunStatusRepaired, repaired.Status)
	assert.Equal(t, int64(1), repaired.Expired)
	assert.Equal(t, 1, repaired.InconsistentKeys)
}

func TestRun_InsertFailureSkipsExpire(t *testing.T) {
	store := storagemocks.NewHistoryStore(t)
	store.EXPECT().InconsistentKeys(mock.Anything, mock.Anything).Return(nil, nil).Once()
	store.EXPECT().HasHistory(mock.Anything).Return(true, nil).Once()
	store.EXPECT().CurrentByKeys(mock.Anything, mock.Anything).Return(map[string]v1.HistoryEntry{}, nil).Once()
	store.EXPECT().MaxVersions(mock.Anything, mock.Anything).Return(map[string]int{}, nil).Once()
	store.EXPECT().InsertEntries(mock.Anything, mock.Anything).Return(errors.New("unique violation")).Once()
	store.EXPECT().RecordRun(mock.Anything, mock.Anything).Return(nil).Once()

	r := newTestRunner(t, store, nil)
	_, err := r.Run(context.Background(), v1.ModeIncremental, []v1.RawRecord{
		rawReview("B0001", "A1", 3, 1252800000, "x"),
	})
	require.ErrorContains(t, err, "insert versions")
	require.NotErrorIs(t, err, ErrExpirePending)
	store.AssertNotCalled(t, "ExpireSuperseded", mock.Anything, mock.Anything)
}

func TestRun_RejectsConcurrentRun(t *testing.T) {
	r := newTestRunner(t, memory.New(), nil)
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.Run(context.Background(), v1.ModeSeed, nil)
	require.ErrorIs(t, err, ErrRunInProgress)

	_, err = r.Repair(context.Background())
	require.ErrorIs(t, err, ErrRunInProgress)
}

func TestExpireWithRetry_StopsOnCancel(t *testing.T) {
	store := storagemocks.NewHistoryStore(t)
	store.EXPECT().ExpireSuperseded(mock.Anything, mock.Anything).
		Return(int64(0), storage.ErrStorageUnavailable).Once()

	r := newTestRunner(t, store, nil)
	r.opts.RetryBackoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.expireWithRetry(ctx, baseTime)
	require.ErrorIs(t, err, context.Canceled)
}
