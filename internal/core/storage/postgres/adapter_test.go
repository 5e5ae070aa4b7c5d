package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	v1 "github.com/aevon-lab/review-history/internal/api/v1"
	"github.com/aevon-lab/review-history/internal/core/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNewAdapter_ValidatesSchemaAndPrepares(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectPrepare(regexp.QuoteMeta(queryCurrentByKeys))
	mock.ExpectPrepare(regexp.QuoteMeta(queryMaxVersions))
	mock.ExpectPrepare(regexp.QuoteMeta(queryHistoryByKey))
	mock.ExpectPrepare(regexp.QuoteMeta(queryCurrentByEntity))

	adapter, err := NewAdapter(db)
	require.NoError(t, err)
	require.NotNil(t, adapter.stmtCurrentByEntity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewAdapter_MissingTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err = NewAdapter(db)
	require.ErrorContains(t, err, "did you run migrations")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_HasHistory(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryHasHistory)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := adapter.HasHistory(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_CurrentByKeys(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	e := sampleEntry("key-a", 2)
	mock.ExpectQuery(regexp.QuoteMeta(queryCurrentByKeys)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(historyRowColumns()).AddRow(entryRowValues(e)...)).
		RowsWillBeClosed()

	got, err := adapter.CurrentByKeys(context.Background(), []string{"key-a", "key-b"})
	require.NoError(t, err)
	require.Len(t, got, 1)

	cur := got["key-a"]
	require.Equal(t, 2, cur.Version)
	require.True(t, cur.IsCurrent)
	require.Nil(t, cur.EffectiveTo)
	require.Equal(t, v1.FlagTrue, cur.Flag)
	require.Nil(t, cur.ActorLabel)
	require.True(t, decimal.RequireFromString("4.5").Equal(*cur.MeasuredValue))
	require.Equal(t, e.SurrogateID, cur.SurrogateID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_CurrentByKeys_EmptyInputSkipsQuery(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	got, err := adapter.CurrentByKeys(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_MaxVersions(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryMaxVersions)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"business_key", "max"}).
			AddRow("key-a", int64(3)).
			AddRow("key-b", int64(1)))

	got, err := adapter.MaxVersions(context.Background(), []string{"key-a", "key-b"})
	require.NoError(t, err)
	require.Equal(t, map[string]int{"key-a": 3, "key-b": 1}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_InsertEntries(t *testing.T) {
	tests := []struct {
		name      string
		entries   []v1.HistoryEntry
		mockSetup func(mock sqlmock.Sqlmock)
		wantErr   string
	}{
		{
			name:    "commits every row",
			entries: []v1.HistoryEntry{sampleEntry("key-a", 1), sampleEntry("key-b", 3)},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				prep := mock.ExpectPrepare(regexp.QuoteMeta(queryInsertEntry))
				prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
				prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name:    "unique violation rolls back",
			entries: []v1.HistoryEntry{sampleEntry("key-a", 1), sampleEntry("key-a", 1)},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				prep := mock.ExpectPrepare(regexp.QuoteMeta(queryInsertEntry))
				prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
				prep.ExpectExec().WillReturnError(errors.New("duplicate key value violates unique constraint"))
				mock.ExpectRollback()
			},
			wantErr: "key key-a version 1",
		},
		{
			name: "missing measured value rolls back",
			entries: func() []v1.HistoryEntry {
				e := sampleEntry("key-a", 1)
				e.MeasuredValue = nil
				return []v1.HistoryEntry{e}
			}(),
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectPrepare(regexp.QuoteMeta(queryInsertEntry))
				mock.ExpectRollback()
			},
			wantErr: "measured_value is required",
		},
		{
			name:      "empty batch is a no-op",
			mockSetup: func(mock sqlmock.Sqlmock) {},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			adapter, mock, db := newMockAdapter(t)
			defer db.Close()

			tc.mockSetup(mock)
			err := adapter.InsertEntries(context.Background(), tc.entries)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAdapter_Rebuild(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	e := sampleEntry("key-a", 1)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(queryTruncateHistory)).WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare(regexp.QuoteMeta(queryInsertEntry))
	prep.ExpectExec().
		WithArgs(
			e.SurrogateID,
			e.BusinessKey,
			e.Version,
			e.IsCurrent,
			e.EffectiveFrom,
			sqlmock.AnyArg(),
			e.EntityRef,
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			e.LoadedAt,
			e.RunID,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, adapter.Rebuild(context.Background(), []v1.HistoryEntry{e}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_Rebuild_TruncateFailureRollsBack(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(queryTruncateHistory)).WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	err := adapter.Rebuild(context.Background(), []v1.HistoryEntry{sampleEntry("key-a", 1)})
	require.ErrorContains(t, err, "truncate")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_ExpireSuperseded(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	t.Run("returns affected rows", func(t *testing.T) {
		adapter, mock, db := newMockAdapter(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(queryExpireSuperseded)).
			WithArgs(now).
			WillReturnResult(sqlmock.NewResult(0, 7))
		mock.ExpectCommit()

		expired, err := adapter.ExpireSuperseded(context.Background(), now)
		require.NoError(t, err)
		require.Equal(t, int64(7), expired)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("timeout is reported as unavailable", func(t *testing.T) {
		adapter, mock, db := newMockAdapter(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(queryExpireSuperseded)).
			WithArgs(now).
			WillReturnError(context.DeadlineExceeded)
		mock.ExpectRollback()

		_, err := adapter.ExpireSuperseded(context.Background(), now)
		require.ErrorIs(t, err, storage.ErrStorageUnavailable)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAdapter_InconsistentKeys(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryInconsistentKeys)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"business_key"}).AddRow("key-a").AddRow("key-c"))

	keys, err := adapter.InconsistentKeys(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, []string{"key-a", "key-c"}, keys)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_History(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	v1Entry := sampleEntry("key-a", 1)
	closedAt := v1Entry.EffectiveFrom.Add(time.Hour)
	v1Entry.IsCurrent = false
	v1Entry.EffectiveTo = &closedAt
	v2Entry := sampleEntry("key-a", 2)

	mock.ExpectQuery(regexp.QuoteMeta(queryHistoryByKey)).
		WithArgs("key-a").
		WillReturnRows(sqlmock.NewRows(historyRowColumns()).
			AddRow(entryRowValues(v1Entry)...).
			AddRow(entryRowValues(v2Entry)...)).
		RowsWillBeClosed()

	got, err := adapter.History(context.Background(), "key-a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.False(t, got[0].IsCurrent)
	require.NotNil(t, got[0].EffectiveTo)
	require.True(t, closedAt.Equal(*got[0].EffectiveTo))
	require.True(t, got[1].IsCurrent)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_CurrentByEntity_QueryError(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryCurrentByEntity)).
		WithArgs("B000FA64PK", 50).
		WillReturnError(sql.ErrConnDone)

	_, err := adapter.CurrentByEntity(context.Background(), "B000FA64PK", 50)
	require.ErrorIs(t, err, storage.ErrStorageUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_RecordAndListRuns(t *testing.T) {
	adapter, mock, db := newMockAdapter(t)
	defer db.Close()

	started := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	report := v1.RunReport{
		RunID:       uuid.MustParse("8f1b7b7e-5d0b-4a43-9d8c-2f3c1d7d9a10"),
		Mode:        v1.ModeIncremental,
		StartedAt:   started,
		FinishedAt:  started.Add(2 * time.Second),
		Received:    10,
		Candidates:  9,
		Duplicates:  1,
		NewEntities: 4,
		Changed:     2,
		Unchanged:   3,
		Inserted:    6,
		Expired:     2,
		Status:      v1.RunStatusSucceeded,
	}

	mock.ExpectExec(regexp.QuoteMeta(queryRecordRun)).
		WithArgs(
			report.RunID, "incremental", report.StartedAt, report.FinishedAt,
			10, 0, 1, 9, 0,
			4, 2, 3, 6, int64(2),
			0, v1.RunStatusSucceeded, nil,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, adapter.RecordRun(context.Background(), report))

	mock.ExpectQuery(regexp.QuoteMeta(queryRecentRuns)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{
			"run_id", "mode", "started_at", "finished_at",
			"received", "rejected", "duplicates", "candidates", "mutated",
			"new_entities", "changed", "unchanged", "inserted", "expired",
			"inconsistent_keys", "status", "error",
		}).AddRow(
			report.RunID.String(), "incremental", report.StartedAt, report.FinishedAt,
			int64(10), int64(0), int64(1), int64(9), int64(0),
			int64(4), int64(2), int64(3), int64(6), int64(2),
			int64(0), v1.RunStatusSucceeded, nil,
		))

	runs, err := adapter.RecentRuns(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, report, runs[0])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChunks(t *testing.T) {
	require.Nil(t, chunks(nil, 2))
	require.Equal(t, [][]string{{"a", "b"}, {"c"}}, chunks([]string{"a", "b", "c"}, 2))
	require.Equal(t, [][]string{{"a", "b"}}, chunks([]string{"a", "b"}, 2))
}

func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	adapter := &Adapter{
		db:                  db,
		stmtCurrentByKeys:   mustPrepareStmt(t, db, mock, queryCurrentByKeys),
		stmtMaxVersions:     mustPrepareStmt(t, db, mock, queryMaxVersions),
		stmtHistoryByKey:    mustPrepareStmt(t, db, mock, queryHistoryByKey),
		stmtCurrentByEntity: mustPrepareStmt(t, db, mock, queryCurrentByEntity),
	}

	return adapter, mock, db
}

func mustPrepareStmt(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock, query string) *sql.Stmt {
	t.Helper()

	mock.ExpectPrepare(regexp.QuoteMeta(query))
	stmt, err := db.Prepare(query)
	require.NoError(t, err)

	return stmt
}

func sampleEntry(key string, version int) v1.HistoryEntry {
	loaded := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	measured := decimal.RequireFromString("4.5")
	eventDate := time.Date(2009, 9, 13, 0, 0, 0, 0, time.UTC)
	epoch := int64(1252800000)

	return v1.HistoryEntry{
		SurrogateID:   uuid.New(),
		BusinessKey:   key,
		Version:       version,
		IsCurrent:     true,
		EffectiveFrom: loaded,
		CanonicalRecord: v1.CanonicalRecord{
			EntityRef:      "B000FA64PK",
			ActorID:        v1.StringPtr("A3SPTOKDG7WBLN"),
			MeasuredValue:  &measured,
			Flag:           v1.FlagTrue,
			EventDate:      &eventDate,
			EpochTimestamp: &epoch,
			FreeText1:      v1.StringPtr("Great show"),
		},
		LoadedAt: loaded,
		RunID:    uuid.MustParse("8f1b7b7e-5d0b-4a43-9d8c-2f3c1d7d9a10"),
	}
}

func historyRowColumns() []string {
	return []string{
		"surrogate_id", "business_key", "version", "is_current",
		"effective_from", "effective_to",
		"entity_ref", "actor_id", "actor_label", "measured_value", "flag",
		"event_date", "epoch_timestamp", "free_text_1", "free_text_2",
		"loaded_at", "run_id",
	}
}

func entryRowValues(e v1.HistoryEntry) []driver.Value {
	var effectiveTo driver.Value
	if e.EffectiveTo != nil {
		effectiveTo = *e.EffectiveTo
	}
	var flag driver.Value
	if b := e.Flag.Bool(); b != nil {
		flag = *b
	}
	return []driver.Value{
		e.SurrogateID.String(),
		e.BusinessKey,
		int64(e.Version),
		e.IsCurrent,
		e.EffectiveFrom,
		effectiveTo,
		e.EntityRef,
		derefOrNil(e.ActorID),
		derefOrNil(e.ActorLabel),
		e.MeasuredValue.String(),
		flag,
		*e.EventDate,
		*e.EpochTimestamp,
		derefOrNil(e.FreeText1),
		derefOrNil(e.FreeText2),
		e.LoadedAt,
		e.RunID.String(),
	}
}

func derefOrNil(s *string) driver.Value {
	if s == nil {
		return nil
	}
	return *s
}
