package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/aevon-lab/review-history/internal/api/v1"
	"github.com/aevon-lab/review-history/internal/core/storage"
)

//go:embed schema.sql
var schemaSQL string

var _ storage.HistoryStore = (*Store)(nil)

// Store is a single-file history store for local and single-node use.
// Uses SQLite with WAL mode; one connection serializes all access.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at path and applies the schema.
// ":memory:" gives a private in-process database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to connect to sqlite database: %w", storage.ErrStorageUnavailable, err)
	}

	// SQLite has one writer; a second connection would only see SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	slog.Info("[SQLite] Store opened", "path", path)
	return &Store{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// DB returns the underlying *sql.DB for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) HasHistory(ctx context.Context) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, queryHasHistory).Scan(&exists); err != nil {
		return false, fmt.Errorf("history: check rows: %w", unavailable(err))
	}
	return exists, nil
}

func (s *Store) CurrentByKeys(ctx context.Context, keys []string) (map[string]v1.HistoryEntry, error) {
	out := make(map[string]v1.HistoryEntry, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	rows, err := s.queryKeys(ctx, queryCurrentByKeys, keys)
	if err != nil {
		return nil, fmt.Errorf("history: query current rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanEntryRow(rows)
		if err != nil {
			return nil, err
		}
		if _, seen := out[entry.BusinessKey]; !seen {
			out[entry.BusinessKey] = entry
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate current rows: %w", unavailable(err))
	}
	return out, nil
}

func (s *Store) MaxVersions(ctx context.Context, keys []string) (map[string]int, error) {
	out := make(map[string]int, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	rows, err := s.queryKeys(ctx, queryMaxVersions, keys)
	if err != nil {
		return nil, fmt.Errorf("history: query max versions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key     string
			version int
		)
		if err := rows.Scan(&key, &version); err != nil {
			return nil, fmt.Errorf("history: scan max version: %w", err)
		}
		out[key] = version
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate max versions: %w", unavailable(err))
	}
	return out, nil
}

func (s *Store) queryKeys(ctx context.Context, query string, keys []string) (*sql.Rows, error) {
	encoded, err := json.Marshal(keys)
	if err != nil {
		return nil, fmt.Errorf("encode keys: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, string(encoded))
	if err != nil {
		return nil, unavailable(err)
	}
	return rows, nil
}

// InsertEntries appends all entries in one transaction.
func (s *Store) InsertEntries(ctx context.Context, entries []v1.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history insert: begin tx: %w", unavailable(err))
	}
	defer tx.Rollback() //nolint:errcheck

	if err := insertTx(ctx, tx, entries); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history insert: commit: %w", unavailable(err))
	}

	slog.Info("[SQLite] Inserted history rows", "rows", len(entries))
	return nil
}

// Rebuild deletes and reloads the table inside one transaction.
func (s *Store) Rebuild(ctx context.Context, entries []v1.HistoryEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history rebuild: begin tx: %w", unavailable(err))
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, queryDeleteHistory); err != nil {
		return fmt.Errorf("history rebuild: delete: %w", unavailable(err))
	}
	if err := insertTx(ctx, tx, entries); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history rebuild: commit: %w", unavailable(err))
	}

	slog.Info("[SQLite] Rebuilt history table", "rows", len(entries))
	return nil
}

func insertTx(ctx context.Context, tx *sql.Tx, entries []v1.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, queryInsertEntry)
	if err != nil {
		return fmt.Errorf("history insert: prepare: %w", unavailable(err))
	}
	defer stmt.Close()

	for _, e := range entries {
		args, err := entryArgs(e)
		if err != nil {
			return fmt.Errorf("history insert: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("history insert: key %s version %d: %w", e.BusinessKey, e.Version, unavailable(err))
		}
	}
	return nil
}

func (s *Store) ExpireSuperseded(ctx context.Context, now time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("history expire: begin tx: %w", unavailable(err))
	}
	defer tx.Rollback() //nolint:errcheck

	result, err := tx.ExecContext(ctx, queryExpireSuperseded, formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("history expire: update: %w", unavailable(err))
	}
	expired, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("history expire: rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("history expire: commit: %w", unavailable(err))
	}

	slog.Info("[SQLite] Expired superseded rows", "rows", expired)
	return expired, nil
}

func (s *Store) InconsistentKeys(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, queryInconsistentKeys, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query inconsistent keys: %w", unavailable(err))
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("history: scan inconsistent key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate inconsistent keys: %w", unavailable(err))
	}
	return keys, nil
}

func (s *Store) History(ctx context.Context, businessKey string) ([]v1.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, queryHistoryByKey, businessKey)
	if err != nil {
		return nil, fmt.Errorf("history: query key history: %w", unavailable(err))
	}
	return collectEntries(rows)
}

// CurrentByEntity returns current rows for entityRef. A non-positive limit
// returns all of them.
func (s *Store) CurrentByEntity(ctx context.Context, entityRef string, limit int) ([]v1.HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, queryCurrentByEntity, entityRef, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query entity rows: %w", unavailable(err))
	}
	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]v1.HistoryEntry, error) {
	defer rows.Close()

	var out []v1.HistoryEntry
	for rows.Next() {
		entry, err := scanEntryRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", unavailable(err))
	}
	return out, nil
}

func (s *Store) RecordRun(ctx context.Context, r v1.RunReport) error {
	var errText sql.NullString
	if r.Error != "" {
		errText = sql.NullString{String: r.Error, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, queryRecordRun,
		r.RunID.String(),
		string(r.Mode),
		formatTime(r.StartedAt),
		formatTime(r.FinishedAt),
		r.Received,
		r.Rejected,
		r.Duplicates,
		r.Candidates,
		r.Mutated,
		r.NewEntities,
		r.Changed,
		r.Unchanged,
		r.Inserted,
		r.Expired,
		r.InconsistentKeys,
		r.Status,
		errText,
	)
	if err != nil {
		return fmt.Errorf("run log: insert: %w", unavailable(err))
	}
	return nil
}

func (s *Store) RecentRuns(ctx context.Context, limit int) ([]v1.RunReport, error) {
	rows, err := s.db.QueryContext(ctx, queryRecentRuns, limit)
	if err != nil {
		return nil, fmt.Errorf("run log: query: %w", unavailable(err))
	}
	defer rows.Close()

	var out []v1.RunReport
	for rows.Next() {
		r, err := scanRunRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run log: iterate: %w", unavailable(err))
	}
	return out, nil
}
