package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	v1 "github.com/aevon-lab/review-history/internal/api/v1"
	"github.com/aevon-lab/review-history/internal/core/storage"
)

// timeLayout is fixed width so stored text sorts chronologically.
const (
	timeLayout = "2006-01-02T15:04:05.000000000Z"
	dateLayout = "2006-01-02"
)

type scanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", s, err)
	}
	return t, nil
}

// entryArgs flattens a history entry into queryInsertEntry's parameter order.
func entryArgs(e v1.HistoryEntry) ([]any, error) {
	if e.MeasuredValue == nil {
		return nil, fmt.Errorf("entry %s v%d: measured_value is required", e.BusinessKey, e.Version)
	}
	if e.EventDate == nil {
		return nil, fmt.Errorf("entry %s v%d: event_date is required", e.BusinessKey, e.Version)
	}

	var effectiveTo sql.NullString
	if e.EffectiveTo != nil {
		effectiveTo = sql.NullString{String: formatTime(*e.EffectiveTo), Valid: true}
	}

	return []any{
		e.SurrogateID.String(),
		e.BusinessKey,
		e.Version,
		e.IsCurrent,
		formatTime(e.EffectiveFrom),
		effectiveTo,
		e.EntityRef,
		nullString(e.ActorID),
		nullString(e.ActorLabel),
		e.MeasuredValue.String(),
		nullBool(e.Flag.Bool()),
		e.EventDate.UTC().Format(dateLayout),
		nullInt64(e.EpochTimestamp),
		nullString(e.FreeText1),
		nullString(e.FreeText2),
		formatTime(e.LoadedAt),
		e.RunID.String(),
	}, nil
}

func scanEntryRow(row scanner) (v1.HistoryEntry, error) {
	var (
		e             v1.HistoryEntry
		effectiveFrom string
		effectiveTo   sql.NullString
		actorID       sql.NullString
		actorLabel    sql.NullString
		measured      string
		flag          sql.NullBool
		eventDate     string
		epoch         sql.NullInt64
		freeText1     sql.NullString
		freeText2     sql.NullString
		loadedAt      string
	)

	if err := row.Scan(
		&e.SurrogateID,
		&e.BusinessKey,
		&e.Version,
		&e.IsCurrent,
		&effectiveFrom,
		&effectiveTo,
		&e.EntityRef,
		&actorID,
		&actorLabel,
		&measured,
		&flag,
		&eventDate,
		&epoch,
		&freeText1,
		&freeText2,
		&loadedAt,
		&e.RunID,
	); err != nil {
		return v1.HistoryEntry{}, fmt.Errorf("failed to scan history row: %w", err)
	}

	var err error
	if e.EffectiveFrom, err = parseTime(effectiveFrom); err != nil {
		return v1.HistoryEntry{}, err
	}
	if effectiveTo.Valid {
		t, err := parseTime(effectiveTo.String)
		if err != nil {
			return v1.HistoryEntry{}, err
		}
		e.EffectiveTo = &t
	}
	if e.LoadedAt, err = parseTime(loadedAt); err != nil {
		return v1.HistoryEntry{}, err
	}

	d, err := decimal.NewFromString(measured)
	if err != nil {
		return v1.HistoryEntry{}, fmt.Errorf("invalid stored measured_value %q: %w", measured, err)
	}
	e.MeasuredValue = &d

	date, err := time.Parse(dateLayout, eventDate)
	if err != nil {
		return v1.HistoryEntry{}, fmt.Errorf("invalid stored event_date %q: %w", eventDate, err)
	}
	e.EventDate = &date

	if flag.Valid {
		b := flag.Bool
		e.Flag = v1.FlagFromBool(&b)
	}
	if epoch.Valid {
		i := epoch.Int64
		e.EpochTimestamp = &i
	}
	e.ActorID = fromNullString(actorID)
	e.ActorLabel = fromNullString(actorLabel)
	e.FreeText1 = fromNullString(freeText1)
	e.FreeText2 = fromNullString(freeText2)

	return e, nil
}

func scanRunRow(row scanner) (v1.RunReport, error) {
	var (
		r          v1.RunReport
		mode       string
		startedAt  string
		finishedAt string
		errText    sql.NullString
	)
	if err := row.Scan(
		&r.RunID,
		&mode,
		&startedAt,
		&finishedAt,
		&r.Received,
		&r.Rejected,
		&r.Duplicates,
		&r.Candidates,
		&r.Mutated,
		&r.NewEntities,
		&r.Changed,
		&r.Unchanged,
		&r.Inserted,
		&r.Expired,
		&r.InconsistentKeys,
		&r.Status,
		&errText,
	); err != nil {
		return v1.RunReport{}, fmt.Errorf("failed to scan run row: %w", err)
	}

	var err error
	if r.StartedAt, err = parseTime(startedAt); err != nil {
		return v1.RunReport{}, err
	}
	if r.FinishedAt, err = parseTime(finishedAt); err != nil {
		return v1.RunReport{}, err
	}
	r.Mode = v1.RunMode(mode)
	r.Error = errText.String
	return r, nil
}

// unavailable tags lock contention and I/O failures with
// storage.ErrStorageUnavailable.
func unavailable(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen, sqlite3.ErrIoErr:
			return fmt.Errorf("%w: %w", storage.ErrStorageUnavailable, err)
		}
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", storage.ErrStorageUnavailable, err)
	}
	return err
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nullInt64(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}
