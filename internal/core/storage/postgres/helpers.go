package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	v1 "github.com/aevon-lab/review-history/internal/api/v1"
	"github.com/aevon-lab/review-history/internal/core/storage"
	"github.com/shopspring/decimal"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// entryArgs flattens a history entry into queryInsertEntry's parameter order.
// Absent optional attributes become SQL NULL.
func entryArgs(e v1.HistoryEntry) ([]interface{}, error) {
	if e.MeasuredValue == nil {
		return nil, fmt.Errorf("entry %s v%d: measured_value is required", e.BusinessKey, e.Version)
	}
	if e.EventDate == nil {
		return nil, fmt.Errorf("entry %s v%d: event_date is required", e.BusinessKey, e.Version)
	}

	return []interface{}{
		e.SurrogateID,
		e.BusinessKey,
		e.Version,
		e.IsCurrent,
		e.EffectiveFrom,
		nullTime(e),
		e.EntityRef,
		nullString(e.ActorID),
		nullString(e.ActorLabel),
		*e.MeasuredValue,
		nullBool(e.Flag.Bool()),
		*e.EventDate,
		nullInt64(e.EpochTimestamp),
		nullString(e.FreeText1),
		nullString(e.FreeText2),
		e.LoadedAt,
		e.RunID,
	}, nil
}

// scanEntryRow scans one row selected with historyColumns.
// Compatible with both sql.Row and sql.Rows.
func scanEntryRow(row scanner) (v1.HistoryEntry, error) {
	var (
		e           v1.HistoryEntry
		effectiveTo sql.NullTime
		actorID     sql.NullString
		actorLabel  sql.NullString
		measured    decimal.Decimal
		flag        sql.NullBool
		eventDate   sql.NullTime
		epoch       sql.NullInt64
		freeText1   sql.NullString
		freeText2   sql.NullString
	)

	if err := row.Scan(
		&e.SurrogateID,
		&e.BusinessKey,
		&e.Version,
		&e.IsCurrent,
		&e.EffectiveFrom,
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
		&e.LoadedAt,
		&e.RunID,
	); err != nil {
		return v1.HistoryEntry{}, fmt.Errorf("failed to scan history row: %w", err)
	}

	if effectiveTo.Valid {
		t := effectiveTo.Time
		e.EffectiveTo = &t
	}
	e.ActorID = fromNullString(actorID)
	e.ActorLabel = fromNullString(actorLabel)
	e.MeasuredValue = &measured
	if flag.Valid {
		b := flag.Bool
		e.Flag = v1.FlagFromBool(&b)
	}
	if eventDate.Valid {
		t := eventDate.Time.UTC()
		e.EventDate = &t
	}
	if epoch.Valid {
		i := epoch.Int64
		e.EpochTimestamp = &i
	}
	e.FreeText1 = fromNullString(freeText1)
	e.FreeText2 = fromNullString(freeText2)

	return e, nil
}

func scanRunRow(row scanner) (v1.RunReport, error) {
	var (
		r       v1.RunReport
		mode    string
		errText sql.NullString
	)
	if err := row.Scan(
		&r.RunID,
		&mode,
		&r.StartedAt,
		&r.FinishedAt,
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
	r.Mode = v1.RunMode(mode)
	r.Error = errText.String
	return r, nil
}

// unavailable tags connectivity failures with storage.ErrStorageUnavailable so
// callers can tell a dead database from a bad statement.
func unavailable(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", storage.ErrStorageUnavailable, err)
	}
	return err
}

func nullTime(e v1.HistoryEntry) sql.NullTime {
	if e.EffectiveTo == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *e.EffectiveTo, Valid: true}
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

func nullText(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
