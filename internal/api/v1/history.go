package v1

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidRunMode is returned by ParseRunMode for anything but seed/incremental.
var ErrInvalidRunMode = errors.New("invalid run mode")

// HistoryEntry is one row of the temporal history table.
//
// Attribute fields are copied at insert time and never updated afterwards.
// Only IsCurrent and EffectiveTo change, exactly once, from (true, nil) to
// (false, timestamp) when the row is superseded.
type HistoryEntry struct {
	SurrogateID   uuid.UUID  `json:"surrogate_id"`
	BusinessKey   string     `json:"business_key"`
	Version       int        `json:"version"`
	IsCurrent     bool       `json:"is_current"`
	EffectiveFrom time.Time  `json:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to"`

	CanonicalRecord

	LoadedAt time.Time `json:"loaded_at"`
	RunID    uuid.UUID `json:"run_id"`
}

// Keyed returns the attribute projection of the entry.
func (h HistoryEntry) Keyed() KeyedRecord {
	return KeyedRecord{CanonicalRecord: h.CanonicalRecord, BusinessKey: h.BusinessKey}
}

// RunMode selects between a full rebuild and an incremental apply.
type RunMode string

const (
	ModeSeed        RunMode = "seed"
	ModeIncremental RunMode = "incremental"
)

// ParseRunMode validates a mode flag. Matching is case-insensitive.
func ParseRunMode(s string) (RunMode, error) {
	switch RunMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeSeed:
		return ModeSeed, nil
	case ModeIncremental:
		return ModeIncremental, nil
	default:
		return "", fmt.Errorf("%w %q (must be seed or incremental)", ErrInvalidRunMode, s)
	}
}

// Run statuses recorded in RunReport.Status.
const (
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
	RunStatusRepaired  = "repaired"
)

// RunReport is the user-visible outcome of one pipeline run.
type RunReport struct {
	RunID      uuid.UUID `json:"run_id"`
	Mode       RunMode   `json:"mode"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Received   int `json:"received"`
	Rejected   int `json:"rejected"`
	Duplicates int `json:"duplicates"`
	Candidates int `json:"candidates"`
	Mutated    int `json:"mutated"`

	NewEntities int   `json:"new_entities"`
	Changed     int   `json:"changed"`
	Unchanged   int   `json:"unchanged"`
	Inserted    int   `json:"inserted"`
	Expired     int64 `json:"expired"`

	InconsistentKeys int `json:"inconsistent_keys"`

	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
