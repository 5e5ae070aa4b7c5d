package versioning

import (
	"time"

	v1 "github.com/aevon-lab/review-history/internal/api/v1"
	"github.com/google/uuid"
)

// Plan summarizes the decisions made for one incremental batch.
type Plan struct {
	NewEntities int
	Changed     int
	Unchanged   int
}

// Engine decides which history rows a candidate batch produces.
// It only plans inserts; it never rewrites existing rows.
type Engine struct {
	tracked TrackedFields
	idFn    func() uuid.UUID
}

// NewEngine creates an engine tracking the given fields. An empty set falls
// back to DefaultTrackedFields.
func NewEngine(tracked TrackedFields) *Engine {
	if len(tracked) == 0 {
		tracked = DefaultTrackedFields()
	}
	return &Engine{tracked: tracked, idFn: uuid.New}
}

// TrackedFields returns the fields this engine compares.
func (e *Engine) TrackedFields() TrackedFields {
	return e.tracked
}

// Seed turns every candidate into a version 1 current row.
func (e *Engine) Seed(batch []v1.KeyedRecord, now time.Time, runID uuid.UUID) []v1.HistoryEntry {
	batch = uniqueByKey(batch)
	out := make([]v1.HistoryEntry, 0, len(batch))
	for _, cand := range batch {
		out = append(out, e.newEntry(cand, 1, now, runID))
	}
	return out
}

// ApplyIncrement compares candidates with the current rows for their keys and
// plans one new row per new or changed key. current holds the isCurrent row per
// key; maxVersions the highest version per key. Unchanged candidates produce no
// row.
func (e *Engine) ApplyIncrement(
	batch []v1.KeyedRecord,
	current map[string]v1.HistoryEntry,
	maxVersions map[string]int,
	now time.Time,
	runID uuid.UUID,
) ([]v1.HistoryEntry, Plan) {
	var plan Plan
	batch = uniqueByKey(batch)
	out := make([]v1.HistoryEntry, 0)

	for _, cand := range batch {
		var cur *v1.HistoryEntry
		if row, ok := current[cand.BusinessKey]; ok {
			cur = &row
		}

		if !Changed(cand, cur, e.tracked) {
			plan.Unchanged++
			continue
		}

		maxVersion := maxVersions[cand.BusinessKey]
		if cur != nil && cur.Version > maxVersion {
			maxVersion = cur.Version
		}
		if cur == nil {
			plan.NewEntities++
		} else {
			plan.Changed++
		}
		out = append(out, e.newEntry(cand, maxVersion+1, now, runID))
	}

	return out, plan
}

func (e *Engine) newEntry(cand v1.KeyedRecord, version int, now time.Time, runID uuid.UUID) v1.HistoryEntry {
	return v1.HistoryEntry{
		SurrogateID:     e.idFn(),
		BusinessKey:     cand.BusinessKey,
		Version:         version,
		IsCurrent:       true,
		EffectiveFrom:   now,
		EffectiveTo:     nil,
		CanonicalRecord: cand.CanonicalRecord,
		LoadedAt:        now,
		RunID:           runID,
	}
}

// uniqueByKey keeps the first candidate per business key. Distinct natural
// keys only share a business key through a hash collision.
func uniqueByKey(batch []v1.KeyedRecord) []v1.KeyedRecord {
	seen := make(map[string]struct{}, len(batch))
	out := make([]v1.KeyedRecord, 0, len(batch))
	for _, cand := range batch {
		if _, dup := seen[cand.BusinessKey]; dup {
			continue
		}
		seen[cand.BusinessKey] = struct{}{}
		out = append(out, cand)
	}
	return out
}
