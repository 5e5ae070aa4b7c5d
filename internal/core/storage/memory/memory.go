package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	v1 "github.com/aevon-lab/review-history/internal/api/v1"
	"github.com/aevon-lab/review-history/internal/core/versioning"
	"github.com/google/uuid"
)

// Store is an in-memory storage.HistoryStore.
// Useful for testing and development; nothing survives a restart.
type Store struct {
	mu    sync.RWMutex
	rows  []v1.HistoryEntry
	byID  map[uuid.UUID]int
	byKey map[string][]int
	runs  []v1.RunReport
}

// New creates an empty store.
func New() *Store {
	return &Store{
		byID:  make(map[uuid.UUID]int),
		byKey: make(map[string][]int),
	}
}

func (s *Store) HasHistory(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows) > 0, nil
}

func (s *Store) CurrentByKeys(_ context.Context, keys []string) (map[string]v1.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]v1.HistoryEntry, len(keys))
	for _, key := range keys {
		for _, idx := range s.byKey[key] {
			row := s.rows[idx]
			if !row.IsCurrent {
				continue
			}
			if prev, ok := out[key]; !ok || row.Version > prev.Version {
				out[key] = row
			}
		}
	}
	return out, nil
}

func (s *Store) MaxVersions(_ context.Context, keys []string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int, len(keys))
	for _, key := range keys {
		for _, idx := range s.byKey[key] {
			if v := s.rows[idx].Version; v > out[key] {
				out[key] = v
			}
		}
	}
	return out, nil
}

// InsertEntries validates the whole batch before appending any row, so a
// rejected batch leaves the store unchanged.
func (s *Store) InsertEntries(_ context.Context, entries []v1.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(entries)
}

func (s *Store) insertLocked(entries []v1.HistoryEntry) error {
	pending := make(map[string]map[int]struct{})
	for _, e := range entries {
		if e.Version < 1 {
			return fmt.Errorf("memory: insert %s: invalid version %d", e.BusinessKey, e.Version)
		}
		if _, exists := s.byID[e.SurrogateID]; exists {
			return fmt.Errorf("memory: insert %s: duplicate surrogate id %s", e.BusinessKey, e.SurrogateID)
		}
		for _, idx := range s.byKey[e.BusinessKey] {
			if s.rows[idx].Version == e.Version {
				return fmt.Errorf("memory: insert %s: version %d already exists", e.BusinessKey, e.Version)
			}
		}
		if pending[e.BusinessKey] == nil {
			pending[e.BusinessKey] = make(map[int]struct{})
		}
		if _, dup := pending[e.BusinessKey][e.Version]; dup {
			return fmt.Errorf("memory: insert %s: version %d repeated in batch", e.BusinessKey, e.Version)
		}
		pending[e.BusinessKey][e.Version] = struct{}{}
	}

	for _, e := range entries {
		idx := len(s.rows)
		s.rows = append(s.rows, e)
		s.byID[e.SurrogateID] = idx
		s.byKey[e.BusinessKey] = append(s.byKey[e.BusinessKey], idx)
	}
	return nil
}

func (s *Store) ExpireSuperseded(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired int64
	for _, exp := range versioning.Expire(s.rows, now) {
		idx := s.byID[exp.SurrogateID]
		to := exp.EffectiveTo
		s.rows[idx].IsCurrent = false
		s.rows[idx].EffectiveTo = &to
		expired++
	}
	return expired, nil
}

func (s *Store) InconsistentKeys(_ context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for key, idxs := range s.byKey {
		current := 0
		for _, idx := range idxs {
			if s.rows[idx].IsCurrent {
				current++
			}
		}
		if current > 1 {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Rebuild(_ context.Context, entries []v1.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, byID, byKey := s.rows, s.byID, s.byKey
	s.rows = nil
	s.byID = make(map[uuid.UUID]int)
	s.byKey = make(map[string][]int)
	if err := s.insertLocked(entries); err != nil {
		s.rows, s.byID, s.byKey = rows, byID, byKey
		return err
	}
	return nil
}

func (s *Store) History(_ context.Context, businessKey string) ([]v1.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]v1.HistoryEntry, 0, len(s.byKey[businessKey]))
	for _, idx := range s.byKey[businessKey] {
		out = append(out, s.rows[idx])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (s *Store) CurrentByEntity(_ context.Context, entityRef string, limit int) ([]v1.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []v1.HistoryEntry
	for _, row := range s.rows {
		if row.IsCurrent && row.EntityRef == entityRef {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EffectiveFrom.Equal(out[j].EffectiveFrom) {
			return out[i].EffectiveFrom.After(out[j].EffectiveFrom)
		}
		return out[i].BusinessKey < out[j].BusinessKey
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) RecordRun(_ context.Context, report v1.RunReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, report)
	return nil
}

func (s *Store) RecentRuns(_ context.Context, limit int) ([]v1.RunReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]v1.RunReport, 0, len(s.runs))
	for i := len(s.runs) - 1; i >= 0; i-- {
		out = append(out, s.runs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Snapshot returns a copy of every row in insertion order.
func (s *Store) Snapshot() []v1.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]v1.HistoryEntry, len(s.rows))
	copy(out, s.rows)
	return out
}
