package versioning

import (
	"time"

	v1 "github.com/aevon-lab/review-history/internal/api/v1"
	"github.com/google/uuid"
)

// Expiration identifies a current row that a newer current row supersedes.
type Expiration struct {
	SurrogateID uuid.UUID
	BusinessKey string
	Version     int
	EffectiveTo time.Time
}

// Expire applies the supersession rule to a set of rows: a current row is
// expired when a strictly greater version of the same key is also current.
// It does not look at the incoming batch, so it handles several versions
// inserted in one run, and re-running it after it converged is a no-op.
func Expire(entries []v1.HistoryEntry, now time.Time) []Expiration {
	maxCurrent := make(map[string]int)
	for _, e := range entries {
		if !e.IsCurrent {
			continue
		}
		if e.Version > maxCurrent[e.BusinessKey] {
			maxCurrent[e.BusinessKey] = e.Version
		}
	}

	var out []Expiration
	for _, e := range entries {
		if e.IsCurrent && e.Version < maxCurrent[e.BusinessKey] {
			out = append(out, Expiration{
				SurrogateID: e.SurrogateID,
				BusinessKey: e.BusinessKey,
				Version:     e.Version,
				EffectiveTo: now,
			})
		}
	}
	return out
}
