package versioning

import (
	"fmt"
	"sort"

	v1 "github.com/aevon-lab/review-history/internal/api/v1"
)

// Violation describes a broken history invariant for one business key.
type Violation struct {
	BusinessKey string
	Reason      string
}

// Audit checks a full history at rest. Per key:
//   - exactly one current row
//   - versions contiguous from 1
//   - effective_to set on non-current rows only
func Audit(entries []v1.HistoryEntry) []Violation {
	byKey := make(map[string][]v1.HistoryEntry)
	for _, e := range entries {
		byKey[e.BusinessKey] = append(byKey[e.BusinessKey], e)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Violation
	for _, key := range keys {
		rows := byKey[key]
		sort.Slice(rows, func(i, j int) bool { return rows[i].Version < rows[j].Version })

		current := 0
		for i, row := range rows {
			if row.Version != i+1 {
				out = append(out, Violation{BusinessKey: key, Reason: fmt.Sprintf("version gap: expected %d, got %d", i+1, row.Version)})
				break
			}
		}
		for _, row := range rows {
			if row.IsCurrent {
				current++
				if row.EffectiveTo != nil {
					out = append(out, Violation{BusinessKey: key, Reason: fmt.Sprintf("current version %d has effective_to", row.Version)})
				}
			} else if row.EffectiveTo == nil {
				out = append(out, Violation{BusinessKey: key, Reason: fmt.Sprintf("expired version %d has no effective_to", row.Version)})
			}
		}
		if current != 1 {
			out = append(out, Violation{BusinessKey: key, Reason: fmt.Sprintf("%d current rows", current)})
		}
	}
	return out
}
