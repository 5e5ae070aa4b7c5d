package versioning

import (
	"fmt"
	"sort"
	"strings"

	v1 "github.com/aevon-lab/review-history/internal/api/v1"
)

// Names of attributes that can be tracked for change detection.
const (
	FieldMeasuredValue = "measured_value"
	FieldFlag          = "flag"
	FieldActorLabel    = "actor_label"
	FieldFreeText2     = "free_text_2"
)

// comparators report whether a tracked attribute differs between two records.
var comparators = map[string]func(a, b v1.CanonicalRecord) bool{
	FieldMeasuredValue: func(a, b v1.CanonicalRecord) bool {
		if a.MeasuredValue == nil || b.MeasuredValue == nil {
			return (a.MeasuredValue == nil) != (b.MeasuredValue == nil)
		}
		return !a.MeasuredValue.Equal(*b.MeasuredValue)
	},
	FieldFlag: func(a, b v1.CanonicalRecord) bool {
		return a.Flag != b.Flag
	},
	FieldActorLabel: func(a, b v1.CanonicalRecord) bool {
		return !equalStrings(a.ActorLabel, b.ActorLabel)
	},
	FieldFreeText2: func(a, b v1.CanonicalRecord) bool {
		return !equalStrings(a.FreeText2, b.FreeText2)
	},
}

// TrackedFields is the set of attributes whose change produces a new version.
// Attributes that feed the business key are not trackable (see
// identity.DeriveKey): a change there is a different key, not a revision.
type TrackedFields []string

// DefaultTrackedFields tracks the measured value only.
func DefaultTrackedFields() TrackedFields {
	return TrackedFields{FieldMeasuredValue}
}

// ParseTrackedFields validates and de-duplicates field names.
func ParseTrackedFields(names []string) (TrackedFields, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("at least one tracked field is required")
	}
	seen := make(map[string]struct{}, len(names))
	out := make(TrackedFields, 0, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if _, ok := comparators[name]; !ok {
			return nil, fmt.Errorf("unsupported tracked field %q (supported: %s)", raw, strings.Join(SupportedFields(), ", "))
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

// SupportedFields lists trackable attribute names in sorted order.
func SupportedFields() []string {
	names := make([]string, 0, len(comparators))
	for name := range comparators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Changed is the change predicate. A candidate with no current row is always
// a change (a new entity); otherwise any differing tracked field is.
func Changed(candidate v1.KeyedRecord, current *v1.HistoryEntry, fields TrackedFields) bool {
	if current == nil {
		return true
	}
	for _, name := range fields {
		if cmp, ok := comparators[name]; ok && cmp(candidate.CanonicalRecord, current.CanonicalRecord) {
			return true
		}
	}
	return false
}

func equalStrings(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
