package dedup

import (
	v1 "github.com/aevon-lab/review-history/internal/api/v1"
)

// Deduplicate collapses records sharing a natural key within one batch.
//
// The record with the greatest epoch timestamp wins (absent counts as 0).
// Among equal timestamps the first occurrence in input order wins. Output is in
// first-occurrence order of each natural key; duplicates is the number of
// records dropped.
func Deduplicate(records []v1.CanonicalRecord) (out []v1.CanonicalRecord, duplicates int) {
	if len(records) == 0 {
		return nil, 0
	}

	index := make(map[v1.NaturalKey]int, len(records))
	out = make([]v1.CanonicalRecord, 0, len(records))

	for _, rec := range records {
		key := rec.NaturalKey()
		pos, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, rec)
			continue
		}

		duplicates++
		// The natural key includes the epoch, so this never fires today and
		// the first occurrence wins. It keeps the newest-wins rule intact if
		// the key ever drops the timestamp.
		if rec.Epoch() > out[pos].Epoch() {
			out[pos] = rec
		}
	}

	return out, duplicates
}
