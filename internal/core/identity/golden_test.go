package identity

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	v1 "github.com/aevon-lab/review-history/internal/api/v1"
)

// Business keys are stored; any change to the derivation orphans history.
// The golden file pins the exact output.
func TestDeriveKey_Golden(t *testing.T) {
	date := func(y int, m time.Month, d int) *time.Time {
		v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &v
	}
	epoch := func(v int64) *int64 { return &v }

	cases := []struct {
		name string
		rec  v1.CanonicalRecord
	}{
		{"complete", sample()},
		{"absent_actor_and_text", v1.CanonicalRecord{
			EntityRef:      "B00ABC",
			EventDate:      date(2014, 2, 1),
			EpochTimestamp: epoch(1391212800),
		}},
		{"absent_epoch", v1.CanonicalRecord{
			EntityRef: "B000FA64PK",
			ActorID:   v1.StringPtr("A3SPTOKDG7WBLN"),
			EventDate: date(2009, 9, 13),
			FreeText1: v1.StringPtr("Great show, loved it"),
		}},
		{"unicode_text", v1.CanonicalRecord{
			EntityRef:      "B00ABC",
			ActorID:        v1.StringPtr("A1"),
			EventDate:      date(2014, 2, 1),
			EpochTimestamp: epoch(1391212800),
			FreeText1:      v1.StringPtr("café au lait"),
		}},
	}

	var buf bytes.Buffer
	for _, tc := range cases {
		fmt.Fprintf(&buf, "%s %s\n", tc.name, DeriveKey(tc.rec))
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "business_keys", buf.Bytes())
}
