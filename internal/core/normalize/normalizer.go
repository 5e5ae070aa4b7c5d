package normalize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	v1 "github.com/aevon-lab/review-history/internal/api/v1"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"
)

// ErrMalformedInput marks a raw record that cannot produce a complete canonical record.
var ErrMalformedInput = errors.New("malformed input")

const defaultWorkerCount = 8

// MeasuredScale is the number of decimal places kept for a measured value.
// It matches the history column so a stored row compares equal to the
// candidate it was written from.
const MeasuredScale int32 = 2

var (
	minMeasured = decimal.Zero
	maxMeasured = decimal.NewFromInt(5)

	truthyTokens = map[string]struct{}{"true": {}, "t": {}, "yes": {}, "y": {}, "1": {}}
	falsyTokens  = map[string]struct{}{"false": {}, "f": {}, "no": {}, "n": {}, "0": {}}

	// Tried in order; the first successful parse wins.
	dateLayouts = []string{
		"01 2, 2006",
		"2006-01-02",
		"01/02/2006",
		"Jan 2, 2006",
		"2 Jan 2006",
		time.RFC3339,
	}
)

// FieldMapping names the raw source fields each canonical field is read from.
type FieldMapping struct {
	EntityRef      string `koanf:"entity_ref"`
	ActorID        string `koanf:"actor_id"`
	ActorLabel     string `koanf:"actor_label"`
	MeasuredValue  string `koanf:"measured_value"`
	Flag           string `koanf:"flag"`
	EventDate      string `koanf:"event_date"`
	EpochTimestamp string `koanf:"epoch_timestamp"`
	FreeText1      string `koanf:"free_text_1"`
	FreeText2      string `koanf:"free_text_2"`
}

// DefaultFieldMapping matches the product-review dataset.
func DefaultFieldMapping() FieldMapping {
	return FieldMapping{
		EntityRef:      "asin",
		ActorID:        "reviewerID",
		ActorLabel:     "reviewerName",
		MeasuredValue:  "overall",
		Flag:           "verified",
		EventDate:      "reviewTime",
		EpochTimestamp: "unixReviewTime",
		FreeText1:      "reviewText",
		FreeText2:      "summary",
	}
}

// Normalizer turns raw records into canonical records. It holds no mutable
// state and is safe for concurrent use.
type Normalizer struct {
	fields      FieldMapping
	workerCount int
}

// New creates a Normalizer. A non-positive workerCount uses the default.
func New(fields FieldMapping, workerCount int) *Normalizer {
	if workerCount <= 0 {
		workerCount = defaultWorkerCount
	}
	return &Normalizer{fields: fields, workerCount: workerCount}
}

// Normalize cleans one raw record. Records missing the entity reference,
// measured value or event date are rejected with ErrMalformedInput.
func (n *Normalizer) Normalize(raw v1.RawRecord) (v1.CanonicalRecord, error) {
	rec := v1.CanonicalRecord{
		Flag:           ParseFlag(raw, n.fields.Flag),
		ActorID:        trimmed(raw, n.fields.ActorID),
		ActorLabel:     trimmed(raw, n.fields.ActorLabel),
		FreeText1:      CleanText(raw, n.fields.FreeText1),
		FreeText2:      CleanText(raw, n.fields.FreeText2),
		EpochTimestamp: ParseEpoch(raw, n.fields.EpochTimestamp),
	}

	if s, ok := raw.String(n.fields.EntityRef); ok {
		rec.EntityRef = strings.ToUpper(strings.TrimSpace(s))
	}
	rec.MeasuredValue = ParseMeasured(raw, n.fields.MeasuredValue)
	rec.EventDate = ParseEventDate(raw, n.fields.EventDate, rec.EpochTimestamp)

	if err := rec.Validate(); err != nil {
		return v1.CanonicalRecord{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return rec, nil
}

// Batch normalizes records concurrently and returns the accepted records in
// input order together with the number of rejected ones.
func (n *Normalizer) Batch(ctx context.Context, raws []v1.RawRecord) ([]v1.CanonicalRecord, int, error) {
	results := make([]*v1.CanonicalRecord, len(raws))
	var rejected atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.workerCount)
	for i := range raws {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := n.Normalize(raws[i])
			if err != nil {
				rejected.Add(1)
				return nil
			}
			results[i] = &rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("normalize batch: %w", err)
	}

	out := make([]v1.CanonicalRecord, 0, len(raws)-int(rejected.Load()))
	for _, rec := range results {
		if rec != nil {
			out = append(out, *rec)
		}
	}
	return out, int(rejected.Load()), nil
}

// ParseMeasured casts the field to a decimal rounded half away from zero to
// MeasuredScale places and clamped into [0, 5].
// Returns nil when the value is missing or not numeric.
func ParseMeasured(raw v1.RawRecord, field string) *decimal.Decimal {
	v, ok := raw.Lookup(field)
	if !ok {
		return nil
	}

	var d decimal.Decimal
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		d = decimal.NewFromFloat(val)
	case float32:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		d = decimal.NewFromFloat(f)
	case int:
		d = decimal.NewFromInt(int64(val))
	case int64:
		d = decimal.NewFromInt(val)
	case json.Number:
		parsed, err := decimal.NewFromString(val.String())
		if err != nil {
			return nil
		}
		d = parsed
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil {
			return nil
		}
		d = parsed
	default:
		return nil
	}

	d = Clamp(d.Round(MeasuredScale))
	return &d
}

// Clamp bounds a measured value into [0, 5].
func Clamp(d decimal.Decimal) decimal.Decimal {
	if d.LessThan(minMeasured) {
		return minMeasured
	}
	if d.GreaterThan(maxMeasured) {
		return maxMeasured
	}
	return d
}

// ParseFlag maps the closed token sets onto a tri-state flag.
func ParseFlag(raw v1.RawRecord, field string) v1.Flag {
	v, ok := raw.Lookup(field)
	if !ok {
		return v1.FlagUnknown
	}
	if b, isBool := v.(bool); isBool {
		return v1.FlagFromBool(&b)
	}
	s, _ := raw.String(field)
	token := strings.ToLower(strings.TrimSpace(s))
	if _, hit := truthyTokens[token]; hit {
		return v1.FlagTrue
	}
	if _, hit := falsyTokens[token]; hit {
		return v1.FlagFalse
	}
	return v1.FlagUnknown
}

// ParseEpoch reads an integer epoch-seconds field.
func ParseEpoch(raw v1.RawRecord, field string) *int64 {
	v, ok := raw.Lookup(field)
	if !ok {
		return nil
	}

	var out int64
	switch val := v.(type) {
	case float64:
		i, ok := epochFromFloat(val)
		if !ok {
			return nil
		}
		out = i
	case int:
		out = int64(val)
	case int64:
		out = val
	case json.Number:
		i, err := val.Int64()
		if err != nil {
			f, ferr := val.Float64()
			if ferr != nil {
				return nil
			}
			var ok bool
			if i, ok = epochFromFloat(f); !ok {
				return nil
			}
		}
		out = i
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return nil
		}
		out = i
	default:
		return nil
	}
	return &out
}

// epochFromFloat truncates f toward zero. Values outside the int64 range
// have no defined conversion and are rejected.
func epochFromFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// ParseEventDate runs the layout chain against the date field and falls back
// to the epoch timestamp (seconds since the Unix epoch). The result is a UTC
// calendar date.
func ParseEventDate(raw v1.RawRecord, field string, epoch *int64) *time.Time {
	if s, ok := raw.String(field); ok {
		s = collapseSpaces(s)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				d := toDate(t)
				return &d
			}
		}
	}
	if epoch != nil {
		d := toDate(time.Unix(*epoch, 0))
		return &d
	}
	return nil
}

// CleanText applies NFC, collapses whitespace runs and trims. Empty becomes nil.
func CleanText(raw v1.RawRecord, field string) *string {
	s, ok := raw.String(field)
	if !ok {
		return nil
	}
	s = collapseSpaces(norm.NFC.String(s))
	if s == "" {
		return nil
	}
	return &s
}

func trimmed(raw v1.RawRecord, field string) *string {
	s, ok := raw.String(field)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func toDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
