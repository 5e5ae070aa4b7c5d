package v1

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UnknownActor stands in for a missing actor reference in natural keys.
const UnknownActor = "UNKNOWN"

// RawRecord is one source record exactly as received. Values are loosely typed:
// JSON decoding yields strings, float64/json.Number and bools.
type RawRecord map[string]interface{}

// Lookup returns the raw value for field and whether it is present and non-null.
func (r RawRecord) Lookup(field string) (interface{}, bool) {
	if field == "" {
		return nil, false
	}
	v, ok := r[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String renders a field as a string. Numbers are formatted without exponent.
func (r RawRecord) String(field string) (string, bool) {
	v, ok := r.Lookup(field)
	if !ok {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return fmt.Sprint(val), true
	}
}

// Flag is a tri-state boolean.
type Flag int8

const (
	FlagUnknown Flag = iota
	FlagTrue
	FlagFalse
)

func (f Flag) String() string {
	switch f {
	case FlagTrue:
		return "true"
	case FlagFalse:
		return "false"
	default:
		return "unknown"
	}
}

// Bool returns the flag as a nullable bool.
func (f Flag) Bool() *bool {
	switch f {
	case FlagTrue:
		b := true
		return &b
	case FlagFalse:
		b := false
		return &b
	default:
		return nil
	}
}

// FlagFromBool is the inverse of Flag.Bool.
func FlagFromBool(b *bool) Flag {
	if b == nil {
		return FlagUnknown
	}
	if *b {
		return FlagTrue
	}
	return FlagFalse
}

func (f Flag) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Bool())
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	var b *bool
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	*f = FlagFromBool(b)
	return nil
}

// CanonicalRecord is the normalized projection of a RawRecord.
// Pointer fields are nil when the value is absent.
type CanonicalRecord struct {
	EntityRef      string           `json:"entity_ref"`
	ActorID        *string          `json:"actor_id,omitempty"`
	ActorLabel     *string          `json:"actor_label,omitempty"`
	MeasuredValue  *decimal.Decimal `json:"measured_value,omitempty"`
	Flag           Flag             `json:"flag"`
	EventDate      *time.Time       `json:"event_date,omitempty"`
	EpochTimestamp *int64           `json:"epoch_timestamp,omitempty"`
	FreeText1      *string          `json:"free_text_1,omitempty"`
	FreeText2      *string          `json:"free_text_2,omitempty"`
}

// NaturalKey identifies a submission for intra-batch dedup only.
// It is not an identity across runs; see identity.DeriveKey.
type NaturalKey struct {
	EntityRef      string
	ActorID        string
	EpochTimestamp int64
}

// NaturalKey returns the dedup key, defaulting a missing actor to UnknownActor
// and a missing epoch timestamp to 0.
func (c CanonicalRecord) NaturalKey() NaturalKey {
	return NaturalKey{
		EntityRef:      c.EntityRef,
		ActorID:        StringOr(c.ActorID, UnknownActor),
		EpochTimestamp: c.Epoch(),
	}
}

// Epoch returns the epoch timestamp or 0 when absent.
func (c CanonicalRecord) Epoch() int64 {
	if c.EpochTimestamp == nil {
		return 0
	}
	return *c.EpochTimestamp
}

// Validate ensures the fields required for identity and history are present.
func (c CanonicalRecord) Validate() error {
	if strings.TrimSpace(c.EntityRef) == "" {
		return fmt.Errorf("entity_ref is required")
	}
	if c.MeasuredValue == nil {
		return fmt.Errorf("measured_value is required")
	}
	if c.EventDate == nil {
		return fmt.Errorf("event_date is required")
	}
	return nil
}

// KeyedRecord is a canonical record with its business key attached.
type KeyedRecord struct {
	CanonicalRecord
	BusinessKey string `json:"business_key"`
}

// StringOr dereferences s, returning def when s is nil.
func StringOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
