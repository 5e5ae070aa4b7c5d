package mutation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	v1 "github.com/aevon-lab/review-history/internal/api/v1"
	"github.com/aevon-lab/review-history/internal/core/versioning"
	"github.com/shopspring/decimal"
)

const defaultSampleSize = 5

var (
	minSynthetic = decimal.NewFromInt(1)
	maxSynthetic = decimal.NewFromInt(5)
)

// Config controls the mutation simulator. It is off unless Enabled is set.
type Config struct {
	Enabled    bool  `koanf:"enabled"`
	SampleSize int   `koanf:"sample_size"`
	Seed       int64 `koanf:"seed"` // 0 seeds from the clock
}

// Simulator perturbs a candidate batch before change detection.
// It returns the (possibly) rewritten batch and the keys it mutated.
type Simulator interface {
	Mutate(ctx context.Context, batch []v1.KeyedRecord, current map[string]v1.HistoryEntry) ([]v1.KeyedRecord, []string)
}

// New returns Noop when mutation is disabled. An enabled simulator only
// perturbs attributes in fields, so every mutation is visible to change
// detection.
func New(cfg Config, fields versioning.TrackedFields) Simulator {
	if !cfg.Enabled {
		return Noop{}
	}
	return NewRandom(cfg.SampleSize, cfg.Seed, fields)
}

// Noop passes the batch through untouched.
type Noop struct{}

func (Noop) Mutate(_ context.Context, batch []v1.KeyedRecord, _ map[string]v1.HistoryEntry) ([]v1.KeyedRecord, []string) {
	return batch, nil
}

// Random overwrites one tracked attribute of up to SampleSize candidates whose
// key is current in history. The new value is drawn from the attribute's domain
// and always differs from the current row; see perturb. Runs with the same seed
// and inputs select and produce the same values.
type Random struct {
	sampleSize int
	fields     versioning.TrackedFields
	rng        *rand.Rand
}

// NewRandom creates a seeded simulator. A zero seed uses the current time and
// empty fields fall back to the default tracked set.
func NewRandom(sampleSize int, seed int64, fields versioning.TrackedFields) *Random {
	if sampleSize <= 0 {
		sampleSize = defaultSampleSize
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if len(fields) == 0 {
		fields = versioning.DefaultTrackedFields()
	}
	return &Random{sampleSize: sampleSize, fields: fields, rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) Mutate(_ context.Context, batch []v1.KeyedRecord, current map[string]v1.HistoryEntry) ([]v1.KeyedRecord, []string) {
	eligible := make([]string, 0)
	positions := make(map[string]int)
	for i, cand := range batch {
		if _, ok := current[cand.BusinessKey]; !ok {
			continue
		}
		if _, dup := positions[cand.BusinessKey]; dup {
			continue
		}
		positions[cand.BusinessKey] = i
		eligible = append(eligible, cand.BusinessKey)
	}
	if len(eligible) == 0 {
		return batch, nil
	}

	// Sort first so selection depends only on the seed, not on batch order.
	sort.Strings(eligible)
	r.rng.Shuffle(len(eligible), func(i, j int) { eligible[i], eligible[j] = eligible[j], eligible[i] })
	if len(eligible) > r.sampleSize {
		eligible = eligible[:r.sampleSize]
	}

	out := make([]v1.KeyedRecord, len(batch))
	copy(out, batch)
	for _, key := range eligible {
		pos := positions[key]
		field := r.fields[0]
		if len(r.fields) > 1 {
			field = r.fields[r.rng.Intn(len(r.fields))]
		}
		r.perturb(&out[pos].CanonicalRecord, current[key].CanonicalRecord, field)
	}

	slog.Info("[Mutation] Perturbed candidates", "mutated", len(eligible), "eligible", len(positions))
	return out, eligible
}

// perturb overwrites field on rec with a value that differs from prev.
// Measured values come from [1.0, 5.0] in steps of 0.1. Text fields get a
// synthetic label.
func (r *Random) perturb(rec *v1.CanonicalRecord, prev v1.CanonicalRecord, field string) {
	switch field {
	case versioning.FieldFlag:
		rec.Flag = r.syntheticFlag(prev.Flag)
	case versioning.FieldActorLabel:
		rec.ActorLabel = r.syntheticText("reviewer", prev.ActorLabel)
	case versioning.FieldFreeText2:
		rec.FreeText2 = r.syntheticText("summary", prev.FreeText2)
	default:
		value := r.syntheticValue(prev.MeasuredValue)
		rec.MeasuredValue = &value
	}
}

// syntheticValue draws from {1.0, 1.1, ..., 5.0}, never equal to prev.
func (r *Random) syntheticValue(prev *decimal.Decimal) decimal.Decimal {
	steps := maxSynthetic.Sub(minSynthetic).Mul(decimal.NewFromInt(10)).IntPart()
	for {
		v := minSynthetic.Add(decimal.New(r.rng.Int63n(steps+1), -1)).Round(1)
		if prev == nil || !v.Equal(*prev) {
			return v
		}
	}
}

// syntheticFlag picks one of the two tri-state values other than prev.
func (r *Random) syntheticFlag(prev v1.Flag) v1.Flag {
	others := make([]v1.Flag, 0, 2)
	for _, f := range []v1.Flag{v1.FlagUnknown, v1.FlagTrue, v1.FlagFalse} {
		if f != prev {
			others = append(others, f)
		}
	}
	return others[r.rng.Intn(len(others))]
}

func (r *Random) syntheticText(prefix string, prev *string) *string {
	for {
		s := fmt.Sprintf("%s-%04d", prefix, r.rng.Intn(10000))
		if prev == nil || s != *prev {
			return &s
		}
	}
}
