package assign

import (
	"errors"
	"math/rand"
	"time"
)

// Template is a built-in assignment strategy. Given a stable identifier and
// a set of candidates it selects one candidate.
type Template interface {
	// Assign selects a candidate for the identifier.
	Assign(identifier string, candidates []Candidate) (Candidate, error)
}

// WeightedRollout deterministically buckets identifiers across candidates
// according to their declared weights.
type WeightedRollout struct{}

// NewWeightedRollout creates the deterministic weighted-bucketing template.
func NewWeightedRollout() Template {
	return WeightedRollout{}
}

// Assign selects a candidate via weighted hash bucketing.
func (WeightedRollout) Assign(identifier string, candidates []Candidate) (Candidate, error) {
	return Pick(identifier, candidates)
}

// FeatureFlag rolls a feature out to a fixed percentage of identifiers.
// Identifiers whose hashed position falls below the threshold receive the
// first non-default candidate; everyone else receives the default.
type FeatureFlag struct {
	// Percent is the rollout threshold in [0, 100].
	Percent float64
}

// NewFeatureFlag creates a percentage-threshold template.
func NewFeatureFlag(percent float64) Template {
	return FeatureFlag{Percent: percent}
}

// Assign layers a threshold check over the same hash primitive used for
// weighted bucketing, so flag membership is stable per identifier.
func (f FeatureFlag) Assign(identifier string, candidates []Candidate) (Candidate, error) {
	if f.Percent < 0 || f.Percent > 100 {
		return Candidate{}, errors.Join(ErrInvalidTemplate,
			errors.New("rollout percent must be between 0 and 100"))
	}

	assignable, err := filterAssignable(candidates)
	if err != nil {
		return Candidate{}, err
	}

	if Position(identifier)*100 < f.Percent {
		for _, c := range assignable {
			if !c.Default {
				return c, nil
			}
		}
	}
	return defaultCandidate(assignable)
}

// TimeWindow gates another template behind a date range. Outside the window
// identifiers receive the default candidate.
type TimeWindow struct {
	NotBefore time.Time
	NotAfter  time.Time
	Inner     Template

	now func() time.Time
}

// TimeWindowOption configures a TimeWindow template.
type TimeWindowOption func(*TimeWindow)

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) TimeWindowOption {
	return func(t *TimeWindow) {
		t.now = now
	}
}

// NewTimeWindow creates a date-range gate around inner. A zero NotBefore or
// NotAfter leaves that side of the window open. A nil inner defaults to
// weighted rollout.
func NewTimeWindow(notBefore, notAfter time.Time, inner Template, opts ...TimeWindowOption) Template {
	if inner == nil {
		inner = NewWeightedRollout()
	}
	t := &TimeWindow{
		NotBefore: notBefore,
		NotAfter:  notAfter,
		Inner:     inner,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Assign delegates to the inner template while the window is open, and
// returns the default candidate otherwise.
func (t *TimeWindow) Assign(identifier string, candidates []Candidate) (Candidate, error) {
	now := t.now()
	if !t.NotBefore.IsZero() && now.Before(t.NotBefore) {
		return defaultCandidate(candidates)
	}
	if !t.NotAfter.IsZero() && now.After(t.NotAfter) {
		return defaultCandidate(candidates)
	}
	return t.Inner.Assign(identifier, candidates)
}

// WeightedRandom draws a fresh weighted random candidate on every call.
//
// It is intentionally non-deterministic and therefore NOT memoization-safe
// on its own: repeated calls for the same identifier may return different
// candidates. The campaign manager memoizes the first result one layer up.
type WeightedRandom struct {
	rnd func() float64
}

// WeightedRandomOption configures a WeightedRandom template.
type WeightedRandomOption func(*WeightedRandom)

// WithRand overrides the randomness source. Used in tests.
func WithRand(rnd func() float64) WeightedRandomOption {
	return func(w *WeightedRandom) {
		w.rnd = rnd
	}
}

// NewWeightedRandom creates the fresh-draw weighted template.
func NewWeightedRandom(opts ...WeightedRandomOption) Template {
	w := &WeightedRandom{rnd: rand.Float64}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Assign selects a candidate by a fresh random draw against the normalized
// cumulative weights. The identifier is ignored.
func (w *WeightedRandom) Assign(_ string, candidates []Candidate) (Candidate, error) {
	assignable, total, err := normalize(candidates)
	if err != nil {
		return Candidate{}, err
	}

	point := w.rnd()

	var cumulative float64
	for _, c := range assignable {
		cumulative += c.Weight / total
		if point < cumulative {
			return c, nil
		}
	}
	return assignable[len(assignable)-1], nil
}
