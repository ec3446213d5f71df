package assign

import (
	"errors"
	"fmt"
)

// Candidate is one assignable outcome of a campaign: a variant identity,
// the content value it resolves to, and its assignment weight.
type Candidate struct {
	ID      string  `json:"id"`
	Name    string  `json:"name,omitempty"`
	Value   string  `json:"value"`
	Weight  float64 `json:"weight"`
	Default bool    `json:"default,omitempty"`
}

// Pick deterministically selects one candidate for the identifier.
//
// Candidates with an empty Value are excluded before normalization.
// The remaining weights are normalized to sum to 1 and walked in declared
// order against the identifier's hashed position; the first candidate whose
// cumulative boundary exceeds the position wins. If floating-point drift
// leaves no match, the last candidate is returned.
//
// Pick is a pure function of (identifier, candidates): no hidden state,
// no I/O.
func Pick(identifier string, candidates []Candidate) (Candidate, error) {
	assignable, total, err := normalize(candidates)
	if err != nil {
		return Candidate{}, err
	}

	point := Position(identifier)

	var cumulative float64
	for _, c := range assignable {
		cumulative += c.Weight / total
		if point < cumulative {
			return c, nil
		}
	}

	// Floating-point drift can leave cumulative slightly below 1.
	return assignable[len(assignable)-1], nil
}

// filterAssignable drops candidates without a resolved value. A variant
// whose content did not resolve must never be assigned.
func filterAssignable(candidates []Candidate) ([]Candidate, error) {
	assignable := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Value == "" {
			continue
		}
		assignable = append(assignable, c)
	}
	if len(assignable) == 0 {
		return nil, ErrNoCandidates
	}
	return assignable, nil
}

// normalize filters out candidates without a resolved value and validates
// the remaining weights. Returns the assignable candidates and their total
// weight.
func normalize(candidates []Candidate) ([]Candidate, float64, error) {
	assignable, err := filterAssignable(candidates)
	if err != nil {
		return nil, 0, err
	}

	var total float64
	for _, c := range assignable {
		if c.Weight < 0 {
			return nil, 0, errors.Join(ErrInvalidWeights,
				fmt.Errorf("candidate %q has negative weight %v", c.ID, c.Weight))
		}
		total += c.Weight
	}
	if total <= 0 {
		return nil, 0, ErrInvalidWeights
	}

	return assignable, total, nil
}

// defaultCandidate returns the candidate marked as default, falling back to
// the last candidate when none is marked. Weights are not validated here;
// a default must be returnable even for a zero-weight flag campaign.
func defaultCandidate(candidates []Candidate) (Candidate, error) {
	assignable, err := filterAssignable(candidates)
	if err != nil {
		return Candidate{}, err
	}
	for _, c := range assignable {
		if c.Default {
			return c, nil
		}
	}
	return assignable[len(assignable)-1], nil
}
