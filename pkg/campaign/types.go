package campaign

import (
	"time"

	"github.com/variantlab/variantkit/pkg/assign"
)

// Type distinguishes built-in system templates from custom campaigns.
type Type string

const (
	TypeSystem Type = "system"
	TypeCustom Type = "custom"
)

// System template identifiers. The first four are evaluated locally; the
// last two delegate bucketing to the backend.
const (
	SystemWeightedRollout = "weighted-rollout"
	SystemFeatureFlag     = "feature-flag"
	SystemTimeWindow      = "time-window"
	SystemWeightedRandom  = "weighted-random"
	SystemRoundRobin      = "round-robin"
	SystemBandit          = "bandit"
)

// Variant is one outcome of a campaign with its assignment weight.
type Variant struct {
	ID      string  `json:"id"`
	Name    string  `json:"name,omitempty"`
	Value   string  `json:"value"`
	Weight  float64 `json:"weight"`
	Default bool    `json:"default,omitempty"`
}

// DateSettings bounds a campaign to a date range. Zero values leave that
// side open.
type DateSettings struct {
	StartAt time.Time `json:"startAt,omitzero"`
	EndAt   time.Time `json:"endAt,omitzero"`
}

// Campaign is one named test with weighted variants. Definitions are
// immutable once fetched and replaced wholesale on refresh.
//
// Older definitions declare their variants through the control/A/B field
// triple instead of the Variants list; Candidates merges both shapes into
// one vocabulary.
type Campaign struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Type             Type          `json:"type"`
	Variants         []Variant     `json:"variants,omitempty"`
	SystemFunctionID string        `json:"systemFunctionId,omitempty"`
	RolloutPercent   float64       `json:"rolloutPercent,omitempty"`
	DateSettings     *DateSettings `json:"dateSettings,omitempty"`

	ControlWeight     float64  `json:"controlWeight,omitempty"`
	ControlContentID  string   `json:"controlContentId,omitempty"`
	VariantAWeight    float64  `json:"variantAWeight,omitempty"`
	VariantAContentID string   `json:"variantAContentId,omitempty"`
	VariantBWeight    *float64 `json:"variantBWeight,omitempty"`
	VariantBContentID string   `json:"variantBContentId,omitempty"`
}

// Delegated reports whether variant bucketing is delegated to the backend.
func (c *Campaign) Delegated() bool {
	return c.SystemFunctionID == SystemRoundRobin || c.SystemFunctionID == SystemBandit
}

// Candidates returns the assignable candidates in declared order. The
// explicit Variants list wins; otherwise candidates are synthesized from
// the legacy control/A/B fields.
func (c *Campaign) Candidates() []assign.Candidate {
	if len(c.Variants) > 0 {
		out := make([]assign.Candidate, len(c.Variants))
		for i, v := range c.Variants {
			out[i] = assign.Candidate{
				ID:      v.ID,
				Name:    v.Name,
				Value:   v.Value,
				Weight:  v.Weight,
				Default: v.Default,
			}
		}
		return out
	}

	out := []assign.Candidate{
		{ID: "control", Value: c.ControlContentID, Weight: c.ControlWeight, Default: true},
		{ID: "variant-a", Value: c.VariantAContentID, Weight: c.VariantAWeight},
	}
	if c.VariantBContentID != "" {
		var w float64
		if c.VariantBWeight != nil {
			w = *c.VariantBWeight
		}
		out = append(out, assign.Candidate{ID: "variant-b", Value: c.VariantBContentID, Weight: w})
	}
	return out
}

// Control returns the declared control candidate: the default variant when
// one is marked, the first candidate otherwise.
func (c *Campaign) Control() assign.Candidate {
	candidates := c.Candidates()
	for _, cand := range candidates {
		if cand.Default {
			return cand
		}
	}
	if len(candidates) > 0 {
		return candidates[0]
	}
	return assign.Candidate{}
}
