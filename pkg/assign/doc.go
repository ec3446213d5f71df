// Package assign implements deterministic variant assignment for weighted
// campaigns.
//
// The core primitive is a salted DJB2 hash that maps a stable identifier
// (typically a user ID) into a large bucket space. Weighted bucketing walks
// the normalized cumulative weights of the candidate variants against the
// hashed position, so the same identifier always lands on the same variant
// while the population distribution converges to the declared weights.
//
// On top of the hash primitive the package provides the built-in assignment
// templates: weighted rollout, feature flag (percentage threshold), time
// window, and weighted random. All templates except WeightedRandom are pure
// functions of (identifier, candidates) and are therefore safe to memoize.
// WeightedRandom draws fresh randomness on every call; memoization for it
// must happen in the campaign manager, one layer up.
//
// # Usage
//
//	candidates := []assign.Candidate{
//		{ID: "control", Value: "10", Weight: 1},
//		{ID: "treatment", Value: "20", Weight: 1},
//	}
//
//	tpl := assign.NewWeightedRollout()
//	picked, err := tpl.Assign("u-42", candidates)
//	if err != nil {
//		// handle error
//	}
//	_ = picked.Value
//
// # Error Handling
//
// Candidates with an empty Value are excluded before normalization. If the
// remaining candidates have a non-positive total weight the engine fails
// with ErrInvalidWeights; an empty candidate set fails with ErrNoCandidates.
// Both can be checked with errors.Is.
package assign
