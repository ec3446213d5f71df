package assign

import "errors"

// Predefined errors for the assign package.
var (
	// ErrInvalidWeights indicates the candidate weights do not sum to a
	// positive number, or an individual weight is negative.
	ErrInvalidWeights = errors.New("candidate weights must sum to a positive number")

	// ErrNoCandidates indicates no assignable candidates remain after
	// filtering out candidates without a resolved value.
	ErrNoCandidates = errors.New("no assignable candidates")

	// ErrInvalidTemplate indicates an issue with the template configuration.
	ErrInvalidTemplate = errors.New("invalid assignment template configuration")
)
