package campaign

import "errors"

// Predefined errors for the campaign package.
var (
	// ErrCampaignNotFound indicates no campaign with the requested name is
	// configured. Callers should treat this as "not configured", a normal
	// recoverable condition.
	ErrCampaignNotFound = errors.New("campaign not found")

	// ErrNoImpressionLogged indicates a conversion was recorded for a
	// campaign with no prior variant assignment. This is a usage error,
	// not a transient one.
	ErrNoImpressionLogged = errors.New("no impression logged for campaign")

	// ErrNoVariantFound indicates the memoized assignment exists but holds
	// no usable variant.
	ErrNoVariantFound = errors.New("no variant found in memoized assignment")

	// ErrUnknownTemplate indicates a system campaign references a template
	// this client does not implement.
	ErrUnknownTemplate = errors.New("unknown system template")
)
