package variantkit

import "errors"

// Predefined errors for configuration validation and client lifecycle.
var (
	// ErrMissingAPIKey is returned when the configuration has no API key.
	ErrMissingAPIKey = errors.New("missing api key")

	// ErrMissingAppID is returned when the configuration has no app id.
	ErrMissingAppID = errors.New("missing app id")

	// ErrMissingStorage is returned when no storage backend was provided.
	ErrMissingStorage = errors.New("missing storage backend")

	// ErrInvalidTTL is returned when the configured TTL is not positive.
	ErrInvalidTTL = errors.New("ttl must be positive")

	// ErrNotInitialized is returned by reads issued before Init was called.
	ErrNotInitialized = errors.New("client is not initialized")

	// ErrAlreadyInitialized is returned by a second Init call.
	ErrAlreadyInitialized = errors.New("client is already initialized")

	// ErrLoadFailed marks the terminal state after the initial configuration
	// load exhausted its retry budget. Distinguishable from "still loading":
	// queued reads fail with this error instead of blocking forever.
	ErrLoadFailed = errors.New("initial configuration load failed")

	// ErrClosed is returned by operations on a closed client.
	ErrClosed = errors.New("client is closed")
)
