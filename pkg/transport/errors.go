package transport

import "errors"

// Predefined errors for the transport package.
var (
	// ErrInvalidConfiguration indicates a client was constructed without a
	// base URL, API key, or app id.
	ErrInvalidConfiguration = errors.New("invalid transport configuration")

	// ErrUnexpectedStatus indicates the API answered with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrLoadExhausted indicates every app-data fetch attempt failed,
	// including the fallback path. This is a terminal load failure.
	ErrLoadExhausted = errors.New("app data fetch attempts exhausted")
)
