package variantkit

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/variantlab/variantkit/pkg/eventlog"
	"github.com/variantlab/variantkit/pkg/store"
)

// Option configures a Client.
type Option func(*Client)

// WithStorage sets the persistent storage backend. Required.
func WithStorage(s store.Storage) Option {
	return func(c *Client) {
		c.storage = s
	}
}

// WithLogger sets the structured logger shared by all components.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient overrides the HTTP client used by the transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithEventOptions forwards options to the embedded event logger, for
// tuning buffer capacity, flush interval, or batch size.
func WithEventOptions(opts ...eventlog.LoggerOption) Option {
	return func(c *Client) {
		c.eventOpts = append(c.eventOpts, opts...)
	}
}

// WithRetry overrides the configuration fetch retry policy. Defaults to
// 5 attempts with a fixed 2s delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.retryAttempts = attempts
		c.retryDelay = delay
	}
}

// WithNow overrides the time source. Used in tests.
func WithNow(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}
