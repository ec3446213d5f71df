package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultRetryAttempts = 5
	defaultRetryDelay    = 2 * time.Second
	// fallbackFromAttempt is the first attempt served by the fallback path.
	fallbackFromAttempt = 3

	userAgent = "variantkit-go/1.0"
)

// Client talks to the remote configuration and campaign API.
// Zero value is not usable; use New.
type Client struct {
	baseURL string
	apiKey  string
	appID   string

	http          *http.Client
	logger        *slog.Logger
	retryAttempts int
	retryDelay    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client. Useful for custom
// transports and tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRetry overrides the app-data fetch retry policy.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.retryAttempts = attempts
		}
		if delay >= 0 {
			c.retryDelay = delay
		}
	}
}

// New creates an API client scoped to one application.
func New(baseURL, apiKey, appID string, opts ...Option) (*Client, error) {
	if baseURL == "" || apiKey == "" || appID == "" {
		return nil, fmt.Errorf("%w: base URL, API key, and app id are required", ErrInvalidConfiguration)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		appID:   appID,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:        slog.Default(),
		retryAttempts: defaultRetryAttempts,
		retryDelay:    defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchAppData loads the merged configuration payload. Up to five attempts
// with a fixed delay; from the third attempt the fallback path variant is
// used. Exhaustion surfaces ErrLoadExhausted.
func (c *Client) FetchAppData(ctx context.Context) (*AppData, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		path := "app-data"
		if attempt >= fallbackFromAttempt {
			path = "app-data/fallback"
		}

		var out AppData
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
			lastErr = err
			c.logger.Warn("app data fetch attempt failed",
				slog.Int("attempt", attempt),
				slog.String("path", path),
				slog.Any("error", err))
			continue
		}
		return &out, nil
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrLoadExhausted, c.retryAttempts, lastErr)
}

// FetchUserVariants asks the backend for its view of the user's variant
// assignments.
func (c *Client) FetchUserVariants(ctx context.Context, req UserVariantsRequest) (*UserVariantsResponse, error) {
	req.AppID = c.appID

	var out UserVariantsResponse
	if err := c.doJSON(ctx, http.MethodPost, "user-variants", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DelegateVariant performs one backend-delegated assignment call and
// returns the assigned content id. No local retry: the campaign manager
// falls back to the control variant on failure.
func (c *Client) DelegateVariant(ctx context.Context, req DelegateRequest) (string, error) {
	var out delegateResponse
	if err := c.doJSON(ctx, http.MethodPost, "get-round-robin-variant", req, &out); err != nil {
		return "", err
	}
	return out.ContentID, nil
}

// LogEvent submits a single event for a campaign.
func (c *Client) LogEvent(ctx context.Context, campaignID string, event any) error {
	return c.doJSON(ctx, http.MethodPost, campaignID+"/log-event", event, nil)
}

// LogEventBatch submits a batch of events in one request.
func (c *Client) LogEventBatch(ctx context.Context, events any) error {
	return c.doJSON(ctx, http.MethodPost, "log-event/batch", events, nil)
}

// SubmitForm posts a form payload and reports backend acceptance.
func (c *Client) SubmitForm(ctx context.Context, form FormSubmission) (bool, error) {
	var out formResponse
	if err := c.doJSON(ctx, http.MethodPost, "submit-form", form, &out); err != nil {
		return false, err
	}
	return out.Success, nil
}

// doJSON performs one request against an app-scoped path and decodes the
// response into out when non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	url := c.baseURL + "/" + c.appID + "/" + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// 64KB limit prevents memory exhaustion on hostile responses.
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.ReplaceAll(string(raw), "\n", " ")
		if len(msg) > 200 {
			msg = msg[:200] + "..."
		}
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrUnexpectedStatus, method, path, resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
