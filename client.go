package variantkit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/variantlab/variantkit/pkg/campaign"
	"github.com/variantlab/variantkit/pkg/eventlog"
	"github.com/variantlab/variantkit/pkg/store"
	"github.com/variantlab/variantkit/pkg/transport"
)

// refreshTimeout bounds one background snapshot refresh.
const refreshTimeout = 30 * time.Second

// LoadState is the observable lifecycle state of the client.
type LoadState int

const (
	// StateCold means Init has not been called.
	StateCold LoadState = iota

	// StateLoading means the initial configuration load is in flight.
	StateLoading

	// StateReady means a snapshot is available and reads are served locally.
	StateReady

	// StateLoadFailed is terminal: the initial load exhausted its retry
	// budget with no cached snapshot to fall back on.
	StateLoadFailed
)

func (s LoadState) String() string {
	switch s {
	case StateCold:
		return "COLD"
	case StateLoading:
		return "LOADING"
	case StateReady:
		return "READY"
	case StateLoadFailed:
		return "LOAD_FAILED"
	default:
		return "UNKNOWN"
	}
}

// Client is the top-level entry point. It owns the persistent cache, the
// campaign manager, the event logger, and the transport, and ties them
// together with the load/refresh lifecycle.
//
// Construct with New, then call Init once to load configuration. Reads
// issued while the initial load is in flight are queued and released in
// call order when it completes.
type Client struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	storage       store.Storage
	httpClient    *http.Client
	eventOpts     []eventlog.LoggerOption
	retryAttempts int
	retryDelay    time.Duration

	api     *transport.Client
	cache   *store.Cache
	events  *eventlog.Logger
	manager *campaign.Manager

	mu         sync.Mutex
	state      LoadState
	waiters    []chan struct{}
	refreshing bool
	closed     bool

	subMu   sync.Mutex
	subs    map[uint64]func(Payload)
	nextSub uint64
}

// New validates the configuration and assembles the client. It performs no
// I/O; call Init to load configuration.
func New(cfg Config, opts ...Option) (*Client, error) {
	c := &Client{
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
		state:  StateCold,
		subs:   make(map[uint64]func(Payload)),
	}
	for _, opt := range opts {
		opt(c)
	}

	errs := []error{cfg.Validate()}
	if c.storage == nil {
		errs = append(errs, ErrMissingStorage)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	topts := []transport.Option{transport.WithLogger(c.logger)}
	if c.httpClient != nil {
		topts = append(topts, transport.WithHTTPClient(c.httpClient))
	}
	if c.retryAttempts > 0 {
		topts = append(topts, transport.WithRetry(c.retryAttempts, c.retryDelay))
	}
	api, err := transport.New(cfg.BaseURL, cfg.APIKey, cfg.AppID, topts...)
	if err != nil {
		return nil, err
	}
	c.api = api

	cache, err := store.NewCache(c.storage, store.WithLogger(c.logger), store.WithNow(c.now))
	if err != nil {
		return nil, err
	}
	c.cache = cache

	sender := eventlog.SenderFunc(func(ctx context.Context, entries []eventlog.Entry) error {
		return api.LogEventBatch(ctx, entries)
	})
	evOpts := append([]eventlog.LoggerOption{eventlog.WithLogger(c.logger)}, c.eventOpts...)
	events, err := eventlog.NewLogger(sender, evOpts...)
	if err != nil {
		return nil, err
	}
	c.events = events

	manager, err := campaign.NewManager(cache, events,
		campaign.WithDelegator(delegator{api: api}),
		campaign.WithLogger(c.logger),
		campaign.WithClientTag(cfg.ClientTag),
		campaign.WithNow(c.now),
	)
	if err != nil {
		return nil, err
	}
	c.manager = manager

	return c, nil
}

// Init hydrates the cache from storage and, unless the hydrated snapshot is
// still fresh, fetches configuration from the backend. On the first fetch
// failure with no usable snapshot the client enters the terminal
// LOAD_FAILED state and queued reads fail with ErrLoadFailed.
func (c *Client) Init(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != StateCold {
		c.mu.Unlock()
		return ErrAlreadyInitialized
	}
	c.state = StateLoading
	c.mu.Unlock()

	if err := c.cache.Load(ctx); err != nil {
		c.finish(StateLoadFailed)
		return err
	}

	// A fresh hydrated snapshot is authoritative: no network call.
	if !c.cache.Stale(c.cfg.TTL) {
		payload, err := c.seedFromSnapshot()
		if err != nil {
			c.finish(StateLoadFailed)
			return err
		}
		c.finish(StateReady)
		c.publish(payload)
		return nil
	}

	payload, err := c.fetchAndStore(ctx)
	if err != nil {
		c.finish(StateLoadFailed)
		return errors.Join(ErrLoadFailed, err)
	}
	c.finish(StateReady)
	c.publish(payload)
	return nil
}

// State reports the current lifecycle state.
func (c *Client) State() LoadState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// GetConfig returns the configuration value for key. Stale snapshots are
// served as-is while a background refresh runs.
func (c *Client) GetConfig(ctx context.Context, key string) (any, error) {
	if err := c.ensureReady(ctx); err != nil {
		return nil, err
	}
	c.maybeRefresh()
	return c.cache.Config(key)
}

// GetContent returns the content value for key.
func (c *Client) GetContent(ctx context.Context, key string) (any, error) {
	if err := c.ensureReady(ctx); err != nil {
		return nil, err
	}
	c.maybeRefresh()
	return c.cache.Content(key)
}

// GetVariant resolves the named campaign to a content id. The first call
// per campaign decides and memoizes the variant and logs an impression;
// every later call returns the memoized content id without side effects.
func (c *Client) GetVariant(ctx context.Context, name string) (string, error) {
	if err := c.ensureReady(ctx); err != nil {
		return "", err
	}
	c.maybeRefresh()

	a, err := c.manager.GetVariant(ctx, name)
	if err != nil {
		return "", err
	}
	return a.ContentID, nil
}

// RecordConversion logs a conversion attributed to the variant memoized at
// assignment time. Fails if no impression was logged for the campaign.
func (c *Client) RecordConversion(ctx context.Context, name string, metadata map[string]any) error {
	if err := c.ensureReady(ctx); err != nil {
		return err
	}
	return c.manager.RecordConversion(name, metadata)
}

// SetUserID pins a stable user identity. The session id rotates and
// transient caches clear, but existing variant assignments are preserved.
func (c *Client) SetUserID(ctx context.Context, userID string) error {
	if err := c.ensureReady(ctx); err != nil {
		return err
	}
	return c.cache.SetUserID(ctx, userID)
}

// RefreshUserVariants asks the backend for its view of this user's
// assignments and stores any the client has not decided locally yet.
// Local memos win over server state.
func (c *Client) RefreshUserVariants(ctx context.Context) error {
	if err := c.ensureReady(ctx); err != nil {
		return err
	}

	snap := c.cache.Snapshot()
	resp, err := c.api.FetchUserVariants(ctx, transport.UserVariantsRequest{
		UserID:      snap.UserID,
		SessionID:   snap.SessionID,
		CampaignIDs: c.manager.CampaignIDs(),
	})
	if err != nil {
		return err
	}

	now := c.now()
	for id, contentID := range resp.Variants {
		_, _, err := c.cache.PutAssignment(ctx, store.Assignment{
			EventType:  store.EventImpression,
			ContentID:  contentID,
			CampaignID: id,
			SessionID:  snap.SessionID,
			UserID:     snap.UserID,
			Client:     c.cfg.ClientTag,
			Timestamp:  now,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// SubmitForm posts an arbitrary form payload stamped with the current
// session and user identity.
func (c *Client) SubmitForm(ctx context.Context, fields map[string]any) (bool, error) {
	if err := c.ensureReady(ctx); err != nil {
		return false, err
	}

	snap := c.cache.Snapshot()
	return c.api.SubmitForm(ctx, transport.FormSubmission{
		Fields:    fields,
		SessionID: snap.SessionID,
		UserID:    snap.UserID,
	})
}

// Logout stops the event flush timer, drops buffered events, clears the
// snapshot including assignments, and rotates the session identity.
// Campaign definitions survive; the next user starts a fresh epoch.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.ensureReady(ctx); err != nil {
		return err
	}
	c.events.Stop()
	return c.cache.Reset(ctx)
}

// Close releases all resources. The client is unusable afterwards.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.events.Stop()
	c.cache.Close()
}

// ensureReady gates reads on the load lifecycle. Calls issued while the
// initial load is in flight park on a FIFO queue and are released in call
// order when the load completes.
func (c *Client) ensureReady(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateReady:
		c.mu.Unlock()
		return nil
	case StateLoadFailed:
		c.mu.Unlock()
		return ErrLoadFailed
	case StateCold:
		c.mu.Unlock()
		return ErrNotInitialized
	}

	w := make(chan struct{})
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()

	select {
	case <-w:
	case <-ctx.Done():
		return ctx.Err()
	}

	c.mu.Lock()
	st := c.state
	c.mu.Unlock()
	if st != StateReady {
		return ErrLoadFailed
	}
	return nil
}

// finish transitions out of LOADING and releases queued waiters in order.
func (c *Client) finish(state LoadState) {
	c.mu.Lock()
	c.state = state
	waiters := c.waiters
	c.waiters = nil
	c.mu.Unlock()

	for _, w := range waiters {
		close(w)
	}
}

// maybeRefresh starts one background refetch when the snapshot has gone
// stale. The refreshing flag single-flights it: the first stale read after
// the TTL boundary triggers exactly one fetch, concurrent reads keep being
// served from the stale snapshot.
func (c *Client) maybeRefresh() {
	c.mu.Lock()
	if c.refreshing || c.closed || c.state != StateReady || !c.cache.Stale(c.cfg.TTL) {
		c.mu.Unlock()
		return
	}
	c.refreshing = true
	c.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		payload, err := c.fetchAndStore(ctx)

		c.mu.Lock()
		c.refreshing = false
		c.mu.Unlock()

		if err != nil {
			// Keep serving the stale snapshot; the next stale read retries.
			c.logger.WarnContext(ctx, "background refresh failed", "error", err)
			return
		}
		c.publish(payload)
	}()
}

// fetchAndStore fetches the remote payload, persists it write-through, and
// resets the campaign definitions.
func (c *Client) fetchAndStore(ctx context.Context) (Payload, error) {
	data, err := c.api.FetchAppData(ctx)
	if err != nil {
		return Payload{}, err
	}

	defs, err := decodeCampaigns(data.Campaigns)
	if err != nil {
		return Payload{}, err
	}

	if err := c.cache.SetRemoteData(ctx, data.AppConfig, data.Campaigns, data.Content); err != nil {
		// The in-memory snapshot is updated; only persistence failed.
		c.logger.WarnContext(ctx, "snapshot persist failed", "error", err)
	}
	c.manager.SetCampaigns(defs)

	return Payload{Configs: data.AppConfig, Campaigns: defs, Content: data.Content}, nil
}

// seedFromSnapshot rebuilds campaign definitions from a hydrated snapshot.
func (c *Client) seedFromSnapshot() (Payload, error) {
	snap := c.cache.Snapshot()
	defs, err := decodeCampaigns(snap.Campaigns)
	if err != nil {
		return Payload{}, err
	}
	c.manager.SetCampaigns(defs)
	return Payload{Configs: snap.Configs, Campaigns: defs, Content: snap.Content}, nil
}

func decodeCampaigns(raw json.RawMessage) ([]campaign.Campaign, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var defs []campaign.Campaign
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, err
	}
	return defs, nil
}

// delegator adapts the transport to the campaign manager's backend
// delegation contract.
type delegator struct {
	api *transport.Client
}

func (d delegator) DelegateVariant(ctx context.Context, req campaign.DelegateRequest) (string, error) {
	return d.api.DelegateVariant(ctx, transport.DelegateRequest{
		CampaignID: req.CampaignID,
		UserID:     req.UserID,
		SessionID:  req.SessionID,
		Client:     req.Client,
	})
}
