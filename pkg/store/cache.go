package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

const (
	// defaultBlobKey is the storage key the snapshot blob is persisted under.
	defaultBlobKey = "variantkit.snapshot"

	// defaultTransientTTL bounds how long resolved content lookups stay in
	// the in-memory transient cache.
	defaultTransientTTL = 5 * time.Minute
)

// Cache is the write-through persistent cache. It holds the authoritative
// Snapshot in memory and serializes it to the storage backend on every
// mutation. The cache is the sole mutable shared resource of the client;
// all components read and write through it.
type Cache struct {
	mu      sync.RWMutex
	storage Storage
	blobKey string
	snap    Snapshot

	// transient memoizes resolved content lookups with a TTL. It is
	// invalidated on identity rotation and never holds assignments.
	transient *ttlcache.Cache[string, any]

	logger *slog.Logger
	now    func() time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithBlobKey overrides the storage key for the snapshot blob.
func WithBlobKey(key string) CacheOption {
	return func(c *Cache) {
		c.blobKey = key
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithNow overrides the time source. Used in tests to drive TTL staleness.
func WithNow(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates a cache over the given storage backend.
func NewCache(storage Storage, opts ...CacheOption) (*Cache, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}

	c := &Cache{
		storage: storage,
		blobKey: defaultBlobKey,
		snap:    Snapshot{Version: SnapshotVersion},
		transient: ttlcache.New(
			ttlcache.WithTTL[string, any](defaultTransientTTL),
		),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.transient.Start()

	return c, nil
}

// Close stops the transient cache's expiration loop.
func (c *Cache) Close() {
	c.transient.Stop()
}

// Load hydrates the snapshot from storage. A missing blob starts the cache
// cold; a corrupt or version-mismatched blob is discarded (logged, not
// fatal) and the cache starts cold as well. Load guarantees a session ID
// exists afterwards.
func (c *Cache) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := c.storage.GetItem(ctx, c.blobKey)
	switch {
	case errors.Is(err, ErrItemNotFound):
		// Cold start.
	case err != nil:
		return fmt.Errorf("load snapshot: %w", err)
	default:
		var snap Snapshot
		if uerr := json.Unmarshal([]byte(raw), &snap); uerr != nil {
			c.logger.Warn("discarding corrupt snapshot blob", slog.Any("error", errors.Join(ErrSnapshotCorrupt, uerr)))
		} else if snap.Version != SnapshotVersion {
			c.logger.Warn("discarding snapshot with unknown version",
				slog.Int("version", snap.Version),
				slog.Int("supported", SnapshotVersion))
		} else {
			c.snap = snap
		}
	}

	if c.snap.SessionID == "" {
		c.snap.SessionID = newSessionID(c.now())
		return c.persistLocked(ctx)
	}
	return nil
}

// Snapshot returns a copy of the current snapshot.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.clone()
}

// Stale reports whether the snapshot is older than ttl.
func (c *Cache) Stale(ttl time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.Stale(ttl, c.now())
}

// LastFetch returns the time of the last successful remote load.
func (c *Cache) LastFetch() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.LastFetch
}

// SetRemoteData replaces configuration, campaign definitions, and content
// wholesale with a freshly fetched payload, stamps LastFetch, and persists
// the snapshot atomically as a single write-through.
func (c *Cache) SetRemoteData(ctx context.Context, configs map[string]any, campaigns json.RawMessage, content map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snap.Configs = configs
	c.snap.Campaigns = campaigns
	c.snap.Content = content
	c.snap.LastFetch = c.now()

	c.transient.DeleteAll()

	return c.persistLocked(ctx)
}

// Config returns the configuration value for key, or ErrKeyNotFound.
func (c *Cache) Config(key string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.snap.Configs[key]
	if !ok {
		return nil, fmt.Errorf("%w: config %q", ErrKeyNotFound, key)
	}
	return v, nil
}

// Content returns the content value for key, or ErrKeyNotFound. Hits are
// memoized in the transient TTL cache.
func (c *Cache) Content(key string) (any, error) {
	if item := c.transient.Get(key); item != nil {
		return item.Value(), nil
	}

	c.mu.RLock()
	v, ok := c.snap.Content[key]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: content %q", ErrKeyNotFound, key)
	}

	c.transient.Set(key, v, ttlcache.DefaultTTL)
	return v, nil
}

// Assignment returns the memoized variant decision for a campaign, if any.
func (c *Cache) Assignment(campaignID string) (Assignment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	a, ok := c.snap.UserVariants[campaignID]
	return a, ok
}

// PutAssignment memoizes a variant decision and persists it. If a decision
// already exists for the campaign, the existing one wins and is returned
// with won=false: at most one assignment decision per (user, campaign)
// per cache epoch, and racing callers converge on the first decision.
func (c *Cache) PutAssignment(ctx context.Context, a Assignment) (stored Assignment, won bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.snap.UserVariants[a.CampaignID]; ok {
		return existing, false, nil
	}

	if c.snap.UserVariants == nil {
		c.snap.UserVariants = make(map[string]Assignment)
	}
	c.snap.UserVariants[a.CampaignID] = a

	if err := c.persistLocked(ctx); err != nil {
		return a, true, err
	}
	return a, true, nil
}

// UserID returns the current user ID, which may be empty for anonymous
// sessions.
func (c *Cache) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.UserID
}

// SessionID returns the current session ID.
func (c *Cache) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.SessionID
}

// Identifier returns the stable identifier used for deterministic
// assignment: the user ID when set, the session ID otherwise.
func (c *Cache) Identifier() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.snap.UserID != "" {
		return c.snap.UserID
	}
	return c.snap.SessionID
}

// SetUserID updates the user identity. Changing the user rotates the
// session ID and invalidates the transient content cache, but preserves
// variant assignments.
func (c *Cache) SetUserID(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap.UserID == userID {
		return nil
	}

	c.snap.UserID = userID
	c.snap.SessionID = newSessionID(c.now())
	c.transient.DeleteAll()

	return c.persistLocked(ctx)
}

// Reset clears the snapshot entirely, including assignments, and starts a
// new session. This is the logout / explicit cache-clear path.
func (c *Cache) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snap = Snapshot{
		Version:   SnapshotVersion,
		SessionID: newSessionID(c.now()),
	}
	c.transient.DeleteAll()

	return c.persistLocked(ctx)
}

// persistLocked serializes the snapshot and writes it through to storage.
// Callers must hold c.mu.
func (c *Cache) persistLocked(ctx context.Context) error {
	c.snap.Version = SnapshotVersion

	blob, err := json.Marshal(c.snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := c.storage.SetItem(ctx, c.blobKey, string(blob)); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

// newSessionID generates a random, time-salted session identifier.
func newSessionID(now time.Time) string {
	return fmt.Sprintf("%s-%x", uuid.NewString(), now.UnixMilli())
}
