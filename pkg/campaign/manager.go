package campaign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/variantlab/variantkit/pkg/assign"
	"github.com/variantlab/variantkit/pkg/eventlog"
	"github.com/variantlab/variantkit/pkg/store"
)

// Recorder receives impression and conversion events. Logging is
// fire-and-forget: implementations must not block or fail the caller.
type Recorder interface {
	Log(e eventlog.Entry)
}

// DelegateRequest carries identity to a backend-delegated assignment
// strategy.
type DelegateRequest struct {
	CampaignID string
	UserID     string
	SessionID  string
	Client     string
}

// Delegator performs one backend-delegated assignment call and returns the
// assigned content id.
type Delegator interface {
	DelegateVariant(ctx context.Context, req DelegateRequest) (string, error)
}

// Predefined construction errors.
var (
	ErrCacheNil    = errors.New("cache is nil")
	ErrRecorderNil = errors.New("recorder is nil")
)

// Manager resolves campaigns to variants. Definitions are replaced
// wholesale on every configuration load; assignment memos live in the
// cache, the single source of truth shared with the rest of the client.
type Manager struct {
	mu   sync.RWMutex
	defs map[string]*Campaign // keyed by campaign name

	cache     *store.Cache
	recorder  Recorder
	delegate  Delegator
	logger    *slog.Logger
	clientTag string
	now       func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithDelegator wires the backend-delegated assignment transport. Without
// one, delegated campaigns resolve to their control variant.
func WithDelegator(d Delegator) ManagerOption {
	return func(m *Manager) {
		m.delegate = d
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClientTag sets the free-form client tag stamped on assignments and
// events.
func WithClientTag(tag string) ManagerOption {
	return func(m *Manager) {
		m.clientTag = tag
	}
}

// WithNow overrides the time source. Used in tests.
func WithNow(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a campaign manager over the shared cache.
func NewManager(cache *store.Cache, recorder Recorder, opts ...ManagerOption) (*Manager, error) {
	if cache == nil {
		return nil, ErrCacheNil
	}
	if recorder == nil {
		return nil, ErrRecorderNil
	}

	m := &Manager{
		defs:     make(map[string]*Campaign),
		cache:    cache,
		recorder: recorder,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// SetCampaigns replaces all campaign definitions wholesale. Called on every
// successful configuration load.
func (m *Manager) SetCampaigns(defs []Campaign) {
	next := make(map[string]*Campaign, len(defs))
	for i := range defs {
		def := defs[i]
		next[def.Name] = &def
	}

	m.mu.Lock()
	m.defs = next
	m.mu.Unlock()
}

// CampaignIDs returns the ids of all known campaigns.
func (m *Manager) CampaignIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.defs))
	for _, def := range m.defs {
		ids = append(ids, def.ID)
	}
	return ids
}

// lookup returns the definition for name.
func (m *Manager) lookup(name string) (*Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	def, ok := m.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCampaignNotFound, name)
	}
	return def, nil
}

// GetVariant resolves the campaign to a variant for the current identity.
//
// A memoized assignment short-circuits everything: the memo is returned
// with no computation and no logging. Otherwise the decision is made by the
// campaign's template (locally or via the backend delegate), memoized,
// persisted, and recorded as an impression. Backend-delegated campaigns
// never fail the caller: delegate errors degrade to the declared control
// variant, which is memoized like any other decision so later calls stay
// idempotent.
func (m *Manager) GetVariant(ctx context.Context, name string) (store.Assignment, error) {
	def, err := m.lookup(name)
	if err != nil {
		return store.Assignment{}, err
	}

	if memo, ok := m.cache.Assignment(def.ID); ok {
		return memo, nil
	}

	var contentID string
	if def.Delegated() {
		contentID = m.delegatedContentID(ctx, def)
	} else {
		contentID, err = m.localContentID(def)
		if err != nil {
			return store.Assignment{}, err
		}
	}

	decision := store.Assignment{
		EventType:  store.EventImpression,
		ContentID:  contentID,
		CampaignID: def.ID,
		SessionID:  m.cache.SessionID(),
		UserID:     m.cache.UserID(),
		Client:     m.clientTag,
		Timestamp:  m.now(),
	}

	memo, won, err := m.cache.PutAssignment(ctx, decision)
	if err != nil {
		// The decision is still usable in memory; persistence failures
		// must not fail a read.
		m.logger.Warn("failed to persist assignment",
			slog.String("campaign", def.ID),
			slog.Any("error", err))
	}

	if won {
		impression := eventlog.NewEntry(eventlog.TypeImpression, def.ID, memo.ContentID)
		impression.SessionID = memo.SessionID
		impression.UserID = memo.UserID
		impression.Client = memo.Client
		m.recorder.Log(impression)
	}

	return memo, nil
}

// RecordConversion logs a conversion attributed to the variant memoized at
// assignment time. The memoized variant is always used, never a freshly
// recomputed one, even if the campaign definition changed since.
func (m *Manager) RecordConversion(name string, metadata map[string]any) error {
	def, err := m.lookup(name)
	if err != nil {
		return err
	}

	memo, ok := m.cache.Assignment(def.ID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoImpressionLogged, name)
	}
	if memo.ContentID == "" {
		return fmt.Errorf("%w: campaign %q", ErrNoVariantFound, name)
	}

	conversion := eventlog.NewEntry(eventlog.TypeConversion, def.ID, memo.ContentID)
	conversion.SessionID = m.cache.SessionID()
	conversion.UserID = m.cache.UserID()
	conversion.Client = m.clientTag
	conversion.Metadata = metadata
	m.recorder.Log(conversion)

	return nil
}

// delegatedContentID issues one backend assignment call and degrades to the
// control variant on any failure.
func (m *Manager) delegatedContentID(ctx context.Context, def *Campaign) string {
	if m.delegate == nil {
		m.logger.Warn("no delegator configured, using control variant",
			slog.String("campaign", def.ID))
		return def.Control().Value
	}

	contentID, err := m.delegate.DelegateVariant(ctx, DelegateRequest{
		CampaignID: def.ID,
		UserID:     m.cache.UserID(),
		SessionID:  m.cache.SessionID(),
		Client:     m.clientTag,
	})
	if err != nil || contentID == "" {
		m.logger.Warn("delegated assignment failed, using control variant",
			slog.String("campaign", def.ID),
			slog.Any("error", err))
		return def.Control().Value
	}
	return contentID
}

// localContentID evaluates the campaign's local deterministic template.
func (m *Manager) localContentID(def *Campaign) (string, error) {
	tpl, err := m.template(def)
	if err != nil {
		return "", err
	}

	cand, err := tpl.Assign(m.cache.Identifier(), def.Candidates())
	if err != nil {
		return "", fmt.Errorf("assign campaign %q: %w", def.Name, err)
	}
	return cand.Value, nil
}

// template maps the campaign definition to its assignment template.
// Custom campaigns and system campaigns without a function id default to
// weighted rollout.
func (m *Manager) template(def *Campaign) (assign.Template, error) {
	switch def.SystemFunctionID {
	case "", SystemWeightedRollout:
		return assign.NewWeightedRollout(), nil
	case SystemFeatureFlag:
		return assign.NewFeatureFlag(def.RolloutPercent), nil
	case SystemTimeWindow:
		var start, end time.Time
		if def.DateSettings != nil {
			start, end = def.DateSettings.StartAt, def.DateSettings.EndAt
		}
		return assign.NewTimeWindow(start, end, nil, assign.WithClock(m.now)), nil
	case SystemWeightedRandom:
		return assign.NewWeightedRandom(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, def.SystemFunctionID)
	}
}
