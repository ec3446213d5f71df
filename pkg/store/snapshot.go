package store

import (
	"encoding/json"
	"maps"
	"time"
)

// SnapshotVersion is the current persisted blob format version. Blobs with
// a different version are discarded on load and the cache starts cold.
const SnapshotVersion = 1

// EventType labels an assignment record by the event that produced it.
type EventType string

const (
	EventImpression EventType = "IMPRESSION"
	EventConversion EventType = "CONVERSION"
)

// Assignment is the memoized variant decision for one (user, campaign)
// pair. It is created on first assignment and treated as immutable for the
// lifetime of the cache entry: later lookups return it verbatim instead of
// recomputing.
type Assignment struct {
	EventType  EventType `json:"eventType"`
	ContentID  string    `json:"contentId"`
	CampaignID string    `json:"campaignId"`
	SessionID  string    `json:"sessionId"`
	UserID     string    `json:"userId"`
	Client     string    `json:"client"`
	Timestamp  time.Time `json:"timestamp"`
}

// Snapshot is the single source of truth the cache persists. It is written
// through to storage as one JSON blob on every mutation.
type Snapshot struct {
	Version      int                   `json:"version"`
	Configs      map[string]any        `json:"configs,omitempty"`
	Campaigns    json.RawMessage       `json:"campaigns,omitempty"`
	Content      map[string]any        `json:"content,omitempty"`
	LastFetch    time.Time             `json:"lastFetch,omitzero"`
	SessionID    string                `json:"sessionId,omitempty"`
	UserID       string                `json:"userId,omitempty"`
	UserVariants map[string]Assignment `json:"userVariants,omitempty"`
}

// Stale reports whether the snapshot's age meets or exceeds ttl at the
// given instant. A never-fetched snapshot is always stale.
func (s Snapshot) Stale(ttl time.Duration, now time.Time) bool {
	if s.LastFetch.IsZero() {
		return true
	}
	return now.Sub(s.LastFetch) >= ttl
}

// clone returns a deep-enough copy: maps are copied so callers can never
// mutate the cache's own snapshot through a returned value.
func (s Snapshot) clone() Snapshot {
	out := s
	out.Configs = maps.Clone(s.Configs)
	out.Content = maps.Clone(s.Content)
	out.UserVariants = maps.Clone(s.UserVariants)
	if s.Campaigns != nil {
		out.Campaigns = make(json.RawMessage, len(s.Campaigns))
		copy(out.Campaigns, s.Campaigns)
	}
	return out
}
