package eventlog

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Type labels what an entry records.
type Type string

const (
	TypeImpression Type = "IMPRESSION"
	TypeConversion Type = "CONVERSION"
)

// Entry is one buffered event. The ID gives each entry a stable identity so
// a flushed batch can be removed from the buffer exactly, independent of
// entries appended while the batch was in flight.
type Entry struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	CampaignID string         `json:"campaignId"`
	Variant    string         `json:"variant"`
	SessionID  string         `json:"sessionId"`
	UserID     string         `json:"userId,omitempty"`
	Client     string         `json:"client,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewEntry creates an entry with a fresh ULID and the current timestamp.
func NewEntry(eventType Type, campaignID, variant string) Entry {
	return Entry{
		ID:         ulid.Make().String(),
		Type:       eventType,
		CampaignID: campaignID,
		Variant:    variant,
		Timestamp:  time.Now(),
	}
}
