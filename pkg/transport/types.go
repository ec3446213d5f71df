package transport

import "encoding/json"

// AppData is the merged remote configuration payload returned by the
// app-data endpoint. Campaign definitions are kept raw here; the campaign
// package owns their typed shape.
type AppData struct {
	AppConfig  map[string]any  `json:"appConfig"`
	Campaigns  json.RawMessage `json:"campaigns"`
	Content    map[string]any  `json:"content"`
	User       json.RawMessage `json:"user,omitempty"`
	UserEvents json.RawMessage `json:"userEvents,omitempty"`
}

// UserVariantsRequest asks the backend for the server-side view of this
// user's variant assignments.
type UserVariantsRequest struct {
	UserID      string   `json:"userId"`
	SessionID   string   `json:"sessionId"`
	CampaignIDs []string `json:"campaignIds"`
	AppID       string   `json:"appId"`
}

// UserVariantsResponse maps campaign ids to assigned content ids.
type UserVariantsResponse struct {
	Variants  map[string]string `json:"variants"`
	UserID    string            `json:"userId"`
	SessionID string            `json:"sessionId"`
}

// DelegateRequest carries user and session identity to a backend-delegated
// assignment strategy such as round-robin or bandit.
type DelegateRequest struct {
	CampaignID string         `json:"campaignId"`
	UserID     string         `json:"userId,omitempty"`
	SessionID  string         `json:"sessionId"`
	Client     string         `json:"client,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type delegateResponse struct {
	ContentID string `json:"contentId"`
}

// FormSubmission is an arbitrary form payload stamped with the submitting
// identity.
type FormSubmission struct {
	Fields    map[string]any `json:"fields"`
	SessionID string         `json:"sessionId"`
	UserID    string         `json:"userId,omitempty"`
}

type formResponse struct {
	Success bool `json:"success"`
}
