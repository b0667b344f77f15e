package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAdminAccessGranted  EventType = "admin_access_granted"
	EventAdminAccessDenied   EventType = "admin_access_denied"
	EventEmergencyAccessUsed EventType = "emergency_access_used"
	EventAppSessionMissing   EventType = "app_session_missing"
)

// Event is an access-control decision worth auditing.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Path      string      `json:"path"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AdminAccessPayload describes an admin-protected request.
type AdminAccessPayload struct {
	Via          string `json:"via,omitempty"`
	CookieMinted bool   `json:"cookie_minted"`
	UserAgent    string `json:"user_agent,omitempty"`
	RemoteIP     string `json:"remote_ip,omitempty"`
}

// RedirectPayload describes a redirect issued for a missing session.
type RedirectPayload struct {
	Location string `json:"location"`
}
