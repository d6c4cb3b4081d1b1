package events

import (
	"time"

	"github.com/spec-kit/college-marketplace/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventPrincipalRegistered EventType = "principal_registered"
	EventSessionIssued       EventType = "session_issued"
	EventSessionRefreshed    EventType = "session_refreshed"
	EventSessionEnded        EventType = "session_ended"
	EventPrincipalBanned     EventType = "principal_banned"
)

// Event is an audit record of a session lifecycle change. It never carries
// credential values.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	PrincipalID string      `json:"principal_id,omitempty"`
	Subject     string      `json:"subject"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload,omitempty"`
}

// SessionIssuedPayload describes how a session was opened.
type SessionIssuedPayload struct {
	Method string      `json:"method"`
	Role   domain.Role `json:"role"`
}

// SessionEndedPayload records what logout revoked.
type SessionEndedPayload struct {
	AccessRevoked  bool `json:"access_revoked"`
	RefreshRevoked bool `json:"refresh_revoked"`
}

// PrincipalBannedPayload names the administrator who issued the ban.
type PrincipalBannedPayload struct {
	BannedBy string `json:"banned_by"`
}
