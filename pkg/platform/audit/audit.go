// Package audit records security-relevant session events (logins, logouts,
// credential changes, forced re-auths). The publisher is an explicitly
// constructed, dependency-injected instance with a Run/Close lifecycle —
// there is no package-level singleton or implicit global queue.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind classifies an audit event.
type Kind string

const (
	KindLogin            Kind = "login"
	KindLoginFailed      Kind = "login_failed"
	KindLogout           Kind = "logout"
	KindSessionRenewed   Kind = "session_renewed"
	KindCredentialChange Kind = "credential_change"
	KindForcedLogout     Kind = "forced_logout"
)

// Event is one audit record.
type Event struct {
	ID        string            `json:"id"`
	Kind      Kind              `json:"kind"`
	UserID    string            `json:"user_id,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	At        time.Time         `json:"at"`
	Detail    map[string]string `json:"detail,omitempty"`
}

// NewEvent builds an event with a fresh ID and timestamp.
func NewEvent(kind Kind, userID, sessionID string) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		UserID:    userID,
		SessionID: sessionID,
		At:        time.Now().UTC(),
	}
}

// Sink persists events. Implementations must tolerate concurrent Append.
type Sink interface {
	Append(ctx context.Context, event Event) error
}
