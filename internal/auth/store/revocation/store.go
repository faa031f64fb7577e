// Package revocation tracks sessions that must stop verifying before their
// natural expiry. The session artifact itself is stateless, so forcing a
// re-login after a credential change needs this one piece of shared state:
// a TTL'd denylist keyed by session ID.
//
// A revocation may carry an activation delay. Until it activates the session
// stays usable (the pending-reauth grace during which the UI shows its
// notification); afterwards the session decodes as absent.
package revocation

import (
	"context"
	"time"
)

// Store is the denylist contract. Entries expire on their own once the
// session they shadow would have expired anyway.
type Store interface {
	// Revoke marks a session ID as revoked effective at effectiveAt,
	// keeping the entry for ttl.
	Revoke(ctx context.Context, sessionID string, effectiveAt time.Time, ttl time.Duration) error
	// IsRevoked reports whether the session ID is revoked as of now.
	IsRevoked(ctx context.Context, sessionID string, now time.Time) (bool, error)
}
