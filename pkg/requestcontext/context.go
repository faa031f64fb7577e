// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them, services read them; keeping
// this package free of net/http lets services avoid transport imports.
package requestcontext

import (
	"context"
	"time"

	"lobby/internal/auth/models"
)

type (
	sessionKey     struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeySession     = sessionKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// Session retrieves the decoded session from the context, or nil.
func Session(ctx context.Context) *models.Session {
	if s, ok := ctx.Value(ContextKeySession).(*models.Session); ok {
		return s
	}
	return nil
}

// WithSession injects a decoded session into the context.
func WithSession(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, ContextKeySession, s)
}

// RequestID retrieves the request ID set by middleware, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, id)
}

// Now returns the request time if middleware recorded one, else time.Now().
// Tests inject fixed times through WithTime to pin expiry arithmetic.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a fixed request time into the context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
