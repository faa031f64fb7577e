package session

import (
	"net/http"
	"time"

	"lobby/internal/auth/models"
	"lobby/pkg/platform/sentinel"
)

// Manager pairs the codec with cookie transport. Handlers never touch raw
// cookies; they read, write, and clear sessions through this type.
type Manager struct {
	codec      *Codec
	cookieName string
	secure     bool
	maxAge     time.Duration
}

func NewManager(codec *Codec, cookieName string, secure bool, maxAge time.Duration) *Manager {
	return &Manager{
		codec:      codec,
		cookieName: cookieName,
		secure:     secure,
		maxAge:     maxAge,
	}
}

// Codec exposes the underlying codec for renewal decisions.
func (m *Manager) Codec() *Codec {
	return m.codec
}

// Read extracts and verifies the session from the request cookie.
// A missing, tampered, or expired cookie yields sentinel.ErrNotFound or
// sentinel.ErrExpired; both mean "never logged in" to callers.
func (m *Manager) Read(r *http.Request) (*models.Session, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, sentinel.ErrNotFound
	}
	return m.codec.Decode(cookie.Value)
}

// Write signs the session and sets the cookie on the response.
func (m *Manager) Write(w http.ResponseWriter, s *models.Session) error {
	artifact, err := m.codec.Encode(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    artifact,
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
