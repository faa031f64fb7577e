// Package session implements the stateless session artifact: a signed token
// embedding the full principal plus the backend access tokens. There is no
// server-side session store; everything a request needs rides in the cookie.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"lobby/internal/auth/models"
	"lobby/pkg/platform/sentinel"
)

const issuer = "lobby"

// Claims is the signed payload. IssuedAt tracks the original login so the
// principal's age is observable; RenewedAt anchors the sliding-renewal
// window; ExpiresAt moves forward on each renewal.
type Claims struct {
	Principal    models.Principal `json:"principal"`
	BearerToken  string           `json:"bearer_token"`
	RefreshToken string           `json:"refresh_token,omitempty"`
	RenewedAt    *jwt.NumericDate `json:"renewed_at"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session artifacts.
type Codec struct {
	signingKey  []byte
	maxAge      time.Duration
	renewWindow time.Duration
}

func NewCodec(secret string, maxAge, renewWindow time.Duration) *Codec {
	return &Codec{
		signingKey:  []byte(secret),
		maxAge:      maxAge,
		renewWindow: renewWindow,
	}
}

// NewSession builds a fresh session around an exchanged credential result.
func NewSession(res models.LoginResult, now time.Time) *models.Session {
	return &models.Session{
		ID:           uuid.NewString(),
		Principal:    res.Principal,
		BearerToken:  res.BearerToken,
		RefreshToken: res.RefreshToken,
		IssuedAt:     now,
		RenewedAt:    now,
	}
}

// Encode signs the session into its transportable artifact.
func (c *Codec) Encode(s *models.Session) (string, error) {
	claims := Claims{
		Principal:    s.Principal,
		BearerToken:  s.BearerToken,
		RefreshToken: s.RefreshToken,
		RenewedAt:    jwt.NewNumericDate(s.RenewedAt),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(s.RenewedAt.Add(c.maxAge)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.signingKey)
}

// Decode verifies an artifact and reconstructs the session. Tampered or
// expired artifacts yield sentinel errors; callers treat both as "no session".
func (c *Codec) Decode(artifact string) (*models.Session, error) {
	parsed, err := jwt.ParseWithClaims(artifact, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return c.signingKey, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, sentinel.ErrExpired
		}
		return nil, sentinel.ErrNotFound
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, sentinel.ErrNotFound
	}

	s := &models.Session{
		ID:           claims.ID,
		Principal:    claims.Principal,
		BearerToken:  claims.BearerToken,
		RefreshToken: claims.RefreshToken,
	}
	if claims.IssuedAt != nil {
		s.IssuedAt = claims.IssuedAt.Time
	}
	if claims.RenewedAt != nil {
		s.RenewedAt = claims.RenewedAt.Time
	}
	return s, nil
}

// ShouldRenew reports whether the sliding-renewal window has elapsed since
// the artifact was last issued. Renewal happens at most once per window.
func (c *Codec) ShouldRenew(s *models.Session, now time.Time) bool {
	return now.Sub(s.RenewedAt) >= c.renewWindow
}

// Renew returns a copy of the session re-anchored at now. The session ID and
// original issue time are preserved; only the renewal clock moves.
func (c *Codec) Renew(s *models.Session, now time.Time) *models.Session {
	renewed := *s
	renewed.RenewedAt = now
	return &renewed
}
