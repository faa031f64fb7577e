// Package models holds the auth domain types shared by the session codec,
// backend client, service, and HTTP transport.
package models

import "time"

// Principal is the authenticated identity derived from a successful login.
// It is embedded into the session artifact and never mutated in place:
// username/email changes go through the backend and force a re-login.
type Principal struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// HasRole reports whether the principal carries the given gate role. Only
// roles from the closed enumeration can match; unknown strings stored on the
// principal are preserved but gate nothing.
func (p Principal) HasRole(role Role) bool {
	if !role.Known() {
		return false
	}
	for _, r := range p.Roles {
		if r == string(role) {
			return true
		}
	}
	return false
}

// Session bundles a principal with the backend access tokens. It is carried
// entirely inside the signed cookie artifact; there is no server-side session
// store to fill in missing fields.
type Session struct {
	ID           string    `json:"sid"`
	Principal    Principal `json:"principal"`
	BearerToken  string    `json:"bearer_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	IssuedAt     time.Time `json:"issued_at"`
	RenewedAt    time.Time `json:"renewed_at"`
}

// Usable reports whether the session can back authenticated backend calls.
func (s *Session) Usable() bool {
	return s != nil && s.BearerToken != ""
}

// LoginRequest is the credential pair submitted by the browser.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is what the credential exchange yields on success.
type LoginResult struct {
	Principal    Principal
	BearerToken  string
	RefreshToken string
}

// UpdateProfileRequest carries the mutable identity fields. Nil means
// "leave unchanged"; at least one must be set.
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// UpdatePasswordRequest mirrors the backend password-change contract.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// UpdateTokensRequest is the body of the session mutation endpoint.
type UpdateTokensRequest struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// User is a backend user record as returned by the role-gated listing.
type User struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}
