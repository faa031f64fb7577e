package models

// Role is the closed set of roles the gateway understands. The backend may
// attach additional role strings to a principal; those survive the session
// round-trip untouched but never satisfy a gate.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Known reports whether the role belongs to the closed enumeration.
func (r Role) Known() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	}
	return false
}
