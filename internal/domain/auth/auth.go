package auth

// Package auth contains domain-level types for authentication, sessions,
// and role-based authorization. It is pure and free of framework/adapter
// concerns.

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
// Valid values are defined as constants below.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// roleLevels is the fixed ordinal hierarchy used for comparisons.
// Roles not present in the map have level 0 and fail every comparison.
var roleLevels = map[Role]int{
	RoleViewer: 1,
	RoleEditor: 2,
	RoleAdmin:  3,
}

// Level returns the ordinal level of the role. Unknown roles are level 0.
func (r Role) Level() int { return roleLevels[r] }

// Known reports whether the role is one of the defined application roles.
func (r Role) Known() bool { return roleLevels[r] > 0 }

// Meets reports whether the role satisfies the required minimum role.
// An empty required role means any authenticated user passes. An unknown
// user role (level 0) never satisfies a known required role.
func (r Role) Meets(required Role) bool {
	if required == "" {
		return true
	}
	return r.Level() >= required.Level()
}

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape. RawClaims keeps
// the full claim set so expression-driven role mapping can see fields the
// typed struct does not carry.
type Identity struct {
	UserID        string // stable user identifier (e.g., sub)
	FirstName     string
	LastName      string
	Email         string
	EmailVerified bool
	Groups        []string
	RawClaims     map[string]any
	ExpiresAt     time.Time // absolute expiry from IdP token
}

// User is the read-only user record the gateway caches for the duration
// of a session. The backing record is owned by the accounts service.
type User struct {
	ID            string `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Role          Role   `json:"role"`
	EmailVerified bool   `json:"email_verified"`
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session token (e.g., random URL-safe string); the same
// value is what clients carry in the `token` cookie and bearer header.
type Session struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	Role          Role      `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Expired reports whether the session has passed its expiry at the given time.
func (s Session) Expired(now time.Time) bool { return now.After(s.ExpiresAt) }

// User returns the cached user record carried by the session.
func (s Session) User() User {
	return User{
		ID:            s.UserID,
		FirstName:     s.FirstName,
		LastName:      s.LastName,
		Email:         s.Email,
		Role:          s.Role,
		EmailVerified: s.EmailVerified,
	}
}
