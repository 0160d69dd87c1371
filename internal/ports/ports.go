package ports

// Package ports defines interfaces (hexagonal ports) for auth-related
// behavior. Implementations live in internal/adapters; orchestration in
// internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/clycites/clygate/internal/domain/auth"
)

// ErrUnauthorized is returned by SessionValidator implementations when
// the presented credential is definitively rejected (as opposed to a
// transport failure reaching the validator).
var ErrUnauthorized = errors.New("unauthorized")

// ErrSessionNotFound is returned by SessionStore implementations when no
// session exists for the given ID.
var ErrSessionNotFound = errors.New("session not found")

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// AuthProvider initiates and completes an authentication flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// RoleMapper maps a provider identity to an application role.
type RoleMapper interface {
	Map(identity domainauth.Identity) domainauth.Role
}

// TokenSource reads the stored session token. An empty token with a nil
// error means no credential is present.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenStore is the single session-token accessor described in the
// design notes: one logical credential visible to independent readers.
// All writes go through SetToken/Clear so the backing locations cannot
// diverge.
type TokenStore interface {
	TokenSource
	SetToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// SessionValidator checks a token against the session backend and
// returns the cached user record. A rejection is reported as
// ErrUnauthorized; any other error is a transport/infrastructure
// failure.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (domainauth.User, error)
}

// UserRepository persists the read-only user cache.
type UserRepository interface {
	Upsert(ctx context.Context, user domainauth.User) (domainauth.User, error)
	GetByID(ctx context.Context, id string) (domainauth.User, error)
	List(ctx context.Context) ([]domainauth.User, error)
}
