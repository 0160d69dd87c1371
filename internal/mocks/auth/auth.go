package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/clycites/clygate/internal/domain/auth"
	"github.com/clycites/clygate/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider     = (*MockAuthProvider)(nil)
	_ ports.SessionStore     = (*MemorySessionStore)(nil)
	_ ports.RoleMapper       = (*GroupRoleMapper)(nil)
	_ ports.SessionValidator = (*MockSessionValidator)(nil)
	_ ports.UserRepository   = (*MemoryUserRepository)(nil)
)

// ErrNotFound is returned by mocks when an entity is not present.
var ErrNotFound = ports.ErrSessionNotFound

// MockAuthProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	// Deterministic values for predictable testing
	AuthURL     string
	StatePrefix string
	NoncePrefix string
	DefaultUser domainauth.Identity

	// Internal state tracking for deterministic behavior
	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://mock-idp/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultUser: domainauth.Identity{
			UserID:        "mock-user-1",
			FirstName:     "Mock",
			LastName:      "User",
			Email:         "mock.user@example.com",
			EmailVerified: true,
			Groups:        []string{"editors"},
			ExpiresAt:     time.Now().Add(time.Hour),
		},
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.callCount++
	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}

	statePrefix := m.StatePrefix
	if statePrefix == "" {
		statePrefix = "state"
	}
	noncePrefix := m.NoncePrefix
	if noncePrefix == "" {
		noncePrefix = "nonce"
	}

	state := fmt.Sprintf("%s-%d", statePrefix, m.callCount)
	nonce := fmt.Sprintf("%s-%d", noncePrefix, m.callCount)

	return authURL, state, nonce, nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}

	// Return a copy of the default user with a fresh expiration time
	user := m.DefaultUser
	if user.UserID == "" {
		user = domainauth.Identity{
			UserID:        "mock-user-1",
			FirstName:     "Mock",
			LastName:      "User",
			Email:         "mock.user@example.com",
			EmailVerified: true,
			Groups:        []string{"editors"},
		}
	}
	user.ExpiresAt = time.Now().Add(time.Hour)

	return user, nil
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]domainauth.Session),
	}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ErrNotFound
	}
	sess, ok := m.sessions[id]
	if !ok {
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	if id == "" {
		return nil
	}
	delete(m.sessions, id)
	return nil
}

// GroupRoleMapper maps identity groups by simple string membership rules.
type GroupRoleMapper struct {
	AdminGroup  string
	EditorGroup string
}

func (m GroupRoleMapper) Map(identity domainauth.Identity) domainauth.Role {
	for _, g := range identity.Groups {
		if m.AdminGroup != "" && g == m.AdminGroup {
			return domainauth.RoleAdmin
		}
	}
	for _, g := range identity.Groups {
		if m.EditorGroup != "" && g == m.EditorGroup {
			return domainauth.RoleEditor
		}
	}
	return domainauth.RoleViewer
}

// MockSessionValidator is a configurable ports.SessionValidator double.
type MockSessionValidator struct {
	ValidateFunc func(ctx context.Context, token string) (domainauth.User, error)
}

func (m *MockSessionValidator) Validate(ctx context.Context, token string) (domainauth.User, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, token)
	}
	return domainauth.User{}, ports.ErrUnauthorized
}

// MemoryUserRepository is an in-memory user repository for unit tests.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]domainauth.User

	UpsertErr error
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]domainauth.User)}
}

func (m *MemoryUserRepository) Upsert(_ context.Context, user domainauth.User) (domainauth.User, error) {
	if m.UpsertErr != nil {
		return domainauth.User{}, m.UpsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return user, nil
}

func (m *MemoryUserRepository) GetByID(_ context.Context, id string) (domainauth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return domainauth.User{}, ErrNotFound
	}
	return user, nil
}

func (m *MemoryUserRepository) List(_ context.Context) ([]domainauth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domainauth.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}
