package tokens

// Package tokens implements the session-token accessor: one logical
// credential, readable from the places the ClyCites frontends historically
// put it. The edge layer reads request cookies; CLI clients use a
// file-backed store. All writes go through the store so the locations
// cannot diverge.

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// CanonicalCookieName is the only cookie name new logins write.
const CanonicalCookieName = "token"

// cookieAliases is the read-side compatibility shim: the three apps
// historically used different cookie names for the same credential.
// Checked in priority order; first present wins.
var cookieAliases = []string{CanonicalCookieName, "auth_token", "authToken"}

// CookieNames returns the recognized session cookie names in priority order.
func CookieNames() []string {
	return append([]string(nil), cookieAliases...)
}

// FromRequest extracts the session token from a request's cookies,
// honoring the alias order. Returns "" and false when no recognized
// cookie carries a non-empty value.
func FromRequest(r *http.Request) (string, bool) {
	for _, name := range cookieAliases {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}

// FileStore persists the token in a mode-0600 file, for token-holding
// clients like the admin CLI. The zero value is not usable; use
// NewFileStore.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a file-backed token store at path. An empty path
// defaults to $HOME/.config/clygate/token.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".config", "clygate", "token")
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Token(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileStore) SetToken(_ context.Context, token string) error {
	if token == "" {
		return errors.New("token cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(token+"\n"), 0o600)
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MemoryStore is an in-memory token store for tests and short-lived
// clients.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (s *MemoryStore) Token(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryStore) SetToken(_ context.Context, token string) error {
	if token == "" {
		return errors.New("token cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
