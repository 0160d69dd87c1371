package authapi

// Package authapi validates session tokens against the accounts app's
// HTTP API. It is the remote half of the session guard: the guard owns
// the state machine, this client owns the wire protocol.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/clycites/clygate/internal/domain/auth"
	"github.com/clycites/clygate/internal/ports"
)

const defaultTimeout = 10 * time.Second

// maxBodySize caps response reads so a misbehaving upstream cannot make
// us buffer unbounded data.
const maxBodySize = 1 << 20

// Client validates tokens via GET {base}/auth/me with a bearer header.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// NewClient builds a validator for the accounts API at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("authapi: parse base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("authapi: base URL %q must be absolute", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// envelope is the accounts API response shape. Success with a user
// payload is the only combination that authenticates; anything else is
// a rejection.
type envelope struct {
	Success bool             `json:"success"`
	Data    *domainauth.User `json:"data"`
}

// Validate implements ports.SessionValidator. Definitive rejections
// (401/403, success=false, missing or undecodable payload) come back as
// ports.ErrUnauthorized; transport and upstream failures come back as
// plain errors so callers can keep the credential and retry.
func (c *Client) Validate(ctx context.Context, token string) (domainauth.User, error) {
	if token == "" {
		return domainauth.User{}, ports.ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/me", nil)
	if err != nil {
		return domainauth.User{}, fmt.Errorf("authapi: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return domainauth.User{}, fmt.Errorf("authapi: validate: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return domainauth.User{}, ports.ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return domainauth.User{}, fmt.Errorf("authapi: validate: unexpected status %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&env); err != nil {
		// A 2xx we cannot parse does not authenticate, but it does not
		// condemn the token either; report it like an upstream failure.
		return domainauth.User{}, fmt.Errorf("authapi: decode response: %w", err)
	}
	if !env.Success || env.Data == nil {
		return domainauth.User{}, ports.ErrUnauthorized
	}
	return *env.Data, nil
}
