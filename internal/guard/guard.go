package guard

// Package guard implements the tri-state session check used by
// token-holding clients. A guard starts out checking, asks the validator
// exactly once per Check call, and lands on authenticated or
// unauthenticated. It never reports authenticated on doubt: any failure
// mode short of a confirmed user is treated as unauthenticated.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/clycites/clygate/internal/domain/auth"
	"github.com/clycites/clygate/internal/ports"
)

// State is the guard's session status.
type State int

const (
	// StateChecking means no verdict yet; callers must not treat the
	// session as either authenticated or anonymous.
	StateChecking State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const defaultTimeout = 5 * time.Second

// Options groups dependencies for the Guard.
type Options struct {
	Validator ports.SessionValidator
	Tokens    ports.TokenStore
	// Timeout bounds each validation call. Zero means 5s.
	Timeout time.Duration
}

// Guard owns the session state machine for one credential holder.
// Safe for concurrent use.
type Guard struct {
	validator ports.SessionValidator
	tokens    ports.TokenStore
	timeout   time.Duration

	mu   sync.Mutex
	gen  uint64
	sta  State
	user domainauth.User
}

// New builds a Guard in the checking state.
func New(opts Options) (*Guard, error) {
	if opts.Validator == nil {
		return nil, errors.New("guard: Validator is required")
	}
	if opts.Tokens == nil {
		return nil, errors.New("guard: Tokens is required")
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Guard{
		validator: opts.Validator,
		tokens:    opts.Tokens,
		timeout:   timeout,
		sta:       StateChecking,
	}, nil
}

// State returns the current state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sta
}

// User returns the validated user and whether one is present. It only
// returns ok while the guard is authenticated.
func (g *Guard) User() (domainauth.User, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.user, g.sta == StateAuthenticated
}

// Invalidate drops the current verdict and returns the guard to
// checking. Any in-flight Check started before Invalidate is discarded
// when it completes.
func (g *Guard) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	g.sta = StateChecking
	g.user = domainauth.User{}
}

// Check resolves the session state once. With no stored token it settles
// on unauthenticated without touching the network. A definitive
// rejection clears the stored token; a transport failure leaves the
// token in place but still lands on unauthenticated. A Check whose
// context is canceled, or that is overtaken by Invalidate, writes
// nothing.
func (g *Guard) Check(ctx context.Context) (State, error) {
	g.mu.Lock()
	gen := g.gen
	g.mu.Unlock()

	token, err := g.tokens.Token(ctx)
	if err != nil {
		return StateChecking, fmt.Errorf("guard: read token: %w", err)
	}
	if token == "" {
		return g.settle(gen, StateUnauthenticated, domainauth.User{}), nil
	}

	vctx, cancel := context.WithTimeout(ctx, g.timeout)
	user, err := g.validator.Validate(vctx, token)
	cancel()

	// The caller has moved on; a verdict arriving now must not mutate
	// state that a newer check owns.
	if ctx.Err() != nil {
		return StateChecking, ctx.Err()
	}

	switch {
	case err == nil:
		return g.settle(gen, StateAuthenticated, user), nil
	case errors.Is(err, ports.ErrUnauthorized):
		if clearErr := g.tokens.Clear(ctx); clearErr != nil {
			return g.settle(gen, StateUnauthenticated, domainauth.User{}),
				fmt.Errorf("guard: clear rejected token: %w", clearErr)
		}
		return g.settle(gen, StateUnauthenticated, domainauth.User{}), nil
	default:
		// Transport or upstream failure. Keep the token so a later
		// check can succeed, but do not admit now.
		return g.settle(gen, StateUnauthenticated, domainauth.User{}),
			fmt.Errorf("guard: validate: %w", err)
	}
}

// settle commits a verdict unless the guard was invalidated since the
// check began.
func (g *Guard) settle(gen uint64, sta State, user domainauth.User) State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gen != gen {
		return StateChecking
	}
	g.sta = sta
	g.user = user
	return sta
}
