package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clycites/clygate/internal/adapters/tokens"
	domainauth "github.com/clycites/clygate/internal/domain/auth"
	mocks "github.com/clycites/clygate/internal/mocks/auth"
	"github.com/clycites/clygate/internal/ports"
)

var testUser = domainauth.User{
	ID:        "u1",
	FirstName: "Ada",
	LastName:  "Lovelace",
	Email:     "ada@clycites.com",
	Role:      domainauth.RoleEditor,
}

func acceptingValidator(want string) *mocks.MockSessionValidator {
	return &mocks.MockSessionValidator{
		ValidateFunc: func(_ context.Context, token string) (domainauth.User, error) {
			if token == want {
				return testUser, nil
			}
			return domainauth.User{}, ports.ErrUnauthorized
		},
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Options{Tokens: tokens.NewMemoryStore("")})
	assert.Error(t, err)

	_, err = New(Options{Validator: &mocks.MockSessionValidator{}})
	assert.Error(t, err)
}

func TestGuard_StartsChecking(t *testing.T) {
	g, err := New(Options{Validator: &mocks.MockSessionValidator{}, Tokens: tokens.NewMemoryStore("")})
	require.NoError(t, err)

	assert.Equal(t, StateChecking, g.State())
	_, ok := g.User()
	assert.False(t, ok)
}

func TestGuard_NoTokenSkipsNetwork(t *testing.T) {
	called := false
	validator := &mocks.MockSessionValidator{
		ValidateFunc: func(_ context.Context, _ string) (domainauth.User, error) {
			called = true
			return domainauth.User{}, nil
		},
	}
	g, err := New(Options{Validator: validator, Tokens: tokens.NewMemoryStore("")})
	require.NoError(t, err)

	state, err := g.Check(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, state)
	assert.False(t, called)
}

func TestGuard_ValidTokenAuthenticates(t *testing.T) {
	store := tokens.NewMemoryStore("tok-1")
	g, err := New(Options{Validator: acceptingValidator("tok-1"), Tokens: store})
	require.NoError(t, err)

	state, err := g.Check(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, state)
	assert.Equal(t, StateAuthenticated, g.State())

	user, ok := g.User()
	assert.True(t, ok)
	assert.Equal(t, testUser, user)

	// Token stays put on success.
	tok, err := store.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
}

func TestGuard_RejectionClearsToken(t *testing.T) {
	store := tokens.NewMemoryStore("stale")
	g, err := New(Options{Validator: acceptingValidator("other"), Tokens: store})
	require.NoError(t, err)

	state, err := g.Check(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, state)

	tok, err := store.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestGuard_TransportFailureKeepsToken(t *testing.T) {
	store := tokens.NewMemoryStore("tok-1")
	validator := &mocks.MockSessionValidator{
		ValidateFunc: func(_ context.Context, _ string) (domainauth.User, error) {
			return domainauth.User{}, errors.New("connection refused")
		},
	}
	g, err := New(Options{Validator: validator, Tokens: store})
	require.NoError(t, err)

	state, err := g.Check(context.Background())

	require.Error(t, err)
	assert.Equal(t, StateUnauthenticated, state)
	assert.Equal(t, StateUnauthenticated, g.State())

	tok, err := store.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
}

func TestGuard_CanceledCheckWritesNothing(t *testing.T) {
	release := make(chan struct{})
	validator := &mocks.MockSessionValidator{
		ValidateFunc: func(ctx context.Context, _ string) (domainauth.User, error) {
			<-release
			return testUser, nil
		},
	}
	g, err := New(Options{Validator: validator, Tokens: tokens.NewMemoryStore("tok-1")})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		state, checkErr := g.Check(ctx)
		assert.Equal(t, StateChecking, state)
		assert.ErrorIs(t, checkErr, context.Canceled)
	}()

	cancel()
	close(release)
	<-done

	// The late verdict must not have landed.
	assert.Equal(t, StateChecking, g.State())
	_, ok := g.User()
	assert.False(t, ok)
}

func TestGuard_InvalidateDiscardsInFlightCheck(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	validator := &mocks.MockSessionValidator{
		ValidateFunc: func(_ context.Context, _ string) (domainauth.User, error) {
			close(started)
			<-release
			return testUser, nil
		},
	}
	g, err := New(Options{Validator: validator, Tokens: tokens.NewMemoryStore("tok-1")})
	require.NoError(t, err)

	done := make(chan State)
	go func() {
		state, _ := g.Check(context.Background())
		done <- state
	}()

	<-started
	g.Invalidate()
	close(release)

	assert.Equal(t, StateChecking, <-done)
	assert.Equal(t, StateChecking, g.State())
}

func TestGuard_InvalidateResetsVerdict(t *testing.T) {
	g, err := New(Options{Validator: acceptingValidator("tok-1"), Tokens: tokens.NewMemoryStore("tok-1")})
	require.NoError(t, err)

	_, err = g.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateAuthenticated, g.State())

	g.Invalidate()

	assert.Equal(t, StateChecking, g.State())
	_, ok := g.User()
	assert.False(t, ok)
}

func TestGuard_RecheckAfterInvalidate(t *testing.T) {
	store := tokens.NewMemoryStore("tok-1")
	g, err := New(Options{Validator: acceptingValidator("tok-1"), Tokens: store})
	require.NoError(t, err)

	state, err := g.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateAuthenticated, state)

	g.Invalidate()
	require.NoError(t, store.Clear(context.Background()))

	state, err = g.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateUnauthenticated, state)
}

func TestGuard_ValidationTimeout(t *testing.T) {
	validator := &mocks.MockSessionValidator{
		ValidateFunc: func(ctx context.Context, _ string) (domainauth.User, error) {
			<-ctx.Done()
			return domainauth.User{}, ctx.Err()
		},
	}
	g, err := New(Options{
		Validator: validator,
		Tokens:    tokens.NewMemoryStore("tok-1"),
		Timeout:   10 * time.Millisecond,
	})
	require.NoError(t, err)

	state, err := g.Check(context.Background())

	require.Error(t, err)
	assert.Equal(t, StateUnauthenticated, state)

	// Timeout is not a rejection; the token survives.
	tok, tokErr := g.tokens.Token(context.Background())
	require.NoError(t, tokErr)
	assert.Equal(t, "tok-1", tok)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "checking", StateChecking.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "unauthenticated", StateUnauthenticated.String())
}
