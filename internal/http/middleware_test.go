package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clycites/clygate/config"
	"github.com/clycites/clygate/internal/adapters/tokens"
	domainauth "github.com/clycites/clygate/internal/domain/auth"
	mocksauth "github.com/clycites/clygate/internal/mocks/auth"
	"github.com/clycites/clygate/internal/ports"
)

func testApps() *config.AppsConfig {
	apps := &config.AppsConfig{}
	apps.Farm.AuthOnlyPrefixes = []string{"/login", "/register", "/forgot-password"}
	apps.Emarket.AuthOnlyPrefixes = []string{"/login", "/register", "/forgot-password"}
	apps.Accounts.AuthOnlyPrefixes = []string{"/login", "/register", "/forgot-password"}
	apps.Sanitize()
	return apps
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func withSessionCookie(r *http.Request, name string) *http.Request {
	r.AddCookie(&http.Cookie{Name: name, Value: "session-token"})
	return r
}

type recordingSink struct {
	counts  []string
	timings []string
}

func (s *recordingSink) Count(name string, _ int64, _ map[string]string) {
	s.counts = append(s.counts, name)
}

func (s *recordingSink) Timing(name string, _ time.Duration, tags map[string]string) {
	s.timings = append(s.timings, name+"|"+tags["method"]+"|"+tags["status"])
}

func TestLogging_EmitsRequestTiming(t *testing.T) {
	sink := &recordingSink{}
	handler := Logging(slog.New(slog.NewTextHandler(io.Discard, nil)), sink)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

	req := httptest.NewRequest(http.MethodGet, "http://farm.clycites.com/healthz", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.Len(t, sink.timings, 1)
	assert.Equal(t, "http.request|GET|418", sink.timings[0])
}

func TestRouteGate_DecisionTable(t *testing.T) {
	gate := &Gate{Apps: testApps()}
	handler := gate.RouteGate()(okHandler())

	tests := []struct {
		name         string
		host         string
		path         string
		token        bool
		wantStatus   int
		wantLocation string
	}{
		{
			name:       "root is always public without a credential",
			host:       "farm.clycites.com",
			path:       "/",
			wantStatus: http.StatusOK,
		},
		{
			name:       "public prefix allows anonymous",
			host:       "farm.clycites.com",
			path:       "/about/team",
			wantStatus: http.StatusOK,
		},
		{
			name:         "protected path redirects anonymous to login",
			host:         "farm.clycites.com",
			path:         "/dashboard",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/login?redirect=%2Fdashboard",
		},
		{
			name:         "redirect carries query string of original request",
			host:         "farm.clycites.com",
			path:         "/fields/42?tab=soil",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/login?redirect=%2Ffields%2F42%3Ftab%3Dsoil",
		},
		{
			name:       "auth-only path allows anonymous",
			host:       "farm.clycites.com",
			path:       "/login",
			wantStatus: http.StatusOK,
		},
		{
			name:         "auth-only path bounces credentialed user to dashboard",
			host:         "farm.clycites.com",
			path:         "/login",
			token:        true,
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/dashboard",
		},
		{
			name:       "protected path allows credentialed user",
			host:       "farm.clycites.com",
			path:       "/dashboard",
			token:      true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "gateway auth endpoints are public on every profile",
			host:       "market.clycites.com",
			path:       "/auth/me",
			wantStatus: http.StatusOK,
		},
		{
			name:       "emarket public prefix",
			host:       "market.clycites.com",
			path:       "/products/seeds",
			wantStatus: http.StatusOK,
		},
		{
			name:         "unknown host falls back to default profile",
			host:         "unknown.example.com",
			path:         "/settings",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/login?redirect=%2Fsettings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://"+tt.host+tt.path, nil)
			if tt.token {
				withSessionCookie(req, tokens.CanonicalCookieName)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			}
		})
	}
}

func TestRouteGate_LegacyCookieNamesCountAsPresence(t *testing.T) {
	gate := &Gate{Apps: testApps()}
	handler := gate.RouteGate()(okHandler())

	for _, name := range []string{"auth_token", "authToken"} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://farm.clycites.com/login", nil)
			withSessionCookie(req, name)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
		})
	}
}

func TestRouteGate_PresenceNotValidity(t *testing.T) {
	// The edge layer must not call the validator at all.
	validator := &mocksauth.MockSessionValidator{
		ValidateFunc: func(context.Context, string) (domainauth.User, error) {
			t.Fatal("edge gate must not validate sessions")
			return domainauth.User{}, nil
		},
	}
	gate := &Gate{Apps: testApps(), Validator: validator}
	handler := gate.RouteGate()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "http://farm.clycites.com/dashboard", nil)
	withSessionCookie(req, tokens.CanonicalCookieName)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireSession_ValidTokenSetsUser(t *testing.T) {
	want := domainauth.User{ID: "u1", Email: "ada@clycites.com", Role: domainauth.RoleEditor}
	gate := &Gate{
		Apps: testApps(),
		Validator: &mocksauth.MockSessionValidator{
			ValidateFunc: func(_ context.Context, token string) (domainauth.User, error) {
				assert.Equal(t, "session-token", token)
				return want, nil
			},
		},
	}

	var got *domainauth.User
	handler := gate.RequireSession()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "http://farm.clycites.com/api/profile", nil)
	withSessionCookie(req, tokens.CanonicalCookieName)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)
}

func TestRequireSession_MissingToken(t *testing.T) {
	gate := &Gate{Apps: testApps(), Validator: &mocksauth.MockSessionValidator{}}
	handler := gate.RequireSession()(okHandler())

	t.Run("api request gets 401 envelope", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://farm.clycites.com/api/profile", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var env Envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.False(t, env.Success)
		assert.Equal(t, "authentication required", env.Error)
	})

	t.Run("browser request redirects to login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://farm.clycites.com/dashboard", nil)
		req.Header.Set("Accept", "text/html")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login?redirect=%2Fdashboard", rec.Header().Get("Location"))
	})
}

func TestRequireSession_RejectedTokenClearsCookies(t *testing.T) {
	gate := &Gate{
		Apps: testApps(),
		Validator: &mocksauth.MockSessionValidator{
			ValidateFunc: func(context.Context, string) (domainauth.User, error) {
				return domainauth.User{}, ports.ErrUnauthorized
			},
		},
	}
	handler := gate.RequireSession()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "http://farm.clycites.com/api/profile", nil)
	withSessionCookie(req, tokens.CanonicalCookieName)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cleared := map[string]bool{}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			cleared[c.Name] = true
		}
	}
	for _, name := range tokens.CookieNames() {
		assert.True(t, cleared[name], "expected %s to be cleared", name)
	}
}

func TestRequireSession_NoValidatorDeniesWithoutPurge(t *testing.T) {
	// Auth can be disabled while the user routes stay registered; a
	// credentialed request must be denied like an outage, not panic.
	gate := &Gate{Apps: testApps()}
	handler := gate.RequireSession()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "http://farm.clycites.com/api/profile", nil)
	withSessionCookie(req, tokens.CanonicalCookieName)
	rec := httptest.NewRecorder()

	require.NotPanics(t, func() {
		handler.ServeHTTP(rec, req)
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies(), "a missing validator must not purge the credential")
}

func TestRequireSession_ValidatorOutageKeepsCookies(t *testing.T) {
	gate := &Gate{
		Apps: testApps(),
		Validator: &mocksauth.MockSessionValidator{
			ValidateFunc: func(context.Context, string) (domainauth.User, error) {
				return domainauth.User{}, errors.New("redis: connection refused")
			},
		},
	}
	handler := gate.RequireSession()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "http://farm.clycites.com/api/profile", nil)
	withSessionCookie(req, tokens.CanonicalCookieName)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies(), "an outage must not purge the credential")
}

func TestRequireRole(t *testing.T) {
	gate := &Gate{Apps: testApps()}

	serve := func(role domainauth.Role, required domainauth.Role, path, accept string) *httptest.ResponseRecorder {
		handler := gate.RequireRole(required)(okHandler())
		req := httptest.NewRequest(http.MethodGet, "http://farm.clycites.com"+path, nil)
		if accept != "" {
			req.Header.Set("Accept", accept)
		}
		user := &domainauth.User{ID: "u1", Role: role}
		req = req.WithContext(SetUserInContext(req.Context(), user))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("sufficient role passes", func(t *testing.T) {
		rec := serve(domainauth.RoleAdmin, domainauth.RoleAdmin, "/api/admin/users", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("higher role passes lower requirement", func(t *testing.T) {
		rec := serve(domainauth.RoleAdmin, domainauth.RoleEditor, "/api/things", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("insufficient role gets 403 on api routes", func(t *testing.T) {
		rec := serve(domainauth.RoleViewer, domainauth.RoleAdmin, "/api/admin/users", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "insufficient_permissions")
	})

	t.Run("insufficient role redirects browsers to unauthorized, not login", func(t *testing.T) {
		rec := serve(domainauth.RoleViewer, domainauth.RoleAdmin, "/admin", "text/html")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/unauthorized", rec.Header().Get("Location"))
	})

	t.Run("unknown role never meets a requirement", func(t *testing.T) {
		rec := serve(domainauth.Role("superuser"), domainauth.RoleViewer, "/api/things", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestRequireRole_NoUserInContext(t *testing.T) {
	gate := &Gate{Apps: testApps()}
	handler := gate.RequireRole(domainauth.RoleViewer)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "http://farm.clycites.com/api/things", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSession_BearerHeaderFallback(t *testing.T) {
	gate := &Gate{
		Apps: testApps(),
		Validator: &mocksauth.MockSessionValidator{
			ValidateFunc: func(_ context.Context, token string) (domainauth.User, error) {
				assert.Equal(t, "api-token", token)
				return domainauth.User{ID: "u1", Role: domainauth.RoleViewer}, nil
			},
		},
	}
	handler := gate.RequireSession()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "http://farm.clycites.com/api/profile", nil)
	req.Header.Set("Authorization", "Bearer api-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSafeRedirectPath(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		want      string
	}{
		{"empty falls back to root", "", "/"},
		{"relative path passes", "/dashboard", "/dashboard"},
		{"relative path with query passes", "/fields/42?tab=soil", "/fields/42?tab=soil"},
		{"absolute url rejected", "https://evil.example.com/phish", "/"},
		{"protocol-relative rejected", "//evil.example.com", "/"},
		{"missing leading slash rejected", "dashboard", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, safeRedirectPath(tt.candidate))
		})
	}
}
