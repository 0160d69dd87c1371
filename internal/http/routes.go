package httpx

import (
	"log/slog"
	"net/http"

	"github.com/clycites/clygate/config"
	domainauth "github.com/clycites/clygate/internal/domain/auth"
	"github.com/clycites/clygate/internal/observability/statsd"
	"github.com/clycites/clygate/internal/ports"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth  AuthServiceInterface
	Users ports.UserRepository
	Apps  *config.AppsConfig
	// Validator backs the session middleware. Usually the same value as
	// Auth; split out so tests can substitute a double.
	Validator    ports.SessionValidator
	CookieDomain string
	Metrics      statsd.Sink
	Logger       *slog.Logger
}

// NewRouter creates and configures the HTTP router with the edge gate
// applied in front of every route.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	gate := &Gate{
		Apps:         services.Apps,
		Validator:    services.Validator,
		CookieDomain: services.CookieDomain,
		Metrics:      services.Metrics,
		Logger:       services.Logger,
	}

	if services.Auth != nil {
		authHandlers := &AuthHandlers{Svc: services.Auth, CookieDomain: services.CookieDomain, Logger: services.Logger}
		registerAuthRoutes(mux, authHandlers)
	}

	if services.Users != nil {
		userHandlers := &UserHandlers{Repo: services.Users, Logger: services.Logger}
		registerUserRoutes(mux, userHandlers, gate)
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	// Everything, registered routes included, passes through the edge
	// decision table first.
	return gate.RouteGate()(mux)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.Handle("GET /auth/login", http.HandlerFunc(h.Login))
	mux.Handle("GET /auth/callback", http.HandlerFunc(h.Callback))
	mux.Handle("POST /auth/logout", http.HandlerFunc(h.Logout))
	mux.Handle("GET /auth/me", http.HandlerFunc(h.Me))
}

func registerUserRoutes(mux *http.ServeMux, h *UserHandlers, gate *Gate) {
	mux.Handle("GET /api/profile",
		gate.RequireSession()(http.HandlerFunc(h.Profile)))
	mux.Handle("GET /api/admin/users",
		gate.RequireSession()(gate.RequireRole(domainauth.RoleAdmin)(http.HandlerFunc(h.ListUsers))))
}
