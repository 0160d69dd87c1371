package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/clycites/clygate/config"
	"github.com/clycites/clygate/internal/adapters/tokens"
	domainauth "github.com/clycites/clygate/internal/domain/auth"
	"github.com/clycites/clygate/internal/domain/routes"
	"github.com/clycites/clygate/internal/observability/metrics"
	"github.com/clycites/clygate/internal/observability/statsd"
	"github.com/clycites/clygate/internal/ports"
)

// Logging returns a middleware that logs HTTP requests and responses
// and emits a request timing to the metrics sink.
func Logging(logger *slog.Logger, sink statsd.Sink) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			elapsed := time.Since(start)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("host", r.Host),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", elapsed),
			)
			metrics.EmitHTTPRequest(sink, r.Method, ww.status, elapsed)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

var errNoValidator = errors.New("session validator not configured")

// Gate bundles the route table, session validator, and cookie settings
// behind the gateway's authorization middleware. RouteGate is the
// presence-only edge layer; RequireSession and RequireRole validate.
type Gate struct {
	Apps      *config.AppsConfig
	Validator ports.SessionValidator
	// CookieDomain mirrors the domain used when session cookies were set
	// so clearing them actually removes them.
	CookieDomain string
	Metrics      statsd.Sink
	Logger       *slog.Logger
}

func (g *Gate) logger() *slog.Logger {
	if g != nil && g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

// RouteGate applies the edge decision table: classify the path for the
// requesting app's profile, check token presence (never validity), and
// allow or redirect. It performs no I/O so it can sit in front of every
// request.
func (g *Gate) RouteGate() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile := g.Apps.ProfileFor(r.Host)
			table := routes.Table{
				Public:   profile.PublicPrefixes,
				AuthOnly: profile.AuthOnlyPrefixes,
			}

			_, present := tokens.FromRequest(r)
			class := table.Classify(r.URL.Path)
			action := class.Decide(present)
			metrics.EmitGateDecision(g.Metrics, metrics.GateMetric{
				App:    profile.Name,
				Class:  class,
				Action: action,
			})

			switch action {
			case routes.ActionRedirectDashboard:
				http.Redirect(w, r, profile.DashboardPath, http.StatusSeeOther)
			case routes.ActionRedirectLogin:
				g.denyUnauthenticated(w, r, profile)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RequireSession validates the presented credential and stores the user
// in the request context. Definitive rejections purge the session
// cookies; validation outages deny without purging so the credential can
// succeed on a later request.
func (g *Gate) RequireSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile := g.Apps.ProfileFor(r.Host)

			token := sessionToken(r)
			if token == "" {
				g.denyUnauthenticated(w, r, profile)
				return
			}

			// No validator wired (auth disabled or misconfigured) counts
			// as an outage: deny, keep the credential.
			if g.Validator == nil {
				metrics.EmitSessionValidation(g.Metrics, metrics.OutcomeError, errNoValidator)
				g.logger().ErrorContext(r.Context(), "session validation unavailable", "path", r.URL.Path)
				g.denyUnauthenticated(w, r, profile)
				return
			}

			user, err := g.Validator.Validate(r.Context(), token)
			switch {
			case err == nil:
				metrics.EmitSessionValidation(g.Metrics, metrics.OutcomeValid, nil)
				ctx := SetUserInContext(r.Context(), &user)
				next.ServeHTTP(w, r.WithContext(ctx))
			case errors.Is(err, ports.ErrUnauthorized):
				metrics.EmitSessionValidation(g.Metrics, metrics.OutcomeRejected, nil)
				g.logger().WarnContext(r.Context(), "session rejected", "path", r.URL.Path)
				clearSessionCookies(w, r, g.CookieDomain)
				g.denyUnauthenticated(w, r, profile)
			default:
				// Validation outage: deny, keep the credential.
				metrics.EmitSessionValidation(g.Metrics, metrics.OutcomeError, err)
				g.logger().ErrorContext(r.Context(), "session validation failed", "error", err)
				g.denyUnauthenticated(w, r, profile)
			}
		})
	}
}

// RequireRole gates on the validated user's role. It must run after
// RequireSession. Insufficient roles land on the app's unauthorized
// route, never the login route: the user is signed in, merely not
// permitted.
func (g *Gate) RequireRole(required domainauth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile := g.Apps.ProfileFor(r.Host)

			user, ok := GetUserFromContext(r.Context())
			if !ok {
				g.denyUnauthenticated(w, r, profile)
				return
			}

			if !user.Role.Meets(required) {
				if isBrowserRequest(r) {
					http.Redirect(w, r, profile.UnauthorizedPath, http.StatusSeeOther)
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errors.New("insufficient permissions"),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (g *Gate) denyUnauthenticated(w http.ResponseWriter, r *http.Request, profile config.AppProfile) {
	if isBrowserRequest(r) {
		redirectToLogin(w, r, profile)
		return
	}
	WriteEnvelopeError(w, http.StatusUnauthorized, "authentication required")
}

// redirectToLogin sends the browser to the app's login route, carrying
// the original request URI so login can return the user where they were.
func redirectToLogin(w http.ResponseWriter, r *http.Request, profile config.AppProfile) {
	target := profile.LoginPath + "?redirect=" + url.QueryEscape(safeRedirectPath(r.URL.RequestURI()))
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// sessionToken extracts the credential from the request: session cookies
// first (browser traffic), then a bearer header (API clients).
func sessionToken(r *http.Request) string {
	if tok, ok := tokens.FromRequest(r); ok {
		return tok
	}
	return bearerToken(r)
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return ""
}

// isBrowserRequest determines if a request is from a browser based on:
// 1. Path prefix - API routes start with /api/
// 2. Accept header - browsers typically accept text/html.
func isBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}

	accept := r.Header.Get("Accept")
	if accept == "" {
		// No Accept header, assume browser for non-API routes
		return true
	}
	return strings.Contains(accept, "text/html")
}
