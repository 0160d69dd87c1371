package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/clycites/clygate/internal/adapters/tokens"
	domainauth "github.com/clycites/clygate/internal/domain/auth"
	"github.com/clycites/clygate/internal/ports"
	"github.com/clycites/clygate/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	Validate(ctx context.Context, token string) (domainauth.User, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	CookieDomain string
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login handles the login initiation endpoint.
// GET /auth/login?redirect=<optional_path>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	// Relative paths only; anything else collapses to root.
	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect"))

	result, err := h.Svc.BeginLogin(r.Context(), redirectURI)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     err,
		})
		return
	}

	// Store state, nonce, and the original destination in secure cookies
	h.setOAuthCookies(w, r, oauthCookieParams{State: result.State, Nonce: result.Nonce, RedirectURI: redirectURI})

	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback handles the OAuth callback endpoint.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	if state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_state",
			Err:     errors.New("state parameter is required"),
		})
		return
	}

	// Verify state and read nonce
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie("oauth_nonce")
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	result, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_completion_failed",
			Err:     err,
		})
		return
	}

	// Set the canonical session cookie and clear temporary OAuth cookies
	setSessionCookie(w, r, h.CookieDomain, result.Session)
	clearCookie(w, r, h.CookieDomain, "oauth_state")
	clearCookie(w, r, h.CookieDomain, "oauth_nonce")

	http.Redirect(w, r, h.getPostLoginRedirect(w, r), http.StatusFound)
}

// Logout handles the logout endpoint.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	// Invalidate the server-side session if a credential is present
	if token, ok := tokens.FromRequest(r); ok {
		if logoutErr := h.Svc.Logout(r.Context(), token); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
		}
	}

	// Clear every recognized session cookie name on the client
	clearSessionCookies(w, r, h.CookieDomain)

	redirectURI := r.FormValue("redirect")
	if redirectURI == "" {
		redirectURI = r.URL.Query().Get("redirect")
	}
	redirectURI = safeRedirectPath(redirectURI)

	// AJAX requests get a JSON payload; regular requests redirect
	isAJAX := strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
	if isAJAX {
		WriteEnvelope(w, http.StatusOK, map[string]string{"redirect_to": redirectURI})
		return
	}

	http.Redirect(w, r, redirectURI, http.StatusFound)
}

// Me returns the authenticated user for the presented credential.
// GET /auth/me, bearer header or session cookie. This is the endpoint
// session guards poll; the envelope shape is part of the contract.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		WriteEnvelopeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.Svc.Validate(r.Context(), token)
	switch {
	case err == nil:
		WriteEnvelope(w, http.StatusOK, user)
	case errors.Is(err, ports.ErrUnauthorized):
		// The credential is dead; take the cookie with it.
		clearSessionCookies(w, r, h.CookieDomain)
		WriteEnvelopeError(w, http.StatusUnauthorized, "session invalid or expired")
	default:
		h.logger().ErrorContext(r.Context(), "session validation failed", "error", err)
		WriteEnvelopeError(w, http.StatusServiceUnavailable, "session validation unavailable")
	}
}

// oauthCookieParams groups values needed to set OAuth cookies.
type oauthCookieParams struct {
	State       string
	Nonce       string
	RedirectURI string
}

// setOAuthCookies stores OAuth state, nonce, and the post-login redirect in secure cookies.
func (h *AuthHandlers) setOAuthCookies(w http.ResponseWriter, r *http.Request, p oauthCookieParams) {
	isSecure := requestIsSecure(r)
	const oauthCookieTTL = 600 // 10 minutes

	for name, value := range map[string]string{
		"oauth_state":         p.State,
		"oauth_nonce":         p.Nonce,
		"post_login_redirect": p.RedirectURI,
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			Domain:   h.CookieDomain,
			HttpOnly: true,
			Secure:   isSecure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   oauthCookieTTL,
		})
	}
}

// getPostLoginRedirect returns the post-login redirect path and clears the cookie.
func (h *AuthHandlers) getPostLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	redirectURI := "/"
	if redirectCookie, err := r.Cookie("post_login_redirect"); err == nil {
		redirectURI = safeRedirectPath(redirectCookie.Value)
		clearCookie(w, r, h.CookieDomain, "post_login_redirect")
	}
	return redirectURI
}

// setSessionCookie writes the canonical session cookie based on the
// session's expiry. Only the canonical name is ever written; the legacy
// alias names are read-side compatibility.
func setSessionCookie(w http.ResponseWriter, r *http.Request, domain string, s domainauth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokens.CanonicalCookieName,
		Value:    s.ID,
		Path:     "/",
		Domain:   domain,
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
	})
}

// clearSessionCookies clears the canonical session cookie and both
// legacy aliases, so a stale credential under an old name cannot keep
// resurrecting a session.
func clearSessionCookies(w http.ResponseWriter, r *http.Request, domain string) {
	for _, name := range tokens.CookieNames() {
		clearCookie(w, r, domain, name)
	}
}

// clearCookie clears a cookie by setting it to expire immediately.
// It mirrors key attributes (Secure, Path, Domain, SameSite) used when
// setting cookies to maximize compatibility across browsers during deletion.
func clearCookie(w http.ResponseWriter, r *http.Request, domain, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   domain,
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

func requestIsSecure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}
