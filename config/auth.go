package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth uses OAuth/OIDC for authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"clygate"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:"clygate"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	LogoutURL    string `env:"LOGOUT_URL"`
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID string   `env:"USER_ID" envDefault:"dev-user"`
	Email  string   `env:"EMAIL"   envDefault:"dev@clycites.local"`
	Groups []string `env:"GROUPS"  envDefault:"admins"            envSeparator:";"`
}

// GuardConfig bounds the session-guard validation call.
type GuardConfig struct {
	// ValidateTimeout caps a single session validation request. Expiry is
	// treated the same as a failed validation (fail closed).
	ValidateTimeout time.Duration `env:"VALIDATE_TIMEOUT" envDefault:"5s"`

	// AccountsURL is the base URL of the accounts API used by token-holding
	// clients (e.g. the admin CLI) for session validation.
	AccountsURL string `env:"ACCOUNTS_URL" envDefault:"http://localhost:8080"`
}

// RolesConfig controls how provider identities map to application roles.
type RolesConfig struct {
	// AdminGroup / EditorGroup are IdP group names granting those roles.
	// Identities matching neither fall back to viewer.
	AdminGroup  string `env:"ADMIN_GROUP"  envDefault:"admins"`
	EditorGroup string `env:"EDITOR_GROUP" envDefault:"editors"`

	// ClaimsExpr, when set, is a JMESPath expression evaluated against the
	// raw ID-token claims; its string result is used as the role name
	// directly (e.g. `globalRole` or `realm_access.roles[0]`). Takes
	// precedence over group matching.
	ClaimsExpr string `env:"CLAIMS_EXPR"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// Role mapping configuration.
	Roles RolesConfig `envPrefix:"ROLES_"`

	// Session guard configuration.
	Guard GuardConfig `envPrefix:"GUARD_"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.Guard.ValidateTimeout <= 0 {
		a.Guard.ValidateTimeout = 5 * time.Second
	}
	a.Guard.AccountsURL = strings.TrimRight(a.Guard.AccountsURL, "/")
}
