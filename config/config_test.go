package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.False(t, cfg.IsDev)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, AuthModeOAuth, cfg.Auth.Mode)
	assert.Equal(t, "localhost:6379", cfg.Redis.URI)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, 5*time.Second, cfg.Auth.Guard.ValidateTimeout)
	assert.Equal(t, "accounts", cfg.Apps.DefaultApp)
}

func TestAuthMode_UnmarshalText(t *testing.T) {
	var m AuthMode
	require.NoError(t, m.UnmarshalText([]byte("MOCK")))
	assert.Equal(t, AuthModeMock, m)

	require.NoError(t, m.UnmarshalText([]byte("oauth")))
	assert.Equal(t, AuthModeOAuth, m)

	assert.Error(t, m.UnmarshalText([]byte("saml")))
}

func TestAuthMode_FromEnv(t *testing.T) {
	t.Setenv("AUTH_MODE", "mock")
	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	assert.Equal(t, AuthModeMock, cfg.Auth.Mode)
}

func TestDetectDevMode_NodeEnv(t *testing.T) {
	t.Setenv("NODE_ENV", "development")
	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()
	assert.True(t, cfg.IsDev)
}

func TestGuardSanitize_TimeoutGuardrail(t *testing.T) {
	cfg := AuthConfig{Guard: GuardConfig{ValidateTimeout: -time.Second, AccountsURL: "http://localhost:8080/"}}
	cfg.Sanitize()
	assert.Equal(t, 5*time.Second, cfg.Guard.ValidateTimeout)
	assert.Equal(t, "http://localhost:8080", cfg.Guard.AccountsURL)
}

func TestSanitizeCookieDomain(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"clycites.com", "clycites.com"},
		{".clycites.com", "clycites.com"},
		{"Accounts.ClyCites.com", "accounts.clycites.com"},
		// Public suffixes must be rejected outright.
		{"com", ""},
		{"co.uk", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, sanitizeCookieDomain(tc.in), "input %q", tc.in)
	}
}

func TestAppsSanitize_Defaults(t *testing.T) {
	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	farm := cfg.Apps.Farm
	assert.Equal(t, "farm", farm.Name)
	assert.Contains(t, farm.PublicPrefixes, "/about")
	assert.Contains(t, farm.AuthOnlyPrefixes, "/login")
	assert.Equal(t, "/dashboard", farm.DashboardPath)
	assert.Equal(t, "/unauthorized", farm.UnauthorizedPath)

	// Gateway endpoints are forced public on every profile.
	for _, p := range []AppProfile{cfg.Apps.Farm, cfg.Apps.Emarket, cfg.Apps.Accounts} {
		assert.Contains(t, p.PublicPrefixes, "/auth/")
		assert.Contains(t, p.PublicPrefixes, "/healthz")
	}
}

func TestAppsSanitize_NormalizesPaths(t *testing.T) {
	apps := AppsConfig{
		Farm: AppProfile{
			PublicPrefixes:   []string{"about", "", "/"},
			AuthOnlyPrefixes: []string{"login"},
			LoginPath:        "signin",
			DashboardPath:    "",
		},
	}
	apps.Sanitize()

	assert.Contains(t, apps.Farm.PublicPrefixes, "/about")
	assert.NotContains(t, apps.Farm.PublicPrefixes, "/")
	assert.Contains(t, apps.Farm.AuthOnlyPrefixes, "/login")
	assert.Equal(t, "/signin", apps.Farm.LoginPath)
	assert.Equal(t, "/dashboard", apps.Farm.DashboardPath)
}

func TestProfileFor(t *testing.T) {
	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.Equal(t, "farm", cfg.Apps.ProfileFor("farm.clycites.com").Name)
	assert.Equal(t, "farm", cfg.Apps.ProfileFor("farm.clycites.com:8443").Name)
	assert.Equal(t, "emarket", cfg.Apps.ProfileFor("market.clycites.com").Name)
	// Unknown host falls back to the default profile.
	assert.Equal(t, "accounts", cfg.Apps.ProfileFor("nobody.example.com").Name)
}

func TestProfileFor_EnvOverride(t *testing.T) {
	t.Setenv("APP_EMARKET_HOSTS", "shop.example.org;store.example.org")
	t.Setenv("APP_EMARKET_LOGIN_PATH", "/signin")
	t.Setenv("DEFAULT_APP", "farm")

	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	p := cfg.Apps.ProfileFor("store.example.org")
	assert.Equal(t, "emarket", p.Name)
	assert.Equal(t, "/signin", p.LoginPath)

	assert.Equal(t, "farm", cfg.Apps.ProfileFor("unknown.host").Name)
}
