package config

import (
	"net"
	"strings"
)

// AppProfile is the route-authorization profile for one frontend
// application. The three ClyCites apps ship with sensible defaults; every
// field is overridable per app via environment variables.
//
// Paths in PublicPrefixes and AuthOnlyPrefixes are prefix-matched; any
// path matching neither list is protected. The root path "/" is always
// public regardless of these lists.
type AppProfile struct {
	// Name identifies the profile (set during Sanitize).
	Name string

	// Hosts are the request hosts served by this profile (no port).
	Hosts []string `env:"HOSTS" envSeparator:";"`

	// PublicPrefixes are path prefixes reachable without a credential.
	PublicPrefixes []string `env:"PUBLIC_PREFIXES" envSeparator:";"`

	// AuthOnlyPrefixes are login/register/forgot-password style paths;
	// authenticated users are redirected to DashboardPath instead.
	AuthOnlyPrefixes []string `env:"AUTH_ONLY_PREFIXES" envSeparator:";" envDefault:"/login;/register;/forgot-password"`

	// LoginPath receives unauthenticated users hitting protected paths.
	LoginPath string `env:"LOGIN_PATH" envDefault:"/login"`

	// DashboardPath receives authenticated users hitting auth-only paths.
	DashboardPath string `env:"DASHBOARD_PATH" envDefault:"/dashboard"`

	// UnauthorizedPath receives authenticated users whose role is too low.
	// Distinct from LoginPath: the user is signed in, merely not permitted.
	UnauthorizedPath string `env:"UNAUTHORIZED_PATH" envDefault:"/unauthorized"`
}

// AppsConfig groups the per-application profiles.
type AppsConfig struct {
	Farm     AppProfile `envPrefix:"APP_FARM_"`
	Emarket  AppProfile `envPrefix:"APP_EMARKET_"`
	Accounts AppProfile `envPrefix:"APP_ACCOUNTS_"`

	// DefaultApp names the profile used when no host matches.
	DefaultApp string `env:"DEFAULT_APP" envDefault:"accounts"`
}

// gatewayPublicPrefixes are always public on every profile: the gateway's
// own auth endpoints and health check must never be gated.
var gatewayPublicPrefixes = []string{"/auth/", "/healthz"}

// Sanitize names the profiles, fills per-app defaults the env layer
// cannot express, and normalizes every configured path.
func (c *AppsConfig) Sanitize() {
	c.Farm.Name = "farm"
	c.Emarket.Name = "emarket"
	c.Accounts.Name = "accounts"

	if len(c.Farm.Hosts) == 0 {
		c.Farm.Hosts = []string{"farm.clycites.com"}
	}
	if len(c.Farm.PublicPrefixes) == 0 {
		c.Farm.PublicPrefixes = []string{"/about", "/features", "/contact"}
	}
	if len(c.Emarket.Hosts) == 0 {
		c.Emarket.Hosts = []string{"market.clycites.com"}
	}
	if len(c.Emarket.PublicPrefixes) == 0 {
		c.Emarket.PublicPrefixes = []string{"/products", "/categories", "/search"}
	}
	if len(c.Accounts.Hosts) == 0 {
		c.Accounts.Hosts = []string{"accounts.clycites.com"}
	}
	if len(c.Accounts.PublicPrefixes) == 0 {
		c.Accounts.PublicPrefixes = []string{"/verify-email"}
	}

	for _, p := range c.profiles() {
		p.sanitize()
	}

	switch strings.ToLower(c.DefaultApp) {
	case "farm", "emarket", "accounts":
		c.DefaultApp = strings.ToLower(c.DefaultApp)
	default:
		c.DefaultApp = "accounts"
	}
}

func (c *AppsConfig) profiles() []*AppProfile {
	return []*AppProfile{&c.Farm, &c.Emarket, &c.Accounts}
}

// ProfileFor selects the profile serving the given request host,
// falling back to the default profile when no host matches.
func (c *AppsConfig) ProfileFor(host string) AppProfile {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(host)

	for _, p := range c.profiles() {
		for _, candidate := range p.Hosts {
			if host == candidate {
				return *p
			}
		}
	}

	switch c.DefaultApp {
	case "farm":
		return c.Farm
	case "emarket":
		return c.Emarket
	default:
		return c.Accounts
	}
}

func (p *AppProfile) sanitize() {
	for i, h := range p.Hosts {
		p.Hosts[i] = strings.ToLower(strings.TrimSpace(h))
	}
	p.PublicPrefixes = normalizePaths(p.PublicPrefixes)
	p.AuthOnlyPrefixes = normalizePaths(p.AuthOnlyPrefixes)

	// Gateway endpoints stay public no matter how a profile is configured.
	for _, gp := range gatewayPublicPrefixes {
		if !containsString(p.PublicPrefixes, gp) {
			p.PublicPrefixes = append(p.PublicPrefixes, gp)
		}
	}

	p.LoginPath = normalizePath(p.LoginPath, "/login")
	p.DashboardPath = normalizePath(p.DashboardPath, "/dashboard")
	p.UnauthorizedPath = normalizePath(p.UnauthorizedPath, "/unauthorized")
}

func normalizePaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, raw := range paths {
		p := strings.TrimSpace(raw)
		if p == "" || p == "/" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		out = append(out, p)
	}
	return out
}

func normalizePath(path, fallback string) string {
	p := strings.TrimSpace(path)
	if p == "" || p == "/" {
		return fallback
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
