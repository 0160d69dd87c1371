package bootstrap

import (
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/clycites/clygate/config"
	"github.com/clycites/clygate/internal/adapters/authroles"
	"github.com/clycites/clygate/internal/adapters/devauth"
	"github.com/clycites/clygate/internal/adapters/oidc"
	redisadapter "github.com/clycites/clygate/internal/adapters/redis"
	domainauth "github.com/clycites/clygate/internal/domain/auth"
	"github.com/clycites/clygate/internal/ports"
	"github.com/clycites/clygate/internal/service"
)

// AuthConfig contains configuration for the auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	// Users is optional; when set, completed logins refresh the cached
	// user record.
	Users  ports.UserRepository
	Logger *slog.Logger
}

// BuildAuthService creates an auth service based on the configured auth mode.
// Returns nil if auth is not configured or configuration is invalid.
func BuildAuthService(cfg AuthConfig) *service.AuthService {
	if cfg.RedisClient == nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("auth service disabled: redis client not configured", "mode", cfg.Auth.Mode)
		}
		return nil
	}

	// Redis session store shared by both modes
	sessionStore := redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, "session:")

	roleMapper := buildRoleMapper(cfg.Auth.Roles, cfg.Logger)

	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		return buildDevAuthService(cfg, sessionStore, roleMapper)

	case config.AuthModeOAuth:
		return buildOAuthService(cfg, sessionStore, roleMapper)

	default:
		return nil
	}
}

// buildRoleMapper prefers the claims expression when configured, falling
// back to static group matching when the expression does not parse.
//
//nolint:ireturn // callers only need the RoleMapper behavior.
func buildRoleMapper(cfg config.RolesConfig, logger *slog.Logger) ports.RoleMapper {
	static := authroles.StaticRoleMapper{
		AdminGroup:  cfg.AdminGroup,
		EditorGroup: cfg.EditorGroup,
	}

	if cfg.ClaimsExpr == "" {
		return static
	}

	mapper, err := authroles.NewClaimsMapper(cfg.ClaimsExpr, domainauth.RoleViewer)
	if err != nil {
		if logger != nil {
			logger.Warn("invalid role claims expression, using group mapping",
				"expr", cfg.ClaimsExpr, "error", err)
		}
		return static
	}
	return mapper
}

func buildDevAuthService(
	cfg AuthConfig,
	sessionStore *redisadapter.SessionStore,
	roleMapper ports.RoleMapper,
) *service.AuthService {
	// Explicitly enabled dev auth mode; build a local provider.
	prov, err := devauth.NewProvider(devauth.Config{
		UserID: cfg.Auth.DevAuth.UserID,
		Email:  cfg.Auth.DevAuth.Email,
		Groups: cfg.Auth.DevAuth.Groups,
		// session duration defaults inside provider
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create dev auth provider, auth disabled", "error", err)
		}
		return nil
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider: prov,
		Sessions: sessionStore,
		Roles:    roleMapper,
		Users:    cfg.Users,
	})
}

func buildOAuthService(
	cfg AuthConfig,
	sessionStore *redisadapter.SessionStore,
	roleMapper ports.RoleMapper,
) *service.AuthService {
	// Only enable when fully configured
	oauth := cfg.Auth.OAuth
	if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
		if cfg.Logger != nil {
			cfg.Logger.Warn("AuthModeOAuth selected but required config missing; auth disabled",
				"discovery_url_empty", oauth.DiscoveryURL == "",
				"client_id_empty", oauth.ClientID == "",
				"client_secret_empty", oauth.ClientSecret == "",
			)
		}
		return nil
	}

	prov, err := oidc.NewProvider(oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		DiscoveryURL: oauth.DiscoveryURL,
		LogoutURL:    oauth.LogoutURL,
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create OIDC provider, auth disabled", "error", err)
		}
		return nil
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider: prov,
		Sessions: sessionStore,
		Roles:    roleMapper,
		Users:    cfg.Users,
	})
}
