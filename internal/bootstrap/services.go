package bootstrap

import (
	"database/sql"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/clycites/clygate/config"
	"github.com/clycites/clygate/internal/data"
	"github.com/clycites/clygate/internal/observability/statsd"
	"github.com/clycites/clygate/internal/ports"
	"github.com/clycites/clygate/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth    *service.AuthService
	Users   ports.UserRepository
	Metrics *statsd.Client
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildServices wires adapters into the service container.
func BuildServices(deps ServiceDeps) ServiceContainer {
	var container ServiceContainer

	if deps.DB != nil {
		container.Users = data.NewUserRepo(deps.DB)
	}

	container.Metrics = buildMetricsSink(deps)

	container.Auth = BuildAuthService(AuthConfig{
		Auth:        deps.Config.Auth,
		RedisClient: deps.RedisClient,
		Users:       container.Users,
		Logger:      deps.Logger,
	})

	return container
}

func buildMetricsSink(deps ServiceDeps) *statsd.Client {
	sink, err := statsd.NewClient(statsd.Config{
		Enabled: deps.Config.Metrics.Enabled,
		Address: deps.Config.Metrics.Addr,
		Prefix:  deps.Config.Metrics.Prefix,
		Logger:  deps.Logger,
	})
	if err != nil {
		if deps.Logger != nil {
			deps.Logger.Warn("metrics sink disabled", "error", err)
		}
		return nil
	}
	return sink
}
