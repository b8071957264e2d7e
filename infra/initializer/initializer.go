// Package initializer builds the application dependencies from
// configuration: logger, database, event bus, credential cache and the
// provider registry.
package initializer

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	infracache "github.com/andrevalim/pixhub/infra/cache"
	infraeventbus "github.com/andrevalim/pixhub/infra/eventbus"
	"github.com/andrevalim/pixhub/infra/provider/nitropay"
	"github.com/andrevalim/pixhub/infra/provider/pagfast"
	infrarepository "github.com/andrevalim/pixhub/infra/repository"
	"github.com/andrevalim/pixhub/pkg/app"
	"github.com/andrevalim/pixhub/pkg/config"
	"github.com/andrevalim/pixhub/pkg/eventbus"
	"github.com/andrevalim/pixhub/pkg/provider"
)

// InitializeDependencies wires every infrastructure dependency the
// services need.
func InitializeDependencies(cfg *config.App) (*app.Deps, error) {
	deps := &app.Deps{}
	logger := setupLogger(cfg.Log)
	deps.Logger = logger

	db, err := infrarepository.NewDBConnection(cfg.DB.Url, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, err
	}
	if err := infrarepository.Migrate(db); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	deps.Uow = infrarepository.NewUoW(db)

	var bus eventbus.Bus = infraeventbus.NewMemoryBus(logger)
	if cfg.Kafka != nil && cfg.Kafka.Brokers != "" {
		bus, err = infraeventbus.NewKafkaMirror(bus, cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix, logger)
		if err != nil {
			return nil, fmt.Errorf("creating kafka mirror: %w", err)
		}
		logger.Info("Mirroring domain events to Kafka", "brokers", cfg.Kafka.Brokers)
	}
	deps.EventBus = bus

	deps.Creds, err = buildCredentialSource(cfg, deps)
	if err != nil {
		return nil, err
	}

	deps.Registry, err = buildRegistry(cfg, deps)
	if err != nil {
		return nil, err
	}

	return deps, nil
}

func buildCredentialSource(cfg *config.App, deps *app.Deps) (provider.CredentialSource, error) {
	if cfg.Redis != nil && cfg.Redis.Enabled {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		deps.Logger.Info("Caching provider credentials in Redis")
		return infracache.NewRedisCredentials(opt, cfg.Redis.KeyPrefix, deps.Logger), nil
	}
	return infracache.NewMemoryCredentials(deps.Logger), nil
}

func buildRegistry(cfg *config.App, deps *app.Deps) (*provider.Registry, error) {
	registry := provider.NewRegistry()

	if pf := cfg.Providers.PagFast; pf != nil && pf.ClientID != "" {
		registry.Register(pagfast.New(pagfast.Config{
			BaseURL:      pf.BaseURL,
			ClientID:     pf.ClientID,
			ClientSecret: pf.ClientSecret,
			PixKey:       pf.PixKey,
			ChargeExpiry: pf.ChargeExpiry,
		}, deps.Logger))
	}
	if np := cfg.Providers.NitroPay; np != nil && np.ApiKey != "" {
		registry.Register(nitropay.New(nitropay.Config{
			BaseURL:   np.BaseURL,
			APIKey:    np.ApiKey,
			APISecret: np.ApiSecret,
		}, deps.Logger))
	}

	slugs := registry.Slugs()
	if len(slugs) == 0 {
		return nil, fmt.Errorf("no payment provider configured")
	}
	if _, err := registry.Get(cfg.Providers.Default); err != nil {
		return nil, fmt.Errorf("default provider %q is not configured", cfg.Providers.Default)
	}
	deps.Logger.Info("Payment providers registered", "slugs", slugs, "default", cfg.Providers.Default)

	return registry, nil
}
