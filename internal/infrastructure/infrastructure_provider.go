package infrastructure

import (
	"fmt"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/janhq/drivethru-server/internal/config"
	"github.com/janhq/drivethru-server/internal/domain/llm"
	"github.com/janhq/drivethru-server/internal/domain/menu"
	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/domain/pipeline"
	"github.com/janhq/drivethru-server/internal/domain/session"
	"github.com/janhq/drivethru-server/internal/infrastructure/cache"
	"github.com/janhq/drivethru-server/internal/infrastructure/catalog"
	"github.com/janhq/drivethru-server/internal/infrastructure/database"
	"github.com/janhq/drivethru-server/internal/infrastructure/database/repository/archiverepo"
	"github.com/janhq/drivethru-server/internal/infrastructure/database/repository/catalogrepo"
	"github.com/janhq/drivethru-server/internal/infrastructure/llmprovider"
	"github.com/janhq/drivethru-server/internal/infrastructure/logger"
	"github.com/janhq/drivethru-server/internal/infrastructure/observability"
	"github.com/janhq/drivethru-server/internal/infrastructure/store"
	"github.com/janhq/drivethru-server/internal/infrastructure/telemetry"
)

// ProvideConfig loads and provides the application configuration
func ProvideConfig() (*config.Config, error) {
	return config.Load()
}

// ProvideLogger provides the service logger
func ProvideLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(cfg)
}

// ProvideLLMClient provides the language model capability
func ProvideLLMClient(cfg *config.Config, log zerolog.Logger) llm.Capability {
	return llmprovider.NewClient(cfg, log)
}

// ProvideDatabase connects to Postgres when the archive or the database
// catalog needs it. It returns a nil *gorm.DB otherwise.
func ProvideDatabase(cfg *config.Config, log zerolog.Logger) (*gorm.DB, func(), error) {
	if !cfg.ArchiveEnabled() && cfg.CatalogSource != "database" {
		return nil, func() {}, nil
	}

	db, err := database.Connect(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	log.Info().Msg("Running database migrations...")
	if err := database.Migrate(db, log); err != nil {
		log.Error().Err(err).Msg("Failed to run database migrations")
		return nil, nil, err
	}

	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

// ProvideRedis connects to Redis when it backs the session and order
// stores. It returns nil for the memory driver.
func ProvideRedis(cfg *config.Config, log zerolog.Logger) (*cache.RedisCache, func(), error) {
	if cfg.OrderStoreDriver != "redis" {
		return nil, func() {}, nil
	}
	c, err := cache.NewRedisCache(cfg.RedisURL, log)
	if err != nil {
		return nil, nil, err
	}
	return c, func() { _ = c.Close() }, nil
}

// ProvideSessionStore provides the session store for the configured driver.
func ProvideSessionStore(cfg *config.Config, redisCache *cache.RedisCache, log zerolog.Logger) session.Store {
	if redisCache != nil {
		return store.NewRedisSessionStore(redisCache, cfg.OrderTTL, log)
	}
	return store.NewMemorySessionStore(log)
}

// ProvideOrderStore provides the order store for the configured driver.
func ProvideOrderStore(cfg *config.Config, redisCache *cache.RedisCache, log zerolog.Logger) order.Store {
	if redisCache != nil {
		return store.NewRedisOrderStore(redisCache, cfg.OrderTTL, cfg.OrderLockTTL, log)
	}
	return store.NewMemoryOrderStore(log)
}

// ProvideMenuSource provides the menu source behind an LRU cache.
func ProvideMenuSource(cfg *config.Config, db *gorm.DB, log zerolog.Logger) (menu.Source, error) {
	var src menu.Source
	switch cfg.CatalogSource {
	case "database":
		if db == nil {
			return nil, fmt.Errorf("database catalog requested without a database connection")
		}
		src = catalogrepo.NewCatalogGormRepository(db)
	default:
		seed, err := catalog.LoadYAMLFile(cfg.MenuSeedFile)
		if err != nil {
			return nil, err
		}
		log.Info().
			Str("file", cfg.MenuSeedFile).
			Int("restaurants", len(seed.RestaurantIDs())).
			Msg("menu seed loaded")
		src = seed
	}
	cached, err := catalog.NewCachedSource(src, cfg.CatalogCacheSize, cfg.CatalogCacheTTL)
	if err != nil {
		return nil, err
	}
	return cached, nil
}

// ProvideArchiver provides the confirmed-order archiver.
func ProvideArchiver(cfg *config.Config, db *gorm.DB, log zerolog.Logger) order.Archiver {
	if cfg.ArchiveEnabled() && db != nil {
		return archiverepo.NewOrderArchiveGormRepository(db, log)
	}
	return archiverepo.NewLogArchiver(log)
}

// ProvideRedactor provides the transcript redactor.
func ProvideRedactor(cfg *config.Config) pipeline.Redactor {
	return telemetry.NewSanitizer(telemetry.ParsePIILevel(cfg.TranscriptPIILevel), cfg.ServiceName)
}

// ProvideObserver provides the pipeline stage instrumenter. It reads the
// global providers, so observability.Setup must run first.
func ProvideObserver(log zerolog.Logger) pipeline.Observer {
	return observability.NewStageInstrumenter(otel.GetTracerProvider(), otel.GetMeterProvider(), log)
}

// ProvideReaper provides the idle session reaper.
func ProvideReaper(sessions session.Service, cfg *config.Config, log zerolog.Logger) *store.Reaper {
	return store.NewReaper(sessions, cfg.SessionIdleTTL, cfg.SessionReapInterval, log)
}

// InfrastructureProvider provides all infrastructure dependencies
var InfrastructureProvider = wire.NewSet(
	// Language model
	ProvideLLMClient,

	// Storage
	ProvideDatabase,
	ProvideRedis,
	ProvideSessionStore,
	ProvideOrderStore,
	ProvideArchiver,

	// Catalog
	ProvideMenuSource,

	// Telemetry
	ProvideRedactor,
	ProvideObserver,

	// Background jobs
	ProvideReaper,
)
