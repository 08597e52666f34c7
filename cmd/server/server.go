// @title           Drive-Thru API
// @version         1.0
// @description     Voice ordering for drive-thru lanes. Lane terminals post transcribed
// @description     utterances and play back the returned phrase.

// @BasePath  /v1

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/janhq/drivethru-server/internal/config"
	"github.com/janhq/drivethru-server/internal/domain"
	"github.com/janhq/drivethru-server/internal/domain/extraction"
	"github.com/janhq/drivethru-server/internal/domain/intent"
	"github.com/janhq/drivethru-server/internal/domain/noise"
	"github.com/janhq/drivethru-server/internal/domain/removal"
	"github.com/janhq/drivethru-server/internal/infrastructure"
	"github.com/janhq/drivethru-server/internal/infrastructure/logger"
	"github.com/janhq/drivethru-server/internal/infrastructure/observability"
	"github.com/janhq/drivethru-server/internal/infrastructure/store"
	"github.com/janhq/drivethru-server/internal/interfaces/httpserver"
	"github.com/janhq/drivethru-server/internal/interfaces/httpserver/handlers"
	"github.com/janhq/drivethru-server/internal/interfaces/httpserver/routes"
)

// Application holds the main application components.
type Application struct {
	httpServer *httpserver.HTTPServer
	reaper     *store.Reaper
	log        zerolog.Logger
}

// NewApplication creates a new application instance.
func NewApplication(httpServer *httpserver.HTTPServer, reaper *store.Reaper, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		reaper:     reaper,
		log:        log,
	}
}

// Start runs the application until ctx is cancelled.
func (a *Application) Start(ctx context.Context) error {
	a.reaper.Start(ctx)

	err := a.httpServer.Run(ctx)

	a.reaper.Stop()
	return err
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup observability before anything asks for a tracer or meter
	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	app, cleanup, err := buildApplication(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build application")
	}
	defer cleanup()

	log.Info().
		Str("service", cfg.ServiceName).
		Int("port", cfg.HTTPPort).
		Str("environment", cfg.Environment).
		Str("store", cfg.OrderStoreDriver).
		Str("catalog", cfg.CatalogSource).
		Bool("archive", cfg.ArchiveEnabled()).
		Msg("starting application")

	if err := app.Start(ctx); err != nil {
		log.Error().Err(err).Msg("application stopped with error")
		return
	}

	log.Info().Msg("application exited cleanly")
}

// buildApplication wires the same graph as CreateApplication in wire.go.
func buildApplication(cfg *config.Config, log zerolog.Logger) (*Application, func(), error) {
	db, closeDB, err := infrastructure.ProvideDatabase(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	redisCache, closeRedis, err := infrastructure.ProvideRedis(cfg, log)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	cleanup := func() {
		closeRedis()
		closeDB()
	}

	source, err := infrastructure.ProvideMenuSource(cfg, db, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	sessionStore := infrastructure.ProvideSessionStore(cfg, redisCache, log)
	orderStore := infrastructure.ProvideOrderStore(cfg, redisCache, log)
	archiver := infrastructure.ProvideArchiver(cfg, db, log)
	capability := infrastructure.ProvideLLMClient(cfg, log)

	catalog := domain.ProvideCatalog(source, cfg)
	sessions := domain.ProvideSessionService(sessionStore, orderStore, catalog, cfg, log)
	executor := domain.ProvideExecutor(
		orderStore,
		sessions,
		archiver,
		catalog,
		domain.ProvideMenuResolver(catalog, cfg, log),
		extraction.NewExtractor(capability, log),
		domain.ProvideModifyParser(capability, cfg, log),
		removal.NewParser(capability, log),
		domain.ProvideAnswerer(capability, catalog, log),
		domain.ProvideOrderLimits(cfg),
		log,
	)
	p := domain.ProvidePipeline(
		sessions,
		orderStore,
		catalog,
		noise.NewFilter(capability, log),
		intent.NewClassifier(capability, log),
		domain.ProvideContextResolver(capability, cfg, log),
		executor,
		infrastructure.ProvideObserver(log),
		infrastructure.ProvideRedactor(cfg),
		log,
	)

	lane := handlers.ProvideLaneHandler(sessions, orderStore, p, log)
	httpServer := httpserver.New(cfg, log, routes.NewProvider(handlers.NewProvider(lane)))
	reaper := infrastructure.ProvideReaper(sessions, cfg, log)

	return NewApplication(httpServer, reaper, log), cleanup, nil
}

func loadEnvFiles() {
	paths := []string{".env", "../.env", "../../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
