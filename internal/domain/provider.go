package domain

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/janhq/drivethru-server/internal/config"
	"github.com/janhq/drivethru-server/internal/domain/contextres"
	"github.com/janhq/drivethru-server/internal/domain/extraction"
	"github.com/janhq/drivethru-server/internal/domain/intent"
	"github.com/janhq/drivethru-server/internal/domain/llm"
	"github.com/janhq/drivethru-server/internal/domain/menu"
	"github.com/janhq/drivethru-server/internal/domain/modify"
	"github.com/janhq/drivethru-server/internal/domain/noise"
	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/domain/pipeline"
	"github.com/janhq/drivethru-server/internal/domain/question"
	"github.com/janhq/drivethru-server/internal/domain/removal"
	"github.com/janhq/drivethru-server/internal/domain/session"
	"github.com/janhq/drivethru-server/internal/domain/workflow"
)

// ProvideCatalog provides the menu catalog.
func ProvideCatalog(source menu.Source, cfg *config.Config) *menu.Catalog {
	return menu.NewCatalog(source, cfg.MenuMinScore)
}

// ProvideMenuResolver provides the menu and ingredient resolver.
func ProvideMenuResolver(catalog *menu.Catalog, cfg *config.Config, log zerolog.Logger) *menu.Resolver {
	return menu.NewResolver(catalog, cfg.MenuSeparation, log)
}

// ProvideOrderLimits provides the configured order limits.
func ProvideOrderLimits(cfg *config.Config) order.Limits {
	return order.Limits{
		MaxItemQuantity: cfg.MaxItemQuantity,
		MaxTotalItems:   cfg.MaxTotalItems,
		MaxUniqueItems:  cfg.MaxUniqueItems,
	}
}

// ProvideSessionService provides a session service.
func ProvideSessionService(
	sessionStore session.Store,
	orderStore order.Store,
	catalog *menu.Catalog,
	cfg *config.Config,
	log zerolog.Logger,
) session.Service {
	return session.NewService(sessionStore, orderStore, catalog, cfg.TaxRate, log)
}

// ProvideContextResolver provides the context resolver with independent
// bands and use threshold.
func ProvideContextResolver(capability llm.Capability, cfg *config.Config, log zerolog.Logger) *contextres.Resolver {
	bands := contextres.Bands{Success: cfg.ContextSuccessBand, Clarify: cfg.ContextClarifyBand}
	return contextres.NewResolver(capability, bands, cfg.ContextShouldUseThreshold, log)
}

// ProvideModifyParser provides the modify-item parser.
func ProvideModifyParser(capability llm.Capability, cfg *config.Config, log zerolog.Logger) *modify.Parser {
	return modify.NewParser(capability, cfg.MaxItemQuantity, log)
}

// ProvideAnswerer provides the question answerer.
func ProvideAnswerer(capability llm.Capability, catalog *menu.Catalog, log zerolog.Logger) *question.Answerer {
	return question.NewAnswerer(capability, catalog, log)
}

// ProvideExecutor provides the workflow executor.
func ProvideExecutor(
	orders order.Store,
	sessions session.Service,
	archiver order.Archiver,
	catalog *menu.Catalog,
	resolver *menu.Resolver,
	extractor *extraction.Extractor,
	modifyParser *modify.Parser,
	removalParser *removal.Parser,
	answerer *question.Answerer,
	limits order.Limits,
	log zerolog.Logger,
) *workflow.Executor {
	return workflow.NewExecutor(workflow.Dependencies{
		Orders:    orders,
		Sessions:  sessions,
		Archiver:  archiver,
		Catalog:   catalog,
		Resolver:  resolver,
		Extractor: extractor,
		Modify:    modifyParser,
		Removal:   removalParser,
		Answerer:  answerer,
	}, limits, log)
}

// ProvidePipeline provides the utterance pipeline.
func ProvidePipeline(
	sessions session.Service,
	orders order.Store,
	catalog *menu.Catalog,
	filter *noise.Filter,
	classifier *intent.Classifier,
	resolver *contextres.Resolver,
	executor *workflow.Executor,
	observer pipeline.Observer,
	redactor pipeline.Redactor,
	log zerolog.Logger,
) *pipeline.Pipeline {
	return pipeline.New(pipeline.Config{
		Sessions:   sessions,
		Orders:     orders,
		Vocabulary: catalog,
		Noise:      filter,
		Classifier: classifier,
		Context:    resolver,
		Executor:   executor,
		Observer:   observer,
		Redactor:   redactor,
	}, log)
}

// ServiceProvider provides all domain services.
var ServiceProvider = wire.NewSet(
	ProvideCatalog,
	ProvideMenuResolver,
	ProvideOrderLimits,
	ProvideSessionService,
	ProvideContextResolver,
	ProvideModifyParser,
	ProvideAnswerer,
	ProvideExecutor,
	ProvidePipeline,
	noise.NewFilter,
	intent.NewClassifier,
	extraction.NewExtractor,
	removal.NewParser,
)
