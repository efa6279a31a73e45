package feeds

import (
	"context"
	"fmt"
	"net/http"

	"newsmarker/internal/ai"
	"newsmarker/internal/core"
	"newsmarker/internal/docstore"
	"newsmarker/internal/features/feeds/handlers"
	"newsmarker/internal/features/feeds/services"
)

// Feature represents the feed ingestion and read feature
type Feature struct {
	*core.BaseFeature
	config           *Config
	cacheService     *services.FeedCacheService
	fetcherService   *services.FetcherService
	categorizer      *services.Categorizer
	pipeline         *services.Pipeline
	schedulerService *services.SchedulerService
	handlers         *handlers.Handlers
	stopScheduler    context.CancelFunc
	runScheduler     bool
}

// NewFeature creates a new feeds feature. generator may be nil.
func NewFeature(logger *core.Logger, store *docstore.Store, generator ai.Generator, config *Config) *Feature {
	featureLogger := logger.ForFeature("feeds")

	cacheService := services.NewFeedCacheService(store, featureLogger)
	fetcherService := services.NewFetcherService(featureLogger, &config.Fetcher)
	categorizer := services.NewCategorizer(generator, featureLogger, &config.Categorizer)
	pipeline := services.NewPipeline(fetcherService, categorizer, cacheService, config.Sources, featureLogger)
	schedulerService := services.NewSchedulerService(pipeline, featureLogger, &config.Scheduler)

	return &Feature{
		BaseFeature:      core.NewBaseFeature("feeds", "RSS aggregation and cached article feed", config.Enabled, logger, config),
		config:           config,
		cacheService:     cacheService,
		fetcherService:   fetcherService,
		categorizer:      categorizer,
		pipeline:         pipeline,
		schedulerService: schedulerService,
		handlers:         handlers.NewHandlers(featureLogger, cacheService, pipeline, config.FetchSecret),
		runScheduler:     true,
	}
}

// DisableScheduler keeps Init from starting the background loop, for
// one-shot commands that drive the pipeline themselves.
func (f *Feature) DisableScheduler() {
	f.runScheduler = false
}

// Init validates configuration and starts the scheduler
func (f *Feature) Init(ctx context.Context) error {
	if err := f.BaseFeature.Init(ctx); err != nil {
		return err
	}

	if err := f.config.Validate(); err != nil {
		return err
	}

	if !f.categorizer.Enabled() {
		f.Logger().Info("No AI generator configured, articles will be cached untagged")
	}

	if f.config.Enabled && f.runScheduler {
		schedulerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f.stopScheduler = cancel
		if err := f.schedulerService.Start(schedulerCtx); err != nil {
			cancel()
			return fmt.Errorf("failed to start feed scheduler: %w", err)
		}
	}

	f.Logger().Info("Feeds feature initialized", "sources", len(f.config.Sources))
	return nil
}

// Routes returns the HTTP routes for the feeds feature
func (f *Feature) Routes() []core.Route {
	return []core.Route{
		{Method: http.MethodGet, Path: "/feed", Handler: f.handlers.GetFeed},
		{Method: http.MethodPost, Path: "/feed/fetch", Handler: f.handlers.TriggerFetch, RateLimited: true},
	}
}

// Shutdown stops the scheduler, waiting for a running cycle
func (f *Feature) Shutdown(ctx context.Context) error {
	if f.stopScheduler != nil {
		if err := f.schedulerService.Stop(ctx); err != nil {
			f.Logger().Error("Failed to stop feed scheduler", "error", err)
		}
		f.stopScheduler()
	}

	return f.BaseFeature.Shutdown(ctx)
}

// Pipeline returns the fetch pipeline
func (f *Feature) Pipeline() *services.Pipeline {
	return f.pipeline
}
