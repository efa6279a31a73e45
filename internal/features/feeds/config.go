package feeds

import (
	"fmt"
	"time"

	"newsmarker/internal/core"
	"newsmarker/internal/features/feeds/models"
)

// Config represents feeds feature configuration
type Config struct {
	Enabled     bool
	FetchSecret string
	SourcesFile string
	Sources     []models.FeedSource
	Fetcher     models.FetcherConfig
	Categorizer models.CategorizerConfig
	Scheduler   models.SchedulerConfig
}

// NewConfig creates feeds config from core config and resolves the
// source list.
func NewConfig(coreConfig *core.Config) (*Config, error) {
	feeds := coreConfig.Features.Feeds
	aiConfig := coreConfig.Features.AI

	sources, err := LoadSources(feeds.SourcesFile)
	if err != nil {
		return nil, err
	}

	return &Config{
		Enabled:     feeds.Enabled,
		FetchSecret: feeds.FetchSecret,
		SourcesFile: feeds.SourcesFile,
		Sources:     sources,
		Fetcher: models.FetcherConfig{
			UserAgent:            feeds.UserAgent,
			Timeout:              feeds.FetchTimeout,
			MaxEntriesPerFeed:    feeds.MaxEntriesPerFeed,
			MaxConcurrentFetches: feeds.MaxConcurrentFetches,
		},
		Categorizer: models.CategorizerConfig{
			Strategy:   aiConfig.Strategy,
			BatchSize:  aiConfig.BatchSize,
			BatchDelay: aiConfig.BatchDelay,
			Timeout:    aiConfig.Timeout,
		},
		Scheduler: models.SchedulerConfig{
			UpdateInterval: feeds.FetchInterval,
			FetchOnStart:   feeds.FetchOnStart,
		},
	}, nil
}

// Validate validates the feeds configuration
func (c *Config) Validate() error {
	if c.Scheduler.UpdateInterval < time.Minute || c.Scheduler.UpdateInterval > 24*time.Hour {
		return fmt.Errorf("fetch interval must be between 1m and 24h")
	}

	if c.Fetcher.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}

	if c.Fetcher.MaxEntriesPerFeed < 1 || c.Fetcher.MaxEntriesPerFeed > 100 {
		return fmt.Errorf("max entries per feed must be between 1 and 100")
	}

	if c.Fetcher.MaxConcurrentFetches < 0 || c.Fetcher.MaxConcurrentFetches > 64 {
		return fmt.Errorf("max concurrent fetches must be between 0 (unbounded) and 64")
	}

	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one feed source is required")
	}

	return nil
}
