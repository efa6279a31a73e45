package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"newsmarker/internal/core"
	"newsmarker/internal/features/feeds/models"
)

// Pipeline runs fetch cycles: fetch, normalize, dedupe, categorize and
// write the cache. Cycles never overlap.
type Pipeline struct {
	fetcher     *FetcherService
	categorizer *Categorizer
	cache       *FeedCacheService
	sources     []models.FeedSource
	logger      *core.Logger
	now         func() time.Time
	mu          sync.Mutex
}

// NewPipeline creates a pipeline over a fixed source list
func NewPipeline(
	fetcher *FetcherService,
	categorizer *Categorizer,
	cache *FeedCacheService,
	sources []models.FeedSource,
	logger *core.Logger,
) *Pipeline {
	return &Pipeline{
		fetcher:     fetcher,
		categorizer: categorizer,
		cache:       cache,
		sources:     sources,
		logger:      logger,
		now:         time.Now,
	}
}

// SetClock overrides the clock used to stamp the cache
func (p *Pipeline) SetClock(now func() time.Time) {
	p.now = now
}

// Sources returns the configured feed sources
func (p *Pipeline) Sources() []models.FeedSource {
	return p.sources
}

// Run executes one fetch cycle. Only a failed cache write is an error;
// source and AI failures just shrink or untag the result.
func (p *Pipeline) Run(ctx context.Context) (*models.CycleResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cycleID := uuid.NewString()
	logger := p.logger.With("cycle_id", cycleID)
	started := time.Now()
	logger.Info("Starting fetch cycle", "sources", len(p.sources))

	byCategory := make(map[models.Category][]models.Article, len(models.Categories))
	for _, category := range models.Categories {
		byCategory[category] = []models.Article{}
	}

	for _, articles := range p.fetcher.FetchAll(ctx, p.sources) {
		for _, article := range articles {
			if _, ok := byCategory[article.Category]; ok {
				byCategory[article.Category] = append(byCategory[article.Category], article)
			}
		}
	}

	result := &models.CycleResult{
		CycleID:    cycleID,
		Categories: models.Categories,
		Counts:     make(map[string]int, len(models.Categories)),
	}

	for _, category := range models.Categories {
		articles := Dedupe(byCategory[category])
		if len(articles) > 0 {
			articles = p.categorizer.Categorize(ctx, articles)
		}
		byCategory[category] = articles
		result.Counts[string(category)] = len(articles)
		result.TotalArticles += len(articles)
	}

	if err := p.cache.WriteCycle(ctx, byCategory, p.now()); err != nil {
		logger.Error("Fetch cycle failed", "error", err)
		return nil, err
	}

	logger.Info("Fetch cycle completed",
		"articles", result.TotalArticles,
		"counts", result.Counts,
		"duration", time.Since(started))
	return result, nil
}
