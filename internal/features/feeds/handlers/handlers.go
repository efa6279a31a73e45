package handlers

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"

	"newsmarker/internal/core"
	"newsmarker/internal/features/feeds/models"
)

// cacheControl lets shared caches serve feed reads briefly
const cacheControl = "public, s-maxage=60, stale-while-revalidate=300"

// FeedReader serves cached articles
type FeedReader interface {
	GetCategory(ctx context.Context, category models.Category) (*models.FeedResponse, bool, error)
	GetAll(ctx context.Context) (*models.FeedResponse, error)
}

// CycleRunner runs one fetch cycle
type CycleRunner interface {
	Run(ctx context.Context) (*models.CycleResult, error)
}

// Handlers contains HTTP handlers for the feeds feature
type Handlers struct {
	logger      *core.Logger
	reader      FeedReader
	runner      CycleRunner
	fetchSecret string
}

// NewHandlers creates new feed handlers. An empty fetchSecret leaves
// the fetch endpoint open.
func NewHandlers(logger *core.Logger, reader FeedReader, runner CycleRunner, fetchSecret string) *Handlers {
	return &Handlers{
		logger:      logger,
		reader:      reader,
		runner:      runner,
		fetchSecret: fetchSecret,
	}
}

// GetFeed handles GET /feed?category=
func (h *Handlers) GetFeed(w http.ResponseWriter, r *http.Request) {
	category := models.Category(r.URL.Query().Get("category"))
	if category == "" {
		category = models.CategoryAll
	}
	if category != models.CategoryAll && !category.Valid() {
		core.HandleError(w, core.NewInvalidInputError("category must be one of: tech world business science all", nil))
		return
	}

	var (
		feed  *models.FeedResponse
		found = true
		err   error
	)
	if category == models.CategoryAll {
		feed, err = h.reader.GetAll(r.Context())
	} else {
		feed, found, err = h.reader.GetCategory(r.Context(), category)
	}
	if err != nil {
		h.logger.WithContext(r.Context()).Error("Failed to read feed cache", "category", category, "error", err)
		core.HandleError(w, core.NewFetchFailedError("Failed to load articles", err))
		return
	}

	if !found {
		core.WriteSuccess(w, http.StatusOK, feed, "No articles found")
		return
	}

	w.Header().Set("Cache-Control", cacheControl)
	core.WriteSuccess(w, http.StatusOK, feed, "Fetched articles successfully")
}

// TriggerFetch handles POST /feed/fetch
func (h *Handlers) TriggerFetch(w http.ResponseWriter, r *http.Request) {
	if h.fetchSecret != "" {
		want := "Bearer " + h.fetchSecret
		got := r.Header.Get("Authorization")
		if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			core.HandleError(w, core.NewUnauthorizedError("Invalid cron secret", nil))
			return
		}
	}

	result, err := h.runner.Run(r.Context())
	if err != nil {
		h.logger.WithContext(r.Context()).Error("Manual fetch cycle failed", "error", err)
		core.HandleError(w, core.NewFetchFailedError("Failed to refresh feeds", err))
		return
	}

	core.WriteSuccess(w, http.StatusOK, result, fmt.Sprintf("Cached %d articles successfully", result.TotalArticles))
}
