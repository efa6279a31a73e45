package bookmarks

import (
	"net/http"

	"newsmarker/internal/core"
	"newsmarker/internal/docstore"
)

// Feature exposes per-user bookmarks
type Feature struct {
	*core.BaseFeature
	service *Service
	handler *Handler
}

// NewFeature creates the bookmarks feature
func NewFeature(logger *core.Logger, store *docstore.Store, enabled bool) *Feature {
	featureLogger := logger.ForFeature("bookmarks")
	service := NewService(store, featureLogger)

	return &Feature{
		BaseFeature: core.NewBaseFeature("bookmarks", "Per-user saved articles", enabled, logger, nil),
		service:     service,
		handler:     NewHandler(service, featureLogger),
	}
}

// Routes returns the HTTP routes for the bookmarks feature
func (f *Feature) Routes() []core.Route {
	return []core.Route{
		{Method: http.MethodGet, Path: "/bookmarks", Handler: f.handler.ListBookmarks, Authenticated: true},
		{Method: http.MethodPost, Path: "/bookmarks", Handler: f.handler.AddBookmark, Authenticated: true, RateLimited: true},
		{Method: http.MethodDelete, Path: "/bookmarks", Handler: f.handler.RemoveBookmark, Authenticated: true, RateLimited: true},
	}
}

// Service returns the bookmark service
func (f *Feature) Service() *Service {
	return f.service
}
