package auth

import (
	"net/http"

	"newsmarker/internal/core"
)

// Feature exposes account registration, login and the caller's profile
type Feature struct {
	*core.BaseFeature
	handler    *Handler
	middleware *Middleware
}

// NewFeature creates the auth feature around an existing service
func NewFeature(logger *core.Logger, service *Service, middleware *Middleware) *Feature {
	featureLogger := logger.ForFeature("auth")
	return &Feature{
		BaseFeature: core.NewBaseFeature("auth", "Accounts and bearer tokens", true, logger, nil),
		handler:     NewHandler(service, featureLogger),
		middleware:  middleware,
	}
}

// Routes returns the HTTP routes for the auth feature
func (f *Feature) Routes() []core.Route {
	return []core.Route{
		{Method: http.MethodPost, Path: "/auth/register", Handler: f.handler.RegisterHandler, RateLimited: true},
		{Method: http.MethodPost, Path: "/auth/login", Handler: f.handler.LoginHandler, RateLimited: true},
		{Method: http.MethodGet, Path: "/auth/me", Handler: f.handler.MeHandler, Authenticated: true},
	}
}
