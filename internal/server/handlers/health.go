package handlers

import (
	"context"
	"net/http"
	"time"

	"newsmarker/internal/core"
)

// Pinger reports whether the backing database is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse is the data of GET /health
type HealthResponse struct {
	Status   string                        `json:"status"`
	Service  string                        `json:"service"`
	Version  string                        `json:"version"`
	Database string                        `json:"database"`
	Features map[string]core.FeatureStatus `json:"features"`
}

// HealthHandler serves the health check endpoint
type HealthHandler struct {
	logger   *core.Logger
	registry *core.Registry
	db       Pinger
	version  string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(logger *core.Logger, registry *core.Registry, db Pinger, version string) *HealthHandler {
	return &HealthHandler{
		logger:   logger,
		registry: registry,
		db:       db,
		version:  version,
	}
}

// HealthCheckHandler reports service, database and feature status.
// An unreachable database answers 503 with the status in data.
func (h *HealthHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Service:  "newsmarker",
		Version:  h.version,
		Database: "ok",
		Features: h.registry.GetFeatureStatus(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.WithContext(r.Context()).Error("Health check database ping failed", "error", err)
		resp.Status = "degraded"
		resp.Database = "unreachable"
		code := core.ErrCodeInternal
		core.WriteJSON(w, http.StatusServiceUnavailable, core.Response{
			Success: false,
			Data:    resp,
			Error:   &code,
			Message: "Database unreachable",
		})
		return
	}

	core.WriteSuccess(w, http.StatusOK, resp, "")
}
