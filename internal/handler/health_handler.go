package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const healthTimeout = 2 * time.Second

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// HealthHandler reports service health.
type HealthHandler struct {
	checks map[string]HealthCheck
	logger zerolog.Logger
}

// NewHealthHandler creates a health handler probing checks.
func NewHealthHandler(checks map[string]HealthCheck, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		logger: logger.With().Str("handler", "health").Logger(),
	}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health handles GET /health. Any failing check turns the response into a 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{Status: "healthy"}
	status := http.StatusOK

	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn().Err(err).Str("check", name).Msg("health check failed")
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	writeJSON(w, status, resp, h.logger)
}
