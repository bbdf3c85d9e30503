package api

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/phrazzld/tasktrack-api/internal/api/shared"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/redact"
)

// ServiceName is reported by the root endpoint.
const ServiceName = "Task Management API"

// healthCheckTimeout bounds each dependency probe.
const healthCheckTimeout = 2 * time.Second

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// ServiceInfo is the root endpoint payload.
type ServiceInfo struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// SystemHandler serves the unauthenticated service info and health endpoints.
type SystemHandler struct {
	version string
	checks  map[string]HealthCheck
	logger  *slog.Logger
}

// NewSystemHandler creates a SystemHandler. checks maps a dependency name to its probe.
func NewSystemHandler(version string, checks map[string]HealthCheck, logger *slog.Logger) *SystemHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SystemHandler{
		version: version,
		checks:  checks,
		logger:  logger.With(slog.String("component", "system_handler")),
	}
}

// Root handles GET /.
func (h *SystemHandler) Root(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, ServiceInfo{
		Message: ServiceName + " is running",
		Version: h.version,
	})
}

// Health handles GET /health. It answers 503 when any dependency probe fails.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := HealthResponse{Status: "healthy"}
	status := http.StatusOK
	for _, name := range names {
		if resp.Checks == nil {
			resp.Checks = make(map[string]string, len(names))
		}

		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := h.checks[name](ctx)
		cancel()

		if err != nil {
			log.Warn("health check failed",
				slog.String("check", name),
				slog.String("error", redact.Error(err)))
			resp.Checks[name] = "unavailable"
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	if status != http.StatusOK {
		w.Header().Set("Retry-After", RetryAfterSeconds)
	}
	shared.RespondWithJSON(w, r, status, resp)
}
