package api

import (
	"context"
	"log/slog"
	"net/http"

	"textworker/internal/api/shared"
)

// Pinger checks database connectivity. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// BackendChecker checks LLM backend availability.
type BackendChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler exposes liveness and readiness probes.
type HealthHandler struct {
	db      Pinger
	backend BackendChecker
	logger  *slog.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db Pinger, backend BackendChecker, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		db:      db,
		backend: backend,
		logger:  logger,
	}
}

// Live handles GET /healthz. It reports only that the process is serving.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /readyz. The worker is ready when both the database and
// the LLM backend are reachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"database": "ok",
		"llm":      "ok",
	}
	healthy := true

	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			h.logger.Warn("database readiness check failed", "error", err)
			checks["database"] = "unavailable"
			healthy = false
		}
	}

	if h.backend != nil {
		if err := h.backend.Health(r.Context()); err != nil {
			h.logger.Warn("llm readiness check failed", "error", err)
			checks["llm"] = "unavailable"
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	shared.RespondWithJSON(w, r, status, checks)
}
