package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/agoraai/backend/internal/api/response"
	"github.com/agoraai/backend/internal/cache"
	"github.com/agoraai/backend/internal/database"
)

const probeTimeout = 5 * time.Second

// HealthChecker reports liveness and readiness of the API's backing stores.
type HealthChecker struct {
	db    *database.DB
	cache *cache.Redis
}

func NewHealthChecker(db *database.DB, cache *cache.Redis) *HealthChecker {
	return &HealthChecker{db: db, cache: cache}
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

func (h *HealthChecker) probes() map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		"database": h.db.Ping,
		"redis":    h.cache.Health,
	}
}

// Health handles GET /health. Any failing dependency degrades the
// overall status and flips the response to 503.
func (h *HealthChecker) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	services := make(map[string]string)
	status := "healthy"
	for name, probe := range h.probes() {
		if err := probe(ctx); err != nil {
			services[name] = "unhealthy"
			status = "degraded"
		} else {
			services[name] = "healthy"
		}
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	response.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
	})
}

// LivenessProbe handles GET /health/live.
func LivenessProbe(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ReadinessProbe handles GET /health/ready. Unlike Health it names the
// first dependency that is not ready.
func (h *HealthChecker) ReadinessProbe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		response.Error(w, http.StatusServiceUnavailable, "Database not ready")
		return
	}
	if err := h.cache.Health(ctx); err != nil {
		response.Error(w, http.StatusServiceUnavailable, "Redis not ready")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
