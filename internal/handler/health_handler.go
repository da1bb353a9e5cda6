package handler

import (
	"net/http"
	"time"

	"club-api/internal/container"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	container *container.Container
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(container *container.Container) *HealthHandler {
	return &HealthHandler{
		container: container,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks"`
}

// Check handles GET /health. Any unhealthy dependency turns the response into a 503.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	checks := h.container.Health(r.Context())

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   "1.0.0",
		Service:   "club-api",
		Checks:    checks,
	}

	status := http.StatusOK
	for _, state := range checks {
		if state == "unhealthy" {
			response.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	if status != http.StatusOK {
		h.container.GetLogger().WithField("checks", checks).Warn("Health check degraded")
	}

	respondJSON(w, status, response)
}
