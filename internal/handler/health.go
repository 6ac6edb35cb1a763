package handler

import (
	"net/http"

	"github.com/veilchat/security-core/internal/telemetry"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	telemetryClient *telemetry.Client
}

// NewHealthHandler creates a new health handler. The telemetry client
// may be nil when the service runs without NATS; detectors are then
// inert and readiness reports degraded.
func NewHealthHandler(client *telemetry.Client) *HealthHandler {
	return &HealthHandler{
		telemetryClient: client,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.telemetryClient == nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "degraded",
			"reason": "telemetry plane disabled",
		})
		return
	}

	if !h.telemetryClient.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "NATS not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
