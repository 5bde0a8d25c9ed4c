package handlers

import (
	"net/http"
	"runtime"
	"time"

	"playlist-widget/internal/database"
	"playlist-widget/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status        string `json:"status"`
	Ready         bool   `json:"ready"`
	Version       string `json:"version"`
	Uptime        string `json:"uptime"`
	SchemaVersion string `json:"schemaVersion,omitempty"`
	DatabaseError string `json:"databaseError,omitempty"`

	// Layouts
	LayoutsPending  int `json:"layoutsPending"`
	LayoutsReady    int `json:"layoutsReady"`
	LayoutsDegraded int `json:"layoutsDegraded"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service. Degraded layouts
// or an unreachable feed cache report "degraded" without failing the check.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ready := h.ready.Load()
	stats := h.manager.GetStats()

	response := HealthResponse{
		Ready:           ready,
		Version:         startup.Version,
		Uptime:          time.Since(h.startTime).Round(time.Second).String(),
		LayoutsPending:  stats.Pending,
		LayoutsReady:    stats.Ready,
		LayoutsDegraded: stats.Degraded,
		GoVersion:       runtime.Version(),
		NumCPU:          runtime.NumCPU(),
		NumGoroutine:    runtime.NumGoroutine(),
	}

	switch {
	case !ready:
		response.Status = statusStarting
	case stats.Degraded > 0:
		response.Status = statusDegraded
	default:
		response.Status = statusHealthy
	}

	schemaVersion, err := h.db.GetMetadata(r.Context(), database.SchemaVersionKey)
	if err != nil {
		response.DatabaseError = err.Error()
		if ready {
			response.Status = statusDegraded
		}
	}
	response.SchemaVersion = schemaVersion

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSONStatusCode(w, status, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the service is ready to accept traffic
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.ready.Load() {
		writeJSONStatusCode(w, http.StatusOK, map[string]string{
			"status": "ready",
		})
	} else {
		writeJSONStatusCode(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
		})
	}
}
