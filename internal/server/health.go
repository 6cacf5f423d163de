package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	healthStatusOK       = "ok"
	healthStatusNotReady = "not ready"
)

// HealthChecker provides health check endpoints for Kubernetes probes.
type HealthChecker struct {
	ready     atomic.Bool
	startTime time.Time
}

// NewHealthChecker creates a HealthChecker that reports ready.
func NewHealthChecker() *HealthChecker {
	h := &HealthChecker{startTime: time.Now()}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the server is ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// HealthResponse is the JSON body for health endpoints.
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime,omitempty"`
}

// RegisterEndpoints registers the probe handlers on mux.
func (h *HealthChecker) RegisterEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
}

// LivenessHandler serves /healthz. Liveness only checks that the process
// is serving requests.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler serves /readyz. The server reports not ready once
// shutdown has begun so load balancers stop routing new connections.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		response := HealthResponse{
			Status: healthStatusOK,
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
		}
		if !h.ready.Load() {
			response.Status = healthStatusNotReady
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(response)
	})
}
