package healthprobe

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
)

// HealthChecker provides liveness and readiness probes for the bot process.
// Readiness flips on once the trading loop has started and off again during
// shutdown.
type HealthChecker struct {
	startedAt time.Time
	ready     atomic.Bool
}

// New creates a new HealthChecker.
func New() *HealthChecker {
	return &HealthChecker{
		startedAt: time.Now(),
	}
}

// SetReady marks the bot as ready (or not) to serve traffic.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// ProbeResponse is the body returned by both probes.
type ProbeResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Message string `json:"message,omitempty"`
}

// Health returns the liveness handler. It always reports healthy while the
// process is running.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ProbeResponse{
			Status: "healthy",
			Uptime: time.Since(h.startedAt).String(),
		})
	}
}

// Ready returns the readiness handler. It reports 503 until the trading
// loop is up.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.ready.Load() {
			writeJSON(w, http.StatusServiceUnavailable, ProbeResponse{
				Status:  "not_ready",
				Message: "bot is starting",
			})
			return
		}

		writeJSON(w, http.StatusOK, ProbeResponse{
			Status: "ready",
			Uptime: time.Since(h.startedAt).String(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body ProbeResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
