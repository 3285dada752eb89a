package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"signage-player/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
	stateHalted    = "halted"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Playback
	Channel     string `json:"channel,omitempty"`
	State       string `json:"state"`
	Items       int    `json:"items"`
	LastFetch   string `json:"lastFetch,omitempty"`
	LastError   string `json:"lastError,omitempty"`
	Fetches     int64  `json:"fetches"`
	Failures    int64  `json:"failures"`
	SlidesShown int64  `json:"slidesShown"`
	Journal     string `json:"journal"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the player
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		State:        stateHalted,
		Journal:      h.journalStatus(r.Context()),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if h.player == nil {
		response.Status = stateHalted
	} else {
		status := h.player.Status()
		response.Ready = status.Loaded
		response.Channel = status.Channel
		response.State = status.State
		response.Items = status.Items
		response.LastError = status.LastError
		response.Fetches = status.Fetches
		response.Failures = status.Failures
		response.SlidesShown = status.SlidesShown
		if !status.LastFetch.IsZero() {
			response.LastFetch = status.LastFetch.Format(time.RFC3339)
		}

		switch {
		case !status.Loaded:
			response.Status = statusStarting
		case status.LastError != "" || response.Journal == "error":
			response.Status = statusDegraded
		default:
			response.Status = statusHealthy
		}
	}

	w.Header().Set("Content-Type", "application/json")

	if !response.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, response)
}

func (h *Handlers) journalStatus(ctx context.Context) string {
	if h.journal == nil {
		return "disabled"
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.journal.Ping(ctx); err != nil {
		return "error"
	}
	return "ok"
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 once a playlist has been loaded. A halted
// player never becomes ready.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.player != nil && h.player.Status().Loaded {
		w.WriteHeader(http.StatusOK)
		writeJSON(w, map[string]string{
			"status": "ready",
		})
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{
			"status": "not_ready",
		})
	}
}
