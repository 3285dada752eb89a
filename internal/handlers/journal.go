package handlers

import (
	"net/http"
	"strconv"

	"signage-player/internal/logging"
)

func (h *Handlers) limit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return limit
}

// GetPlays returns the most recent plays, newest first.
func (h *Handlers) GetPlays(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeJSONError(w, "play journal disabled", http.StatusServiceUnavailable)
		return
	}

	plays, err := h.journal.RecentPlays(r.Context(), h.limit(r))
	if err != nil {
		logging.Error("GetPlays failed: %v", err)
		writeJSONError(w, "failed to read play journal", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, plays)
}

// GetFetches returns the most recent playlist fetches, newest first.
func (h *Handlers) GetFetches(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeJSONError(w, "play journal disabled", http.StatusServiceUnavailable)
		return
	}

	fetches, err := h.journal.RecentFetches(r.Context(), h.limit(r))
	if err != nil {
		logging.Error("GetFetches failed: %v", err)
		writeJSONError(w, "failed to read play journal", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, fetches)
}
