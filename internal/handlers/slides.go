package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"signage-player/internal/logging"
	"signage-player/internal/media"

	"github.com/gorilla/mux"
)

// GetSlideImage serves the segments of a staged slide stacked into one JPEG.
// Only slides currently on the board can be rendered.
func (h *Handlers) GetSlideImage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if h.compositor == nil {
		http.Error(w, "Slide images are disabled", http.StatusNotFound)
		return
	}

	s, ok := h.board.Slide(id)
	if !ok {
		http.Error(w, "Slide not found", http.StatusNotFound)
		return
	}

	if h.memory != nil && h.memory.IsPaused() {
		logging.Debug("Slide image %s refused: memory pressure", id)
		w.Header().Set("Retry-After", "5")
		http.Error(w, "Server under memory pressure", http.StatusServiceUnavailable)
		return
	}

	data, err := h.compositor.Render(r.Context(), s)
	if err != nil {
		if errors.Is(err, media.ErrNoSegments) {
			http.Error(w, "Slide has no images", http.StatusNotFound)
			return
		}
		logging.Error("Slide image %s failed: %v", id, err)
		http.Error(w, "Failed to render slide", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(data); err != nil {
		logging.Debug("failed to write slide image %s: %v", id, err)
	}
}
