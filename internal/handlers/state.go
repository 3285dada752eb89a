package handlers

import (
	"net/http"

	"signage-player/internal/display"
)

// StateResponse is what the kiosk page polls: the board plus where the
// loop is.
type StateResponse struct {
	display.Snapshot
	State   string `json:"state"`
	Cursor  int    `json:"cursor"`
	Channel string `json:"channel,omitempty"`
}

// GetState returns a snapshot of the display surface.
func (h *Handlers) GetState(w http.ResponseWriter, _ *http.Request) {
	response := StateResponse{
		Snapshot: h.board.Snapshot(),
		State:    stateHalted,
		Cursor:   -1,
	}
	if response.Slides == nil {
		response.Slides = []display.StageSlide{}
	}

	if h.player != nil {
		status := h.player.Status()
		response.State = status.State
		response.Cursor = status.Cursor
		response.Channel = status.Channel
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, response)
}
