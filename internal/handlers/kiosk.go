package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"signage-player/internal/logging"
)

//go:embed templates/kiosk.html
var templateFS embed.FS

var kioskTemplate = template.Must(template.ParseFS(templateFS, "templates/kiosk.html"))

type kioskData struct {
	Channel         string
	CompositeImages bool
	PollMillis      int64
}

// Kiosk serves the full-screen page a kiosk browser points at.
func (h *Handlers) Kiosk(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := h.kiosk.Execute(&buf, h.kioskData); err != nil {
		logging.Error("failed to render kiosk page: %v", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(buf.Bytes()); err != nil {
		logging.Debug("failed to write kiosk page: %v", err)
	}
}
