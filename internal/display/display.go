// Package display defines the surface a player draws on and the surfaces
// shipped with it: an in-memory board served to kiosk browsers, a console
// line for terminals, and a fan-out to drive several at once.
package display

import (
	"strconv"

	"signage-player/internal/slide"
)

// Surface is everything the playback loop can change on screen: the slide
// stage, the progress bar, the "last updated" line and the message overlay.
//
// Surfaces are driven from the playback goroutine only.
type Surface interface {
	ShowOverlay(text string)
	HideOverlay()
	SetTimestamp(text string)
	// SetProgress sets the bar to ratio in [0, 1].
	SetProgress(ratio float64)
	// Insert adds a slide to the stage in its inactive state.
	Insert(s *slide.Slide)
	Activate(id string)
	Deactivate(id string)
	Remove(id string)
}

// Width formats ratio as a CSS width with two decimals, clamped to 0-100%.
func Width(ratio float64) string {
	if ratio < 0 || ratio != ratio {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return strconv.FormatFloat(ratio*100, 'f', 2, 64) + "%"
}

// Multi fans every call out to each surface in order.
type Multi []Surface

func (m Multi) ShowOverlay(text string) {
	for _, s := range m {
		s.ShowOverlay(text)
	}
}

func (m Multi) HideOverlay() {
	for _, s := range m {
		s.HideOverlay()
	}
}

func (m Multi) SetTimestamp(text string) {
	for _, s := range m {
		s.SetTimestamp(text)
	}
}

func (m Multi) SetProgress(ratio float64) {
	for _, s := range m {
		s.SetProgress(ratio)
	}
}

func (m Multi) Insert(sl *slide.Slide) {
	for _, s := range m {
		s.Insert(sl)
	}
}

func (m Multi) Activate(id string) {
	for _, s := range m {
		s.Activate(id)
	}
}

func (m Multi) Deactivate(id string) {
	for _, s := range m {
		s.Deactivate(id)
	}
}

func (m Multi) Remove(id string) {
	for _, s := range m {
		s.Remove(id)
	}
}
