package display

import (
	"sync"

	"signage-player/internal/slide"
)

// Overlay is the message layer shown above the stage.
type Overlay struct {
	Visible bool   `json:"visible"`
	Text    string `json:"text"`
}

// StageSlide is a slide on the stage with its transition state.
type StageSlide struct {
	*slide.Slide
	Active bool `json:"active"`
}

// Snapshot is a consistent copy of a Board.
type Snapshot struct {
	Seq       uint64       `json:"seq"`
	Overlay   Overlay      `json:"overlay"`
	Timestamp string       `json:"timestamp"`
	Progress  string       `json:"progress"`
	Ratio     float64      `json:"ratio"`
	Slides    []StageSlide `json:"slides"`
}

// Board keeps the display state in memory so HTTP handlers can serve it to
// kiosk browsers. Writes come from the player, reads from handlers.
type Board struct {
	mu        sync.RWMutex
	seq       uint64
	overlay   Overlay
	timestamp string
	ratio     float64
	slides    []StageSlide
}

// NewBoard returns an empty board with the overlay hidden.
func NewBoard() *Board {
	return &Board{}
}

func (b *Board) ShowOverlay(text string) {
	b.update(func() {
		b.overlay = Overlay{Visible: true, Text: text}
	})
}

func (b *Board) HideOverlay() {
	b.update(func() {
		b.overlay.Visible = false
	})
}

func (b *Board) SetTimestamp(text string) {
	b.update(func() {
		b.timestamp = text
	})
}

func (b *Board) SetProgress(ratio float64) {
	b.update(func() {
		b.ratio = ratio
	})
}

func (b *Board) Insert(s *slide.Slide) {
	b.update(func() {
		b.slides = append(b.slides, StageSlide{Slide: s})
	})
}

func (b *Board) Activate(id string) {
	b.setActive(id, true)
}

func (b *Board) Deactivate(id string) {
	b.setActive(id, false)
}

func (b *Board) Remove(id string) {
	b.update(func() {
		kept := b.slides[:0]
		for _, s := range b.slides {
			if s.ID != id {
				kept = append(kept, s)
			}
		}
		b.slides = kept
	})
}

func (b *Board) setActive(id string, active bool) {
	b.update(func() {
		for i := range b.slides {
			if b.slides[i].ID == id {
				b.slides[i].Active = active
			}
		}
	})
}

func (b *Board) update(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn()
	b.seq++
}

// Snapshot returns a copy of the current state.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	slides := make([]StageSlide, len(b.slides))
	copy(slides, b.slides)

	return Snapshot{
		Seq:       b.seq,
		Overlay:   b.overlay,
		Timestamp: b.timestamp,
		Progress:  Width(b.ratio),
		Ratio:     b.ratio,
		Slides:    slides,
	}
}

// Slide returns the staged slide with id, if any.
func (b *Board) Slide(id string) (*slide.Slide, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.slides {
		if s.ID == id {
			return s.Slide, true
		}
	}
	return nil, false
}
