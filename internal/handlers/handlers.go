package handlers

import (
	"context"
	"html/template"
	"time"

	"signage-player/internal/database"
	"signage-player/internal/display"
	"signage-player/internal/player"
	"signage-player/internal/slide"
)

// StatusSource reports the state of the playback loop.
type StatusSource interface {
	Status() player.Status
}

// PlayJournal reads back the play journal.
type PlayJournal interface {
	RecentPlays(ctx context.Context, limit int) ([]database.Play, error)
	RecentFetches(ctx context.Context, limit int) ([]database.Fetch, error)
	Ping(ctx context.Context) error
}

// SlideRenderer composes the segments of a slide into one image.
type SlideRenderer interface {
	Render(ctx context.Context, s *slide.Slide) ([]byte, error)
}

// PressureGauge reports memory pressure.
type PressureGauge interface {
	IsPaused() bool
}

// Config wires the handlers to the running player. Only Board is required.
type Config struct {
	Board *display.Board
	// Player is nil when playback halted before it started.
	Player     StatusSource
	Journal    PlayJournal
	Compositor SlideRenderer
	Memory     PressureGauge
	// Channel names the channel on the kiosk page.
	Channel string
	// CompositeImages makes the kiosk page show composite slide images
	// instead of loading segments directly.
	CompositeImages bool
	// PollInterval is how often the kiosk page refreshes its state.
	PollInterval time.Duration
}

type Handlers struct {
	board      *display.Board
	player     StatusSource
	journal    PlayJournal
	compositor SlideRenderer
	memory     PressureGauge
	kiosk      *template.Template
	kioskData  kioskData
	startTime  time.Time
}

func New(config Config) *Handlers {
	poll := config.PollInterval
	if poll <= 0 {
		poll = 250 * time.Millisecond
	}

	return &Handlers{
		board:      config.Board,
		player:     config.Player,
		journal:    config.Journal,
		compositor: config.Compositor,
		memory:     config.Memory,
		kiosk:      kioskTemplate,
		kioskData: kioskData{
			Channel:         config.Channel,
			CompositeImages: config.CompositeImages && config.Compositor != nil,
			PollMillis:      poll.Milliseconds(),
		},
		startTime: time.Now(),
	}
}
