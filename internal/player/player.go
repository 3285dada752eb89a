package player

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"signage-player/internal/channel"
	"signage-player/internal/clock"
	"signage-player/internal/display"
	"signage-player/internal/logging"
	"signage-player/internal/playlist"
	"signage-player/internal/slide"
)

// State is the phase of the playback loop.
type State int32

const (
	StateInit State = iota
	StateLoading
	StateDisplaying
	StateTransitioning
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateLoading:
		return "loading"
	case StateDisplaying:
		return "displaying"
	case StateTransitioning:
		return "transitioning"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// States lists every state, in loop order.
var States = []State{StateInit, StateLoading, StateDisplaying, StateTransitioning}

const (
	// RetryMessagePrefix starts the overlay text shown while fetches fail.
	RetryMessagePrefix = "Impossible de charger la playlist. Nouvelle tentative dans "
	// TimestampPrefix starts the "last updated" line.
	TimestampPrefix = "Dernière mise à jour : "
	// TimestampLayout renders the "last updated" time day first.
	TimestampLayout = "02/01/2006 15:04:05"
)

// Fetcher loads a playlist document from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*playlist.Playlist, error)
}

// Config tunes the loop. Zero fields take the defaults of DefaultConfig.
type Config struct {
	RetryDelay      time.Duration
	EmptyItemDelay  time.Duration
	TransitionDelay time.Duration
	FrameInterval   time.Duration
	Location        *time.Location
	Clock           clock.Clock
	Observer        Observer
	RunID           string
}

// DefaultConfig returns the stock timings: 15s between failed fetches, 2s
// when there is nothing to show, 600ms exit transition, 60 frames a second.
func DefaultConfig() Config {
	return Config{
		RetryDelay:      15 * time.Second,
		EmptyItemDelay:  2 * time.Second,
		TransitionDelay: 600 * time.Millisecond,
		FrameInterval:   16 * time.Millisecond,
		Location:        time.Local,
		Clock:           clock.Real{},
		Observer:        Observers{},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.RetryDelay <= 0 {
		c.RetryDelay = d.RetryDelay
	}
	if c.EmptyItemDelay <= 0 {
		c.EmptyItemDelay = d.EmptyItemDelay
	}
	if c.TransitionDelay <= 0 {
		c.TransitionDelay = d.TransitionDelay
	}
	if c.FrameInterval <= 0 {
		c.FrameInterval = d.FrameInterval
	}
	if c.Location == nil {
		c.Location = d.Location
	}
	if c.Clock == nil {
		c.Clock = d.Clock
	}
	if c.Observer == nil {
		c.Observer = d.Observer
	}
	return c
}

// Status is a point-in-time view of the player for health endpoints.
type Status struct {
	RunID       string    `json:"runId"`
	Channel     string    `json:"channel"`
	State       string    `json:"state"`
	Cursor      int       `json:"cursor"`
	Items       int       `json:"items"`
	Version     string    `json:"version"`
	Loaded      bool      `json:"loaded"`
	LastFetch   time.Time `json:"lastFetch,omitempty"`
	LastError   string    `json:"lastError,omitempty"`
	Fetches     int64     `json:"fetches"`
	Failures    int64     `json:"failures"`
	SlidesShown int64     `json:"slidesShown"`
}

// Player owns the playlist and cursor of one channel and drives a surface.
// Run must only be called once; the step methods (Load, Advance, Show,
// Retire) exist so each transition can be exercised on its own.
type Player struct {
	ch      *channel.Channel
	fetcher Fetcher
	surface display.Surface
	cfg     Config
	clk     clock.Clock
	obs     Observer

	playlist *playlist.Playlist
	cursor   int

	statusMu sync.RWMutex
	status   Status
}

// New returns a player for ch that loads playlists with fetcher and draws
// on surface.
func New(ch *channel.Channel, fetcher Fetcher, surface display.Surface, cfg Config) *Player {
	cfg = cfg.withDefaults()
	return &Player{
		ch:      ch,
		fetcher: fetcher,
		surface: surface,
		cfg:     cfg,
		clk:     cfg.Clock,
		obs:     cfg.Observer,
		cursor:  -1,
		status: Status{
			RunID:   cfg.RunID,
			Channel: ch.Name,
			State:   StateInit.String(),
			Cursor:  -1,
		},
	}
}

// Halt reports an unrecoverable configuration error on surface. Nothing
// else happens afterwards: no fetch, no retry.
func Halt(surface display.Surface, err error) {
	logging.Error("Player halted: %v", err)
	if errors.Is(err, channel.ErrMissing) {
		surface.ShowOverlay(channel.MissingMessage)
		return
	}
	surface.ShowOverlay(err.Error())
}

// Run plays the channel until ctx ends. It only returns ctx's error.
func (p *Player) Run(ctx context.Context) error {
	logging.Info("Starting playback of channel %q (run %s)", p.ch.Name, p.cfg.RunID)
	p.setState(StateInit)

	for {
		p.setState(StateLoading)
		item, err := p.Advance(ctx)
		if err != nil {
			return err
		}

		if item == nil {
			logging.Debug("No item at cursor %d, waiting %v", p.cursor, p.cfg.EmptyItemDelay)
			p.obs.ItemMissing(p.cursor)
			if err := clock.Sleep(ctx, p.clk, p.cfg.EmptyItemDelay); err != nil {
				return err
			}
			continue
		}

		s := slide.Render(p.cursor, item, p.playlist.Version.String(), p.ch)
		if err := p.Show(ctx, s); err != nil {
			return err
		}
		if err := p.Retire(ctx, s); err != nil {
			return err
		}
	}
}

// Load fetches the channel playlist, retrying with a fixed delay until it
// succeeds or ctx ends. On success the overlay is hidden and the "last
// updated" line refreshed. The cursor is left to the caller.
func (p *Player) Load(ctx context.Context) error {
	for attempt := 0; ; attempt++ {
		now := p.clk.Now()
		url := p.ch.PlaylistURL(now)

		pl, err := p.fetcher.Fetch(ctx, url)
		took := p.clk.Now().Sub(now)
		if err == nil {
			p.playlist = pl
			p.surface.HideOverlay()
			p.surface.SetTimestamp(p.timestampText(pl.UpdatedAt(now)))
			p.obs.FetchSucceeded(url, pl.Len(), took)
			p.recordFetch(now, nil)

			if attempt > 0 {
				logging.Info("Playlist loaded after %d retries (%d items)", attempt, pl.Len())
			} else {
				logging.Debug("Playlist loaded (%d items, version %q)", pl.Len(), pl.Version.String())
			}
			return nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		logging.Warn("Playlist fetch failed, retrying in %v: %v", p.cfg.RetryDelay, err)
		p.surface.ShowOverlay(p.RetryMessage())
		p.obs.FetchFailed(url, err, took)
		p.recordFetch(now, err)

		if err := clock.Sleep(ctx, p.clk, p.cfg.RetryDelay); err != nil {
			return err
		}
	}
}

// Advance moves the cursor to the next item and returns it. The playlist is
// loaded first if there is none, and re-loaded when the cursor passes the
// end, after which the cursor is 0. A nil item means there is nothing to
// show at the cursor.
func (p *Player) Advance(ctx context.Context) (*playlist.Item, error) {
	if p.playlist == nil {
		if err := p.Load(ctx); err != nil {
			return nil, err
		}
		p.cursor = -1
	}

	p.cursor++
	if p.cursor >= p.playlist.Len() {
		if err := p.Load(ctx); err != nil {
			return nil, err
		}
		p.cursor = 0
	}

	p.recordCursor()
	return p.playlist.At(p.cursor), nil
}

// Show inserts s, activates it on the next frame and updates the progress
// bar every frame until the slide's duration has elapsed.
func (p *Player) Show(ctx context.Context, s *slide.Slide) error {
	p.setState(StateDisplaying)
	p.surface.Insert(s)
	p.obs.SlideShown(s)
	logging.Debug("Showing slide %s (%d segments, %v)", s.ID, len(s.Segments), s.Duration)

	started := p.clk.Now()
	activated := false

	return clock.RepeatUntil(ctx, p.clk, p.cfg.FrameInterval, func(now time.Time) bool {
		if !activated {
			p.surface.Activate(s.ID)
			activated = true
		}
		ratio := Progress(now.Sub(started), s.Duration)
		p.surface.SetProgress(ratio)
		p.obs.Progress(ratio)
		return ratio >= 1
	})
}

// Retire deactivates s, waits for the exit transition and removes it.
func (p *Player) Retire(ctx context.Context, s *slide.Slide) error {
	p.setState(StateTransitioning)
	started := p.clk.Now()
	p.surface.Deactivate(s.ID)

	if err := clock.Sleep(ctx, p.clk, p.cfg.TransitionDelay); err != nil {
		return err
	}

	p.surface.Remove(s.ID)
	p.obs.SlideFinished(s, s.Duration+p.clk.Now().Sub(started))
	p.statusMu.Lock()
	p.status.SlidesShown++
	p.statusMu.Unlock()
	return nil
}

// Status returns a copy of the player status. It is safe to call from any
// goroutine.
func (p *Player) Status() Status {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	return p.status
}

// RetryMessage is the overlay text shown while the playlist cannot be loaded.
func (p *Player) RetryMessage() string {
	return RetryMessagePrefix + formatDelay(p.cfg.RetryDelay)
}

// Progress returns elapsed/duration clamped to [0, 1].
func Progress(elapsed, duration time.Duration) float64 {
	if duration <= 0 {
		return 1
	}
	ratio := float64(elapsed) / float64(duration)
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

func (p *Player) timestampText(t time.Time) string {
	return TimestampPrefix + t.In(p.cfg.Location).Format(TimestampLayout)
}

func (p *Player) setState(s State) {
	p.statusMu.Lock()
	p.status.State = s.String()
	p.statusMu.Unlock()
	p.obs.StateChanged(s)
}

func (p *Player) recordCursor() {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.Cursor = p.cursor
}

func (p *Player) recordFetch(at time.Time, err error) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()

	p.status.Fetches++
	p.status.LastFetch = at
	if err != nil {
		p.status.Failures++
		p.status.LastError = err.Error()
		return
	}
	p.status.LastError = ""
	p.status.Loaded = true
	p.status.Items = p.playlist.Len()
	p.status.Version = p.playlist.Version.String()
}

func formatDelay(d time.Duration) string {
	if d%time.Second == 0 {
		return strconv.FormatInt(int64(d/time.Second), 10) + "s"
	}
	return d.String()
}
