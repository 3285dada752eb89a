package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"signage-player/internal/database"
	"signage-player/internal/display"
	"signage-player/internal/media"
	"signage-player/internal/player"
	"signage-player/internal/slide"
	"signage-player/internal/startup"

	"github.com/gorilla/mux"
)

type fakePlayer struct {
	status player.Status
}

func (f *fakePlayer) Status() player.Status { return f.status }

type fakeJournal struct {
	plays   []database.Play
	fetches []database.Fetch
	err     error
	limit   int
}

func (f *fakeJournal) RecentPlays(_ context.Context, limit int) ([]database.Play, error) {
	f.limit = limit
	return f.plays, f.err
}

func (f *fakeJournal) RecentFetches(_ context.Context, limit int) ([]database.Fetch, error) {
	f.limit = limit
	return f.fetches, f.err
}

func (f *fakeJournal) Ping(context.Context) error { return f.err }

type fakeRenderer struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeRenderer) Render(context.Context, *slide.Slide) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

type fakeGauge bool

func (g fakeGauge) IsPaused() bool { return bool(g) }

func testSlide(id string) *slide.Slide {
	return &slide.Slide{
		ID:       id,
		Version:  "v7",
		Duration: 10 * time.Second,
		Segments: []slide.Segment{
			{Ref: "a.png", Src: "https://signage.example/a.png?v=v7"},
			{Ref: "b.png", Src: "https://signage.example/b.png?v=v7"},
		},
	}
}

func loadedPlayer() *fakePlayer {
	return &fakePlayer{status: player.Status{
		Channel:   "hall",
		State:     "displaying",
		Cursor:    1,
		Items:     3,
		Loaded:    true,
		LastFetch: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		Fetches:   2,
	}}
}

func serve(t *testing.T, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
}

func TestGetState(t *testing.T) {
	board := display.NewBoard()
	board.SetTimestamp("Dernière mise à jour : 01/03/2026 09:30:00")
	board.Insert(testSlide("s1"))
	board.Activate("s1")
	board.SetProgress(0.256)

	h := New(Config{Board: board, Player: loadedPlayer()})
	rec := serve(t, h.GetState, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}

	var got struct {
		Overlay   display.Overlay `json:"overlay"`
		Timestamp string          `json:"timestamp"`
		Progress  string          `json:"progress"`
		State     string          `json:"state"`
		Cursor    int             `json:"cursor"`
		Channel   string          `json:"channel"`
		Slides    []struct {
			ID       string          `json:"id"`
			Active   bool            `json:"active"`
			Segments []slide.Segment `json:"segments"`
		} `json:"slides"`
	}
	decode(t, rec, &got)

	if got.Overlay.Visible {
		t.Error("overlay should be hidden")
	}
	if got.Progress != "25.60%" {
		t.Errorf("progress = %q, want 25.60%%", got.Progress)
	}
	if got.State != "displaying" || got.Cursor != 1 || got.Channel != "hall" {
		t.Errorf("player fields = %q/%d/%q", got.State, got.Cursor, got.Channel)
	}
	if len(got.Slides) != 1 || !got.Slides[0].Active || got.Slides[0].ID != "s1" {
		t.Fatalf("slides = %+v", got.Slides)
	}
	if src := got.Slides[0].Segments[1].Src; src != "https://signage.example/b.png?v=v7" {
		t.Errorf("segment src = %q", src)
	}
}

func TestGetStateHalted(t *testing.T) {
	board := display.NewBoard()
	board.ShowOverlay("Paramètre manquant : ?canal=...")

	h := New(Config{Board: board})
	rec := serve(t, h.GetState, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	var got StateResponse
	decode(t, rec, &got)

	if got.State != "halted" || got.Cursor != -1 {
		t.Errorf("state = %q cursor = %d, want halted/-1", got.State, got.Cursor)
	}
	if !got.Overlay.Visible || got.Overlay.Text != "Paramètre manquant : ?canal=..." {
		t.Errorf("overlay = %+v", got.Overlay)
	}
	if !strings.Contains(rec.Body.String(), `"slides":[]`) {
		t.Errorf("slides should encode as an empty list: %s", rec.Body.String())
	}
}

func TestGetSlideImage(t *testing.T) {
	board := display.NewBoard()
	board.Insert(testSlide("s1"))

	tests := []struct {
		name       string
		id         string
		renderer   *fakeRenderer
		gauge      PressureGauge
		wantStatus int
		wantCalls  int
	}{
		{"renders staged slide", "s1", &fakeRenderer{data: []byte("jpeg")}, nil, http.StatusOK, 1},
		{"unknown slide", "s9", &fakeRenderer{}, nil, http.StatusNotFound, 0},
		{"no segments", "s1", &fakeRenderer{err: media.ErrNoSegments}, nil, http.StatusNotFound, 1},
		{"segment failure", "s1", &fakeRenderer{err: &media.SegmentError{Src: "x", StatusCode: 500}}, nil, http.StatusBadGateway, 1},
		{"memory pressure", "s1", &fakeRenderer{}, fakeGauge(true), http.StatusServiceUnavailable, 0},
		{"memory fine", "s1", &fakeRenderer{data: []byte("jpeg")}, fakeGauge(false), http.StatusOK, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(Config{Board: board, Compositor: tt.renderer, Memory: tt.gauge})
			req := httptest.NewRequest(http.MethodGet, "/api/slides/"+tt.id+"/image", nil)
			req = mux.SetURLVars(req, map[string]string{"id": tt.id})

			rec := serve(t, h.GetSlideImage, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.renderer.calls != tt.wantCalls {
				t.Errorf("render calls = %d, want %d", tt.renderer.calls, tt.wantCalls)
			}
			if tt.wantStatus == http.StatusOK {
				if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
					t.Errorf("Content-Type = %q", ct)
				}
				if rec.Body.String() != "jpeg" {
					t.Errorf("body = %q", rec.Body.String())
				}
			}
		})
	}
}

func TestGetSlideImageWithoutCompositor(t *testing.T) {
	board := display.NewBoard()
	board.Insert(testSlide("s1"))

	h := New(Config{Board: board})
	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/slides/s1/image", nil), map[string]string{"id": "s1"})

	if rec := serve(t, h.GetSlideImage, req); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetPlays(t *testing.T) {
	journal := &fakeJournal{plays: []database.Play{
		{ID: 2, Channel: "hall", SlideID: "s2", Duration: 10600 * time.Millisecond},
		{ID: 1, Channel: "hall", SlideID: "s1", Duration: 3600 * time.Millisecond},
	}}
	h := New(Config{Board: display.NewBoard(), Journal: journal})

	rec := serve(t, h.GetPlays, httptest.NewRequest(http.MethodGet, "/api/plays?limit=2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if journal.limit != 2 {
		t.Errorf("limit = %d, want 2", journal.limit)
	}

	var got []map[string]interface{}
	decode(t, rec, &got)
	if len(got) != 2 || got[0]["slideId"] != "s2" || got[0]["durationMs"] != float64(10600) {
		t.Errorf("plays = %v", got)
	}
}

func TestJournalEndpointsErrors(t *testing.T) {
	disabled := New(Config{Board: display.NewBoard()})
	broken := New(Config{Board: display.NewBoard(), Journal: &fakeJournal{err: errors.New("disk I/O error")}})

	tests := []struct {
		name string
		fn   http.HandlerFunc
		want int
	}{
		{"plays disabled", disabled.GetPlays, http.StatusServiceUnavailable},
		{"fetches disabled", disabled.GetFetches, http.StatusServiceUnavailable},
		{"plays broken", broken.GetPlays, http.StatusInternalServerError},
		{"fetches broken", broken.GetFetches, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, tt.fn, httptest.NewRequest(http.MethodGet, "/api/plays", nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			var body map[string]string
			decode(t, rec, &body)
			if body["error"] == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestGetFetches(t *testing.T) {
	journal := &fakeJournal{fetches: []database.Fetch{{ID: 1, OK: false, Error: "status 503"}}}
	h := New(Config{Board: display.NewBoard(), Journal: journal})

	rec := serve(t, h.GetFetches, httptest.NewRequest(http.MethodGet, "/api/fetches?limit=abc", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if journal.limit != 0 {
		t.Errorf("invalid limit should pass 0, got %d", journal.limit)
	}
	var got []database.Fetch
	decode(t, rec, &got)
	if len(got) != 1 || got[0].Error != "status 503" {
		t.Errorf("fetches = %+v", got)
	}
}

func TestHealthCheck(t *testing.T) {
	failing := loadedPlayer()
	failing.status.LastError = "status 503"

	starting := &fakePlayer{status: player.Status{State: "loading"}}

	tests := []struct {
		name       string
		player     StatusSource
		journal    PlayJournal
		wantStatus string
		wantCode   int
		wantJ      string
	}{
		{"healthy", loadedPlayer(), nil, "healthy", http.StatusOK, "disabled"},
		{"fetch failing", failing, nil, "degraded", http.StatusOK, "disabled"},
		{"journal broken", loadedPlayer(), &fakeJournal{err: errors.New("locked")}, "degraded", http.StatusOK, "error"},
		{"journal ok", loadedPlayer(), &fakeJournal{}, "healthy", http.StatusOK, "ok"},
		{"starting", starting, nil, "starting", http.StatusServiceUnavailable, "disabled"},
		{"halted", nil, nil, "halted", http.StatusServiceUnavailable, "disabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Config{Board: display.NewBoard(), Journal: tt.journal}
			if tt.player != nil {
				config.Player = tt.player
			}
			h := New(config)

			rec := serve(t, h.HealthCheck, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}

			var got HealthResponse
			decode(t, rec, &got)
			if got.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", got.Status, tt.wantStatus)
			}
			if got.Journal != tt.wantJ {
				t.Errorf("journal = %q, want %q", got.Journal, tt.wantJ)
			}
			if got.Version != startup.Version {
				t.Errorf("version = %q, want %q", got.Version, startup.Version)
			}
		})
	}
}

func TestHealthCheckFields(t *testing.T) {
	h := New(Config{Board: display.NewBoard(), Player: loadedPlayer()})
	rec := serve(t, h.HealthCheck, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var got HealthResponse
	decode(t, rec, &got)
	if got.Channel != "hall" || got.Items != 3 || got.Fetches != 2 {
		t.Errorf("playback fields = %+v", got)
	}
	if got.LastFetch != "2026-03-01T09:30:00Z" {
		t.Errorf("lastFetch = %q", got.LastFetch)
	}
	if got.NumCPU <= 0 || got.GoVersion == "" {
		t.Error("system info missing")
	}
}

func TestLivenessCheck(t *testing.T) {
	h := New(Config{Board: display.NewBoard()})

	rec := serve(t, h.LivenessCheck, httptest.NewRequest(http.MethodGet, "/livez", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "alive") {
		t.Errorf("GET livez = %d %q", rec.Code, rec.Body.String())
	}

	rec = serve(t, h.LivenessCheck, httptest.NewRequest(http.MethodHead, "/livez", nil))
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Errorf("HEAD livez = %d with %d bytes", rec.Code, rec.Body.Len())
	}
}

func TestReadinessCheck(t *testing.T) {
	tests := []struct {
		name   string
		player StatusSource
		want   int
	}{
		{"loaded", loadedPlayer(), http.StatusOK},
		{"not loaded", &fakePlayer{}, http.StatusServiceUnavailable},
		{"halted", nil, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Config{Board: display.NewBoard()}
			if tt.player != nil {
				config.Player = tt.player
			}
			rec := serve(t, New(config).ReadinessCheck, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if rec.Code != tt.want {
				t.Errorf("code = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestGetVersion(t *testing.T) {
	h := New(Config{Board: display.NewBoard()})
	rec := serve(t, h.GetVersion, httptest.NewRequest(http.MethodGet, "/version", nil))

	var got startup.BuildInfo
	decode(t, rec, &got)
	if got != startup.GetBuildInfo() {
		t.Errorf("version = %+v, want %+v", got, startup.GetBuildInfo())
	}
}

func TestKiosk(t *testing.T) {
	tests := []struct {
		name          string
		config        Config
		wantTitle     string
		wantComposite string
	}{
		{"segments", Config{Channel: "hall", PollInterval: 500 * time.Millisecond}, "<title>hall</title>", "var composite =  false ;"},
		{"composite", Config{Channel: "hall", CompositeImages: true, Compositor: &fakeRenderer{}}, "<title>hall</title>", "var composite =  true ;"},
		{"composite without compositor", Config{CompositeImages: true}, "<title>Signage</title>", "var composite =  false ;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Board = display.NewBoard()
			h := New(tt.config)

			rec := serve(t, h.Kiosk, httptest.NewRequest(http.MethodGet, "/", nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
				t.Errorf("Content-Type = %q", ct)
			}
			body := rec.Body.String()
			if !strings.Contains(body, tt.wantTitle) {
				t.Errorf("missing %q", tt.wantTitle)
			}
			if !strings.Contains(body, tt.wantComposite) {
				t.Errorf("missing %q", tt.wantComposite)
			}
			if !strings.Contains(body, "/api/state") {
				t.Error("kiosk page should poll /api/state")
			}
		})
	}
}

func TestKioskPollInterval(t *testing.T) {
	h := New(Config{Board: display.NewBoard(), PollInterval: 500 * time.Millisecond})
	body := serve(t, h.Kiosk, httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
	if !strings.Contains(body, fmt.Sprintf("setTimeout(poll,  %d )", 500)) {
		t.Error("poll interval not rendered")
	}

	h = New(Config{Board: display.NewBoard()})
	if h.kioskData.PollMillis != 250 {
		t.Errorf("default poll = %d, want 250", h.kioskData.PollMillis)
	}
}

func TestMetricsHandler(t *testing.T) {
	h := New(Config{Board: display.NewBoard()})
	rec := httptest.NewRecorder()
	h.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
