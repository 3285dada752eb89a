package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"signage-player/internal/player"
	"signage-player/internal/slide"
)

// gathered returns the value of the first sample of name whose labels
// include all of want.
func gathered(t *testing.T, name string, want map[string]string) (float64, bool) {
	t.Helper()

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			match := true
			for k, v := range want {
				if labels[k] != v {
					match = false
					break
				}
			}
			if !match {
				continue
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue(), true
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue(), true
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount()), true
			}
		}
	}
	return 0, false
}

func mustGather(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	v, ok := gathered(t, name, labels)
	if !ok {
		t.Fatalf("metric %s%v not found", name, labels)
	}
	return v
}

func TestInitializeMetricsExportsLabels(t *testing.T) {
	InitializeMetrics()

	tests := []struct {
		name   string
		labels map[string]string
	}{
		{"signage_playlist_fetches_total", map[string]string{"status": "success"}},
		{"signage_playlist_fetches_total", map[string]string{"status": "error"}},
		{"signage_player_state", map[string]string{"state": "transitioning"}},
		{"signage_composite_renders_total", map[string]string{"status": "shared"}},
		{"signage_composite_render_duration_seconds", map[string]string{"phase": "encode"}},
		{"signage_filesystem_stale_errors_total", map[string]string{"operation": "open", "volume": "channel"}},
		{"signage_journal_writes_total", map[string]string{"table": "plays", "status": "error"}},
		{"signage_journal_size_bytes", map[string]string{"file": "wal"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := gathered(t, tt.name, tt.labels); !ok {
				t.Errorf("%s%v not exported after InitializeMetrics", tt.name, tt.labels)
			}
		})
	}
}

func TestPlayerObserverStateIsExclusive(t *testing.T) {
	obs := NewPlayerObserver()

	obs.StateChanged(player.StateDisplaying)

	for _, s := range player.States {
		want := 0.0
		if s == player.StateDisplaying {
			want = 1
		}
		if got := mustGather(t, "signage_player_state", map[string]string{"state": s.String()}); got != want {
			t.Errorf("signage_player_state{state=%q} = %v, want %v", s, got, want)
		}
	}
}

func TestPlayerObserverFetches(t *testing.T) {
	obs := NewPlayerObserver()

	successes := mustGather(t, "signage_playlist_fetches_total", map[string]string{"status": "success"})
	failures := mustGather(t, "signage_playlist_fetches_total", map[string]string{"status": "error"})

	obs.FetchSucceeded("http://kiosk/channels/hall/playlist.json", 4, 20*time.Millisecond)
	obs.FetchFailed("http://kiosk/channels/hall/playlist.json", errors.New("boom"), time.Second)
	obs.FetchFailed("http://kiosk/channels/hall/playlist.json", errors.New("boom"), time.Second)

	if got := mustGather(t, "signage_playlist_fetches_total", map[string]string{"status": "success"}); got != successes+1 {
		t.Errorf("success fetches = %v, want %v", got, successes+1)
	}
	if got := mustGather(t, "signage_playlist_fetches_total", map[string]string{"status": "error"}); got != failures+2 {
		t.Errorf("failed fetches = %v, want %v", got, failures+2)
	}
	if got := mustGather(t, "signage_playlist_items", nil); got != 4 {
		t.Errorf("signage_playlist_items = %v, want 4", got)
	}
}

func TestPlayerObserverSlides(t *testing.T) {
	obs := NewPlayerObserver()
	s := &slide.Slide{ID: "s2-abc", Index: 2, Duration: 5 * time.Second, Segments: []slide.Segment{{Ref: "a.png"}, {Ref: "b.png"}}}

	shown := mustGather(t, "signage_slides_shown_total", nil)

	obs.SlideShown(s)
	obs.Progress(0.5)
	if got := mustGather(t, "signage_player_cursor", nil); got != 2 {
		t.Errorf("signage_player_cursor = %v, want 2", got)
	}
	if got := mustGather(t, "signage_slide_progress_ratio", nil); got != 0.5 {
		t.Errorf("signage_slide_progress_ratio = %v, want 0.5", got)
	}

	obs.SlideFinished(s, 5600*time.Millisecond)
	if got := mustGather(t, "signage_slides_shown_total", nil); got != shown+1 {
		t.Errorf("signage_slides_shown_total = %v, want %v", got, shown+1)
	}
}

func TestFilesystemObserver(t *testing.T) {
	obs := NewFilesystemObserver()
	labels := map[string]string{"volume": "channel", "operation": "open"}

	before, _ := gathered(t, "signage_filesystem_operation_errors_total", labels)
	obs.ObserveOperation("channel", "open", 0.01, errors.New("stale"))
	obs.ObserveOperation("channel", "open", 0.01, nil)

	if got := mustGather(t, "signage_filesystem_operation_errors_total", labels); got != before+1 {
		t.Errorf("operation errors = %v, want %v", got, before+1)
	}
}

type fakeStats struct{ stats Stats }

func (f fakeStats) GetStats() Stats { return f.stats }

func TestCollectorCollect(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "journal.db")
	if err := os.WriteFile(dbPath, make([]byte, 4096), 0o600); err != nil {
		t.Fatal(err)
	}

	c := NewCollector(fakeStats{Stats{Plays: 12, Fetches: 3}}, dbPath, time.Minute)
	c.collect()

	if got := mustGather(t, "signage_journal_rows", map[string]string{"table": "plays"}); got != 12 {
		t.Errorf("plays rows = %v, want 12", got)
	}
	if got := mustGather(t, "signage_journal_rows", map[string]string{"table": "fetches"}); got != 3 {
		t.Errorf("fetches rows = %v, want 3", got)
	}
	if got := mustGather(t, "signage_journal_size_bytes", map[string]string{"file": "main"}); got != 4096 {
		t.Errorf("main size = %v, want 4096", got)
	}
	if got := mustGather(t, "signage_journal_size_bytes", map[string]string{"file": "wal"}); got != 0 {
		t.Errorf("wal size = %v, want 0", got)
	}
}

func TestCollectorStartStop(_ *testing.T) {
	c := NewCollector(nil, "", 10*time.Millisecond)
	c.Start()
	time.Sleep(30 * time.Millisecond)
	c.Stop()
}
