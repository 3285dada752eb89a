package database

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"signage-player/internal/slide"
)

// setupTestDB creates a journal in a temp directory.
func setupTestDB(t *testing.T) *Database {
	t.Helper()

	db, err := New(context.Background(), filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db
}

func TestNewCreatesSchema(t *testing.T) {
	db := setupTestDB(t)

	for _, table := range []string{"plays", "fetches"} {
		var name string
		err := db.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if !strings.HasSuffix(db.Path(), FileName) {
		t.Errorf("Path() = %q", db.Path())
	}
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New(context.Background(), filepath.Join(t.TempDir(), "missing", "sub", FileName))
	if err == nil {
		t.Fatal("New() in a missing directory should fail")
	}
}

func TestNewReopensExistingJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	ctx := context.Background()

	db, err := New(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.RecordPlay(ctx, Play{RunID: "r1", Channel: "hall", SlideID: "s0-x", StartedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	db, err = New(ctx, path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer db.Close()

	if got := db.GetStats().Plays; got != 1 {
		t.Errorf("plays after reopen = %d, want 1", got)
	}
}

func TestRecordAndListPlays(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		err := db.RecordPlay(ctx, Play{
			RunID:     "run-a",
			Channel:   "hall",
			Version:   "42",
			ItemIndex: i,
			SlideID:   "s" + string(rune('0'+i)),
			Segments:  i + 1,
			StartedAt: base.Add(time.Duration(i) * 10 * time.Second),
			Duration:  10*time.Second + 600*time.Millisecond,
		})
		if err != nil {
			t.Fatalf("RecordPlay(%d) error = %v", i, err)
		}
	}

	plays, err := db.RecentPlays(ctx, 2)
	if err != nil {
		t.Fatalf("RecentPlays() error = %v", err)
	}
	if len(plays) != 2 {
		t.Fatalf("RecentPlays(2) returned %d rows", len(plays))
	}
	if plays[0].ItemIndex != 2 || plays[1].ItemIndex != 1 {
		t.Errorf("order = %d,%d, want newest first (2,1)", plays[0].ItemIndex, plays[1].ItemIndex)
	}

	p := plays[0]
	if p.RunID != "run-a" || p.Channel != "hall" || p.Version != "42" || p.Segments != 3 {
		t.Errorf("play = %+v", p)
	}
	if !p.StartedAt.Equal(base.Add(20 * time.Second)) {
		t.Errorf("StartedAt = %v", p.StartedAt)
	}
	if p.Duration != 10600*time.Millisecond {
		t.Errorf("Duration = %v, want 10.6s", p.Duration)
	}
}

func TestRecordAndListFetches(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	if err := db.RecordFetch(ctx, Fetch{RunID: "r", Channel: "hall", URL: "u1", OK: false, Error: "status 500", At: at}); err != nil {
		t.Fatal(err)
	}
	if err := db.RecordFetch(ctx, Fetch{RunID: "r", Channel: "hall", URL: "u2", OK: true, Items: 4, At: at.Add(15 * time.Second)}); err != nil {
		t.Fatal(err)
	}

	fetches, err := db.RecentFetches(ctx, 0)
	if err != nil {
		t.Fatalf("RecentFetches() error = %v", err)
	}
	if len(fetches) != 2 {
		t.Fatalf("got %d fetches, want 2", len(fetches))
	}
	if !fetches[0].OK || fetches[0].Items != 4 || fetches[0].URL != "u2" {
		t.Errorf("newest fetch = %+v", fetches[0])
	}
	if fetches[1].OK || fetches[1].Error != "status 500" {
		t.Errorf("oldest fetch = %+v", fetches[1])
	}

	stats := db.GetStats()
	if stats.Fetches != 2 || stats.Plays != 0 {
		t.Errorf("GetStats() = %+v", stats)
	}
}

func TestRecentPlaysEmpty(t *testing.T) {
	db := setupTestDB(t)

	plays, err := db.RecentPlays(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if plays == nil || len(plays) != 0 {
		t.Errorf("RecentPlays() = %v, want empty non-nil slice", plays)
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 50}, {-3, 50}, {10, 10}, {5000, 1000},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.in); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPlayJSON(t *testing.T) {
	data, err := json.Marshal(Play{ID: 7, SlideID: "s1-x", Duration: 3600 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got["durationMs"] != float64(3600) || got["slideId"] != "s1-x" || got["id"] != float64(7) {
		t.Errorf("json = %s", data)
	}
}

func TestJournalObserver(t *testing.T) {
	db := setupTestDB(t)
	j := NewJournal(db, "run-b", "lobby")

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return now }

	j.FetchFailed("http://kiosk/channels/lobby/playlist.json?v=1", errors.New("status 503"), time.Second)
	now = now.Add(15 * time.Second)
	j.FetchSucceeded("http://kiosk/channels/lobby/playlist.json?v=2", 2, time.Second)

	s := &slide.Slide{ID: "s0-abcd", Index: 0, Version: "9", Segments: []slide.Segment{{Ref: "a.png"}, {Ref: "b.png"}}}
	j.SlideShown(s)
	shownAt := now
	now = now.Add(5600 * time.Millisecond)
	j.SlideFinished(s, 5600*time.Millisecond)

	j.StateChanged(0)
	j.ItemMissing(3)
	j.Progress(0.5)

	ctx := context.Background()
	fetches, err := db.RecentFetches(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(fetches) != 2 || !fetches[0].OK || fetches[1].OK || fetches[1].Error != "status 503" {
		t.Errorf("fetches = %+v", fetches)
	}
	if fetches[0].Channel != "lobby" || fetches[0].RunID != "run-b" {
		t.Errorf("fetch tags = %q/%q", fetches[0].Channel, fetches[0].RunID)
	}

	plays, err := db.RecentPlays(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(plays) != 1 {
		t.Fatalf("got %d plays, want 1", len(plays))
	}
	p := plays[0]
	if p.SlideID != "s0-abcd" || p.Version != "9" || p.Segments != 2 || !p.StartedAt.Equal(shownAt) || p.Duration != 5600*time.Millisecond {
		t.Errorf("play = %+v", p)
	}
}
