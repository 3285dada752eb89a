package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"signage-player/internal/channel"
	"signage-player/internal/database"
)

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf)

	for _, want := range []string{"check", "history", "fetches", "PAGE_URL", "DATABASE_DIR", defaultDatabaseDir} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("usage missing %q", want)
		}
	}
}

func TestSanitizeCommand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"history", "history"},
		{"check-all_2", "check-all_2"},
		{"rm -rf /", "rm_-rf__"},
		{"\x1b[31mred", "__31mred"},
		{"héllo", "h_llo"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeCommand(tt.in); got != tt.want {
			t.Errorf("sanitizeCommand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		args []string
		want int
	}{
		{nil, defaultLimit},
		{[]string{"5"}, 5},
		{[]string{"0"}, defaultLimit},
		{[]string{"many"}, defaultLimit},
	}
	for _, tt := range tests {
		if got := parseLimit(tt.args); got != tt.want {
			t.Errorf("parseLimit(%v) = %d, want %d", tt.args, got, tt.want)
		}
	}
}

func TestClip(t *testing.T) {
	if got := clip("abcdef", 0); got != "abcdef" {
		t.Errorf("clip(width 0) = %q", got)
	}
	if got := clip("abcdef", 10); got != "abcdef" {
		t.Errorf("clip(short) = %q", got)
	}
	if got := clip("abcdef", 4); got != "abc…" {
		t.Errorf("clip(long) = %q, want abc…", got)
	}
}

func TestCheckPlaylist(t *testing.T) {
	var gotPath, gotCache string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCache = r.Header.Get("Cache-Control")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"generated_at": 1767225600,
			"version": 12,
			"items": [
				{"segments": ["img/a.png", "img/b.png"], "display_duration": 8},
				{"segments": [], "display_duration": 1},
				{}
			]
		}`))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	err := checkPlaylist(context.Background(), &buf, srv.URL+"/player/index.html?canal=hall", srv.Client())
	if err != nil {
		t.Fatalf("checkPlaylist() error = %v", err)
	}

	if gotPath != "/player/channels/hall/playlist.json" {
		t.Errorf("fetched %q", gotPath)
	}
	if !strings.Contains(gotCache, "no-cache") {
		t.Errorf("Cache-Control = %q", gotCache)
	}

	out := buf.String()
	for _, want := range []string{
		"Channel:   hall",
		"Version:   12",
		"Items:     3",
		srv.URL + "/player/img/a.png?v=12",
		"Loop length: 21s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCheckPlaylistErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	if err := checkPlaylist(context.Background(), &buf, "https://signage.example/player/", srv.Client()); err != channel.ErrMissing {
		t.Errorf("missing canal error = %v, want ErrMissing", err)
	}
	if err := checkPlaylist(context.Background(), &buf, srv.URL+"/?canal=hall", srv.Client()); err == nil {
		t.Error("expected error for 404 playlist")
	}
	if buf.Len() != 0 {
		t.Errorf("nothing should be printed on error, got %q", buf.String())
	}
}

func TestCheckPlaylistFileChannel(t *testing.T) {
	dir := t.TempDir()
	chDir := filepath.Join(dir, "channels", "quai")
	if err := os.MkdirAll(chDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(chDir, "playlist.json"), []byte(`{"items":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	page := "file://" + filepath.ToSlash(dir) + "/index.html?canal=quai"
	if err := checkPlaylist(context.Background(), &buf, page, newClient()); err != nil {
		t.Fatalf("checkPlaylist() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Items:     0") || !strings.Contains(buf.String(), "Version:   (none)") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestCheckPlaylistNullEntry(t *testing.T) {
	dir := t.TempDir()
	chDir := filepath.Join(dir, "channels", "quai")
	if err := os.MkdirAll(chDir, 0o755); err != nil {
		t.Fatal(err)
	}
	doc := `{"items":[null,{"segments":["a.png"],"display_duration":5}]}`
	if err := os.WriteFile(filepath.Join(chDir, "playlist.json"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	page := "file://" + filepath.ToSlash(dir) + "/index.html?canal=quai"
	if err := checkPlaylist(context.Background(), &buf, page, newClient()); err != nil {
		t.Fatalf("checkPlaylist() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Items:     2", "(null entry, skipped)", "Loop length: 5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func setupJournal(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("DATABASE_DIR", dir)

	db, err := database.New(context.Background(), filepath.Join(dir, database.FileName))
	if err != nil {
		t.Fatalf("failed to create journal: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := db.RecordPlay(ctx, database.Play{
			RunID:     "run-1",
			Channel:   "hall",
			Version:   "12",
			ItemIndex: i,
			SlideID:   "slide-" + string(rune('a'+i)),
			Segments:  2,
			StartedAt: started.Add(time.Duration(i) * 10 * time.Second),
			Duration:  10600 * time.Millisecond,
		})
		if err != nil {
			t.Fatalf("RecordPlay() error = %v", err)
		}
	}
	if err := db.RecordFetch(ctx, database.Fetch{RunID: "run-1", Channel: "hall", OK: false, Error: "status 503", At: started}); err != nil {
		t.Fatalf("RecordFetch() error = %v", err)
	}
	return dir
}

func TestShowHistory(t *testing.T) {
	setupJournal(t)

	var buf bytes.Buffer
	err := withJournal(context.Background(), func(db *database.Database) error {
		return showHistory(context.Background(), &buf, db, 2, 0)
	})
	if err != nil {
		t.Fatalf("showHistory() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "STARTED") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "slide-c") || !strings.Contains(lines[2], "slide-b") {
		t.Errorf("plays should be newest first:\n%s", buf.String())
	}
	if !strings.Contains(lines[1], "10.6s") {
		t.Errorf("duration missing: %q", lines[1])
	}
}

func TestShowFetches(t *testing.T) {
	setupJournal(t)

	var buf bytes.Buffer
	err := withJournal(context.Background(), func(db *database.Database) error {
		return showFetches(context.Background(), &buf, db, 10, 0)
	})
	if err != nil {
		t.Fatalf("showFetches() error = %v", err)
	}
	if !strings.Contains(buf.String(), "failed: status 503") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestEmptyJournal(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATABASE_DIR", dir)

	db, err := database.New(context.Background(), filepath.Join(dir, database.FileName))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var buf bytes.Buffer
	if err := showHistory(context.Background(), &buf, db, 5, 80); err != nil {
		t.Fatal(err)
	}
	if err := showFetches(context.Background(), &buf, db, 5, 80); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "No plays recorded yet.\nNo fetches recorded yet.\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWithJournalMissing(t *testing.T) {
	t.Setenv("DATABASE_DIR", filepath.Join(t.TempDir(), "nothing-here"))

	called := false
	err := withJournal(context.Background(), func(*database.Database) error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Errorf("withJournal() = %v, called = %v; want error without calling", err, called)
	}
}

func TestDatabasePath(t *testing.T) {
	t.Setenv("DATABASE_DIR", "")
	if got := databasePath(); got != filepath.Join(defaultDatabaseDir, database.FileName) {
		t.Errorf("databasePath() = %q", got)
	}

	t.Setenv("DATABASE_DIR", "/srv/signage")
	if got := databasePath(); got != "/srv/signage/journal.db" {
		t.Errorf("databasePath() = %q", got)
	}
}
