package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"signage-player/internal/channel"
	"signage-player/internal/database"
	"signage-player/internal/filesystem"
	"signage-player/internal/playlist"

	"golang.org/x/term"
)

const (
	// Default timeout for fetches and database operations
	defaultTimeout = 30 * time.Second
	// Default database directory path
	defaultDatabaseDir = "/database"
	// Default number of journal rows printed
	defaultLimit = 20
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	command := os.Args[1]

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	var err error
	switch command {
	case "check":
		err = checkPlaylist(ctx, os.Stdout, os.Getenv("PAGE_URL"), newClient())
	case "history", "fetches":
		err = withJournal(ctx, func(db *database.Database) error {
			limit := parseLimit(os.Args[2:])
			if command == "history" {
				return showHistory(ctx, os.Stdout, db, limit, terminalWidth())
			}
			return showFetches(ctx, os.Stdout, db, limit, terminalWidth())
		})
	default:
		sanitized := sanitizeCommand(command)
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitized) //nolint:gosec // only [a-zA-Z0-9_-] pass sanitizeCommand
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// sanitizeCommand returns a safe representation of a command string for display.
// It uses an allowlist approach, replacing any character that is not alphanumeric,
// a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Signage Player Control")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: playctl <command> [limit]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  check    - Fetch the channel playlist once and summarize it")
	fmt.Fprintln(w, "  history  - Show the most recent plays from the journal")
	fmt.Fprintln(w, "  fetches  - Show the most recent playlist fetches from the journal")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  PAGE_URL     - Page URL carrying ?canal= (check)")
	fmt.Fprintf(w, "  DATABASE_DIR - Path to journal directory (default: %s)\n", defaultDatabaseDir)
}

func newClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	filesystem.Register(transport, filesystem.DefaultRetryConfig())
	return &http.Client{Transport: transport}
}

func databasePath() string {
	databaseDir := os.Getenv("DATABASE_DIR")
	if databaseDir == "" {
		databaseDir = defaultDatabaseDir
	}
	return filepath.Join(databaseDir, database.FileName)
}

func withJournal(ctx context.Context, fn func(db *database.Database) error) error {
	path := databasePath()
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no journal at %s (is DATABASE_DIR set?): %w", path, err)
	}

	db, err := database.New(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close journal: %v\n", err)
		}
	}()

	return fn(db)
}

func parseLimit(args []string) int {
	if len(args) == 0 {
		return defaultLimit
	}
	limit, err := strconv.Atoi(args[0])
	if err != nil || limit <= 0 {
		return defaultLimit
	}
	return limit
}

// terminalWidth returns the width of stdout, or 0 when it is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}

// checkPlaylist fetches the playlist of the channel in pageURL once, the
// way the player does, and prints what it would show.
func checkPlaylist(ctx context.Context, w io.Writer, pageURL string, client *http.Client) error {
	ch, err := channel.Resolve(pageURL)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now()
	url := ch.PlaylistURL(now)
	pl, err := playlist.NewFetcher(client, "playctl").Fetch(ctx, url)
	if err != nil {
		return err
	}

	version := pl.Version.String()
	fmt.Fprintf(w, "Channel:   %s\n", ch.Name)
	fmt.Fprintf(w, "Playlist:  %s\n", url)
	fmt.Fprintf(w, "Version:   %s\n", orNone(version))
	fmt.Fprintf(w, "Generated: %s\n", pl.UpdatedAt(now).Format(time.RFC3339))
	fmt.Fprintf(w, "Items:     %d\n", pl.Len())
	if pl.Len() == 0 {
		return nil
	}

	var total time.Duration
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "")
	fmt.Fprintln(tw, "#\tDURATION\tSEGMENTS\tFIRST SEGMENT")
	for i := range pl.Items {
		item := pl.At(i)
		if item == nil {
			fmt.Fprintf(tw, "%d\t-\t-\t(null entry, skipped)\n", i)
			continue
		}
		segments := item.SegmentList()
		first := "-"
		if len(segments) > 0 {
			first = ch.SegmentURL(segments[0], version)
		}
		total += item.Duration()
		fmt.Fprintf(tw, "%d\t%v\t%d\t%s\n", i, item.Duration(), len(segments), first)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nLoop length: %v\n", total)
	return nil
}

func showHistory(ctx context.Context, w io.Writer, db *database.Database, limit, width int) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	plays, err := db.RecentPlays(ctx, limit)
	if err != nil {
		return err
	}
	if len(plays) == 0 {
		fmt.Fprintln(w, "No plays recorded yet.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tCHANNEL\t#\tSHOWN\tSEGMENTS\tSLIDE")
	for _, p := range plays {
		line := fmt.Sprintf("%s\t%s\t%d\t%v\t%d\t%s",
			p.StartedAt.Local().Format("2006-01-02 15:04:05"), p.Channel, p.ItemIndex,
			p.Duration.Round(time.Millisecond), p.Segments, p.SlideID)
		fmt.Fprintln(tw, clip(line, width))
	}
	return tw.Flush()
}

func showFetches(ctx context.Context, w io.Writer, db *database.Database, limit, width int) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	fetches, err := db.RecentFetches(ctx, limit)
	if err != nil {
		return err
	}
	if len(fetches) == 0 {
		fmt.Fprintln(w, "No fetches recorded yet.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "AT\tCHANNEL\tRESULT\tITEMS")
	for _, f := range fetches {
		result := "ok"
		if !f.OK {
			result = "failed: " + f.Error
		}
		line := fmt.Sprintf("%s\t%s\t%s\t%d",
			f.At.Local().Format("2006-01-02 15:04:05"), f.Channel, result, f.Items)
		fmt.Fprintln(tw, clip(line, width))
	}
	return tw.Flush()
}

// clip cuts a row to width runes before alignment. A width of 0 disables
// clipping.
func clip(line string, width int) string {
	if width <= 0 {
		return line
	}
	runes := []rune(line)
	if len(runes) <= width {
		return line
	}
	return string(runes[:width-1]) + "…"
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
