package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"signage-player/internal/logging"
	"signage-player/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// FileName is the journal file created inside DATABASE_DIR.
const FileName = "journal.db"

// Database is the play journal: what was fetched and shown, per run.
type Database struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// New opens (creating if needed) the journal at dbPath. The parent
// directory must already exist and be writable.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Journal path: %s", dbPath)

	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Journal permission diagnostics: %v", err)
	}

	// busy_timeout helps prevent "database is locked" errors when
	// playctl reads while the player writes
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close journal after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close journal after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}

	logging.Info("Journal initialized successfully at %s", dbPath)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS plays (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		channel TEXT NOT NULL,
		version TEXT NOT NULL DEFAULT '',
		item_index INTEGER NOT NULL,
		slide_id TEXT NOT NULL,
		segments INTEGER NOT NULL DEFAULT 0,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_plays_started ON plays(started_at);
	CREATE INDEX IF NOT EXISTS idx_plays_run ON plays(run_id);

	CREATE TABLE IF NOT EXISTS fetches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		channel TEXT NOT NULL,
		url TEXT NOT NULL,
		ok INTEGER NOT NULL,
		items INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fetches_at ON fetches(at);
	`

	start := time.Now()
	_, err := d.db.ExecContext(ctx, schema)
	recordQuery("initialize_schema", start, err)
	return err
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Path returns the journal file path.
func (d *Database) Path() string {
	return d.dbPath
}

// RecordPlay appends a play to the journal.
func (d *Database) RecordPlay(ctx context.Context, p Play) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	start := time.Now()
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO plays (run_id, channel, version, item_index, slide_id, segments, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.RunID, p.Channel, p.Version, p.ItemIndex, p.SlideID, p.Segments,
		p.StartedAt.UnixMilli(), p.Duration.Milliseconds())
	recordQuery("insert_play", start, err)
	recordWrite("plays", err)
	return err
}

// RecordFetch appends a playlist fetch outcome to the journal.
func (d *Database) RecordFetch(ctx context.Context, f Fetch) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	start := time.Now()
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO fetches (run_id, channel, url, ok, items, error, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, f.RunID, f.Channel, f.URL, f.OK, f.Items, f.Error, f.At.UnixMilli())
	recordQuery("insert_fetch", start, err)
	recordWrite("fetches", err)
	return err
}

// RecentPlays returns up to limit plays, newest first.
func (d *Database) RecentPlays(ctx context.Context, limit int) ([]Play, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	start := time.Now()
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, run_id, channel, version, item_index, slide_id, segments, started_at, duration_ms
		FROM plays ORDER BY started_at DESC, id DESC LIMIT ?
	`, clampLimit(limit))
	recordQuery("recent_plays", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plays := []Play{}
	for rows.Next() {
		var (
			p         Play
			startedAt int64
			duration  int64
		)
		if err := rows.Scan(&p.ID, &p.RunID, &p.Channel, &p.Version, &p.ItemIndex,
			&p.SlideID, &p.Segments, &startedAt, &duration); err != nil {
			return nil, err
		}
		p.StartedAt = time.UnixMilli(startedAt)
		p.Duration = time.Duration(duration) * time.Millisecond
		plays = append(plays, p)
	}
	return plays, rows.Err()
}

// RecentFetches returns up to limit fetches, newest first.
func (d *Database) RecentFetches(ctx context.Context, limit int) ([]Fetch, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	start := time.Now()
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, run_id, channel, url, ok, items, error, at
		FROM fetches ORDER BY at DESC, id DESC LIMIT ?
	`, clampLimit(limit))
	recordQuery("recent_fetches", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fetches := []Fetch{}
	for rows.Next() {
		var (
			f  Fetch
			at int64
		)
		if err := rows.Scan(&f.ID, &f.RunID, &f.Channel, &f.URL, &f.OK, &f.Items, &f.Error, &at); err != nil {
			return nil, err
		}
		f.At = time.UnixMilli(at)
		fetches = append(fetches, f)
	}
	return fetches, rows.Err()
}

// GetStats returns row counts. It implements metrics.StatsProvider.
func (d *Database) GetStats() metrics.Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var stats metrics.Stats
	if err := d.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM plays), (SELECT COUNT(*) FROM fetches)
	`).Scan(&stats.Plays, &stats.Fetches); err != nil {
		logging.Warn("failed to count journal rows: %v", err)
	}
	return stats
}

// Ping checks the journal is reachable.
func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return d.db.PingContext(ctx)
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 50
	case limit > 1000:
		return 1000
	default:
		return limit
	}
}

func recordQuery(operation string, start time.Time, err error) {
	logging.Debug("journal %s took %v (err=%v)", operation, time.Since(start), err)
}

func recordWrite(table string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.JournalWritesTotal.WithLabelValues(table, status).Inc()
}

// diagnoseDatabasePermissions logs permission problems with the journal
// directory and files before sqlite reports them as opaque errors.
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat journal directory: %w", err)
	}
	logging.Debug("Journal directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("journal directory not writable: %w", err)
	}
	_ = os.Remove(testFile)

	for _, path := range []string{dbPath, dbPath + "-wal"} {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.Mode().Perm()&0o200 == 0 {
			logging.Warn("Journal file %s is read-only! Mode: %v", path, info.Mode())
		}
	}
	return nil
}
