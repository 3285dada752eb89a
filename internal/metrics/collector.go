package metrics

import (
	"os"
	"time"

	"signage-player/internal/logging"
)

// StatsProvider interface for collecting journal stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current journal statistics
type Stats struct {
	Plays   int
	Fetches int
}

// Collector periodically collects and updates journal metrics
type Collector struct {
	statsProvider StatsProvider
	dbPath        string
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector. dbPath is the SQLite file
// whose size (and WAL/SHM siblings) is reported; empty skips size metrics.
func NewCollector(provider StatsProvider, dbPath string, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		dbPath:        dbPath,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider != nil {
		stats := c.statsProvider.GetStats()
		JournalRows.WithLabelValues("plays").Set(float64(stats.Plays))
		JournalRows.WithLabelValues("fetches").Set(float64(stats.Fetches))
		logging.Debug("Metrics collected: plays=%d, fetches=%d", stats.Plays, stats.Fetches)
	}

	if c.dbPath == "" {
		return
	}
	for file, path := range map[string]string{
		"main": c.dbPath,
		"wal":  c.dbPath + "-wal",
		"shm":  c.dbPath + "-shm",
	} {
		info, err := os.Stat(path)
		if err != nil {
			JournalSizeBytes.WithLabelValues(file).Set(0)
			continue
		}
		JournalSizeBytes.WithLabelValues(file).Set(float64(info.Size()))
	}
}
