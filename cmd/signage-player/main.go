package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signage-player/internal/channel"
	"signage-player/internal/database"
	"signage-player/internal/display"
	"signage-player/internal/filesystem"
	"signage-player/internal/handlers"
	"signage-player/internal/logging"
	"signage-player/internal/media"
	"signage-player/internal/memory"
	"signage-player/internal/metrics"
	"signage-player/internal/middleware"
	"signage-player/internal/player"
	"signage-player/internal/playlist"
	"signage-player/internal/startup"
	"signage-player/internal/workers"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func main() {
	startTime := time.Now()

	memResult := memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	startup.LogMemoryConfig(memResult)

	metrics.InitializeMetrics()
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	client := newHTTPClient()
	runID := uuid.NewString()

	ch, chErr := channel.Resolve(config.PageURL)
	channelName := ""
	if chErr == nil {
		channelName = ch.Name
	}
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion, channelName)

	board := display.NewBoard()
	surface := buildSurface(config.DisplayMode, board, os.Stdout)

	observers := player.Observers{metrics.NewPlayerObserver()}

	// Play journal (optional)
	var db *database.Database
	var collector *metrics.Collector
	if config.JournalEnabled {
		dbStart := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err = database.New(ctx, config.DatabasePath)
		cancel()
		if err != nil {
			logging.Error("Failed to open play journal, continuing without it: %v", err)
			db = nil
		} else {
			startup.LogJournalInit(config.DatabasePath, time.Since(dbStart))
			observers = append(observers, database.NewJournal(db, runID, channelName))
			collector = metrics.NewCollector(db, config.DatabasePath, time.Minute)
			collector.Start()
		}
	}

	// Image pipeline
	if config.VipsEnabled {
		startup.LogVipsInit(true, media.InitVips(workers.ForCPU(4)))
	} else {
		startup.LogVipsInit(false, nil)
	}
	compositor := media.NewCompositor(client, media.CompositorConfig{
		Width:     config.SlideWidth,
		Quality:   config.SlideQuality,
		Workers:   workers.ForSegments(8),
		MaxPixels: media.MaxSegmentPixels,
		UseVips:   media.IsVipsAvailable(),
		UserAgent: startup.UserAgent(),
	})

	memMonitor := memory.NewMonitor(memory.DefaultConfig())
	memMonitor.Start()

	// Player
	ctx, cancel := context.WithCancel(context.Background())
	var p *player.Player
	playerDone := make(chan struct{})
	if chErr != nil {
		startup.LogPlayerInit("", "", chErr)
		player.Halt(surface, chErr)
		close(playerDone)
	} else {
		p = player.New(ch, playlist.NewFetcher(client, startup.UserAgent()), surface, player.Config{
			RetryDelay:      config.RetryDelay,
			EmptyItemDelay:  config.EmptyItemDelay,
			TransitionDelay: config.TransitionDelay,
			FrameInterval:   config.FrameInterval,
			Location:        config.Location,
			Observer:        observers,
			RunID:           runID,
		})
		startup.LogPlayerInit(ch.Name, ch.PlaylistURL(time.Now()), nil)

		go func() {
			defer close(playerDone)
			if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logging.Error("Player stopped: %v", err)
			}
		}()
	}

	// HTTP
	hc := handlers.Config{
		Board:           board,
		Compositor:      compositor,
		Memory:          memMonitor,
		Channel:         channelName,
		CompositeImages: chErr == nil && ch.IsFile(),
	}
	if p != nil {
		hc.Player = p
	}
	if db != nil {
		hc.Journal = db
	}
	h := handlers.New(hc)

	router := setupRouter(h, config.DisplayMode.Web())
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      buildHandler(router, config),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = startMetricsServer(config.MetricsPort, h)
	}

	shutdownComplete := make(chan struct{})
	go handleShutdown(shutdownComplete, shutdownDeps{
		srv:        srv,
		metricsSrv: metricsSrv,
		cancel:     cancel,
		playerDone: playerDone,
		collector:  collector,
		memMonitor: memMonitor,
		db:         db,
	})

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		WebEnabled:      config.DisplayMode.Web(),
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
	<-shutdownComplete
}

func newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	filesystem.Register(transport, filesystem.DefaultRetryConfig())
	return &http.Client{Transport: transport}
}

func buildSurface(mode startup.DisplayMode, board *display.Board, out io.Writer) display.Surface {
	var surfaces display.Multi
	if mode.Web() {
		surfaces = append(surfaces, board)
	}
	if mode.Console() {
		surfaces = append(surfaces, display.NewConsole(out))
	}
	if len(surfaces) == 1 {
		return surfaces[0]
	}
	return surfaces
}

func setupRouter(h *handlers.Handlers, web bool) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/plays", h.GetPlays).Methods("GET")
	api.HandleFunc("/fetches", h.GetFetches).Methods("GET")

	if web {
		r.HandleFunc("/", h.Kiosk).Methods("GET")
		api.HandleFunc("/state", h.GetState).Methods("GET")
		api.HandleFunc("/slides/{id}/image", h.GetSlideImage).Methods("GET")
	}

	return r
}

func buildHandler(router *mux.Router, config *startup.Config) http.Handler {
	router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	accessConfig := middleware.DefaultAccessLogConfig()
	accessConfig.Software = startup.UserAgent()
	accessConfig.LogPolling = config.LogStaticFiles
	accessConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.AccessLog(accessConfig)(router)

	return middleware.Compression(middleware.DefaultCompressionConfig())(loggedHandler)
}

func startMetricsServer(port string, h *handlers.Handlers) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h.MetricsHandler())
	mux.HandleFunc("/health", h.LivenessCheck)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("Metrics server error: %v", err)
		}
	}()
	return srv
}

type shutdownDeps struct {
	srv        *http.Server
	metricsSrv *http.Server
	cancel     context.CancelFunc
	playerDone <-chan struct{}
	collector  *metrics.Collector
	memMonitor *memory.Monitor
	db         *database.Database
}

func handleShutdown(done chan<- struct{}, deps shutdownDeps) {
	defer close(done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping player")
	deps.cancel()
	select {
	case <-deps.playerDone:
		startup.LogShutdownStepComplete("Player stopped")
	case <-ctx.Done():
		logging.Warn("Player did not stop in time")
	}

	if deps.collector != nil {
		startup.LogShutdownStep("Stopping metrics collector")
		deps.collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}

	deps.memMonitor.Stop()

	if deps.metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := deps.metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := deps.srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if media.IsVipsAvailable() {
		media.ShutdownVips()
	}

	if deps.db != nil {
		startup.LogShutdownStep("Closing play journal")
		if err := deps.db.Close(); err != nil {
			logging.Warn("Journal close error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Play journal closed")
		}
	}

	startup.LogShutdownComplete()
}
