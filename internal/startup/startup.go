package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"signage-player/internal/logging"
	"signage-player/internal/memory"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// UserAgent identifies the player on playlist and segment requests.
func UserAgent() string {
	return "signage-player/" + Version
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// DisplayMode selects which surfaces the player draws on.
type DisplayMode string

const (
	DisplayWeb     DisplayMode = "web"
	DisplayConsole DisplayMode = "console"
	DisplayBoth    DisplayMode = "both"
)

// Web reports whether the kiosk page is served.
func (m DisplayMode) Web() bool { return m == DisplayWeb || m == DisplayBoth }

// Console reports whether the terminal line is drawn.
func (m DisplayMode) Console() bool { return m == DisplayConsole || m == DisplayBoth }

func parseDisplayMode(s string) (DisplayMode, error) {
	switch m := DisplayMode(strings.ToLower(strings.TrimSpace(s))); m {
	case DisplayWeb, DisplayConsole, DisplayBoth:
		return m, nil
	default:
		return "", fmt.Errorf("invalid DISPLAY_MODE %q (want web, console or both)", s)
	}
}

// Config holds all application configuration
type Config struct {
	PageURL     string
	Port        string
	MetricsPort string
	DisplayMode DisplayMode

	RetryDelay      time.Duration
	EmptyItemDelay  time.Duration
	TransitionDelay time.Duration
	FrameInterval   time.Duration
	Location        *time.Location

	SlideWidth   int
	SlideQuality int
	VipsEnabled  bool

	DatabaseDir string

	LogStaticFiles  bool
	LogHealthChecks bool
	MetricsEnabled  bool

	// Derived
	DatabasePath   string
	JournalEnabled bool
}

// LoadConfig loads and validates configuration from environment variables.
// An empty PAGE_URL is not an error here: the player reports the missing
// channel on its surfaces instead.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	pageURL := getEnv("PAGE_URL", "")
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	displayModeStr := getEnv("DISPLAY_MODE", string(DisplayWeb))
	timezone := getEnv("TIMEZONE", "Local")
	databaseDir := getEnv("DATABASE_DIR", "")
	logStaticFiles := getEnvBool("LOG_STATIC_FILES", false)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	vipsEnabled := getEnvBool("VIPS_ENABLED", false)

	logging.Info("  PAGE_URL:            %s", pageURL)
	logging.Info("  PORT:                %s", port)
	logging.Info("  METRICS_PORT:        %s", metricsPort)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  DISPLAY_MODE:        %s", displayModeStr)
	logging.Info("  TIMEZONE:            %s", timezone)
	logging.Info("  DATABASE_DIR:        %s", databaseDir)
	logging.Info("  VIPS_ENABLED:        %v", vipsEnabled)
	logging.Info("  LOG_STATIC_FILES:    %v", logStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	displayMode, err := parseDisplayMode(displayModeStr)
	if err != nil {
		return nil, err
	}

	location, err := time.LoadLocation(timezone)
	if err != nil {
		logging.Warn("  Invalid TIMEZONE %q, using local time", timezone)
		location = time.Local
	}

	config := &Config{
		PageURL:         pageURL,
		Port:            port,
		MetricsPort:     metricsPort,
		DisplayMode:     displayMode,
		RetryDelay:      getEnvDuration("RETRY_DELAY", 15*time.Second),
		EmptyItemDelay:  getEnvDuration("EMPTY_ITEM_DELAY", 2*time.Second),
		TransitionDelay: getEnvDuration("TRANSITION_DELAY", 600*time.Millisecond),
		FrameInterval:   getEnvDuration("FRAME_INTERVAL", 16*time.Millisecond),
		Location:        location,
		SlideWidth:      getEnvInt("SLIDE_WIDTH", 1920),
		SlideQuality:    getEnvInt("SLIDE_QUALITY", 85),
		VipsEnabled:     vipsEnabled,
		LogStaticFiles:  logStaticFiles,
		LogHealthChecks: logHealthChecks,
		MetricsEnabled:  metricsEnabled,
	}

	logging.Info("  RETRY_DELAY:         %v", config.RetryDelay)
	logging.Info("  EMPTY_ITEM_DELAY:    %v", config.EmptyItemDelay)
	logging.Info("  TRANSITION_DELAY:    %v", config.TransitionDelay)
	logging.Info("  FRAME_INTERVAL:      %v", config.FrameInterval)
	logging.Info("  SLIDE_WIDTH:         %d", config.SlideWidth)

	if pageURL == "" {
		logging.Warn("  PAGE_URL is empty, the player will report a missing channel")
	}

	if databaseDir != "" {
		logging.Info("")
		logging.Info("------------------------------------------------------------")
		logging.Info("DIRECTORY SETUP")
		logging.Info("------------------------------------------------------------")

		databaseDir, err = filepath.Abs(databaseDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
		}
		logging.Info("  Database directory (absolute): %s", databaseDir)

		config.DatabaseDir = databaseDir
		config.DatabasePath = filepath.Join(databaseDir, "journal.db")
		config.JournalEnabled = setupOptionalDir(databaseDir, "journal")
	}

	// Summary
	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Web surface:  %s", enabledString(displayMode.Web()))
	logging.Info("    Console:      %s", enabledString(displayMode.Console()))
	logging.Info("    Play journal: %s", enabledString(config.JournalEnabled))
	logging.Info("    libvips:      %s", enabledString(config.VipsEnabled))
	logging.Info("    Metrics:      %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func setupOptionalDir(path, name string) bool {
	if err := ensureDirectory(path, name); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	logging.Info("  [OK] %s directory is writable", name)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogMemoryConfig logs how GOMEMLIMIT was configured
func LogMemoryConfig(result memory.ConfigResult) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MEMORY CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	if !result.Configured {
		logging.Info("  GOMEMLIMIT: not configured (set MEMORY_LIMIT to enable)")
		return
	}

	logging.Info("  Source:          %s", result.Source)
	logging.Info("  GOMEMLIMIT:      %s", memory.FormatBytes(result.GoMemLimit))
	if result.Source == "MEMORY_LIMIT" {
		logging.Info("  Container limit: %s", memory.FormatBytes(result.ContainerLimit))
		logging.Info("  Ratio:           %.0f%%", result.Ratio*100)
	}
}

// LogJournalInit logs play journal initialization
func LogJournalInit(path string, duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("JOURNAL INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Path: %s", path)
	logging.Info("  [OK] Journal initialized in %v", duration)
}

// LogVipsInit logs libvips initialization
func LogVipsInit(enabled bool, err error) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("IMAGE PIPELINE")
	logging.Info("------------------------------------------------------------")

	switch {
	case !enabled:
		logging.Info("  Using pure Go decoding (set VIPS_ENABLED=true for libvips)")
	case err != nil:
		logging.Warn("  libvips unavailable: %v", err)
		logging.Warn("  Falling back to pure Go decoding")
	default:
		logging.Info("  [OK] libvips initialized")
	}
}

// LogPlayerInit logs the resolved channel, or why there is none.
func LogPlayerInit(channelName, playlistURL string, err error) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("PLAYER INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	if err != nil {
		logging.Error("  Channel not resolved: %v", err)
		logging.Error("  Playback halted, the message stays on screen")
		return
	}

	logging.Info("  Channel:  %s", channelName)
	logging.Info("  Playlist: %s", playlistURL)
	logging.Info("  [OK] Player starting")
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Poll logging: ON")
	} else {
		logging.Info("    Poll logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	WebEnabled      bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("PLAYER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	if config.WebEnabled {
		logging.Info("    Kiosk page:    http://0.0.0.0:%s", config.Port)
	} else {
		logging.Info("    Kiosk page:    DISABLED (health endpoints only on :%s)", config.Port)
	}
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the player")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
   _____ _                                   ____  __
  / ___/(_)___ _____  ____ _____ ____       / __ \/ /___ ___  __
  \__ \/ / __ '/ __ \/ __ '/ __ '/ _ \     / /_/ / / __ '/ / / /
 ___/ / / /_/ / / / / /_/ / /_/ /  __/    / ____/ / /_/ / /_/ /
/____/_/\__, /_/ /_/\__,_/\__, /\___/    /_/   /_/\__,_/\__, /
       /____/            /____/                        /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid integer for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
