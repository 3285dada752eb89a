package middleware

import (
	"fmt"
	"net"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"signage-player/internal/logging"
)

// accessFields is the #Fields directive of the access log.
const accessFields = "date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken x-kind x-slide cs(User-Agent)"

// Request kinds recorded in the x-kind field.
const (
	KindPage   = "page"
	KindPoll   = "poll"
	KindImage  = "image"
	KindHealth = "health"
	KindAPI    = "api"
	KindStatic = "static"
)

var healthCheckPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

var staticExtensions = map[string]bool{
	".ico": true, ".css": true, ".js": true, ".png": true, ".jpg": true, ".jpeg": true, ".webp": true, ".svg": true,
}

// AccessLogConfig controls which requests reach the access log.
type AccessLogConfig struct {
	// Software is written in the #Software directive.
	Software string
	// LogPolling includes the kiosk page's state polls, slide image
	// requests and static files, which arrive several times a second.
	LogPolling      bool
	LogHealthChecks bool
	SkipPaths       []string
}

// DefaultAccessLogConfig logs page, API and health requests.
func DefaultAccessLogConfig() AccessLogConfig {
	return AccessLogConfig{
		Software:        "signage-player",
		LogHealthChecks: true,
	}
}

// accessWriter records the status and size of a response.
type accessWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newAccessWriter(w http.ResponseWriter) *accessWriter {
	return &accessWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (aw *accessWriter) WriteHeader(code int) {
	if aw.wroteHeader {
		return
	}
	aw.statusCode = code
	aw.wroteHeader = true
	aw.ResponseWriter.WriteHeader(code)
}

func (aw *accessWriter) Write(b []byte) (int, error) {
	aw.wroteHeader = true
	n, err := aw.ResponseWriter.Write(b)
	aw.bytesWritten += int64(n)
	return n, err
}

func (aw *accessWriter) Flush() {
	if f, ok := aw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// classify returns the kind of a request path and, for slide images, the
// slide id.
func classify(p string) (kind, slideID string) {
	switch {
	case healthCheckPaths[p]:
		return KindHealth, ""
	case p == "/api/state":
		return KindPoll, ""
	case strings.HasPrefix(p, "/api/slides/"):
		rest := strings.TrimPrefix(p, "/api/slides/")
		if id, tail, ok := strings.Cut(rest, "/"); ok && tail == "image" && id != "" {
			return KindImage, id
		}
		return KindAPI, ""
	case strings.HasPrefix(p, "/api/"):
		return KindAPI, ""
	case staticExtensions[strings.ToLower(path.Ext(p))]:
		return KindStatic, ""
	}
	return KindPage, ""
}

func (c AccessLogConfig) skip(p, kind string) bool {
	for _, prefix := range c.SkipPaths {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	switch kind {
	case KindHealth:
		return !c.LogHealthChecks
	case KindPoll, KindImage, KindStatic:
		return !c.LogPolling
	}
	return false
}

// AccessLog returns middleware writing one W3C extended log line per
// request. The #Software and #Fields directives precede the first line.
func AccessLog(config AccessLogConfig) func(http.Handler) http.Handler {
	var header sync.Once

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			kind, slideID := classify(r.URL.Path)
			if config.skip(r.URL.Path, kind) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			aw := newAccessWriter(w)
			next.ServeHTTP(aw, r)

			header.Do(func() {
				logging.Printf("#Software: %s", sanitizeLogField(config.Software))
				logging.Printf("#Fields: %s", accessFields)
			})
			logging.Printf("%s", accessLine(r, aw, kind, slideID, start, time.Since(start)))
		})
	}
}

func accessLine(r *http.Request, aw *accessWriter, kind, slideID string, start time.Time, took time.Duration) string {
	at := start.UTC()
	return fmt.Sprintf("%s %s %s %s %s %s %d %d %d %s %s %s",
		at.Format("2006-01-02"),
		at.Format("15:04:05"),
		orDash(sanitizeLogField(getClientIP(r))),
		orDash(sanitizeLogField(r.Method)),
		orDash(escapeW3CField(sanitizeLogField(r.URL.Path))),
		orDash(escapeW3CField(sanitizeLogField(r.URL.RawQuery))),
		aw.statusCode,
		aw.bytesWritten,
		took.Milliseconds(),
		kind,
		orDash(escapeW3CField(sanitizeLogField(slideID))),
		orDash(escapeW3CField(sanitizeLogField(r.Header.Get("User-Agent")))),
	)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// sanitizeLogField turns line breaks into spaces and drops other control
// characters except tab.
func sanitizeLogField(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return ' '
		case r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// escapeW3CField quotes values containing blanks or quotes, doubling the
// quotes.
func escapeW3CField(s string) string {
	if strings.ContainsAny(s, " \t\"") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
