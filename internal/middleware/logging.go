package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dlna-server/internal/logging"
)

// responseWriter records the status and body size for the access log.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// LoggingConfig holds configuration for the access log
type LoggingConfig struct {
	SkipPaths []string
	// MediaPrefixes are the byte-serving routes. A renderer sends a burst of
	// range requests per playback, so they are only logged with LogStaticFiles.
	MediaPrefixes  []string
	LogStaticFiles bool
}

// DefaultLoggingConfig logs everything except media routes.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		MediaPrefixes: []string{"/files/", "/video/", "/thumbs/"},
	}
}

const serviceName = "DLNAServer/1.0"

// w3cFields names the columns of every access log line.
const w3cFields = "date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken cs(Content-Encoding) cs(Range) cs(User-Agent) cs(Referer)"

// Logger writes one W3C extended log line per request.
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	logging.Debug("#Software: %s", serviceName)
	logging.Debug("#Fields: %s", w3cFields)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkip(r.URL.Path, config) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)
			logging.Println(accessLine(r, rw, start, time.Now()))
		})
	}
}

func accessLine(r *http.Request, rw *responseWriter, start, end time.Time) string {
	utc := end.UTC()
	fields := []string{
		utc.Format(time.DateOnly),
		utc.Format(time.TimeOnly),
		w3cValue(getClientIP(r)),
		w3cValue(r.Method),
		w3cValue(r.URL.EscapedPath()),
		w3cValue(r.URL.RawQuery),
		strconv.Itoa(rw.statusCode),
		strconv.FormatInt(rw.bytesWritten, 10),
		strconv.FormatInt(end.Sub(start).Milliseconds(), 10),
		w3cValue(rw.Header().Get("Content-Encoding")),
		w3cValue(r.Header.Get("Range")),
		w3cValue(r.Header.Get("User-Agent")),
		w3cValue(r.Header.Get("Referer")),
	}
	return strings.Join(fields, " ")
}

// w3cValue sanitizes a client-controlled value, writes "-" for empty and
// quotes values containing blanks or quotes.
func w3cValue(s string) string {
	s = sanitizeLogField(s)
	switch {
	case s == "":
		return "-"
	case strings.ContainsAny(s, " \t\""):
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	default:
		return s
	}
}

// sanitizeLogField turns line breaks into spaces and drops other control
// characters except tab, so a header cannot forge a log line or send
// terminal escapes.
func sanitizeLogField(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return ' '
		case r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		default:
			return r
		}
	}, s)
}

func shouldSkip(path string, config LoggingConfig) bool {
	if hasAnyPrefix(path, config.SkipPaths) {
		return true
	}
	return !config.LogStaticFiles && hasAnyPrefix(path, config.MediaPrefixes)
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
