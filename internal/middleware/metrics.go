package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"dlna-server/internal/metrics"
)

// metricsResponseWriter captures the status code. For streaming routes it
// also notes when the first byte went out, since the whole response lasts
// as long as playback does.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	streaming   bool
	start       time.Time
	firstByte   time.Time
}

func newMetricsResponseWriter(w http.ResponseWriter, streaming bool) *metricsResponseWriter {
	return &metricsResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		streaming:      streaming,
		start:          time.Now(),
	}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.markHeader()
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *metricsResponseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.markHeader()
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *metricsResponseWriter) markHeader() {
	rw.wroteHeader = true
	rw.firstByte = time.Now()
}

func (rw *metricsResponseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// getDuration is time to first byte for streams, total time otherwise.
func (rw *metricsResponseWriter) getDuration() time.Duration {
	if rw.streaming && rw.wroteHeader {
		return rw.firstByte.Sub(rw.start)
	}
	return time.Since(rw.start)
}

// MetricsConfig holds configuration for the metrics middleware
type MetricsConfig struct {
	// SkipPaths are paths that should not be recorded
	SkipPaths []string
	// StreamingPrefixes are routes measured by time to first byte.
	StreamingPrefixes []string
}

// DefaultMetricsConfig returns the default metrics configuration
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		SkipPaths:         []string{"/metrics", "/healthz", "/livez"},
		StreamingPrefixes: []string{"/files/", "/video/"},
	}
}

func isStreamingPath(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Metrics returns a middleware that records Prometheus metrics
func Metrics(config MetricsConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, path := range config.SkipPaths {
				if strings.HasPrefix(r.URL.Path, path) {
					next.ServeHTTP(w, r)
					return
				}
			}

			metrics.HTTPRequestsInFlight.Inc()
			defer metrics.HTTPRequestsInFlight.Dec()

			wrapped := newMetricsResponseWriter(w, isStreamingPath(r.URL.Path, config.StreamingPrefixes))

			next.ServeHTTP(wrapped, r)

			path := normalizePath(r.URL.Path)
			status := strconv.Itoa(wrapped.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(wrapped.getDuration().Seconds())
		})
	}
}

var staticRoutes = map[string]bool{
	"/root.xml":            true,
	"/connection/desc.xml": true,
	"/content/desc.xml":    true,
	"/content/control":     true,
}

// normalizePath maps a request path onto its route so that item ids do not
// become label values.
func normalizePath(path string) string {
	if staticRoutes[path] {
		return path
	}
	for _, route := range []string{"files", "video", "thumbs"} {
		if strings.HasPrefix(path, "/"+route+"/") {
			return "/" + route + "/{id}"
		}
	}
	return "other"
}
