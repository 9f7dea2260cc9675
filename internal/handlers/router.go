package handlers

import (
	"net/http"

	"dlna-server/internal/logging"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every route of the device. Ids arrive percent-encoded
// and may contain encoded slashes, so matching runs on the raw path. Only
// the device description is method checked; renderers reach the other
// routes with whatever method they like.
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.UseEncodedPath()
	r.NotFoundHandler = http.HandlerFunc(notFound)

	r.HandleFunc("/root.xml", h.errorHandler(h.DeviceDescription)).Methods(http.MethodGet).Name("description")

	r.HandleFunc("/connection/desc.xml", h.errorHandler(h.ConnectionManagerDescription))

	r.HandleFunc("/content/desc.xml", h.errorHandler(h.ContentDirectoryDescription))
	r.HandleFunc("/content/control", h.errorHandler(h.content.Control)).Name("control")

	r.HandleFunc("/files/{id:.+}", h.errorHandler(h.GetFile)).Name("files")
	r.HandleFunc("/video/{id:.+}", h.errorHandler(h.StreamVideo)).Name("video")
	r.HandleFunc("/thumbs/{id:.+}", h.errorHandler(h.GetThumbnail)).Name("thumbs")

	return r
}

func notFound(w http.ResponseWriter, r *http.Request) {
	logging.Debug("No route for %s %s", r.Method, r.URL.EscapedPath())
	http.Error(w, "Not Found", http.StatusNotFound)
}

// NewMetricsRouter serves Prometheus metrics and health endpoints.
func NewMetricsRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)
	return r
}
