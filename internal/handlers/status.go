package handlers

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"dlna-server/internal/logging"
	"dlna-server/internal/startup"
)

const statusHealthy = "healthy"

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status     string          `json:"status"`
	Version    string          `json:"version"`
	Uptime     string          `json:"uptime"`
	Goroutines int             `json:"goroutines"`
	Transcodes TranscodeHealth `json:"transcodes"`
}

// TranscodeHealth summarises the transcode cache.
type TranscodeHealth struct {
	Entries int   `json:"entries"`
	Running int   `json:"running"`
	Readers int   `json:"readers"`
	Bytes   int64 `json:"bytes"`
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	s := h.transcodes.Stats()
	writeJSON(w, r, HealthResponse{
		Status:     statusHealthy,
		Version:    startup.Version,
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		Transcodes: TranscodeHealth{
			Entries: s.Entries,
			Running: s.Running,
			Readers: s.Readers,
			Bytes:   s.Bytes,
		},
	})
}

// LivenessCheck answers as long as the process serves HTTP.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]string{"status": "alive"})
}

func (h *Handlers) GetVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, r, startup.GetBuildInfo())
}

// writeJSON sends v with status 200. HEAD requests get the headers only.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Writing %s response: %v", r.URL.Path, err)
	}
}
