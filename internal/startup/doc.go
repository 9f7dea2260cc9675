// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig]:
//
//   - FRIENDLY_NAME: Name shown by renderers (default: Go Media Server)
//   - DEVICE_UUID: Device UUID (default: derived from hostname and name, stable across restarts)
//   - ADVERTISE_URI: Base URI announced over SSDP (default: outbound IPv4 plus the BIND_ADDR port)
//   - BIND_ADDR: HTTP listen address (default: :8200)
//   - MEDIA_DIR: Directory served read-only (default: /media)
//   - CACHE_DIR: Directory for thumbnails and transcode spools (default: /cache)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - SSDP_INTERVAL: Announcement interval as Go duration (default: 10s)
//   - SSDP_REPEAT: Copies of each announcement per burst (default: 1)
//   - SSDP_INTERFACE: Network interface for multicast (default: system choice)
//   - TRANSCODE_CACHE_ENTRIES: Completed transcodes kept for repeat requests (default: 8)
//   - TRANSCODE_WORKERS: Concurrent encodes (default: CPU based)
//   - FFMPEG_PATH, FFPROBE_PATH: Binaries used for transcoding (default: from PATH)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_STATIC_FILES: Log media transfer requests (default: false)
//   - MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT: see package memory
//
// # Directory Setup
//
// The media directory must exist. Subdirectories of the cache directory are
// optional: without a writable thumbnails directory thumbnails live in
// memory only, and without a writable transcoded directory transcode output
// is spooled in memory.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Example Usage
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//
//	startup.LogServerStarted(startup.ServerConfig{
//	    URI:             config.URI,
//	    BindAddr:        config.BindAddr,
//	    MetricsPort:     config.MetricsPort,
//	    MetricsEnabled:  config.MetricsEnabled,
//	    StartupDuration: time.Since(startTime),
//	})
package startup
