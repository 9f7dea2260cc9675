package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlna_server_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dlna_server_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dlna_server_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	HTTPBytesStreamed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlna_server_http_bytes_streamed_total",
			Help: "Total number of media body bytes written to clients",
		},
		[]string{"route"}, // "files", "video"
	)
)

// ContentDirectory metrics
var (
	BrowseRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlna_server_browse_requests_total",
			Help: "Total number of ContentDirectory control requests by result",
		},
		[]string{"result"}, // "ok", "fault", "error"
	)

	BrowseObjectsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dlna_server_browse_objects_returned",
			Help:    "Number of DIDL-Lite objects returned per Browse",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)
)

// Transcoder metrics
var (
	TranscoderJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlna_server_transcoder_jobs_total",
			Help: "Total number of transcoding jobs",
		},
		[]string{"status"}, // "started", "completed", "failed", "canceled"
	)

	TranscoderJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dlna_server_transcoder_job_duration_seconds",
			Help:    "Transcoding job duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
		},
	)

	TranscoderJobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dlna_server_transcoder_jobs_in_progress",
			Help: "Number of transcoding jobs currently in progress",
		},
	)

	TranscoderProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlna_server_transcoder_probes_total",
			Help: "Total number of ffprobe invocations",
		},
		[]string{"status"},
	)
)

// Transcode cache metrics
var (
	TranscodeCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dlna_server_transcode_cache_hits_total",
			Help: "Total number of resolves attached to an existing job",
		},
	)

	TranscodeCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dlna_server_transcode_cache_misses_total",
			Help: "Total number of resolves that started a new job",
		},
	)

	TranscodeCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dlna_server_transcode_cache_entries",
			Help: "Number of jobs in the transcode cache",
		},
	)

	TranscodeCacheReaders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dlna_server_transcode_cache_readers",
			Help: "Number of handles attached to transcode jobs",
		},
	)

	TranscodeCacheBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dlna_server_transcode_cache_bytes",
			Help: "Bytes of transcoded output held by the cache",
		},
	)
)

// SSDP metrics
var (
	SSDPAnnouncementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlna_server_ssdp_announcements_total",
			Help: "Total number of SSDP NOTIFY datagrams sent",
		},
		[]string{"nts"}, // "ssdp:alive", "ssdp:byebye"
	)

	SSDPSendErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dlna_server_ssdp_send_errors_total",
			Help: "Total number of failed SSDP datagram sends",
		},
	)

	SSDPTruncatedWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dlna_server_ssdp_truncated_writes_total",
			Help: "Total number of SSDP datagrams only partially written",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlna_server_thumbnail_generations_total",
			Help: "Total number of thumbnails rendered",
		},
		[]string{"status"}, // "success", "error"
	)

	ThumbnailGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dlna_server_thumbnail_generation_duration_seconds",
			Help:    "Time spent rendering one thumbnail",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	ThumbnailCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlna_server_thumbnail_cache_hits_total",
			Help: "Total number of thumbnails served from a cache",
		},
		[]string{"layer"}, // "memory", "disk"
	)
)

// Media tree watcher metrics
var (
	MediaWatchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dlna_server_media_watched_directories",
			Help: "Number of media directories watched for changes",
		},
	)

	MediaWatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlna_server_media_watcher_events_total",
			Help: "Total number of filesystem events seen by the media watcher",
		},
		[]string{"type"},
	)

	MediaWatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dlna_server_media_watcher_errors_total",
			Help: "Total number of media watcher errors",
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dlna_server_memory_usage_ratio",
			Help: "Heap usage as a share of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dlna_server_memory_paused",
			Help: "1 while new transcodes are held back for memory pressure",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dlna_server_memory_gc_pauses_total",
			Help: "Total number of times memory pressure held back transcodes",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dlna_server_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlna_server_filesystem_operation_errors_total",
			Help: "Total number of failed filesystem operations",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlna_server_filesystem_retry_attempts_total",
			Help: "Total number of filesystem retries after a stale NFS handle",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlna_server_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlna_server_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlna_server_filesystem_stale_errors_total",
			Help: "Total number of ESTALE errors observed",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dlna_server_filesystem_retry_duration_seconds",
			Help:    "Total time spent in retried filesystem operations",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dlna_server_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
