// Package metrics provides Prometheus instrumentation for the media server.
//
// All metrics are prefixed with "dlna_server_" and registered with the default
// registry through promauto.
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: Counter of total requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//   - HTTPBytesStreamed: Counter of media body bytes by route
//
// ## ContentDirectory Metrics
//
//   - BrowseRequestsTotal: Counter of control requests by result (ok/fault/error)
//   - BrowseObjectsReturned: Histogram of DIDL-Lite objects per Browse
//
// ## Transcoder and Cache Metrics
//
//   - TranscoderJobsTotal: Counter by status (started/completed/failed/canceled)
//   - TranscoderJobDuration: Histogram of job duration
//   - TranscoderJobsInProgress: Gauge of running jobs
//   - TranscoderProbesTotal: Counter of ffprobe invocations
//   - TranscodeCacheHits / TranscodeCacheMisses: resolves attached vs. started
//   - TranscodeCacheEntries, TranscodeCacheReaders, TranscodeCacheBytes: gauges
//     refreshed by the [Collector]
//
// ## SSDP Metrics
//
//   - SSDPAnnouncementsTotal: Counter of NOTIFY datagrams by NTS
//   - SSDPSendErrors: Counter of failed sends
//   - SSDPTruncatedWrites: Counter of partially written datagrams
//
// ## Thumbnail Metrics
//
//   - ThumbnailGenerationsTotal: Counter of renders by status
//   - ThumbnailGenerationDuration: Histogram of render time
//   - ThumbnailCacheHits: Counter of cache hits by layer (memory/disk)
//
// ## Media Watcher Metrics
//
//   - MediaWatchedDirectories: Gauge of directories under watch
//   - MediaWatcherEventsTotal: Counter of filesystem events by type
//   - MediaWatcherErrors: Counter of watcher failures
//
// ## Memory Metrics
//
//   - MemoryUsageRatio: Gauge of heap usage against the limit
//   - MemoryPaused: Gauge, 1 while transcode admission is held
//   - MemoryGCPauses: Counter of pauses
//
// ## Filesystem Metrics
//
// Recorded through NewFilesystemObserver, which the filesystem package calls
// for every stat/open/readdir attempt and once per finished call.
//
// # Usage
//
// Mount promhttp.Handler() on the metrics listener:
//
//	mux.Handle("/metrics", promhttp.Handler())
//
// # Collector
//
// The [Collector] periodically gathers statistics from a [StatsProvider]
// (the transcode cache) and updates the corresponding gauges:
//
//	collector := metrics.NewCollector(transcodeCache, 15*time.Second)
//	collector.Start()
//	defer collector.Stop()
//
// # Prometheus Queries
//
// Transcode cache hit rate:
//
//	rate(dlna_server_transcode_cache_hits_total[5m]) /
//	(rate(dlna_server_transcode_cache_hits_total[5m]) + rate(dlna_server_transcode_cache_misses_total[5m]))
//
// Failed transcodes:
//
//	rate(dlna_server_transcoder_jobs_total{status="failed"}[1h])
package metrics
