package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, route := range []string{"files", "video", "thumbs"} {
		HTTPBytesStreamed.WithLabelValues(route)
	}

	for _, result := range []string{"ok", "fault", "error"} {
		BrowseRequestsTotal.WithLabelValues(result)
	}

	for _, status := range []string{"started", "completed", "failed", "canceled"} {
		TranscoderJobsTotal.WithLabelValues(status)
	}

	for _, status := range []string{"success", "error"} {
		TranscoderProbesTotal.WithLabelValues(status)
	}

	for _, nts := range []string{"ssdp:alive", "ssdp:byebye"} {
		SSDPAnnouncementsTotal.WithLabelValues(nts)
	}

	for _, status := range []string{"success", "error"} {
		ThumbnailGenerationsTotal.WithLabelValues(status)
	}

	for _, layer := range []string{"memory", "disk"} {
		ThumbnailCacheHits.WithLabelValues(layer)
	}

	for _, typ := range []string{"create", "write", "remove", "rename", "chmod"} {
		MediaWatcherEventsTotal.WithLabelValues(typ)
	}

	volumes := []string{"media", "cache", "unknown"}
	for _, vol := range volumes {
		for _, op := range []string{"stat", "open", "readdir"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}
}
