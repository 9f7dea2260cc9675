package metrics

import "dlna-server/internal/filesystem"

type filesystemObserver struct{}

// NewFilesystemObserver records filesystem attempts and retries into the
// Filesystem* collectors.
func NewFilesystemObserver() filesystem.Observer {
	return filesystemObserver{}
}

func (filesystemObserver) Attempted(a filesystem.Attempt) {
	FilesystemOperationDuration.WithLabelValues(a.Volume, a.Op).Observe(a.Elapsed.Seconds())
	if a.Err == nil {
		return
	}
	FilesystemOperationErrors.WithLabelValues(a.Volume, a.Op).Inc()
	if filesystem.IsStale(a.Err) {
		FilesystemStaleErrors.WithLabelValues(a.Op, a.Volume).Inc()
	}
	if a.Try > 0 {
		FilesystemRetryAttempts.WithLabelValues(a.Op, a.Volume).Inc()
	}
}

func (filesystemObserver) Finished(o filesystem.Outcome) {
	if o.Retries == 0 {
		return
	}
	if o.Err == nil {
		FilesystemRetrySuccess.WithLabelValues(o.Op, o.Volume).Inc()
	} else {
		FilesystemRetryFailures.WithLabelValues(o.Op, o.Volume).Inc()
	}
	FilesystemRetryDuration.WithLabelValues(o.Op, o.Volume).Observe(o.Elapsed.Seconds())
}
