package filesystem

import (
	"sync/atomic"
	"time"
)

// Attempt describes one try of a filesystem call.
type Attempt struct {
	Op      string // "stat", "open" or "readdir"
	Volume  string
	Try     int // 0 for the first call
	Elapsed time.Duration
	Err     error
}

// Outcome describes a finished call, retries included.
type Outcome struct {
	Op      string
	Volume  string
	Retries int
	Elapsed time.Duration
	Err     error
}

// Observer is told about every attempt and every outcome.
// metrics.NewFilesystemObserver is the Prometheus implementation.
type Observer interface {
	Attempted(Attempt)
	Finished(Outcome)
}

type observerBox struct{ Observer }

var observer atomic.Pointer[observerBox]

// SetObserver registers the process-wide Observer. nil disables observation.
func SetObserver(o Observer) {
	if o == nil {
		observer.Store(nil)
		return
	}
	observer.Store(&observerBox{o})
}

func currentObserver() Observer {
	if b := observer.Load(); b != nil {
		return b.Observer
	}
	return nil
}
