package streaming

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"dlna-server/internal/logging"
)

var (
	// ErrWriteTimeout is returned when a write blocks past WriteTimeout, no
	// data flows for IdleTimeout, or the stream outlives MaxDuration.
	ErrWriteTimeout = errors.New("write timeout exceeded")

	// ErrClientGone is returned once the request context is canceled.
	ErrClientGone = errors.New("client disconnected")

	// ErrStreamCanceled is returned after Close.
	ErrStreamCanceled = errors.New("stream canceled")
)

// TimeoutWriterConfig bounds how long a response body may stall.
type TimeoutWriterConfig struct {
	// WriteTimeout is the connection write deadline for each Write.
	WriteTimeout time.Duration
	// IdleTimeout cancels the stream when nothing has been written for this
	// long, which covers a transcode that has stopped producing.
	IdleTimeout time.Duration
	// MaxDuration caps the whole stream. Zero is unlimited.
	MaxDuration time.Duration
}

// DefaultTimeoutWriterConfig returns the limits used for media routes.
func DefaultTimeoutWriterConfig() TimeoutWriterConfig {
	return TimeoutWriterConfig{
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// TimeoutWriter writes a response body under TimeoutWriterConfig and
// flushes after every Write so renderers start playing early. Its Context
// is canceled when the stream ends for any reason; producers feeding it
// should use that context.
type TimeoutWriter struct {
	w      http.ResponseWriter
	rc     *http.ResponseController
	config TimeoutWriterConfig
	ctx    context.Context
	cancel context.CancelCauseFunc
	start  time.Time
	timers []*time.Timer

	mu      sync.Mutex // serializes writes; guards the fields below
	idle    *time.Timer
	written int64
	closed  bool
}

// NewTimeoutWriter wraps w. ctx is normally the request context.
func NewTimeoutWriter(ctx context.Context, w http.ResponseWriter, config TimeoutWriterConfig) *TimeoutWriter {
	ctx, cancel := context.WithCancelCause(ctx)
	tw := &TimeoutWriter{
		w:      w,
		rc:     http.NewResponseController(w),
		config: config,
		ctx:    ctx,
		cancel: cancel,
		start:  time.Now(),
	}

	if config.IdleTimeout > 0 {
		tw.idle = time.AfterFunc(config.IdleTimeout, func() {
			logging.Warn("Stream idle for %v, canceling", config.IdleTimeout)
			cancel(ErrWriteTimeout)
		})
		tw.timers = append(tw.timers, tw.idle)
	}
	if config.MaxDuration > 0 {
		tw.timers = append(tw.timers, time.AfterFunc(config.MaxDuration, func() {
			logging.Warn("Stream exceeded %v, canceling", config.MaxDuration)
			cancel(ErrWriteTimeout)
		}))
	}

	return tw
}

// Context is done once the stream can no longer be written.
func (tw *TimeoutWriter) Context() context.Context {
	return tw.ctx
}

// Err reports why the stream stopped, or nil while it is still writable.
func (tw *TimeoutWriter) Err() error {
	if tw.ctx.Err() == nil {
		return nil
	}
	cause := context.Cause(tw.ctx)
	switch {
	case errors.Is(cause, ErrWriteTimeout), errors.Is(cause, ErrStreamCanceled):
		return cause
	case errors.Is(cause, context.Canceled):
		return ErrClientGone
	default:
		return ErrStreamCanceled
	}
}

// Write implements io.Writer.
func (tw *TimeoutWriter) Write(p []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.closed {
		return 0, ErrStreamCanceled
	}
	if err := tw.Err(); err != nil {
		return 0, err
	}

	if tw.config.WriteTimeout > 0 {
		// Recorders and some wrappers have no deadline support.
		_ = tw.rc.SetWriteDeadline(time.Now().Add(tw.config.WriteTimeout))
	}
	n, err := tw.w.Write(p)
	tw.written += int64(n)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			tw.cancel(ErrWriteTimeout)
			return n, ErrWriteTimeout
		}
		if cerr := tw.Err(); cerr != nil {
			return n, cerr
		}
		return n, err
	}

	if tw.idle != nil {
		tw.idle.Reset(tw.config.IdleTimeout)
	}
	_ = tw.rc.Flush()
	return n, nil
}

// Close stops the timers, cancels Context and clears the write deadline so
// the connection can be reused. Safe to call more than once.
func (tw *TimeoutWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.closed {
		return nil
	}
	tw.closed = true
	for _, t := range tw.timers {
		t.Stop()
	}
	tw.cancel(ErrStreamCanceled)

	if tw.config.WriteTimeout > 0 {
		_ = tw.rc.SetWriteDeadline(time.Time{})
	}
	return nil
}

// Stats returns the bytes written so far and the stream's age.
func (tw *TimeoutWriter) Stats() (written int64, elapsed time.Duration) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.written, time.Since(tw.start)
}
