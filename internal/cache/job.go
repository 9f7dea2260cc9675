package cache

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"dlna-server/internal/streaming"
)

// job is one transcode and its growing output. Everything below mu is
// written by the job goroutine and read by any number of handles; refs is
// owned by the Cache lock.
type job struct {
	key     Key
	cancel  context.CancelFunc
	started time.Time
	refs    int

	mu      sync.Mutex
	spool   spool
	written uint64
	done    bool
	err     error
	notify  chan struct{} // closed and replaced whenever the state changes

	discardOnce sync.Once
}

func newJob(key Key, cancel context.CancelFunc) *job {
	return &job{
		key:     key,
		cancel:  cancel,
		started: time.Now(),
		notify:  make(chan struct{}),
	}
}

// broadcast wakes every waiting reader. Callers hold j.mu.
func (j *job) broadcast() {
	close(j.notify)
	j.notify = make(chan struct{})
}

func (j *job) setSpool(s spool) {
	j.mu.Lock()
	j.spool = s
	j.mu.Unlock()
}

// Write appends encoder output. It implements io.Writer for the Encoder.
func (j *job) Write(p []byte) (int, error) {
	j.mu.Lock()
	s := j.spool
	j.mu.Unlock()
	if s == nil {
		return 0, errSpoolClosed
	}

	n, err := s.Write(p)

	j.mu.Lock()
	j.written += uint64(n)
	if n > 0 {
		j.broadcast()
	}
	j.mu.Unlock()

	return n, err
}

func (j *job) finish(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.done {
		return
	}
	j.done = true
	j.err = err
	j.broadcast()
}

type snapshot struct {
	spool   spool
	written uint64
	done    bool
	err     error
	notify  <-chan struct{}
}

func (j *job) snapshot() snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return snapshot{
		spool:   j.spool,
		written: j.written,
		done:    j.done,
		err:     j.err,
		notify:  j.notify,
	}
}

// discard releases the spool. Safe to call more than once.
func (j *job) discard() {
	j.discardOnce.Do(func() {
		j.mu.Lock()
		s := j.spool
		j.spool = nil
		j.mu.Unlock()

		if s != nil {
			_ = s.Close()
		}
	})
}

func (j *job) size() streaming.Size {
	s := j.snapshot()
	if s.done && s.err == nil {
		return streaming.KnownSize(s.written)
	}
	return streaming.Size{Available: s.written}
}

// copyRange emits bytes start..end inclusive, waiting for the encoder when
// it has not produced them yet. It stops early at the end of a finished job.
func (j *job) copyRange(ctx context.Context, start, end uint64, emit func([]byte) bool) error {
	off := start

	for off <= end {
		s := j.snapshot()
		if s.err != nil {
			return s.err
		}

		if off < s.written {
			if s.spool == nil {
				return errSpoolClosed
			}
			limit := s.written
			if end < limit-1 {
				limit = end + 1
			}
			n := limit - off
			if n > streaming.ChunkSize {
				n = streaming.ChunkSize
			}

			buf := make([]byte, n)
			read, err := s.spool.ReadAt(buf, int64(off))
			if read > 0 {
				if !emit(buf[:read]) {
					return nil
				}
				off += uint64(read)
			}
			if err != nil && !errors.Is(err, io.EOF) {
				// A failed job closes its spool under running readers.
				if jerr := j.snapshot().err; jerr != nil {
					return jerr
				}
				return err
			}
			continue
		}

		if s.done {
			return nil
		}

		select {
		case <-s.notify:
		case <-ctx.Done():
			return nil
		}
	}

	return nil
}
