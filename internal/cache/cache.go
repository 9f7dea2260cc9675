package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"dlna-server/internal/devices"
	"dlna-server/internal/logging"
	"dlna-server/internal/metrics"
	"dlna-server/internal/streaming"
	"dlna-server/internal/transcoder"
	"dlna-server/internal/workers"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

var (
	// ErrTranscodeFailed is returned to every reader of a job whose encoder
	// failed. The cause is wrapped alongside it.
	ErrTranscodeFailed = errors.New("transcode failed")

	// ErrClosed is returned by Resolve after Close.
	ErrClosed = errors.New("transcode cache closed")
)

// Encoder produces the output for one job. transcoder.Transcoder is the
// production implementation.
type Encoder interface {
	Encode(ctx context.Context, src transcoder.SourceFormat, target transcoder.Target, w io.Writer) error
}

// Gate holds back new encodes, e.g. under memory pressure.
// memory.Monitor implements it.
type Gate interface {
	WaitIfPaused(ctx context.Context) error
}

// Key identifies one cached output.
type Key struct {
	ItemID  string
	Target  transcoder.Target
	Profile devices.Profile
}

// Options configures a Cache.
type Options struct {
	// SpoolDir holds job output files. Empty keeps output in memory.
	SpoolDir string
	// Retain is how many completed, unreferenced outputs are kept for
	// repeat requests. Zero drops them as soon as the last reader leaves.
	Retain int
	// Workers bounds concurrent encodes. Zero sizes the pool from the CPU count.
	Workers int
	// Gate, if set, is waited on before each encode starts.
	Gate Gate
}

// Cache deduplicates transcodes: all concurrent requests for one Key share
// a single job, and readers can stream its output while it is produced.
type Cache struct {
	enc      Encoder
	gate     Gate
	pool     *workers.Pool
	spoolDir string
	ctx      context.Context
	cancel   context.CancelFunc

	mu     sync.Mutex
	jobs   map[Key]*job
	idle   *simplelru.LRU[Key, *job] // completed jobs without readers; nil when nothing is retained
	retain int
	closed bool
}

// New creates a Cache that runs enc for every miss.
func New(enc Encoder, opts Options) *Cache {
	size := opts.Workers
	if size <= 0 {
		size = workers.ForCPU(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		enc:      enc,
		gate:     opts.Gate,
		pool:     workers.NewPool(size),
		spoolDir: opts.SpoolDir,
		ctx:      ctx,
		cancel:   cancel,
		jobs:     make(map[Key]*job),
		retain:   opts.Retain,
	}

	if opts.Retain > 0 {
		// Only errors for a non-positive size.
		c.idle, _ = simplelru.NewLRU[Key, *job](opts.Retain, nil)
	}

	logging.Debug("Transcode cache: %d workers, retain=%d, spool=%q", size, opts.Retain, opts.SpoolDir)
	return c
}

// Resolve returns a handle on the output of src encoded for target and
// profile, starting a job only if none exists for that key. The handle
// must be closed.
func (c *Cache) Resolve(itemID string, src transcoder.SourceFormat, target transcoder.Target, profile devices.Profile) (*Handle, error) {
	key := Key{ItemID: itemID, Target: target, Profile: profile}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}

	if j, ok := c.jobs[key]; ok {
		if j.refs == 0 && c.idle != nil {
			c.idle.Remove(key)
		}
		j.refs++
		c.mu.Unlock()

		metrics.TranscodeCacheHits.Inc()
		return &Handle{c: c, j: j}, nil
	}

	ctx, cancel := context.WithCancel(c.ctx)
	j := newJob(key, cancel)
	j.refs = 1
	c.jobs[key] = j
	c.mu.Unlock()

	metrics.TranscodeCacheMisses.Inc()
	metrics.TranscoderJobsTotal.WithLabelValues("started").Inc()
	logging.Info("Transcode started: %s (video=%s audio=%s format=%s profile=%s)",
		itemID, target.VideoCodec, target.AudioCodec, target.Container, profile.Name)

	c.pool.Go(ctx, func(ctx context.Context) {
		c.run(ctx, j, src)
	})

	return &Handle{c: c, j: j}, nil
}

func (c *Cache) newSpool() (spool, error) {
	if c.spoolDir == "" {
		return &memSpool{}, nil
	}
	return newFileSpool(c.spoolDir)
}

func (c *Cache) run(ctx context.Context, j *job, src transcoder.SourceFormat) {
	defer j.cancel()

	err := ctx.Err()
	if err == nil && c.gate != nil {
		err = c.gate.WaitIfPaused(ctx)
	}
	if err == nil {
		var s spool
		if s, err = c.newSpool(); err == nil {
			j.setSpool(s)
			err = c.enc.Encode(ctx, src, j.key.Target, j)
		}
	}

	if ctx.Err() != nil {
		metrics.TranscoderJobsTotal.WithLabelValues("canceled").Inc()
		logging.Debug("Transcode canceled: %s", j.key.ItemID)
		c.fail(j, ctx.Err())
		return
	}

	if err != nil {
		metrics.TranscoderJobsTotal.WithLabelValues("failed").Inc()
		logging.Error("Transcode failed for %s: %v", j.key.ItemID, err)
		c.fail(j, err)
		return
	}

	j.finish(nil)

	elapsed := time.Since(j.started)
	metrics.TranscoderJobsTotal.WithLabelValues("completed").Inc()
	metrics.TranscoderJobDuration.Observe(elapsed.Seconds())
	logging.Info("Transcode completed: %s (%d bytes in %v)", j.key.ItemID, j.snapshot().written, elapsed.Round(time.Millisecond))
}

// fail evicts the job and then makes it terminal for its readers. A reader
// that sees the error and resolves again always gets a fresh job.
func (c *Cache) fail(j *job, cause error) {
	c.mu.Lock()
	if c.jobs[j.key] == j {
		delete(c.jobs, j.key)
	}
	c.mu.Unlock()

	j.finish(fmt.Errorf("%w: %w", ErrTranscodeFailed, cause))
	j.discard()
}

// release drops one reference. The last reader of a running job cancels it;
// a completed job moves to the idle list.
func (c *Cache) release(j *job) {
	var evicted []*job

	c.mu.Lock()
	j.refs--
	if j.refs > 0 || c.jobs[j.key] != j {
		c.mu.Unlock()
		return
	}

	s := j.snapshot()
	switch {
	case !s.done:
		delete(c.jobs, j.key)
		j.cancel()
	case c.idle == nil:
		delete(c.jobs, j.key)
		evicted = append(evicted, j)
	default:
		for c.idle.Len() >= c.retain {
			k, old, ok := c.idle.RemoveOldest()
			if !ok {
				break
			}
			delete(c.jobs, k)
			evicted = append(evicted, old)
		}
		c.idle.Add(j.key, j)
	}
	c.mu.Unlock()

	for _, old := range evicted {
		logging.Debug("Transcode output evicted: %s", old.key.ItemID)
		old.discard()
	}
}

// Stats reports the current table for the metrics collector.
func (c *Cache) Stats() metrics.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stats metrics.Stats
	stats.Entries = len(c.jobs)
	for _, j := range c.jobs {
		s := j.snapshot()
		if !s.done {
			stats.Running++
		}
		stats.Readers += j.refs
		stats.Bytes += int64(s.written)
	}
	return stats
}

// Close cancels every job, waits for the encoders to exit and releases all
// spools. Open handles fail on their next read.
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	jobs := make([]*job, 0, len(c.jobs))
	for _, j := range c.jobs {
		jobs = append(jobs, j)
	}
	clear(c.jobs)
	if c.idle != nil {
		c.idle.Purge()
	}
	c.mu.Unlock()

	c.cancel()
	c.pool.Wait()

	for _, j := range jobs {
		j.finish(ErrClosed)
		j.discard()
	}
	return nil
}

// Handle is one reader's view of a job. It implements streaming.Media.
type Handle struct {
	c    *Cache
	j    *job
	once sync.Once
}

// Size implements streaming.Media. Total is set once the job has completed.
func (h *Handle) Size() streaming.Size {
	return h.j.size()
}

// ReadAll implements streaming.Media, following the job until it finishes.
func (h *Handle) ReadAll(ctx context.Context) <-chan streaming.Chunk {
	return h.ReadRange(ctx, 0, math.MaxUint64)
}

// ReadRange implements streaming.Media. It blocks only while the requested
// bytes have not been produced yet.
func (h *Handle) ReadRange(ctx context.Context, start, end uint64) <-chan streaming.Chunk {
	return streaming.Produce(ctx, func(emit func([]byte) bool) error {
		return h.j.copyRange(ctx, start, end, emit)
	})
}

// Wait blocks until at least n bytes are available, the job finishes, or
// ctx is done. It returns the job's error, if any.
func (h *Handle) Wait(ctx context.Context, n uint64) error {
	for {
		s := h.j.snapshot()
		if s.err != nil {
			return s.err
		}
		if s.written >= n || s.done {
			return nil
		}
		select {
		case <-s.notify:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close releases the handle. Safe to call more than once.
func (h *Handle) Close() error {
	h.once.Do(func() {
		h.c.release(h.j)
	})
	return nil
}
