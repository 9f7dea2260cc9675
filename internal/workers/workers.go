package workers

import (
	"context"
	"os"
	"runtime"
	"strconv"
	"sync"

	"golang.org/x/sync/semaphore"
)

// EnvOverride names the environment variable that overrides computed worker counts.
const EnvOverride = "TRANSCODE_WORKERS"

// Count returns the number of workers to use based on available CPUs.
// It respects GOMAXPROCS (which Go sets from cgroup limits in containers).
// The multiplier scales the worker count relative to CPUs; limit caps it (0 = no cap).
// Can be overridden with the TRANSCODE_WORKERS environment variable.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForCPU returns a worker count for CPU-bound tasks such as transcoding.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// Pool runs tasks on at most Size goroutines at a time.
type Pool struct {
	sem  *semaphore.Weighted
	size int
	wg   sync.WaitGroup
}

// NewPool creates a pool admitting size concurrent tasks.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Size returns the maximum number of concurrently running tasks.
func (p *Pool) Size() int {
	return p.size
}

// Go runs task on its own goroutine once a slot is free. The caller is not
// blocked while waiting for the slot. If ctx is done before a slot frees up,
// task is called with ctx so it can observe the cancellation and clean up.
func (p *Pool) Go(ctx context.Context, task func(ctx context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.sem.Acquire(ctx, 1); err != nil {
			task(ctx)
			return
		}
		defer p.sem.Release(1)
		task(ctx)
	}()
}

// Wait blocks until every task started with Go has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}
