package workers

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCount(t *testing.T) {
	t.Setenv(EnvOverride, "")
	procs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		want       int
	}{
		{name: "one per CPU", multiplier: 1.0, limit: 0, want: procs},
		{name: "capped", multiplier: 100.0, limit: 3, want: min(procs*100, 3)},
		{name: "never zero", multiplier: 0.0001, limit: 0, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(tt.multiplier, tt.limit); got != tt.want {
				t.Errorf("Count(%v, %d) = %d, want %d", tt.multiplier, tt.limit, got, tt.want)
			}
		})
	}
}

func TestCountEnvOverride(t *testing.T) {
	tests := []struct {
		envValue string
		limit    int
		want     int
	}{
		{"4", 0, 4},
		{"16", 8, 8},
		{"invalid", 1, 1},
		{"-3", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.envValue, func(t *testing.T) {
			t.Setenv(EnvOverride, tt.envValue)
			if got := Count(1.0, tt.limit); got != tt.want {
				t.Errorf("Count(1.0, %d) with %s=%s = %d, want %d", tt.limit, EnvOverride, tt.envValue, got, tt.want)
			}
		})
	}
}

func TestForCPUCapped(t *testing.T) {
	t.Setenv(EnvOverride, "")
	if got := ForCPU(1); got != 1 {
		t.Errorf("ForCPU(1) = %d, want 1", got)
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	pool := NewPool(2)
	if pool.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", pool.Size())
	}

	var running, peak int32
	release := make(chan struct{})

	for i := 0; i < 6; i++ {
		pool.Go(context.Background(), func(context.Context) {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			<-release
			atomic.AddInt32(&running, -1)
		})
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	pool.Wait()

	if peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
}

func TestPoolCanceledWhileQueued(t *testing.T) {
	pool := NewPool(1)
	block := make(chan struct{})
	pool.Go(context.Background(), func(context.Context) { <-block })

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	var sawErr error
	done := make(chan struct{})
	pool.Go(ctx, func(ctx context.Context) {
		mu.Lock()
		sawErr = ctx.Err()
		mu.Unlock()
		close(done)
	})

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("queued task was not released on cancellation")
	}
	close(block)
	pool.Wait()

	mu.Lock()
	defer mu.Unlock()
	if sawErr == nil {
		t.Error("expected queued task to observe a canceled context")
	}
}

func TestNewPoolMinimumSize(t *testing.T) {
	if got := NewPool(0).Size(); got != 1 {
		t.Errorf("NewPool(0).Size() = %d, want 1", got)
	}
}
