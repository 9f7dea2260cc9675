package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats is a snapshot of the transcode cache table.
type Stats struct {
	Entries int
	Running int
	Readers int
	Bytes   int64
}

// StatsProvider is sampled by a Collector. cache.Cache implements it.
type StatsProvider interface {
	Stats() Stats
}

// StatsFunc adapts a function to StatsProvider.
type StatsFunc func() Stats

func (f StatsFunc) Stats() Stats { return f() }

// Collector copies a StatsProvider snapshot into the cache gauges on a fixed
// interval. Gauges are set once when Start is called.
type Collector struct {
	provider StatsProvider
	interval time.Duration

	started  atomic.Bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		provider: provider,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (c *Collector) Start() {
	if c.started.CompareAndSwap(false, true) {
		go c.run()
	}
}

// Stop ends collection and waits for an in-flight sample to finish. It may
// be called more than once, and before Start.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	if c.started.Load() {
		<-c.done
	}
}

func (c *Collector) run() {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		c.collect()
		select {
		case <-ticker.C:
		case <-c.stop:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.provider == nil {
		return
	}
	s := c.provider.Stats()

	TranscodeCacheEntries.Set(float64(s.Entries))
	TranscoderJobsInProgress.Set(float64(s.Running))
	TranscodeCacheReaders.Set(float64(s.Readers))
	TranscodeCacheBytes.Set(float64(s.Bytes))
}
