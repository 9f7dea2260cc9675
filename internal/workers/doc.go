/*
Package workers sizes and runs bounded worker pools in containerized environments.

# Sizing

runtime.NumCPU() returns the host CPU count even when a container is limited
to a fraction of it. The helpers here use GOMAXPROCS instead, which Go sets
from cgroup limits:

	numWorkers := workers.ForCPU(8) // transcodes: one per CPU, max 8

The TRANSCODE_WORKERS environment variable overrides the computed value
(still capped by the limit):

	env:
	- name: TRANSCODE_WORKERS
	  value: "2"

# Pool

Pool admits at most Size tasks at a time using a weighted semaphore from
golang.org/x/sync. Go never blocks the caller, so request handlers can hand
off blocking work and return to streaming:

	pool := workers.NewPool(workers.ForCPU(4))
	pool.Go(ctx, func(ctx context.Context) {
		if ctx.Err() != nil {
			return // canceled while queued
		}
		runTranscode(ctx)
	})
*/
package workers
