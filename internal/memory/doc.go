// Package memory keeps the server inside its container memory limit.
//
// [ConfigureFromEnv] sets GOMEMLIMIT from the MEMORY_LIMIT environment
// variable (bytes, typically from the Kubernetes Downward API) scaled by
// MEMORY_RATIO (default 0.85). An explicit GOMEMLIMIT takes precedence.
// Lower the ratio when several ffmpeg processes run at once, since their
// memory lives outside the Go heap.
//
// A [Monitor] samples heap usage against that limit. When usage crosses the
// critical mark it pauses, and the transcode cache waits in
// [Monitor.WaitIfPaused] before starting another encode. Streams already in
// flight are never interrupted. The pause lifts once usage drops below the
// high-water mark.
package memory
