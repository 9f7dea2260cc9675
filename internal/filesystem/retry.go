package filesystem

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"syscall"
	"time"

	"dlna-server/internal/logging"
)

// Policy retries calls that fail with a stale NFS handle.
type Policy struct {
	Retries    int
	Backoff    time.Duration // first wait; doubles per retry
	MaxBackoff time.Duration
	// Volumes labels observations. nil uses the process default.
	Volumes *Volumes
}

// DefaultPolicy retries three times, waiting 50ms, 100ms then 200ms.
func DefaultPolicy() Policy {
	return Policy{
		Retries:    3,
		Backoff:    50 * time.Millisecond,
		MaxBackoff: 500 * time.Millisecond,
	}
}

// IsStale reports whether err carries ESTALE.
func IsStale(err error) bool {
	return errors.Is(err, syscall.ESTALE)
}

// Stat is os.Stat under p.
func (p Policy) Stat(ctx context.Context, path string) (fs.FileInfo, error) {
	return do(ctx, p, "stat", path, func() (fs.FileInfo, error) {
		return os.Stat(path)
	})
}

// Open is os.Open under p.
func (p Policy) Open(ctx context.Context, path string) (*os.File, error) {
	return do(ctx, p, "open", path, func() (*os.File, error) {
		return os.Open(path)
	})
}

// ReadDir is os.ReadDir under p.
func (p Policy) ReadDir(ctx context.Context, path string) ([]os.DirEntry, error) {
	return do(ctx, p, "readdir", path, func() ([]os.DirEntry, error) {
		return os.ReadDir(path)
	})
}

func (p Policy) volume(path string) string {
	if p.Volumes != nil {
		return p.Volumes.Name(path)
	}
	return defaultVolumes.Load().Name(path)
}

func do[T any](ctx context.Context, p Policy, op, path string, fn func() (T, error)) (T, error) {
	obs := currentObserver()
	volume := p.volume(path)
	start := time.Now()
	wait := p.Backoff

	var (
		result T
		err    error
		try    int
	)
	for ; ; try++ {
		began := time.Now()
		result, err = fn()
		if obs != nil {
			obs.Attempted(Attempt{Op: op, Volume: volume, Try: try, Elapsed: time.Since(began), Err: err})
		}
		if err == nil || !IsStale(err) || try == p.Retries {
			break
		}

		logging.Debug("Stale NFS handle on %s %s, retry %d/%d in %v", op, path, try+1, p.Retries, wait)
		if werr := sleep(ctx, wait); werr != nil {
			err = werr
			break
		}
		wait *= 2
		if p.MaxBackoff > 0 && wait > p.MaxBackoff {
			wait = p.MaxBackoff
		}
	}

	switch {
	case try > 0 && err == nil:
		logging.Info("%s %s succeeded after %d retries", op, path, try)
	case try > 0:
		logging.Warn("%s %s failed after %d retries: %v", op, path, try, err)
	}
	if obs != nil {
		obs.Finished(Outcome{Op: op, Volume: volume, Retries: try, Elapsed: time.Since(start), Err: err})
	}

	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
