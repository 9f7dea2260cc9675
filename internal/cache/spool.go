package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"dlna-server/internal/logging"
)

var errSpoolClosed = errors.New("spool closed")

// spool is the append-only backing store of one job. The job goroutine is
// the only writer; readers use ReadAt concurrently.
type spool interface {
	io.Writer
	io.ReaderAt
	Close() error
}

type memSpool struct {
	mu     sync.RWMutex
	buf    []byte
	closed bool
}

func (s *memSpool) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errSpoolClosed
	}
	s.buf = append(s.buf, p...)
	return len(p), nil
}

func (s *memSpool) ReadAt(p []byte, off int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, errSpoolClosed
	}
	if off >= int64(len(s.buf)) {
		return 0, io.EOF
	}
	n := copy(p, s.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (s *memSpool) Close() error {
	s.mu.Lock()
	s.closed = true
	s.buf = nil
	s.mu.Unlock()
	return nil
}

// fileSpool keeps the output in a temporary file that is removed on Close.
type fileSpool struct {
	f *os.File
}

func newFileSpool(dir string) (*fileSpool, error) {
	f, err := os.CreateTemp(dir, "job-*.spool")
	if err != nil {
		return nil, fmt.Errorf("creating spool file: %w", err)
	}
	return &fileSpool{f: f}, nil
}

func (s *fileSpool) Write(p []byte) (int, error) {
	return s.f.Write(p)
}

func (s *fileSpool) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

func (s *fileSpool) Close() error {
	closeErr := s.f.Close()
	if err := os.Remove(s.f.Name()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return closeErr
}

// ClearSpool removes leftover spool files from dir and returns the number
// of bytes freed. A missing directory is not an error.
func ClearSpool(dir string) (int64, error) {
	if dir == "" {
		return 0, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read spool directory: %w", err)
	}

	var freed int64
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".spool" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			logging.Warn("failed to get info for %s: %v", path, err)
			continue
		}
		if err := os.Remove(path); err != nil {
			logging.Warn("failed to remove spool file %s: %v", path, err)
			continue
		}
		freed += info.Size()
	}

	if freed > 0 {
		logging.Info("Cleared transcode spool: freed %d bytes", freed)
	}
	return freed, nil
}
