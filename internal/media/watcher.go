package media

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"dlna-server/internal/logging"
	"dlna-server/internal/metrics"

	"github.com/fsnotify/fsnotify"
)

// Watch keeps directory listings cached and drops a listing whenever the
// directory changes. Without a running Watch every Browse reads the
// directory again. It blocks until ctx is done.
func (t *FileTree) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		metrics.MediaWatcherErrors.Inc()
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logging.Error("failed to close file watcher: %v", err)
		}
	}()

	count := t.addDirectories(watcher, t.root)
	metrics.MediaWatchedDirectories.Set(float64(count))
	logging.Debug("Media watcher started, watching %d directories", count)

	t.mu.Lock()
	t.watching = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.watching = false
		clear(t.listings)
		t.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			t.handleEvent(watcher, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error("Watcher error: %v", err)
			metrics.MediaWatcherErrors.Inc()
		}
	}
}

// addDirectories watches dir and every non-hidden directory below it.
func (t *FileTree) addDirectories(watcher *fsnotify.Watcher, dir string) int {
	count := 0
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if addErr := watcher.Add(p); addErr != nil {
			logging.Warn("failed to add path to watcher %s: %v", p, addErr)
			metrics.MediaWatcherErrors.Inc()
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		logging.Error("failed to walk media directory for watcher: %v", err)
		metrics.MediaWatcherErrors.Inc()
	}
	return count
}

func (t *FileTree) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event) {
	rel, err := filepath.Rel(t.root, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	rel = filepath.ToSlash(rel)

	metrics.MediaWatcherEventsTotal.WithLabelValues(eventType(event.Op)).Inc()

	// The entry's own listing (if it was a directory) and its parent's.
	t.Invalidate(rel)
	parent := filepath.ToSlash(filepath.Dir(rel))
	if parent == "." {
		parent = RootID
	}
	t.Invalidate(parent)

	if event.Op&fsnotify.Create != 0 {
		info, err := os.Stat(event.Name)
		if err == nil && info.IsDir() && !strings.HasPrefix(info.Name(), ".") {
			n := t.addDirectories(watcher, event.Name)
			metrics.MediaWatchedDirectories.Add(float64(n))
			logging.Debug("Added new directory to watcher: %s", event.Name)
		}
	}
}

func eventType(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	case op&fsnotify.Chmod != 0:
		return "chmod"
	default:
		return "unknown"
	}
}
