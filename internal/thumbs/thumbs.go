package thumbs

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"time"

	"dlna-server/internal/filesystem"
	"dlna-server/internal/logging"
	"dlna-server/internal/metrics"

	"github.com/disintegration/imaging"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const (
	// Size is the bounding box of a JPEG_TN thumbnail.
	Size = 160

	jpegQuality = 80

	// DefaultMemoryEntries is how many rendered thumbnails stay in memory.
	DefaultMemoryEntries = 256
)

// Generator renders and caches JPEG thumbnails of image files. Thumbnails
// are keyed by path, size and modification time, so an edited file gets a
// fresh one.
type Generator struct {
	cacheDir string
	memory   *lru.Cache[string, []byte]
	group    singleflight.Group
	fs       filesystem.Policy
}

// New creates a Generator. cacheDir, if not empty, keeps thumbnails across
// restarts; memoryEntries bounds the in-process cache.
func New(cacheDir string, memoryEntries int) *Generator {
	if memoryEntries <= 0 {
		memoryEntries = DefaultMemoryEntries
	}
	// Only errors for a non-positive size.
	memory, _ := lru.New[string, []byte](memoryEntries)

	if cacheDir != "" {
		logging.Debug("Thumbnail generator: cache dir %s", cacheDir)
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			logging.Warn("Thumbnail generator: failed to create cache dir: %v", err)
			cacheDir = ""
		}
	}

	return &Generator{
		cacheDir: cacheDir,
		memory:   memory,
		fs:       filesystem.DefaultPolicy(),
	}
}

// Render returns a JPEG thumbnail of the image at path fitted into
// Size x Size.
func (g *Generator) Render(path string) ([]byte, error) {
	info, err := g.fs.Stat(context.Background(), path)
	if err != nil {
		return nil, fmt.Errorf("file not accessible: %w", err)
	}

	key := fmt.Sprintf("%x", md5.Sum(fmt.Appendf(nil, "%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())))

	if data, ok := g.memory.Get(key); ok {
		metrics.ThumbnailCacheHits.WithLabelValues("memory").Inc()
		return data, nil
	}

	v, err, _ := g.group.Do(key, func() (any, error) {
		if data, ok := g.readDisk(key); ok {
			metrics.ThumbnailCacheHits.WithLabelValues("disk").Inc()
			g.memory.Add(key, data)
			return data, nil
		}

		data, err := g.generate(path)
		if err != nil {
			return nil, err
		}
		g.memory.Add(key, data)
		g.writeDisk(key, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (g *Generator) generate(path string) ([]byte, error) {
	start := time.Now()
	logging.Debug("Thumbnail generating: %s", path)

	img, err := LoadConstrained(path, MaxImageDimension, MaxImagePixels)
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("thumbnail generation failed for %s: %w", path, err)
	}

	thumb := imaging.Fit(img, Size, Size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: jpegQuality}); err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	metrics.ThumbnailGenerationsTotal.WithLabelValues("success").Inc()
	metrics.ThumbnailGenerationDuration.Observe(time.Since(start).Seconds())
	return buf.Bytes(), nil
}

func (g *Generator) cachePath(key string) string {
	return filepath.Join(g.cacheDir, key+".jpg")
}

func (g *Generator) readDisk(key string) ([]byte, bool) {
	if g.cacheDir == "" {
		return nil, false
	}
	data, err := os.ReadFile(g.cachePath(key))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (g *Generator) writeDisk(key string, data []byte) {
	if g.cacheDir == "" {
		return
	}
	p := g.cachePath(key)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		logging.Warn("Failed to cache thumbnail %s: %v", p, err)
		return
	}
	logging.Debug("Thumbnail cached: %s", p)
}
