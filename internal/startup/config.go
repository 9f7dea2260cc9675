package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dlna-server/internal/logging"

	"github.com/google/uuid"
)

// Config is the server configuration, read from the environment.
type Config struct {
	Name     string // FRIENDLY_NAME
	UUID     string // DEVICE_UUID, or derived from host and name
	URI      string // advertised base URI, no trailing slash
	BindAddr string

	MediaDir       string
	CacheDir       string
	MetricsPort    string
	MetricsEnabled bool
	LogStaticFiles bool

	AnnounceInterval time.Duration
	AnnounceRepeat   int
	SSDPInterface    string

	CacheEntries int // completed transcodes kept for replay
	FFmpegPath   string
	FFprobePath  string

	ThumbnailDir      string
	ThumbnailsEnabled bool

	TranscodeDir string
	// SpoolToDisk is false when TranscodeDir is unusable; transcodes are
	// then held in memory.
	SpoolToDisk bool
}

const (
	defaultInterval = 10 * time.Second
	defaultBindAddr = ":8200"
)

// LoadConfig reads the environment, validates it and prepares the cache
// directories. Only a missing media directory or a bad DEVICE_UUID is fatal.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	c := &Config{
		Name:             getEnv("FRIENDLY_NAME", "Go Media Server"),
		UUID:             getEnv("DEVICE_UUID", ""),
		BindAddr:         getEnv("BIND_ADDR", defaultBindAddr),
		MediaDir:         getEnv("MEDIA_DIR", "/media"),
		CacheDir:         getEnv("CACHE_DIR", "/cache"),
		MetricsPort:      getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:   getEnvBool("METRICS_ENABLED", true),
		LogStaticFiles:   getEnvBool("LOG_STATIC_FILES", false),
		AnnounceInterval: getEnvDuration("SSDP_INTERVAL", defaultInterval),
		AnnounceRepeat:   getEnvInt("SSDP_REPEAT", 1),
		SSDPInterface:    getEnv("SSDP_INTERFACE", ""),
		CacheEntries:     max(getEnvInt("TRANSCODE_CACHE_ENTRIES", 8), 0),
		FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:      getEnv("FFPROBE_PATH", "ffprobe"),
	}

	if c.UUID == "" {
		c.UUID = stableUUID(c.Name)
	} else if _, err := uuid.Parse(c.UUID); err != nil {
		return nil, fmt.Errorf("invalid DEVICE_UUID %q: %w", c.UUID, err)
	}
	if c.AnnounceRepeat < 1 {
		logging.Warn("SSDP_REPEAT %d is below 1, using 1", c.AnnounceRepeat)
		c.AnnounceRepeat = 1
	}
	if c.AnnounceInterval <= 0 {
		logging.Warn("SSDP_INTERVAL %v is not positive, using %v", c.AnnounceInterval, defaultInterval)
		c.AnnounceInterval = defaultInterval
	}

	c.URI = strings.TrimSuffix(os.Getenv("ADVERTISE_URI"), "/")
	if c.URI == "" {
		uri, err := advertiseURI(c.BindAddr, outboundIPv4)
		if err != nil {
			return nil, fmt.Errorf("deriving advertised URI (set ADVERTISE_URI): %w", err)
		}
		c.URI = uri
	}

	section("CONFIGURATION")
	fields(
		"FRIENDLY_NAME", c.Name,
		"DEVICE_UUID", c.UUID,
		"ADVERTISE_URI", c.URI,
		"BIND_ADDR", c.BindAddr,
		"MEDIA_DIR", c.MediaDir,
		"CACHE_DIR", c.CacheDir,
		"METRICS", onOff(c.MetricsEnabled)+" on :"+c.MetricsPort,
		"SSDP", fmt.Sprintf("every %v, x%d, interface %s", c.AnnounceInterval, c.AnnounceRepeat, orDefault(c.SSDPInterface, "default")),
		"TRANSCODE_CACHE_ENTRIES", strconv.Itoa(c.CacheEntries),
		"LOG_STATIC_FILES", onOff(c.LogStaticFiles),
		"LOG_LEVEL", logging.GetLevel().String(),
	)

	if err := c.prepareDirs(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) prepareDirs() error {
	section("DIRECTORIES")

	var err error
	if c.MediaDir, err = filepath.Abs(c.MediaDir); err != nil {
		return fmt.Errorf("resolving MEDIA_DIR: %w", err)
	}
	if c.CacheDir, err = filepath.Abs(c.CacheDir); err != nil {
		return fmt.Errorf("resolving CACHE_DIR: %w", err)
	}
	if err := checkDirectory(c.MediaDir); err != nil {
		return fmt.Errorf("media directory: %w", err)
	}

	c.ThumbnailDir = filepath.Join(c.CacheDir, "thumbnails")
	c.TranscodeDir = filepath.Join(c.CacheDir, "transcoded")
	c.ThumbnailsEnabled = setupOptionalDir(c.ThumbnailDir, "thumbnails")
	c.SpoolToDisk = setupOptionalDir(c.TranscodeDir, "transcoding")

	spool := "disk"
	if !c.SpoolToDisk {
		spool = "memory"
	}
	fields(
		"media", c.MediaDir,
		"thumbnails", c.ThumbnailDir+" ("+onOff(c.ThumbnailsEnabled)+")",
		"transcode spool", spool,
	)
	return nil
}

func checkDirectory(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	if logging.IsDebugEnabled() {
		if entries, err := os.ReadDir(path); err == nil {
			logging.Debug("  %s: %d top-level entries", path, len(entries))
		}
	}
	return nil
}

// setupOptionalDir creates path and checks it is writable. A false result
// disables the feature that needs it.
func setupOptionalDir(path, feature string) bool {
	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("  %s: cannot create %s: %v", feature, path, err)
		return false
	}

	probe := filepath.Join(path, ".write-test")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		logging.Warn("  %s: %s is not writable: %v", feature, path, err)
		return false
	}
	if err := os.Remove(probe); err != nil {
		logging.Warn("  %s: removing %s: %v", feature, probe, err)
	}
	return true
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envParse returns def when key is unset or does not parse.
func envParse[T any](key string, def T, parse func(string) (T, error)) T {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := parse(v)
	if err != nil {
		logging.Warn("Ignoring %s=%q: %v (using %v)", key, v, err, def)
		return def
	}
	return parsed
}

func getEnvBool(key string, def bool) bool {
	return envParse(key, def, strconv.ParseBool)
}

func getEnvInt(key string, def int) int {
	return envParse(key, def, strconv.Atoi)
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	return envParse(key, def, time.ParseDuration)
}
