package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"dlna-server/internal/logging"
	"dlna-server/internal/memory"
)

const rule = "============================================================"

// section starts a titled block in the startup log.
func section(title string) {
	logging.Info("")
	logging.Info("%s", rule)
	logging.Info("%s", title)
	logging.Info("%s", rule)
}

// fields logs label/value pairs with the values aligned.
func fields(kv ...string) {
	width := 0
	for i := 0; i < len(kv); i += 2 {
		width = max(width, len(kv[i]))
	}
	for i := 0; i+1 < len(kv); i += 2 {
		logging.Info("  %-*s  %s", width+1, kv[i]+":", kv[i+1])
	}
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func printBanner() {
	fmt.Println(rule)
	fmt.Println("  dlna-server  UPnP AV / DLNA media server")
	fmt.Println(rule)
	fields(
		"version", Version,
		"commit", Commit,
		"built", BuildTime,
		"started", time.Now().Format(time.RFC1123),
	)
}

func logSystemInfo() {
	section("SYSTEM")
	procs := strconv.Itoa(runtime.GOMAXPROCS(0))
	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		procs += " (limited by container)"
	}
	fields(
		"go", runtime.Version(),
		"platform", runtime.GOOS+"/"+runtime.GOARCH,
		"cpus", strconv.Itoa(runtime.NumCPU()),
		"GOMAXPROCS", procs,
	)
	if host, err := os.Hostname(); err == nil {
		logging.Debug("  hostname: %s", host)
	}
}

// LogMemoryConfig reports what memory.ConfigureFromEnv decided.
func LogMemoryConfig(result memory.ConfigResult) {
	section("MEMORY")
	if !result.Configured {
		logging.Info("  no soft limit (set MEMORY_LIMIT or GOMEMLIMIT)")
		return
	}

	kv := []string{"source", result.Source}
	if result.ContainerLimit > 0 {
		kv = append(kv,
			"container limit", memory.FormatBytes(result.ContainerLimit),
			"ratio", fmt.Sprintf("%.0f%%", result.Ratio*100),
		)
	}
	fields(append(kv, "GOMEMLIMIT", memory.FormatBytes(result.GoMemLimit))...)
}

// LogTranscoderInit reports the transcode cache settings and whether the
// ffmpeg binaries can be run.
func LogTranscoderInit(config *Config, workers int) {
	section("TRANSCODER")
	spool := config.TranscodeDir
	if !config.SpoolToDisk {
		spool = "memory"
	}
	fields(
		"workers", strconv.Itoa(workers),
		"retained outputs", strconv.Itoa(config.CacheEntries),
		"spool", spool,
	)
	if !config.SpoolToDisk {
		logging.Warn("  spooling in memory; set MEMORY_LIMIT so encodes pause under pressure")
	}

	for _, bin := range []string{config.FFmpegPath, config.FFprobePath} {
		if version, err := probeBinary(bin); err != nil {
			logging.Warn("  %s unusable, videos that need transcoding will not play: %v", bin, err)
		} else {
			logging.Info("  found %s", version)
		}
	}
}

// probeBinary runs "<name> -version" and returns the first line of output.
func probeBinary(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("%s -version: %w", path, err)
	}
	first, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(first), nil
}

func LogThumbnailInit(enabled bool) {
	if !enabled {
		logging.Info("  thumbnails: memory only (cache directory not writable)")
	}
}

func LogBeaconInit(config *Config, location string) {
	section("SSDP")
	fields(
		"device", config.Name+" (uuid:"+config.UUID+")",
		"location", location,
		"announce", fmt.Sprintf("every %v, x%d", config.AnnounceInterval, config.AnnounceRepeat),
	)
}

// ServerConfig is what LogServerStarted reports.
type ServerConfig struct {
	URI             string
	BindAddr        string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

func LogServerStarted(config ServerConfig) {
	metricsAt := "disabled"
	if config.MetricsEnabled {
		metricsAt = "http://0.0.0.0:" + config.MetricsPort + "/metrics"
	}

	section("READY")
	fields(
		"listening", config.BindAddr,
		"description", config.URI+"/root.xml",
		"metrics", metricsAt,
		"startup took", config.StartupDuration.Round(time.Millisecond).String(),
	)
	logging.Info("%s", rule)
}

func LogShutdownInitiated(signal string) {
	section("SHUTTING DOWN on " + signal)
}

func LogShutdownStep(step string) {
	logging.Debug("  %s", step)
}

func LogShutdownStepComplete(step string) {
	logging.Info("  done: %s", step)
}

func LogShutdownComplete() {
	logging.Info("  shutdown complete")
}

// LogFatal logs and exits with status 1.
func LogFatal(format string, args ...any) {
	logging.Fatal(format, args...)
}
