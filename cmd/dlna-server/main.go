package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dlna-server/internal/cache"
	"dlna-server/internal/filesystem"
	"dlna-server/internal/handlers"
	"dlna-server/internal/logging"
	"dlna-server/internal/media"
	"dlna-server/internal/memory"
	"dlna-server/internal/metrics"
	"dlna-server/internal/middleware"
	"dlna-server/internal/ssdp"
	"dlna-server/internal/startup"
	"dlna-server/internal/thumbs"
	"dlna-server/internal/transcoder"
	"dlna-server/internal/workers"
)

const (
	shutdownTimeout   = 30 * time.Second
	collectorInterval = 15 * time.Second
)

func main() {
	startTime := time.Now()

	// Must run before anything allocates much.
	startup.LogMemoryConfig(memory.ConfigureFromEnv())

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumes(filesystem.NewVolumes(map[string]string{
		"media": config.MediaDir,
		"cache": config.CacheDir,
	}))

	background, stopBackground := context.WithCancel(context.Background())

	memMonitor := memory.NewMonitor(memory.DefaultConfig())
	memMonitor.Start()

	// Transcoding
	trans := transcoder.New(config.FFmpegPath, config.FFprobePath)
	spoolDir := ""
	if config.SpoolToDisk {
		spoolDir = config.TranscodeDir
		if freed, err := cache.ClearSpool(spoolDir); err != nil {
			logging.Warn("Failed to clear stale transcode spools: %v", err)
		} else if freed > 0 {
			logging.Info("Removed %s of stale transcode spools", memory.FormatBytes(freed))
		}
	}
	workerCount := workers.ForCPU(0)
	startup.LogTranscoderInit(config, workerCount)
	transcodes := cache.New(trans, cache.Options{
		SpoolDir: spoolDir,
		Retain:   config.CacheEntries,
		Workers:  workerCount,
		Gate:     memMonitor,
	})

	collector := metrics.NewCollector(transcodes, collectorInterval)
	collector.Start()

	// Media tree
	tree := media.NewFileTree(config.MediaDir, config.Name, trans)
	go func() {
		if err := tree.Watch(background); err != nil {
			logging.Warn("Media watcher for %s stopped, directories will be read on every browse: %v", tree.Root(), err)
		}
	}()

	startup.LogThumbnailInit(config.ThumbnailsEnabled)
	thumbDir := ""
	if config.ThumbnailsEnabled {
		thumbDir = config.ThumbnailDir
	}
	thumbGen := thumbs.New(thumbDir, thumbs.DefaultMemoryEntries)

	// HTTP
	h := handlers.New(tree, transcodes, thumbGen, config)
	router := handlers.NewRouter(h)
	startup.LogHTTPRoutes(router, config.LogStaticFiles)

	srv := newServer(config.BindAddr, applyMiddleware(router, config))

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(":"+config.MetricsPort, handlers.NewMetricsRouter(h))
		go func() {
			if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// SSDP
	location := config.URI + "/root.xml"
	startup.LogBeaconInit(config, location)
	conn, err := ssdp.Listen(config.SSDPInterface)
	if err != nil {
		startup.LogFatal("Failed to open SSDP socket: %v", err)
	}
	beacon, err := ssdp.NewBeacon(ssdp.BeaconConfig{
		UDN:      "uuid:" + config.UUID,
		Location: location,
		Server:   startup.ServerString(),
		Interval: config.AnnounceInterval,
		Repeat:   config.AnnounceRepeat,
	}, conn)
	if err != nil {
		startup.LogFatal("Failed to create SSDP beacon: %v", err)
	}

	beaconCtx, stopBeacon := context.WithCancel(context.Background())
	beaconDone := make(chan struct{})
	go func() {
		defer close(beaconDone)
		if err := beacon.Run(beaconCtx); err != nil {
			logging.Error("SSDP beacon stopped: %v", err)
		}
	}()

	done := make(chan struct{})
	go handleShutdown(shutdown{
		srv:        srv,
		metricsSrv: metricsSrv,
		stopBeacon: func() {
			stopBeacon()
			<-beaconDone
			if err := conn.Close(); err != nil {
				logging.Debug("closing SSDP socket: %v", err)
			}
		},
		transcodes: transcodes,
		trans:      trans,
		collector:  collector,
		memMonitor: memMonitor,
		background: stopBackground,
		done:       done,
	})

	startup.LogServerStarted(startup.ServerConfig{
		URI:             config.URI,
		BindAddr:        config.BindAddr,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

// applyMiddleware wraps the router: compression outermost, then access
// logging, then request metrics.
func applyMiddleware(router http.Handler, config *startup.Config) http.Handler {
	handler := middleware.Metrics(middleware.DefaultMetricsConfig())(router)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	handler = middleware.Logger(loggingConfig)(handler)

	return middleware.Compression(middleware.DefaultCompressionConfig())(handler)
}

// newServer has no write timeout: streams last as long as playback, and
// the streaming writer enforces its own per-write deadlines.
func newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}
}

func newMetricsServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
}

type shutdown struct {
	srv        *http.Server
	metricsSrv *http.Server
	stopBeacon func()
	transcodes *cache.Cache
	trans      *transcoder.Transcoder
	collector  *metrics.Collector
	memMonitor *memory.Monitor
	background context.CancelFunc
	done       chan struct{}
}

func handleShutdown(s shutdown) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())
	defer close(s.done)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Renderers drop the device on byebye, before streams start failing.
	startup.LogShutdownStep("Sending SSDP byebye")
	s.stopBeacon()
	startup.LogShutdownStepComplete("SSDP beacon stopped")

	startup.LogShutdownStep("Stopping transcodes")
	if err := s.transcodes.Close(); err != nil {
		logging.Warn("Transcode cache close error: %v", err)
	}
	s.trans.Cleanup()
	startup.LogShutdownStepComplete("Transcodes stopped")

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := s.srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if s.metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := s.metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	s.collector.Stop()
	s.memMonitor.Stop()
	s.background()

	startup.LogShutdownComplete()
}
