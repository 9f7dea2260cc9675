// Package main provides the entry point for the DLNA media server.
//
// The server announces itself on the local network over SSDP, answers
// UPnP ContentDirectory Browse requests for a directory tree, and streams
// files to renderers. Videos a renderer cannot decode are transcoded with
// FFmpeg; concurrent viewers of the same video on the same kind of device
// share a single encode.
//
// # Application Lifecycle
//
//  1. Memory Configuration: Sets GOMEMLIMIT from MEMORY_LIMIT
//  2. Configuration Loading: Reads environment variables and validates directories
//  3. Component Initialization:
//     - Memory Monitor: Holds back new transcodes under memory pressure
//     - Transcode Cache: Single-flight FFmpeg jobs spooled to disk or memory
//     - Media Tree: Read-only view of MEDIA_DIR, kept fresh by fsnotify
//     - Thumbnail Generator: JPEG_TN renditions of images
//     - Metrics Collector: Samples the transcode cache
//  4. HTTP Server Setup: Routes, middleware, optional metrics server
//  5. SSDP Beacon: ssdp:alive bursts every SSDP_INTERVAL
//  6. Graceful Shutdown: Handles SIGINT/SIGTERM
//
// # HTTP Servers
//
//  1. Main Server (BIND_ADDR, default :8200):
//     - /root.xml: device description
//     - /connection/desc.xml, /content/desc.xml: service descriptions
//     - /content/control: ContentDirectory SOAP control
//     - /files/{id}: raw files with byte ranges
//     - /video/{id}: videos, transcoded when needed
//     - /thumbs/{id}: image thumbnails
//
//  2. Metrics Server (METRICS_PORT, default 9090, optional):
//     - /metrics, /healthz, /livez, /version
//
// See package startup for the full list of environment variables.
//
// # Graceful Shutdown
//
//  1. Send ssdp:byebye so renderers drop the device
//  2. Cancel transcodes and kill leftover FFmpeg processes
//  3. Shutdown main HTTP server (30s timeout)
//  4. Shutdown metrics server (if running)
//  5. Stop metrics collector, memory monitor and media watcher
//
// # Build Requirements
//
// Pure Go; FFmpeg and ffprobe must be on PATH (or FFMPEG_PATH and
// FFPROBE_PATH) for transcoding.
//
//	go build -ldflags "-X dlna-server/internal/startup.Version=1.0.0" -o dlna-server ./cmd/dlna-server
package main
