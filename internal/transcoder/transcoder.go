package transcoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"dlna-server/internal/devices"
	"dlna-server/internal/logging"
	"dlna-server/internal/metrics"

	"golang.org/x/sync/singleflight"
)

// Copy is the codec value that passes a stream through untouched.
const Copy = "copy"

// maxStderr bounds how much ffmpeg diagnostics are kept per process.
const maxStderr = 8 * 1024

// Transcoder runs ffprobe and ffmpeg on behalf of the transcode cache.
type Transcoder struct {
	ffmpeg    string
	ffprobe   string
	processes map[*exec.Cmd]string
	processMu sync.Mutex
	probes    singleflight.Group
}

// SourceFormat is what ffprobe reports about a media file.
type SourceFormat struct {
	Path       string
	Container  string
	Duration   float64
	VideoCodec string
	AudioCodec string
	Width      int
	Height     int
}

// Target is an encoder output format. It is comparable and part of the
// transcode cache key.
type Target struct {
	Container  string // ffmpeg muxer
	VideoCodec string // ffmpeg encoder or Copy
	AudioCodec string // ffmpeg encoder, Copy, or empty for no audio
	MimeType   string
}

// New creates a Transcoder using the given binaries. Empty names fall back
// to "ffmpeg" and "ffprobe" on PATH.
func New(ffmpegPath, ffprobePath string) *Transcoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}

	return &Transcoder{
		ffmpeg:    ffmpegPath,
		ffprobe:   ffprobePath,
		processes: make(map[*exec.Cmd]string),
	}
}

type probeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// probeTimeout bounds a shared ffprobe run, which no single caller owns.
const probeTimeout = 30 * time.Second

// Probe returns the container and codec information of path. Concurrent
// probes of the same path share a single ffprobe run. The run is not tied
// to any caller's ctx: a caller that goes away stops waiting, the others
// still get the result.
func (t *Transcoder) Probe(ctx context.Context, path string) (SourceFormat, error) {
	ch := t.probes.DoChan(path, func() (interface{}, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), probeTimeout)
		defer cancel()
		return t.probe(runCtx, path)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			metrics.TranscoderProbesTotal.WithLabelValues("error").Inc()
			return SourceFormat{}, res.Err
		}
		metrics.TranscoderProbesTotal.WithLabelValues("success").Inc()
		return res.Val.(SourceFormat), nil
	case <-ctx.Done():
		return SourceFormat{}, ctx.Err()
	}
}

func (t *Transcoder) probe(ctx context.Context, path string) (SourceFormat, error) {
	cmd := exec.CommandContext(ctx, t.ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return SourceFormat{}, fmt.Errorf("ffprobe %s: %w - %s", path, err, strings.TrimSpace(stderr.String()))
	}

	return parseProbe(path, stdout.Bytes())
}

func parseProbe(path string, data []byte) (SourceFormat, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return SourceFormat{}, fmt.Errorf("decoding ffprobe output for %s: %w", path, err)
	}

	src := SourceFormat{Path: path}
	src.Container, _, _ = strings.Cut(out.Format.FormatName, ",")
	src.Duration, _ = strconv.ParseFloat(out.Format.Duration, 64)

	// First stream of each kind wins, matching ffmpeg's default selection.
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if src.VideoCodec == "" {
				src.VideoCodec = s.CodecName
				src.Width = s.Width
				src.Height = s.Height
			}
		case "audio":
			if src.AudioCodec == "" {
				src.AudioCodec = s.CodecName
			}
		}
	}

	if src.VideoCodec == "" {
		return SourceFormat{}, fmt.Errorf("no video stream in %s", path)
	}

	return src, nil
}

// Plan chooses the output format for src on a renderer described by p.
// Streams the renderer can decode are copied, everything else is
// re-encoded to H.264/AAC.
func Plan(src SourceFormat, p devices.Profile) Target {
	target := Target{
		Container:  p.Container,
		VideoCodec: "libx264",
		MimeType:   p.MimeType,
	}

	if p.AcceptsVideo(src.VideoCodec) {
		target.VideoCodec = Copy
	}

	switch {
	case src.AudioCodec == "":
		target.AudioCodec = ""
	case p.AcceptsAudio(src.AudioCodec):
		target.AudioCodec = Copy
	default:
		target.AudioCodec = "aac"
	}

	return target
}

// Passthrough reports whether src already is target, so the file can be
// served as is.
func (t Target) Passthrough(src SourceFormat) bool {
	if t.VideoCodec != Copy || (src.AudioCodec != "" && t.AudioCodec != Copy) {
		return false
	}
	// ffprobe reports demuxer aliases, e.g. "matroska,webm".
	for _, name := range strings.Split(src.Container, ",") {
		if name == t.Container {
			return true
		}
	}
	return false
}

func encodeArgs(src SourceFormat, target Target) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		"-i", src.Path,
		"-map", "0:v:0",
		"-c:v", target.VideoCodec,
	}

	if target.VideoCodec == "libx264" {
		args = append(args, "-preset", "fast", "-crf", "23")
	}

	if target.AudioCodec == "" {
		args = append(args, "-an")
	} else {
		args = append(args, "-map", "0:a:0?", "-c:a", target.AudioCodec)
		if target.AudioCodec == "aac" {
			args = append(args, "-b:a", "128k")
		}
	}

	if target.Container == "mp4" {
		args = append(args, "-movflags", "frag_keyframe+empty_moov")
	}

	return append(args, "-f", target.Container, "-")
}

// Encode runs ffmpeg over src and writes the muxed output to w until the
// process exits. Canceling ctx kills ffmpeg and returns ctx.Err().
func (t *Transcoder) Encode(ctx context.Context, src SourceFormat, target Target, w io.Writer) error {
	cmd := exec.CommandContext(ctx, t.ffmpeg, encodeArgs(src, target)...)
	cmd.Stdout = w

	stderr := &limitedBuffer{max: maxStderr}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	t.processMu.Lock()
	t.processes[cmd] = src.Path
	t.processMu.Unlock()

	defer func() {
		t.processMu.Lock()
		delete(t.processes, cmd)
		t.processMu.Unlock()
	}()

	logging.Debug("ffmpeg started for %s (video=%s audio=%s format=%s)", src.Path, target.VideoCodec, target.AudioCodec, target.Container)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Error("FFmpeg stderr for %s: %s", src.Path, stderr.String())
		return fmt.Errorf("transcoding error: %w", err)
	}

	return nil
}

// Cleanup stops all active transcoding processes.
func (t *Transcoder) Cleanup() {
	t.processMu.Lock()
	defer t.processMu.Unlock()

	for cmd, path := range t.processes {
		if cmd.Process != nil {
			logging.Info("Killing transcoding process for: %s", path)
			if err := cmd.Process.Kill(); err != nil {
				logging.Warn("failed to kill transcoding process for %s: %v", path, err)
			}
		}
	}
}

// Active returns the number of running ffmpeg processes.
func (t *Transcoder) Active() int {
	t.processMu.Lock()
	defer t.processMu.Unlock()
	return len(t.processes)
}

// limitedBuffer keeps the first max bytes written to it.
type limitedBuffer struct {
	buf bytes.Buffer
	max int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.max - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	return strings.TrimSpace(b.buf.String())
}
