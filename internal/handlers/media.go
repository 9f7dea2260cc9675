package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"dlna-server/internal/cache"
	"dlna-server/internal/devices"
	"dlna-server/internal/logging"
	"dlna-server/internal/media"
	"dlna-server/internal/mediatypes"
	"dlna-server/internal/metrics"
	"dlna-server/internal/streaming"
	"dlna-server/internal/transcoder"
)

// GetFile serves GET /files/{id}: the raw bytes of any file in the tree.
func (h *Handlers) GetFile(w http.ResponseWriter, r *http.Request) error {
	entry, err := h.entryFor(r)
	if err != nil {
		return err
	}

	body, err := entry.Body(r.Context())
	if err != nil {
		return err
	}
	defer body.Close()

	h.stream(w, r, body, mediatypes.GetMimeType(strings.ToLower(path.Ext(entry.ID()))), "files")
	return nil
}

// StreamVideo serves GET /video/{id}. Sources the renderer can already play
// are sent as they are; everything else goes through the transcode cache,
// which shares one encode between all concurrent viewers.
func (h *Handlers) StreamVideo(w http.ResponseWriter, r *http.Request) error {
	entry, err := h.entryFor(r)
	if err != nil {
		return err
	}
	if entry.FileType() != mediatypes.FileTypeVideo {
		return fmt.Errorf("%w: %q is not a video", media.ErrNotFound, entry.ID())
	}

	ctx := r.Context()
	profile := devices.Identify(r.Header)

	src, err := entry.Format(ctx)
	if err != nil {
		return fmt.Errorf("probing %s: %w", entry.ID(), err)
	}
	target := transcoder.Plan(src, profile)

	if target.Passthrough(src) {
		logging.Debug("Video %s plays directly on %s", entry.ID(), profile.Name)
		body, err := entry.Body(ctx)
		if err != nil {
			return err
		}
		defer body.Close()

		h.stream(w, r, body, target.MimeType, "video")
		return nil
	}

	handle, err := h.transcodes.Resolve(entry.ID(), src, target, profile)
	if err != nil {
		return err
	}
	defer handle.Close()

	// Hold the status line back until the encoder has produced something,
	// so a job that fails at once still gets a 500.
	if err := handle.Wait(ctx, 1); err != nil {
		return err
	}

	h.stream(w, r, handle, target.MimeType, "video")
	return nil
}

// stream answers r with m. The status line is out once it starts, so
// failures past that point are only logged.
func (h *Handlers) stream(w http.ResponseWriter, r *http.Request, m streaming.Media, contentType, route string) {
	n, err := streaming.Serve(w, r, m, contentType, h.streamCfg)
	metrics.HTTPBytesStreamed.WithLabelValues(route).Add(float64(n))

	switch {
	case err == nil:
	case errors.Is(err, streaming.ErrClientGone), errors.Is(err, streaming.ErrStreamCanceled):
		logging.Debug("Stream %s ended by client after %d bytes", r.URL.EscapedPath(), n)
	case errors.Is(err, cache.ErrTranscodeFailed):
		logging.Error("Stream %s aborted after %d bytes: %v", r.URL.EscapedPath(), n, err)
	default:
		logging.Warn("Stream %s failed after %d bytes: %v", r.URL.EscapedPath(), n, err)
	}
}
