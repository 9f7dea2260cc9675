package handlers

import (
	"fmt"
	"net/http"

	"dlna-server/internal/logging"
	"dlna-server/internal/media"
	"dlna-server/internal/mediatypes"
)

// GetThumbnail serves GET /thumbs/{id}, a JPEG_TN sized rendition of an
// image in the tree.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) error {
	entry, err := h.entryFor(r)
	if err != nil {
		return err
	}
	if entry.FileType() != mediatypes.FileTypeImage {
		return fmt.Errorf("%w: %q is not an image", media.ErrNotFound, entry.ID())
	}

	thumb, err := h.thumbGen.Render(entry.Path())
	if err != nil {
		return fmt.Errorf("thumbnail for %s: %w", entry.ID(), err)
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return nil
	}
	if _, err := w.Write(thumb); err != nil {
		logging.Debug("thumbnail write failed: %v", err)
	}
	return nil
}
