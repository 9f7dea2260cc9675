package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"dlna-server/internal/logging"
	"dlna-server/internal/media"
	"dlna-server/internal/streaming"

	"github.com/gorilla/mux"
)

// handlerFunc is a handler that reports failure instead of answering it.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// errorHandler is the one place errors become responses. Lookups that fail
// are 404s, a client that went away gets nothing, and every other error is
// logged in full while the client sees a fixed 500 body.
func (h *Handlers) errorHandler(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		switch {
		case err == nil:
		case errors.Is(err, media.ErrNotFound):
			logging.Debug("Not found: %s %s: %v", r.Method, r.URL.EscapedPath(), err)
			http.Error(w, "Not Found", http.StatusNotFound)
		case errors.Is(err, context.Canceled), errors.Is(err, streaming.ErrClientGone):
			logging.Debug("Client went away: %s %s", r.Method, r.URL.EscapedPath())
		default:
			logging.Error("%s %s failed: %v", r.Method, r.URL.EscapedPath(), err)
			http.Error(w, "Internal Error", http.StatusInternalServerError)
		}
	}
}

// entryFor resolves the percent-encoded {id} route variable.
func (h *Handlers) entryFor(r *http.Request) (media.Entry, error) {
	raw := mux.Vars(r)["id"]
	id, err := url.PathUnescape(raw)
	if err != nil {
		return nil, errors.Join(media.ErrNotFound, err)
	}
	return h.tree.Lookup(id)
}
