package streaming

import (
	"net/http"
	"strconv"
)

// Serve writes m as the response to r. A satisfiable Range header yields a
// 206 with Content-Range; everything else, including a range starting past
// the available bytes, is answered with the whole body and a 200.
//
// The returned count is the number of body bytes written. Errors after the
// status line has gone out can only be logged by the caller.
func Serve(w http.ResponseWriter, r *http.Request, m Media, contentType string, config TimeoutWriterConfig) (int64, error) {
	tw := NewTimeoutWriter(r.Context(), w, config)
	defer tw.Close()
	ctx := tw.Context()

	size := m.Size()
	h := w.Header()
	h.Set("Accept-Ranges", "bytes")
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}

	var chunks <-chan Chunk
	status := http.StatusOK

	rng, ok := ParseRange(r.Header.Get("Range"))
	start, end, satisfiable := rng.Resolve(size)

	switch {
	case ok && satisfiable:
		status = http.StatusPartialContent
		total := "*"
		if size.Complete() {
			total = strconv.FormatUint(*size.Total, 10)
		}
		h.Set("Content-Range", "bytes "+strconv.FormatUint(start, 10)+"-"+strconv.FormatUint(end, 10)+"/"+total)
		h.Set("Content-Length", strconv.FormatUint(end-start+1, 10))
		if r.Method != http.MethodHead {
			chunks = m.ReadRange(ctx, start, end)
		}
	default:
		if size.Complete() {
			h.Set("Content-Length", strconv.FormatUint(*size.Total, 10))
		}
		if r.Method != http.MethodHead {
			chunks = m.ReadAll(ctx)
		}
	}

	w.WriteHeader(status)
	if chunks == nil {
		return 0, nil
	}

	var written int64
	for c := range chunks {
		if c.Err != nil {
			return written, c.Err
		}
		n, err := tw.Write(c.Data)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}

	// A producer stopped by the writer's context closes its channel early.
	if err := tw.Err(); err != nil {
		return written, err
	}
	return written, nil
}
