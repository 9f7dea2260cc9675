package streaming

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func content(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i * 7)
	}
	return b
}

// growingMedia reports a fixed number of available bytes with no total.
type growingMedia struct {
	data      []byte
	available uint64
}

func (g *growingMedia) Size() Size { return Size{Available: g.available} }

func (g *growingMedia) ReadAll(ctx context.Context) <-chan Chunk {
	return g.ReadRange(ctx, 0, uint64(len(g.data)-1))
}

func (g *growingMedia) ReadRange(ctx context.Context, start, end uint64) <-chan Chunk {
	return NewFileMedia(bytes.NewReader(g.data), int64(len(g.data))).ReadRange(ctx, start, end)
}

type failingMedia struct{}

func (failingMedia) Size() Size { return KnownSize(10) }

func (failingMedia) ReadAll(ctx context.Context) <-chan Chunk {
	return Produce(ctx, func(emit func([]byte) bool) error {
		emit([]byte("abc"))
		return errors.New("encoder died")
	})
}

func (f failingMedia) ReadRange(ctx context.Context, _, _ uint64) <-chan Chunk {
	return f.ReadAll(ctx)
}

func serve(t *testing.T, m Media, method, rangeHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/video/x", nil)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	rec := httptest.NewRecorder()
	if _, err := Serve(rec, req, m, "video/x-matroska", DefaultTimeoutWriterConfig()); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	return rec
}

func TestServeRangeSlices(t *testing.T) {
	data := content(3*ChunkSize + 123)
	size := len(data)

	ranges := [][2]int{
		{0, 0},
		{0, size - 1},
		{1, 1},
		{ChunkSize - 1, ChunkSize},
		{1000, 2*ChunkSize + 17},
		{size - 10, size - 1},
	}

	for _, r := range ranges {
		header := "bytes=" + strconv.Itoa(r[0]) + "-" + strconv.Itoa(r[1])
		t.Run(header, func(t *testing.T) {
			rec := serve(t, NewFileMedia(bytes.NewReader(data), int64(size)), http.MethodGet, header)

			if rec.Code != http.StatusPartialContent {
				t.Fatalf("status = %d, want 206", rec.Code)
			}
			want := data[r[0] : r[1]+1]
			if !bytes.Equal(rec.Body.Bytes(), want) {
				t.Errorf("body length %d, want %d bytes of the slice", rec.Body.Len(), len(want))
			}
			if got := rec.Header().Get("Content-Length"); got != strconv.Itoa(len(want)) {
				t.Errorf("Content-Length = %s, want %d", got, len(want))
			}
			wantRange := "bytes " + strconv.Itoa(r[0]) + "-" + strconv.Itoa(r[1]) + "/" + strconv.Itoa(size)
			if got := rec.Header().Get("Content-Range"); got != wantRange {
				t.Errorf("Content-Range = %s, want %s", got, wantRange)
			}
		})
	}
}

func TestServeFullBody(t *testing.T) {
	data := content(5000)

	tests := []struct {
		name   string
		header string
	}{
		{"no range", ""},
		{"suffix range", "bytes=-100"},
		{"start past end", "bytes=5000-"},
		{"garbage", "bytes=x-y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, NewFileMedia(bytes.NewReader(data), int64(len(data))), http.MethodGet, tt.header)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if !bytes.Equal(rec.Body.Bytes(), data) {
				t.Errorf("body length %d, want %d", rec.Body.Len(), len(data))
			}
			if got := rec.Header().Get("Content-Length"); got != "5000" {
				t.Errorf("Content-Length = %q, want 5000", got)
			}
			if got := rec.Header().Get("Accept-Ranges"); got != "bytes" {
				t.Errorf("Accept-Ranges = %q", got)
			}
			if got := rec.Header().Get("Content-Type"); got != "video/x-matroska" {
				t.Errorf("Content-Type = %q", got)
			}
		})
	}
}

func TestServeUnknownTotal(t *testing.T) {
	m := &growingMedia{data: content(1000), available: 400}

	rec := serve(t, m, http.MethodGet, "bytes=100-")
	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 100-399/*" {
		t.Errorf("Content-Range = %q", got)
	}
	if rec.Body.Len() != 300 {
		t.Errorf("body length = %d, want 300", rec.Body.Len())
	}

	rec = serve(t, m, http.MethodGet, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Length"); got != "" {
		t.Errorf("Content-Length = %q, want unset", got)
	}
}

func TestServeHead(t *testing.T) {
	data := content(100)
	rec := serve(t, NewFileMedia(bytes.NewReader(data), 100), http.MethodHead, "bytes=10-19")

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("HEAD wrote %d body bytes", rec.Body.Len())
	}
}

func TestServeProducerError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/video/x", nil)
	rec := httptest.NewRecorder()

	n, err := Serve(rec, req, failingMedia{}, "", DefaultTimeoutWriterConfig())
	if err == nil || err.Error() != "encoder died" {
		t.Fatalf("err = %v, want encoder died", err)
	}
	if n != 3 {
		t.Errorf("written = %d, want 3", n)
	}
}

func TestServeClientGone(t *testing.T) {
	data := content(10 * ChunkSize)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodGet, "/files/x", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	_, err := Serve(rec, req, NewFileMedia(bytes.NewReader(data), int64(len(data))), "", DefaultTimeoutWriterConfig())
	if !errors.Is(err, ErrClientGone) {
		t.Errorf("err = %v, want ErrClientGone", err)
	}
	if rec.Body.Len() == len(data) {
		t.Error("full body written to a gone client")
	}
}

func TestFileMediaEmpty(t *testing.T) {
	fm := NewFileMedia(bytes.NewReader(nil), 0)
	for c := range fm.ReadAll(context.Background()) {
		t.Errorf("unexpected chunk %+v", c)
	}
	if !fm.Size().Complete() {
		t.Error("empty file size should be complete")
	}
}
