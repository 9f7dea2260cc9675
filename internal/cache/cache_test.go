package cache

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dlna-server/internal/devices"
	"dlna-server/internal/streaming"
	"dlna-server/internal/transcoder"
)

var testTarget = transcoder.Target{Container: "matroska", VideoCodec: "libx264", AudioCodec: "aac", MimeType: "video/x-matroska"}

// fakeEncoder writes each element of parts, waiting on gate before every
// part after the first. A non-nil failWith is returned after the parts.
type fakeEncoder struct {
	parts    [][]byte
	gate     chan struct{}
	failWith error
	calls    atomic.Int32
	canceled chan struct{}
}

func (f *fakeEncoder) Encode(ctx context.Context, _ transcoder.SourceFormat, _ transcoder.Target, w io.Writer) error {
	f.calls.Add(1)

	for i, p := range f.parts {
		if i > 0 && f.gate != nil {
			select {
			case <-f.gate:
			case <-ctx.Done():
				if f.canceled != nil {
					close(f.canceled)
				}
				return ctx.Err()
			}
		}
		if _, err := w.Write(p); err != nil {
			return err
		}
	}

	return f.failWith
}

func drain(t *testing.T, ch <-chan streaming.Chunk) ([]byte, error) {
	t.Helper()

	var buf bytes.Buffer
	timeout := time.After(5 * time.Second)
	for {
		select {
		case c, ok := <-ch:
			if !ok {
				return buf.Bytes(), nil
			}
			if c.Err != nil {
				return buf.Bytes(), c.Err
			}
			buf.Write(c.Data)
		case <-timeout:
			t.Fatal("timed out draining chunks")
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func resolve(t *testing.T, c *Cache, id string, profile devices.Profile) *Handle {
	t.Helper()
	h, err := c.Resolve(id, transcoder.SourceFormat{Path: "/media/" + id}, testTarget, profile)
	if err != nil {
		t.Fatalf("Resolve(%s): %v", id, err)
	}
	return h
}

func TestResolveSingleFlight(t *testing.T) {
	enc := &fakeEncoder{parts: [][]byte{[]byte("head"), []byte("tail")}, gate: make(chan struct{})}
	c := New(enc, Options{Retain: 4, Workers: 2})
	defer c.Close()

	const callers = 32
	handles := make([]*Handle, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := c.Resolve("show/ep1.mkv", transcoder.SourceFormat{Path: "/media/show/ep1.mkv"}, testTarget, devices.Generic)
			if err != nil {
				t.Errorf("Resolve: %v", err)
				return
			}
			handles[i] = h
		}(i)
	}
	wg.Wait()
	if t.Failed() {
		t.FailNow()
	}

	close(enc.gate)

	for _, h := range handles {
		data, err := drain(t, h.ReadAll(context.Background()))
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		if string(data) != "headtail" {
			t.Errorf("data = %q", data)
		}
		h.Close()
	}

	if got := enc.calls.Load(); got != 1 {
		t.Errorf("encoder ran %d times, want 1", got)
	}
}

func TestResolveDistinctKeys(t *testing.T) {
	enc := &fakeEncoder{parts: [][]byte{[]byte("x")}}
	c := New(enc, Options{Workers: 2})
	defer c.Close()

	a := resolve(t, c, "a.mkv", devices.Generic)
	b := resolve(t, c, "a.mkv", devices.Samsung)
	defer a.Close()
	defer b.Close()

	if a.j == b.j {
		t.Error("different profiles must not share a job")
	}
	if _, err := drain(t, a.ReadAll(context.Background())); err != nil {
		t.Fatal(err)
	}
	if _, err := drain(t, b.ReadAll(context.Background())); err != nil {
		t.Fatal(err)
	}
	if got := enc.calls.Load(); got != 2 {
		t.Errorf("encoder ran %d times, want 2", got)
	}
}

func TestReadWhileInProgress(t *testing.T) {
	enc := &fakeEncoder{parts: [][]byte{[]byte("hello"), []byte(" world")}, gate: make(chan struct{})}
	c := New(enc, Options{Workers: 1})
	defer c.Close()

	h := resolve(t, c, "v.mkv", devices.Generic)
	defer h.Close()

	if err := h.Wait(context.Background(), 5); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	size := h.Size()
	if size.Available != 5 || size.Complete() {
		t.Fatalf("Size = %+v, want 5 available and no total", size)
	}

	// The first bytes are readable before the job finishes.
	data, err := drain(t, h.ReadRange(context.Background(), 0, 4))
	if err != nil || string(data) != "hello" {
		t.Fatalf("ReadRange(0,4) = %q, %v", data, err)
	}

	// A range past what is available waits for the encoder.
	result := make(chan string, 1)
	go func() {
		var buf bytes.Buffer
		for c := range h.ReadRange(context.Background(), 6, 10) {
			buf.Write(c.Data)
		}
		result <- buf.String()
	}()

	select {
	case got := <-result:
		t.Fatalf("range returned %q before the bytes existed", got)
	case <-time.After(20 * time.Millisecond):
	}

	close(enc.gate)

	if got := <-result; got != "world" {
		t.Errorf("ReadRange(6,10) = %q, want world", got)
	}

	waitFor(t, func() bool { return h.Size().Complete() })
	if total := *h.Size().Total; total != 11 {
		t.Errorf("Total = %d, want 11", total)
	}
}

func TestFailureEvictsEntry(t *testing.T) {
	cause := errors.New("ffmpeg exited 1")
	enc := &fakeEncoder{parts: [][]byte{[]byte("partial")}, failWith: cause}
	c := New(enc, Options{Retain: 4, Workers: 1})
	defer c.Close()

	h1 := resolve(t, c, "bad.avi", devices.Generic)
	defer h1.Close()

	_, err := drain(t, h1.ReadAll(context.Background()))
	if !errors.Is(err, ErrTranscodeFailed) || !errors.Is(err, cause) {
		t.Fatalf("ReadAll error = %v, want ErrTranscodeFailed wrapping cause", err)
	}

	// Later reads on the same handle fail too, even for bytes that were written.
	if _, err := drain(t, h1.ReadRange(context.Background(), 0, 3)); !errors.Is(err, ErrTranscodeFailed) {
		t.Errorf("ReadRange after failure = %v", err)
	}

	waitFor(t, func() bool { return c.Stats().Entries == 0 })

	h2 := resolve(t, c, "bad.avi", devices.Generic)
	defer h2.Close()
	_, _ = drain(t, h2.ReadAll(context.Background()))

	if got := enc.calls.Load(); got != 2 {
		t.Errorf("encoder ran %d times, want a fresh job after failure", got)
	}
}

func TestLastCloseCancelsJob(t *testing.T) {
	enc := &fakeEncoder{
		parts:    [][]byte{[]byte("a"), []byte("b")},
		gate:     make(chan struct{}),
		canceled: make(chan struct{}),
	}
	c := New(enc, Options{Retain: 4, Workers: 1})
	defer c.Close()

	h1 := resolve(t, c, "long.mkv", devices.Generic)
	h2 := resolve(t, c, "long.mkv", devices.Generic)
	if err := h1.Wait(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	h1.Close()
	h1.Close()
	select {
	case <-enc.canceled:
		t.Fatal("job canceled while a reader was still attached")
	case <-time.After(20 * time.Millisecond):
	}

	h2.Close()
	select {
	case <-enc.canceled:
	case <-time.After(5 * time.Second):
		t.Fatal("job kept running after its last reader left")
	}

	waitFor(t, func() bool { return c.Stats().Entries == 0 })
}

func TestCompletedOutputRetained(t *testing.T) {
	enc := &fakeEncoder{parts: [][]byte{[]byte("done")}}
	c := New(enc, Options{Retain: 1, Workers: 1})
	defer c.Close()

	play := func(id string) {
		h := resolve(t, c, id, devices.Generic)
		if _, err := drain(t, h.ReadAll(context.Background())); err != nil {
			t.Fatal(err)
		}
		h.Close()
	}

	play("one.mkv")
	play("one.mkv")
	if got := enc.calls.Load(); got != 1 {
		t.Fatalf("encoder ran %d times, want the retained output reused", got)
	}

	// Retaining a second output pushes the first one out.
	play("two.mkv")
	if got := c.Stats().Entries; got != 1 {
		t.Errorf("Entries = %d, want 1", got)
	}
	play("one.mkv")
	if got := enc.calls.Load(); got != 3 {
		t.Errorf("encoder ran %d times, want 3", got)
	}
}

func TestNoRetention(t *testing.T) {
	enc := &fakeEncoder{parts: [][]byte{[]byte("done")}}
	c := New(enc, Options{Workers: 1})
	defer c.Close()

	h := resolve(t, c, "one.mkv", devices.Generic)
	if _, err := drain(t, h.ReadAll(context.Background())); err != nil {
		t.Fatal(err)
	}
	h.Close()

	if got := c.Stats().Entries; got != 0 {
		t.Errorf("Entries = %d, want 0 without retention", got)
	}
}

func TestFileSpoolRemovedOnEviction(t *testing.T) {
	dir := t.TempDir()
	enc := &fakeEncoder{parts: [][]byte{bytes.Repeat([]byte("z"), 3*streaming.ChunkSize+5)}}
	c := New(enc, Options{SpoolDir: dir, Workers: 1})
	defer c.Close()

	h := resolve(t, c, "big.mkv", devices.Generic)
	data, err := drain(t, h.ReadRange(context.Background(), streaming.ChunkSize, 2*streaming.ChunkSize-1))
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != streaming.ChunkSize {
		t.Errorf("read %d bytes, want %d", len(data), streaming.ChunkSize)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("spool dir holds %d files, want 1", len(entries))
	}

	h.Close()
	waitFor(t, func() bool {
		entries, _ := os.ReadDir(dir)
		return len(entries) == 0
	})
}

func TestStats(t *testing.T) {
	enc := &fakeEncoder{parts: [][]byte{[]byte("12345"), []byte("6")}, gate: make(chan struct{})}
	c := New(enc, Options{Workers: 1})
	defer c.Close()

	h1 := resolve(t, c, "s.mkv", devices.Generic)
	h2 := resolve(t, c, "s.mkv", devices.Generic)
	defer h1.Close()
	defer h2.Close()

	if err := h1.Wait(context.Background(), 5); err != nil {
		t.Fatal(err)
	}

	stats := c.Stats()
	if stats.Entries != 1 || stats.Running != 1 || stats.Readers != 2 || stats.Bytes != 5 {
		t.Errorf("Stats = %+v", stats)
	}
	close(enc.gate)
}

func TestCloseCancelsJobs(t *testing.T) {
	enc := &fakeEncoder{parts: [][]byte{[]byte("a"), []byte("b")}, gate: make(chan struct{}), canceled: make(chan struct{})}
	c := New(enc, Options{Workers: 1})

	h := resolve(t, c, "x.mkv", devices.Generic)
	defer h.Close()
	if err := h.Wait(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	select {
	case <-enc.canceled:
	default:
		t.Error("Close returned before the encoder stopped")
	}

	if _, err := c.Resolve("x.mkv", transcoder.SourceFormat{}, testTarget, devices.Generic); !errors.Is(err, ErrClosed) {
		t.Errorf("Resolve after Close = %v, want ErrClosed", err)
	}
	if _, err := drain(t, h.ReadAll(context.Background())); err == nil {
		t.Error("reads on a closed cache should fail")
	}
}

func TestClearSpool(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"job-1.spool", "job-2.spool", "keep.txt"} {
		if err := os.WriteFile(dir+"/"+name, []byte("1234"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	freed, err := ClearSpool(dir)
	if err != nil {
		t.Fatal(err)
	}
	if freed != 8 {
		t.Errorf("freed = %d, want 8", freed)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || entries[0].Name() != "keep.txt" {
		t.Errorf("remaining entries = %v", entries)
	}

	if _, err := ClearSpool(dir + "/missing"); err != nil {
		t.Errorf("missing dir: %v", err)
	}
}

type blockingGate struct {
	open chan struct{}
}

func (g *blockingGate) WaitIfPaused(ctx context.Context) error {
	select {
	case <-g.open:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestGateHoldsEncode(t *testing.T) {
	enc := &fakeEncoder{parts: [][]byte{[]byte("gated")}}
	gate := &blockingGate{open: make(chan struct{})}
	c := New(enc, Options{Workers: 1, Gate: gate})
	defer c.Close()

	h := resolve(t, c, "movie.mp4", devices.Generic)
	defer h.Close()

	time.Sleep(20 * time.Millisecond)
	if got := enc.calls.Load(); got != 0 {
		t.Fatalf("encoder ran %d times while gated", got)
	}

	close(gate.open)
	data, err := drain(t, h.ReadAll(context.Background()))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "gated" {
		t.Errorf("data = %q", data)
	}
}

func TestGatedJobCanceledByLastReader(t *testing.T) {
	enc := &fakeEncoder{parts: [][]byte{[]byte("never")}}
	gate := &blockingGate{open: make(chan struct{})}
	c := New(enc, Options{Workers: 1, Gate: gate})
	defer c.Close()

	h := resolve(t, c, "movie.mp4", devices.Generic)
	h.Close()

	waitFor(t, func() bool { return c.Stats().Entries == 0 })

	// A later request starts a fresh job once the gate opens.
	close(gate.open)
	h = resolve(t, c, "movie.mp4", devices.Generic)
	defer h.Close()
	data, err := drain(t, h.ReadAll(context.Background()))
	if err != nil || string(data) != "never" {
		t.Errorf("data = %q, err = %v", data, err)
	}
	if got := enc.calls.Load(); got != 1 {
		t.Errorf("encoder ran %d times, want 1", got)
	}
}
