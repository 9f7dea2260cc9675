package streaming

import (
	"context"
	"errors"
	"io"
)

// ChunkSize is the size of the buffers produced by FileMedia.
const ChunkSize = 64 * 1024

// chunkBuffer bounds how far a producer may run ahead of its consumer.
const chunkBuffer = 4

// Size describes how many bytes of a body can be read right now and, once
// known, how large the body will be in the end. Total is nil while the body
// is still being produced.
type Size struct {
	Available uint64
	Total     *uint64
}

// KnownSize returns a Size for a body that is complete.
func KnownSize(n uint64) Size {
	return Size{Available: n, Total: &n}
}

// Complete reports whether the final length is known.
func (s Size) Complete() bool {
	return s.Total != nil
}

// Chunk is one element of a body stream. A chunk with a non-nil Err is the
// last one a producer sends.
type Chunk struct {
	Data []byte
	Err  error
}

// Media is a readable body. Both read methods return a channel that is
// closed after the last chunk; canceling ctx stops the producer.
type Media interface {
	Size() Size
	ReadAll(ctx context.Context) <-chan Chunk
	// ReadRange yields bytes start..end inclusive.
	ReadRange(ctx context.Context, start, end uint64) <-chan Chunk
}

// Produce runs fn on its own goroutine and forwards what it emits through a
// bounded channel. emit returns false once ctx is done, after which fn should
// return. A non-nil error from fn is delivered as the final chunk.
func Produce(ctx context.Context, fn func(emit func([]byte) bool) error) <-chan Chunk {
	ch := make(chan Chunk, chunkBuffer)

	go func() {
		defer close(ch)

		emit := func(b []byte) bool {
			select {
			case ch <- Chunk{Data: b}:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if err := fn(emit); err != nil && ctx.Err() == nil {
			select {
			case ch <- Chunk{Err: err}:
			case <-ctx.Done():
			}
		}
	}()

	return ch
}

// FileMedia serves a complete body from an io.ReaderAt such as *os.File.
type FileMedia struct {
	r    io.ReaderAt
	size uint64
	c    io.Closer
}

// NewFileMedia wraps r, whose length is size. If r is also an io.Closer it
// is closed by Close.
func NewFileMedia(r io.ReaderAt, size int64) *FileMedia {
	fm := &FileMedia{r: r, size: uint64(size)}
	if c, ok := r.(io.Closer); ok {
		fm.c = c
	}
	return fm
}

// Size implements Media.
func (f *FileMedia) Size() Size {
	return KnownSize(f.size)
}

// ReadAll implements Media.
func (f *FileMedia) ReadAll(ctx context.Context) <-chan Chunk {
	if f.size == 0 {
		ch := make(chan Chunk)
		close(ch)
		return ch
	}
	return f.ReadRange(ctx, 0, f.size-1)
}

// ReadRange implements Media. end is clamped to the last byte.
func (f *FileMedia) ReadRange(ctx context.Context, start, end uint64) <-chan Chunk {
	if end >= f.size {
		end = f.size - 1
	}

	return Produce(ctx, func(emit func([]byte) bool) error {
		return copyRange(f.r, start, end, emit)
	})
}

// Close releases the underlying reader.
func (f *FileMedia) Close() error {
	if f.c == nil {
		return nil
	}
	return f.c.Close()
}

func copyRange(r io.ReaderAt, start, end uint64, emit func([]byte) bool) error {
	if end < start {
		return nil
	}

	off := int64(start)
	remaining := end - start + 1

	for remaining > 0 {
		n := uint64(ChunkSize)
		if remaining < n {
			n = remaining
		}

		// Each chunk gets its own buffer since the consumer may still hold the previous one.
		buf := make([]byte, n)
		read, err := r.ReadAt(buf, off)
		if read > 0 {
			if !emit(buf[:read]) {
				return nil
			}
			off += int64(read)
			remaining -= uint64(read)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if remaining > 0 {
					return io.ErrUnexpectedEOF
				}
				return nil
			}
			return err
		}
	}

	return nil
}
