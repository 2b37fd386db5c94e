package source

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"jellyflow/internal/stream"
)

// Reader is the local variant: sequential reads of at most chunkSize bytes.
type Reader struct {
	name string
	r    io.Reader
	buf  []byte
	done atomic.Bool
}

func NewReader(name string, r io.Reader, chunkSize int) *Reader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Reader{name: name, r: r, buf: make([]byte, chunkSize)}
}

func (r *Reader) Name() string { return r.name }

// Next returns a fresh slice per call; the handoff channel owns it afterwards.
// A read blocked when ctx ends is aborted by closing the underlying reader
// if it is an io.Closer.
func (r *Reader) Next(ctx context.Context) ([]byte, error) {
	for {
		if r.done.Load() {
			return nil, io.EOF
		}
		if ctx.Err() != nil {
			return nil, stream.Cancelled(ctx)
		}
		n, err := r.read(ctx)
		if err != nil && ctx.Err() != nil {
			r.done.Store(true)
			return nil, stream.Cancelled(ctx)
		}
		if errors.Is(err, io.EOF) {
			r.done.Store(true)
			err = nil
		}
		if err != nil {
			r.done.Store(true)
			return nil, &stream.IOError{Source: r.name, Err: err}
		}
		if n > 0 {
			out := make([]byte, n)
			copy(out, r.buf[:n])
			return out, nil
		}
	}
}

func (r *Reader) read(ctx context.Context) (int, error) {
	c, ok := r.r.(io.Closer)
	if !ok {
		return r.r.Read(r.buf)
	}
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()
	return r.r.Read(r.buf)
}

// Close closes the underlying reader when it is an io.Closer.
func (r *Reader) Close() error {
	r.done.Store(true)
	if c, ok := r.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
