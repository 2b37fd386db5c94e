// Package jelly decodes Jelly RDF streams: a sequence of varint
// length-delimited RdfStreamFrame protobuf messages. The decoder pulls raw
// chunks from a ChunkReader and yields one frame's records per NextFrame
// call.
package jelly

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"google.golang.org/protobuf/encoding/protowire"

	"jellyflow/internal/rdf"
	"jellyflow/internal/stream"
)

// ChunkReader is the receiving half of a handoff channel. Next returns
// io.EOF once the channel is closed and drained.
type ChunkReader interface {
	Next(ctx context.Context) ([]byte, error)
}

// Limits bounds the memory a stream may claim.
type Limits struct {
	MaxFrameBytes uint64
	MaxNames      uint64
	MaxPrefixes   uint64
	MaxDatatypes  uint64
}

func DefaultLimits() Limits {
	return Limits{
		MaxFrameBytes: 64 << 20,
		MaxNames:      4096,
		MaxPrefixes:   1024,
		MaxDatatypes:  256,
	}
}

type Decoder[R any] struct {
	in      ChunkReader
	factory rdf.Factory[R]
	limits  Limits

	data  []byte // data[start:] is buffered and not yet decoded
	start int
	base  int64 // stream offset of data[start]
	eof   bool
	err   error

	st      streamState
	pending []R
	state   atomic.Int32
	frames  atomic.Int64
}

// NewDecoder pairs a chunk reader with a record factory. Zero limits take
// the defaults.
func NewDecoder[R any](in ChunkReader, factory rdf.Factory[R], limits Limits) *Decoder[R] {
	def := DefaultLimits()
	if limits.MaxFrameBytes == 0 {
		limits.MaxFrameBytes = def.MaxFrameBytes
	}
	if limits.MaxNames == 0 {
		limits.MaxNames = def.MaxNames
	}
	if limits.MaxPrefixes == 0 {
		limits.MaxPrefixes = def.MaxPrefixes
	}
	if limits.MaxDatatypes == 0 {
		limits.MaxDatatypes = def.MaxDatatypes
	}
	return &Decoder[R]{in: in, factory: factory, limits: limits}
}

// State reports Open, Draining or Closed.
func (d *Decoder[R]) State() stream.State { return stream.State(d.state.Load()) }

// Frames reports the number of frames completed so far.
func (d *Decoder[R]) Frames() int64 { return d.frames.Load() }

// Options returns the stream options once the first options row was read.
func (d *Decoder[R]) Options() *StreamOptions { return d.st.opts }

// NextFrame waits until a whole frame is buffered or the channel is closed.
// It passes every record of the frame to emit, in decode order, and reports
// true; it reports false once the input is exhausted. A frame that fails to
// decode emits nothing, and the decoder keeps returning that error.
func (d *Decoder[R]) NextFrame(ctx context.Context, emit func(R)) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	if d.State() == stream.Closed {
		return false, nil
	}
	for {
		msg, size, err := d.split()
		if err != nil {
			return false, d.fail(err)
		}
		if msg != nil {
			at := d.base + int64(size-len(msg))
			if err := d.decodeFrame(msg, at); err != nil {
				return false, d.fail(err)
			}
			d.consume(size)
			d.frames.Add(1)
			for i, r := range d.pending {
				emit(r)
				var zero R
				d.pending[i] = zero
			}
			d.pending = d.pending[:0]
			return true, nil
		}

		if d.eof {
			if len(d.data) == d.start {
				d.state.Store(int32(stream.Closed))
				return false, nil
			}
			return false, d.fail(&stream.DecodeError{Offset: d.base, Err: stream.ErrTruncated})
		}
		if err := d.fill(ctx); err != nil {
			return false, err
		}
	}
}

func (d *Decoder[R]) fail(err error) error {
	d.err = err
	return err
}

// split returns the next complete frame message and the number of buffered
// bytes it spans including its length prefix, or nil if more bytes are
// needed.
func (d *Decoder[R]) split() ([]byte, int, error) {
	buf := d.data[d.start:]
	if len(buf) == 0 {
		return nil, 0, nil
	}
	n, m := protowire.ConsumeVarint(buf)
	if m < 0 {
		err := protowire.ParseError(m)
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, 0, nil
		}
		return nil, 0, &stream.DecodeError{Offset: d.base, Err: err}
	}
	if n > d.limits.MaxFrameBytes {
		return nil, 0, decodeErr(d.base, "frame of %d bytes exceeds limit %d", n, d.limits.MaxFrameBytes)
	}
	if uint64(len(buf)-m) < n {
		return nil, 0, nil
	}
	size := m + int(n)
	return buf[m:size], size, nil
}

func (d *Decoder[R]) decodeFrame(msg []byte, at int64) error {
	out := func(s, p, o, g rdf.Term) {
		d.pending = append(d.pending, d.factory.NewRecord(s, p, o, g))
	}
	err := walk(msg, at, func(f field) error {
		if f.num != frameRows {
			return nil
		}
		return d.st.row(f, d.limits, out)
	})
	if err != nil {
		clear(d.pending)
		d.pending = d.pending[:0]
	}
	return err
}

// fill appends the next chunk from the reader to the buffer, compacting
// the already decoded prefix first.
func (d *Decoder[R]) fill(ctx context.Context) error {
	chunk, err := d.in.Next(ctx)
	if errors.Is(err, io.EOF) {
		d.eof = true
		d.state.CompareAndSwap(int32(stream.Open), int32(stream.Draining))
		return nil
	}
	if err != nil {
		return err
	}
	if d.start > 0 {
		n := copy(d.data, d.data[d.start:])
		d.data = d.data[:n]
		d.start = 0
	}
	d.data = append(d.data, chunk...)
	return nil
}

func (d *Decoder[R]) consume(n int) {
	d.start += n
	d.base += int64(n)
}
