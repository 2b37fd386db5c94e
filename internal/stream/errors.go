package stream

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidState reports protocol misuse, e.g. Send after Close.
	ErrInvalidState = errors.New("stream: invalid state")
	// ErrCancelled reports that the caller abandoned the pipeline.
	ErrCancelled = errors.New("stream: cancelled")
	// ErrTruncated is wrapped by a DecodeError when the stream ends inside a frame.
	ErrTruncated = errors.New("stream: truncated frame")
)

// IOError is a chunk source read failure.
type IOError struct {
	Source string
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io: %s: %v", e.Source, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// TransportError is a non-success initial response from a network source.
type TransportError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %s", e.URL, e.Status)
}

// DecodeError carries the absolute stream offset of the first invalid byte.
type DecodeError struct {
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode at offset %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Cancelled wraps the context cause so both ErrCancelled and the context
// error match with errors.Is.
func Cancelled(ctx context.Context) error {
	cause := context.Cause(ctx)
	if cause == nil {
		cause = context.Canceled
	}
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}

// Kind labels err for reporting: io, transport, decode, invalid_state,
// cancelled, or other. Nil reports "".
func Kind(err error) string {
	var (
		ioErr  *IOError
		trErr  *TransportError
		decErr *DecodeError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.As(err, &trErr):
		return "transport"
	case errors.As(err, &decErr):
		return "decode"
	case errors.As(err, &ioErr):
		return "io"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	default:
		return "other"
	}
}
