package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestKind(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"io", &IOError{Source: "f", Err: io.ErrUnexpectedEOF}, "io"},
		{"transport", &TransportError{URL: "http://x", StatusCode: 404, Status: "404 Not Found"}, "transport"},
		{"decode", &DecodeError{Offset: 40, Err: ErrTruncated}, "decode"},
		{"wrapped decode", fmt.Errorf("input a: %w", &DecodeError{Offset: 1}), "decode"},
		{"invalid", fmt.Errorf("send: %w", ErrInvalidState), "invalid_state"},
		{"cancelled", Cancelled(ctx), "cancelled"},
		{"other", errors.New("boom"), "other"},
	}
	for _, tc := range cases {
		if got := Kind(tc.err); got != tc.want {
			t.Fatalf("%s: want %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestCancelledMatchesContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Cancelled(ctx)
	if !errors.Is(err, ErrCancelled) || !errors.Is(err, context.Canceled) {
		t.Fatalf("want ErrCancelled and context.Canceled, got %v", err)
	}
}

func TestDecodeErrorUnwrap(t *testing.T) {
	err := error(&DecodeError{Offset: 7, Err: ErrTruncated})
	if !errors.Is(err, ErrTruncated) {
		t.Fatal("DecodeError should unwrap to ErrTruncated")
	}
	var de *DecodeError
	if !errors.As(fmt.Errorf("x: %w", err), &de) || de.Offset != 7 {
		t.Fatalf("want offset 7, got %+v", de)
	}
}
