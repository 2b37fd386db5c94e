// Package handoff is the ordered, closeable conduit between chunk
// acquisition and frame decoding. One goroutine sends, one goroutine
// receives.
package handoff

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/eapache/queue"

	"jellyflow/internal/stream"
)

type Channel struct {
	maxPending int

	mu     sync.Mutex
	q      *queue.Queue
	closed bool
	bytes  int64

	ready chan struct{} // a chunk or the close signal is available
	space chan struct{} // the receiver took a chunk
}

// New returns a Channel. maxPending <= 0 leaves it unbounded; otherwise Send
// waits while maxPending chunks are queued.
func New(maxPending int) *Channel {
	return &Channel{
		maxPending: maxPending,
		q:          queue.New(),
		ready:      make(chan struct{}, 1),
		space:      make(chan struct{}, 1),
	}
}

// Send enqueues chunk; ownership passes to the channel. Sending after Close
// fails with stream.ErrInvalidState.
func (c *Channel) Send(ctx context.Context, chunk []byte) error {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return fmt.Errorf("handoff: send after close: %w", stream.ErrInvalidState)
		}
		if len(chunk) == 0 {
			c.mu.Unlock()
			return nil
		}
		if c.maxPending <= 0 || c.q.Length() < c.maxPending {
			c.q.Add(chunk)
			c.bytes += int64(len(chunk))
			c.mu.Unlock()
			notify(c.ready)
			return nil
		}
		c.mu.Unlock()

		select {
		case <-c.space:
		case <-ctx.Done():
			return stream.Cancelled(ctx)
		}
	}
}

// Close signals that no further chunks will arrive. The receiver observes
// it only after every chunk sent before it.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("handoff: close twice: %w", stream.ErrInvalidState)
	}
	c.closed = true
	notify(c.ready)
	return nil
}

// Next blocks until a chunk is available and returns it in send order.
// After Close and once drained it returns io.EOF.
func (c *Channel) Next(ctx context.Context) ([]byte, error) {
	for {
		c.mu.Lock()
		if c.q.Length() > 0 {
			chunk := c.q.Remove().([]byte)
			c.mu.Unlock()
			notify(c.space)
			return chunk, nil
		}
		if c.closed {
			c.mu.Unlock()
			return nil, io.EOF
		}
		c.mu.Unlock()

		select {
		case <-c.ready:
		case <-ctx.Done():
			return nil, stream.Cancelled(ctx)
		}
	}
}

// Pending reports the queued chunk count.
func (c *Channel) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.q.Length()
}

// Sent reports the total bytes accepted by Send.
func (c *Channel) Sent() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
