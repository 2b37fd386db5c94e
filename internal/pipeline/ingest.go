package pipeline

import (
	"context"
	"io"
	"sync"

	"jellyflow/internal/handoff"
	"jellyflow/internal/logging"
	"jellyflow/internal/stream"
	"jellyflow/internal/telemetry"
	"jellyflow/source"
)

// ingestion moves chunks from a source into the handoff channel on its own
// goroutine. err is set before the channel is closed.
type ingestion struct {
	name string
	done chan struct{}

	mu  sync.Mutex
	err error
}

func startIngest(ctx context.Context, src source.ChunkSource, ch *handoff.Channel, agg *telemetry.Aggregator) *ingestion {
	in := &ingestion{name: src.Name(), done: make(chan struct{})}
	go func() {
		defer close(in.done)
		err := pump(ctx, src, ch, agg)
		in.mu.Lock()
		in.err = err
		in.mu.Unlock()
		if err != nil && ctx.Err() == nil {
			logging.L().Warn("ingest: source failed", "input", src.Name(), "pending", ch.Pending(), "err", err)
		}
		// the only Close; the decoder drains what was sent before it
		if err := ch.Close(); err != nil {
			logging.L().Error("ingest: close channel", "input", src.Name(), "err", err)
		}
	}()
	return in
}

func pump(ctx context.Context, src source.ChunkSource, ch *handoff.Channel, agg *telemetry.Aggregator) error {
	for {
		chunk, err := src.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := ch.Send(ctx, chunk); err != nil {
			return err
		}
		agg.ObserveBytes(len(chunk))
	}
}

// wait blocks until ingestion ends or ctx is done. A source still blocked
// once ctx is done is left behind; it sees ctx on its next call.
func (in *ingestion) wait(ctx context.Context) error {
	select {
	case <-in.done:
	case <-ctx.Done():
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	select {
	case <-in.done:
		return in.err
	default:
	}
	if in.err != nil {
		return in.err
	}
	logging.L().Debug("ingest: source still blocked, not waiting", "input", in.name)
	return stream.Cancelled(ctx)
}
