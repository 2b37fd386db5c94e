package pipeline

import (
	"context"
	"fmt"
	"time"

	"jellyflow/internal/logging"
	"jellyflow/internal/telemetry"
)

type loopState int

const (
	pulling loopState = iota
	done
)

// consumer pulls frames until the decoder is exhausted or fails. It holds
// the records of at most one frame at a time.
type consumer[R any] struct {
	input    string
	dec      FrameDecoder[R]
	sink     RecordSink[R]
	agg      *telemetry.Aggregator
	retain   bool
	observer telemetry.FrameObserver

	state  loopState
	batch  []R
	frames int64
}

func (c *consumer[R]) collect(r R) { c.batch = append(c.batch, r) }

func (c *consumer[R]) run(ctx context.Context) error {
	for c.state == pulling {
		if err := c.step(ctx); err != nil {
			c.state = done
			return err
		}
	}
	return nil
}

func (c *consumer[R]) step(ctx context.Context) error {
	defer c.release()

	start := time.Now()
	ok, err := c.dec.NextFrame(ctx, c.collect)
	elapsed := time.Since(start)
	if err != nil {
		return err
	}
	if !ok {
		c.state = done
		return nil
	}

	for _, r := range c.batch {
		c.sink.OnRecord(r)
	}
	c.agg.ObserveFrame(len(c.batch), elapsed)
	c.frames++

	if c.observer != nil {
		rep := telemetry.FrameReport{
			Input:    c.input,
			Index:    c.frames - 1,
			Records:  len(c.batch),
			Duration: elapsed,
		}
		if c.retain {
			rep.Text = make([]string, len(c.batch))
			for i, r := range c.batch {
				rep.Text[i] = fmt.Sprint(r)
			}
		}
		c.observer(rep)
	}
	logging.L().Debug("consume: frame", "input", c.input, "index", c.frames-1, "records", len(c.batch), "took", elapsed)
	return nil
}

// release drops the references to the dispatched frame.
func (c *consumer[R]) release() {
	clear(c.batch)
	c.batch = c.batch[:0]
}
