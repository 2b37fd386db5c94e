// Package pipeline wires a chunk source, a handoff channel and a frame
// decoder into one concurrent decode of a single input, and runs the
// inputs of a manifest one after another.
package pipeline

import (
	"context"
	"errors"

	"jellyflow/internal/handoff"
	"jellyflow/internal/jelly"
	"jellyflow/internal/logging"
	"jellyflow/internal/rdf"
	"jellyflow/internal/stream"
	"jellyflow/internal/telemetry"
	"jellyflow/source"
)

// FrameDecoder yields the records of one completed frame per call and
// returns false once the stream is exhausted.
type FrameDecoder[R any] interface {
	NextFrame(ctx context.Context, emit func(R)) (bool, error)
}

// DecoderFunc builds a decoder reading from the channel of one run.
type DecoderFunc[R any] func(in *handoff.Channel) FrameDecoder[R]

// Jelly returns a DecoderFunc for the Jelly RDF decoder.
func Jelly[R any](factory rdf.Factory[R], limits jelly.Limits) DecoderFunc[R] {
	return func(in *handoff.Channel) FrameDecoder[R] {
		return jelly.NewDecoder(in, factory, limits)
	}
}

// RecordSink is called once per record, in decode order.
type RecordSink[R any] interface {
	OnRecord(R)
}

type SinkFunc[R any] func(R)

func (f SinkFunc[R]) OnRecord(r R) { f(r) }

type Options struct {
	// MaxPending bounds the queued chunks; 0 is unbounded.
	MaxPending int
	// RetainFrameText renders each frame's records into its FrameReport.
	RetainFrameText bool
	Observer        telemetry.FrameObserver
	// Metrics receives frame and byte counts; nil creates one named after
	// the source.
	Metrics *telemetry.Aggregator
}

// Run decodes src to completion. Records reach sink as soon as their frame
// completes. The returned snapshot is valid even when err is not nil.
//
// A source failure is reported only after every frame buffered before it
// was delivered. A decode failure wins over a source failure, except when
// the decoder failed only because the failed source truncated the stream.
func Run[R any](ctx context.Context, src source.ChunkSource, newDecoder DecoderFunc[R], sink RecordSink[R], opts Options) (telemetry.Snapshot, error) {
	agg := opts.Metrics
	if agg == nil {
		agg = telemetry.NewAggregator(src.Name())
	}
	ch := handoff.New(opts.MaxPending)

	ingestCtx, stop := context.WithCancel(ctx)
	defer stop()
	ing := startIngest(ingestCtx, src, ch, agg)

	c := &consumer[R]{
		input:    src.Name(),
		dec:      newDecoder(ch),
		sink:     sink,
		agg:      agg,
		retain:   opts.RetainFrameText,
		observer: opts.Observer,
	}
	decErr := c.run(ctx)
	if decErr != nil {
		stop()
	}
	srcErr := ing.wait(ingestCtx)

	err := resolve(ctx, decErr, srcErr)
	agg.Finish(err)
	snap := agg.Snapshot()
	if err != nil {
		logging.L().Warn("pipeline: input failed", "input", src.Name(), "kind", stream.Kind(err),
			"frames", snap.Frames, "records", snap.Records, "err", err)
	} else {
		logging.L().Info("pipeline: input done", "input", src.Name(), "frames", snap.Frames, "records", snap.Records)
	}
	return snap, err
}

func resolve(ctx context.Context, decErr, srcErr error) error {
	// cancellations caused by our own teardown are not source failures
	if errors.Is(srcErr, stream.ErrCancelled) && ctx.Err() == nil {
		srcErr = nil
	}
	switch {
	case errors.Is(decErr, stream.ErrCancelled) || errors.Is(srcErr, stream.ErrCancelled):
		return stream.Cancelled(ctx)
	case decErr == nil:
		return srcErr
	case srcErr == nil:
		return decErr
	case errors.Is(decErr, stream.ErrTruncated):
		return srcErr
	default:
		return errors.Join(decErr, srcErr)
	}
}
