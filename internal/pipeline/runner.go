package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"jellyflow/internal/jelly"
	"jellyflow/internal/logging"
	"jellyflow/internal/rdf"
	"jellyflow/internal/stream"
	"jellyflow/internal/telemetry"
	"jellyflow/sink"
	"jellyflow/source"
)

// Result is the outcome of one input.
type Result struct {
	Input    string
	Snapshot telemetry.Snapshot
	Err      error
}

// Runner decodes its inputs one after another and fans every record out to
// all sinks. A failed input does not stop the inputs after it.
type Runner struct {
	inputs  []any
	srcCfg  source.Config
	factory string // quad|text
	limits  jelly.Limits
	opts    Options
	sinks   []sink.Adapter
	board   *telemetry.Board

	mu      sync.Mutex
	results []Result
}

func NewRunner(board *telemetry.Board) *Runner {
	if board == nil {
		board = telemetry.NewBoard()
	}
	return &Runner{board: board, factory: "quad", srcCfg: source.DefaultConfig()}
}

func (r *Runner) AddSink(s sink.Adapter) { r.sinks = append(r.sinks, s) }
func (r *Runner) AddInput(in any)        { r.inputs = append(r.inputs, in) }

func (r *Runner) SetSourceConfig(c source.Config) { r.srcCfg = c }
func (r *Runner) SetOptions(o Options)            { r.opts = o }

// SetDecoder picks the record factory ("quad" or "text") and the limits.
func (r *Runner) SetDecoder(factory string, limits jelly.Limits) {
	r.factory, r.limits = factory, limits
}

func (r *Runner) Board() *telemetry.Board { return r.board }

func (r *Runner) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...)
}

// Run processes every input and returns the joined per-input errors.
func (r *Runner) Run(ctx context.Context) error {
	if len(r.inputs) == 0 {
		return errors.New("runner: no inputs configured")
	}
	if r.opts.RetainFrameText && r.frameObserver() == nil {
		logging.L().Warn("runner: retain_frame_text has no effect without a frame-aware sink or observer",
			"sinks", len(r.sinks))
	}
	var errs []error
	for _, in := range r.inputs {
		if ctx.Err() != nil {
			errs = append(errs, stream.Cancelled(ctx))
			break
		}
		res := r.runInput(ctx, in)
		r.mu.Lock()
		r.results = append(r.results, res)
		r.mu.Unlock()
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Input, res.Err))
		}
	}
	return errors.Join(errs...)
}

// Start runs in the background; the channel yields Run's error once.
func (r *Runner) Start(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	return done
}

// Close closes every sink.
func (r *Runner) Close() error {
	var errs []error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Runner) runInput(ctx context.Context, in any) Result {
	src, err := source.Select(ctx, in, r.srcCfg)
	if err != nil {
		name := label(in)
		agg := r.board.Track(name)
		agg.Finish(err)
		logging.L().Warn("runner: cannot open input", "input", name, "kind", stream.Kind(err), "err", err)
		return Result{Input: name, Snapshot: agg.Snapshot(), Err: err}
	}
	defer func() {
		if err := src.Close(); err != nil {
			logging.L().Debug("runner: close source", "input", src.Name(), "err", err)
		}
	}()

	opts := r.opts
	opts.Metrics = r.board.Track(src.Name())
	opts.Observer = r.frameObserver()
	logging.L().Info("runner: input start", "input", src.Name(), "factory", r.factory)

	var snap telemetry.Snapshot
	switch r.factory {
	case "text":
		snap, err = Run(ctx, src, Jelly[string](rdf.TextFactory{}, r.limits), fanout[string](r.sinks), opts)
	default:
		snap, err = Run(ctx, src, Jelly[rdf.Quad](rdf.QuadFactory{}, r.limits), fanout[rdf.Quad](r.sinks), opts)
	}
	return Result{Input: src.Name(), Snapshot: snap, Err: err}
}

func fanout[R any](sinks []sink.Adapter) SinkFunc[R] {
	return func(rec R) {
		for _, s := range sinks {
			s.OnRecord(rec)
		}
	}
}

func (r *Runner) frameObserver() telemetry.FrameObserver {
	var aware []sink.FrameAware
	for _, s := range r.sinks {
		if fa, ok := s.(sink.FrameAware); ok {
			aware = append(aware, fa)
		}
	}
	if len(aware) == 0 {
		return r.opts.Observer
	}
	user := r.opts.Observer
	return func(rep telemetry.FrameReport) {
		for _, fa := range aware {
			fa.OnFrame(rep)
		}
		if user != nil {
			user(rep)
		}
	}
}

func label(in any) string {
	switch v := in.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%T", in)
	}
}
