package engine

import (
	"context"
	"errors"
	"net/http"
	"time"

	"jellyflow/internal/logging"
	"jellyflow/internal/pipeline"
	"jellyflow/internal/telemetry"
	"jellyflow/internal/transport"
)

type Engine struct {
	cfg       Config
	transport *transport.Server
	metrics   *http.Server
	runner    *pipeline.Runner
	board     *telemetry.Board
	interval  time.Duration
}

func (e *Engine) Board() *telemetry.Board  { return e.board }
func (e *Engine) Runner() *pipeline.Runner { return e.runner }

// Run serves the control plane while the runner decodes its inputs. It
// returns when ctx ends, or after the last input when ExitOnDone is set;
// the error is the runner's.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	served := make(chan error, 1)
	go func() { served <- e.transport.Serve() }()

	if e.interval > 0 {
		go LogProgress(ctx, e.board, e.interval)
	}

	done := e.runner.Start(ctx)
	var runErr error
	select {
	case runErr = <-done:
		logging.L().Info("engine: all inputs processed", "inputs", len(e.runner.Results()), "failed", runErr != nil)
		if !e.cfg.ExitOnDone {
			<-ctx.Done()
		}
	case err := <-served:
		cancel()
		runErr = errors.Join(err, <-done)
	}

	cancel()
	e.transport.Stop()
	_ = e.metrics.Close()
	return errors.Join(runErr, e.runner.Close())
}

// LogProgress logs every unfinished input each interval until ctx ends.
func LogProgress(ctx context.Context, board *telemetry.Board, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for _, s := range board.Snapshots() {
				if s.Done {
					continue
				}
				args := []any{"input", s.Input, "frames", s.Frames, "records", s.Records, "bytes", s.Bytes}
				if tp, ok := s.Throughput(); ok {
					args = append(args, "records_per_sec", int64(tp))
				}
				logging.L().Info("progress", args...)
			}
		}
	}
}
