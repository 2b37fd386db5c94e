package engine

import (
	"context"
	"fmt"

	"jellyflow/internal/pipeline"
	"jellyflow/internal/stream"
	"jellyflow/internal/telemetry"
	"jellyflow/internal/transport"
)

// Config overrides the engine section of the manifest when a port is set.
type Config struct {
	GRPCPort    int
	MetricsPort int
	Manifest    string
	// ExitOnDone stops the engine once every input was processed.
	ExitOnDone bool
}

// Bootstrap compiles the manifest and binds the gRPC and metrics ports. It
// binds nothing once ctx is done.
func Bootstrap(ctx context.Context, cfg Config) (*Engine, error) {
	board := telemetry.NewBoard()

	// 1. pipeline runner
	runner, m, err := pipeline.Compile(cfg.Manifest, board)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if cfg.GRPCPort == 0 {
		cfg.GRPCPort = m.Engine.GRPCPort
	}
	if cfg.MetricsPort == 0 {
		cfg.MetricsPort = m.Engine.MetricsPort
	}
	if ctx.Err() != nil {
		_ = runner.Close()
		return nil, stream.Cancelled(ctx)
	}

	// 2. transport server
	srv, err := transport.StartServer(cfg.GRPCPort, board)
	if err != nil {
		_ = runner.Close()
		return nil, fmt.Errorf("transport: %w", err)
	}

	// 3. metrics
	metrics := telemetry.Expose(cfg.MetricsPort)

	return &Engine{
		cfg:       cfg,
		transport: srv,
		metrics:   metrics,
		runner:    runner,
		board:     board,
		interval:  m.Pipeline.ProgressInterval,
	}, nil
}
