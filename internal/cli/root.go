// Package cli holds the jellyflow command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"jellyflow/internal/engine"
	"jellyflow/internal/jelly"
	"jellyflow/internal/logging"
	"jellyflow/internal/pipeline"
	"jellyflow/internal/report"
	"jellyflow/internal/telemetry"
	"jellyflow/internal/transport"
	"jellyflow/sink/stdout"
	"jellyflow/source"
	_ "jellyflow/source/file"
	_ "jellyflow/source/http"
	_ "jellyflow/source/kafka"
)

type globalFlags struct {
	logLevel string
	logJSON  bool
	plain    bool
}

// NewRootCmd builds the command tree writing records to out and reports
// to errOut.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:   "jellyflow",
		Short: "Streaming decoder for Jelly RDF streams",
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if cmd.Flags().Changed("log-level") || cmd.Flags().Changed("log-json") {
				logging.Configure(logging.Options{Level: g.logLevel, JSON: g.logJSON})
			}
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "debug|info|warn|error")
	root.PersistentFlags().BoolVar(&g.logJSON, "log-json", false, "Log as JSON")
	root.PersistentFlags().BoolVar(&g.plain, "plain", usePlain(errOut), "Disable markdown rendering of reports")

	root.AddCommand(newDecodeCmd(&g, out, errOut), newServeCmd(), newProgressCmd(&g, errOut))
	return root
}

type decodeFlags struct {
	sourceConfig string
	factory      string
	printValues  bool
	printFrames  bool
	retainText   bool
	maxPending   int
	progress     time.Duration
}

func newDecodeCmd(g *globalFlags, out, errOut io.Writer) *cobra.Command {
	var f decodeFlags
	cmd := &cobra.Command{
		Use:   "decode <path|url>...",
		Short: "Decode one or more inputs and print their records",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd.Context(), g, f, args, out, errOut)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.sourceConfig, "source-config", "", "Source tuning YAML (env JELLYFLOW_SOURCE__* also applies)")
	fl.StringVar(&f.factory, "factory", "text", "Record form: quad|text")
	fl.BoolVar(&f.printValues, "print", true, "Print one line per record")
	fl.BoolVar(&f.printFrames, "print-frames", false, "Print one line per frame")
	fl.BoolVar(&f.retainText, "retain-frame-text", false, "Include the records' text in frame lines")
	fl.IntVar(&f.maxPending, "max-pending", 0, "Bound on queued chunks (0 = unbounded)")
	fl.DurationVar(&f.progress, "progress", 0, "Log progress at this interval (0 = off)")
	return cmd
}

func runDecode(ctx context.Context, g *globalFlags, f decodeFlags, inputs []string, out, errOut io.Writer) error {
	if f.factory != "quad" && f.factory != "text" {
		return fmt.Errorf("factory %q not supported (want quad or text)", f.factory)
	}
	sc, err := source.LoadConfig(f.sourceConfig)
	if err != nil {
		return err
	}

	r := pipeline.NewRunner(telemetry.NewBoard())
	r.SetSourceConfig(sc)
	r.SetDecoder(f.factory, jelly.Limits{})
	r.SetOptions(pipeline.Options{MaxPending: f.maxPending, RetainFrameText: f.retainText})
	r.AddSink(stdout.New(out, stdout.Config{PrintValue: f.printValues, PrintFrames: f.printFrames}))
	for _, in := range inputs {
		if in == "-" {
			r.AddInput(os.Stdin)
			continue
		}
		r.AddInput(in)
	}

	if f.progress > 0 {
		pctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go engine.LogProgress(pctx, r.Board(), f.progress)
	}

	runErr := r.Run(ctx)
	closeErr := r.Close()
	if err := report.Render(errOut, r.Board().Snapshots(), g.plain); err != nil {
		logging.L().Warn("report: render failed", "err", err)
	}
	return errors.Join(runErr, closeErr)
}

func newServeCmd() *cobra.Command {
	var cfg engine.Config
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a pipeline manifest with the control server and metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := engine.Bootstrap(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			return e.Run(cmd.Context())
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&cfg.Manifest, "config", "c", "pipeline.yml", "Pipeline manifest (.yml or .toml)")
	fl.IntVar(&cfg.GRPCPort, "grpc-port", 0, "Control server port (default from manifest)")
	fl.IntVar(&cfg.MetricsPort, "metrics-port", 0, "Prometheus port (default from manifest)")
	fl.BoolVar(&cfg.ExitOnDone, "exit-on-done", false, "Stop after the last input")
	return cmd
}

func newProgressCmd(g *globalFlags, errOut io.Writer) *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show the progress of a running engine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			cli, err := transport.Dial(addr)
			if err != nil {
				return err
			}
			defer cli.Close()
			snaps, err := cli.Snapshots(ctx)
			if err != nil {
				return fmt.Errorf("progress %s: %w", addr, err)
			}
			return report.Render(errOut, snaps, g.plain)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:7070", "Engine control address")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Request timeout")
	return cmd
}

func usePlain(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return true
	}
	return report.UsePlain(f)
}
