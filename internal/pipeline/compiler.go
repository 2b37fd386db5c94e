package pipeline

import (
	"errors"
	"fmt"

	"jellyflow/internal/config"
	"jellyflow/internal/jelly"
	"jellyflow/internal/manifest"
	"jellyflow/internal/telemetry"
	"jellyflow/sink"
	"jellyflow/source"
	_ "jellyflow/source/file"
	_ "jellyflow/source/http"
	_ "jellyflow/source/kafka"
)

// Compile loads a manifest and builds its Runner.
func Compile(path string, board *telemetry.Board) (*Runner, manifest.File, error) {
	cfg, confPath, err := config.LoadManifest(path)
	if err != nil {
		return nil, cfg, err
	}
	r, err := Build(cfg, confPath, board)
	return r, cfg, err
}

// Build wires a parsed manifest: source tuning, decoder, pipeline options
// and sinks.
func Build(cfg manifest.File, srcConfPath string, board *telemetry.Board) (*Runner, error) {
	r := NewRunner(board)

	sc := source.DefaultConfig()
	if srcConfPath != "" {
		var err error
		if sc, err = config.LoadSourceConfig(srcConfPath); err != nil {
			return nil, fmt.Errorf("source config %s: %w", srcConfPath, err)
		}
	}
	r.SetSourceConfig(sc)
	r.SetDecoder(cfg.Decoder.Factory, jelly.Limits{
		MaxFrameBytes: cfg.Decoder.MaxFrameBytes,
		MaxNames:      cfg.Decoder.MaxNames,
		MaxPrefixes:   cfg.Decoder.MaxPrefixes,
		MaxDatatypes:  cfg.Decoder.MaxDatatypes,
	})
	r.SetOptions(Options{
		MaxPending:      cfg.Pipeline.MaxPendingChunks,
		RetainFrameText: cfg.Pipeline.RetainFrameText,
	})
	for _, in := range cfg.Inputs {
		r.AddInput(in)
	}

	for _, name := range cfg.Sinks {
		sDrv, err := sink.NewAdapter(name)
		if err != nil {
			return nil, errors.Join(err, r.Close())
		}

		switch name {
		case "stdout":
			err = sDrv.Configure(cfg.SinkConfigs.Stdout)
		case "kafka":
			err = sDrv.Configure(cfg.SinkConfigs.Kafka)
		default:
			err = fmt.Errorf("no config block for sink %q", name)
		}
		if err != nil {
			return nil, errors.Join(fmt.Errorf("sink %s: %w", name, err), r.Close())
		}
		r.AddSink(sDrv)
	}
	return r, nil
}
