// Package manifest holds the pipeline manifest types shared by the config
// loader and the runner compiler.
package manifest

import (
	"time"

	kafkasink "jellyflow/sink/kafka"
	"jellyflow/sink/stdout"
)

const SchemaV1 = "v1"

type SinkConfigs struct {
	Stdout stdout.Config    `yaml:"stdout" toml:"stdout"`
	Kafka  kafkasink.Config `yaml:"kafka" toml:"kafka"`
}

type DecoderSection struct {
	Factory       string `yaml:"factory" toml:"factory" default:"quad"` // quad|text
	MaxFrameBytes uint64 `yaml:"max_frame_bytes" toml:"max_frame_bytes"`
	MaxNames      uint64 `yaml:"max_names" toml:"max_names"`
	MaxPrefixes   uint64 `yaml:"max_prefixes" toml:"max_prefixes"`
	MaxDatatypes  uint64 `yaml:"max_datatypes" toml:"max_datatypes"`
}

type PipelineSection struct {
	RetainFrameText  bool          `yaml:"retain_frame_text" toml:"retain_frame_text"`
	MaxPendingChunks int           `yaml:"max_pending_chunks" toml:"max_pending_chunks"`
	ProgressInterval time.Duration `yaml:"progress_interval" toml:"progress_interval" default:"5s"`
}

type EngineSection struct {
	GRPCPort    int `yaml:"grpc_port" toml:"grpc_port" default:"7070"`
	MetricsPort int `yaml:"metrics_port" toml:"metrics_port" default:"9100"`
}

type File struct {
	SchemaVersion string `yaml:"schema_version" toml:"schema_version"`

	// Inputs are decoded in order: local paths or URLs.
	Inputs []string `yaml:"inputs" toml:"inputs"`

	Source struct {
		Config string `yaml:"config" toml:"config"`
	} `yaml:"source" toml:"source"`

	Decoder  DecoderSection  `yaml:"decoder" toml:"decoder"`
	Pipeline PipelineSection `yaml:"pipeline" toml:"pipeline"`
	Engine   EngineSection   `yaml:"engine" toml:"engine"`

	Sinks       []string    `yaml:"sinks" toml:"sinks"`
	SinkConfigs SinkConfigs `yaml:"sink_configs" toml:"sink_configs"`
}
