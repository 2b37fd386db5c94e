package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"jellyflow/internal/manifest"
)

const SupportedSchema = manifest.SchemaV1

// LoadManifest parses a pipeline manifest (YAML, or TOML for .toml files),
// applies defaults, validates schema_version, and returns the manifest and
// an absolute path to the source config (if set).
func LoadManifest(path string) (manifest.File, string, error) {
	var cfg manifest.File
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, "", err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(raw), &cfg); err != nil {
			return cfg, "", fmt.Errorf("manifest %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, "", fmt.Errorf("manifest %s: %w", path, err)
		}
	}
	if err := defaults.Set(&cfg); err != nil {
		return cfg, "", err
	}
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = SupportedSchema
	}
	if cfg.SchemaVersion != SupportedSchema {
		return cfg, "", fmt.Errorf("pipeline schema_version %q not supported (want %q)", cfg.SchemaVersion, SupportedSchema)
	}
	if err := validate(cfg); err != nil {
		return cfg, "", err
	}
	confPath := cfg.Source.Config
	if confPath != "" && !filepath.IsAbs(confPath) {
		confPath = filepath.Join(filepath.Dir(path), confPath)
	}
	if confPath != "" {
		if confPath, err = filepath.Abs(confPath); err != nil {
			return cfg, "", err
		}
	}
	return cfg, confPath, nil
}

func validate(cfg manifest.File) error {
	switch cfg.Decoder.Factory {
	case "quad", "text":
	default:
		return fmt.Errorf("decoder factory %q not supported (want quad or text)", cfg.Decoder.Factory)
	}
	if cfg.Pipeline.MaxPendingChunks < 0 {
		return fmt.Errorf("pipeline max_pending_chunks must not be negative")
	}
	return nil
}
