package source

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/creasty/defaults"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const DefaultChunkSize = 64 << 10

// EnvPrefix selects the environment overrides, e.g.
// JELLYFLOW_SOURCE__HTTP__TIMEOUT=5s.
const EnvPrefix = "JELLYFLOW_SOURCE__"

type HTTPConfig struct {
	Timeout   time.Duration `koanf:"timeout" default:"30s"`
	UserAgent string        `koanf:"user_agent" default:"jellyflow/1"`
}

type KafkaConfig struct {
	Version  string `koanf:"version" default:"3.6.0"`
	ClientID string `koanf:"client_id" default:"jellyflow"`
	TLSEn    bool   `koanf:"tls_enabled"`
	SASLUser string `koanf:"sasl_user"`
	SASLPass string `koanf:"sasl_pass"`
}

type Config struct {
	ChunkSize int         `koanf:"chunk_size" default:"65536"`
	HTTP      HTTPConfig  `koanf:"http"`
	Kafka     KafkaConfig `koanf:"kafka"`
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	var c Config
	_ = defaults.Set(&c)
	return c
}

// LoadConfig merges YAML (if present) with env-vars
// (prefix `JELLYFLOW_SOURCE__`, delimiter `__`).
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	sv := k.String("schema_version")
	if sv != "" && sv != "v1" {
		return Config{}, fmt.Errorf("source schema_version %q not supported (want v1)", sv)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	if err := defaults.Set(&cfg); err != nil {
		return cfg, err
	}
	if cfg.ChunkSize < 0 {
		return cfg, fmt.Errorf("source: chunk_size must be positive, got %d", cfg.ChunkSize)
	}
	return cfg, nil
}

// envKey maps JELLYFLOW_SOURCE__HTTP__USER_AGENT to http.user_agent.
func envKey(s string) string {
	s = s[len(EnvPrefix):]
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch {
		case i+1 < len(s) && s[i] == '_' && s[i+1] == '_':
			out = append(out, '.')
			i++
		case s[i] >= 'A' && s[i] <= 'Z':
			out = append(out, s[i]+'a'-'A')
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
