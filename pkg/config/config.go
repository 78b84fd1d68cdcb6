// Package config holds the engine settings shared by the command line, the
// services and the terminal.
package config

import (
	"fmt"
	"os"
	"prowl/pkg/proc"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvFile names the environment variable consulted when no --config flag
// is given.
const EnvFile = "PROWL_CONFIG"

const (
	ServerHTTP = "http"
	ServerGRPC = "grpc"
)

type Log struct {
	Enabled bool   `yaml:"enabled"`
	Output  string `yaml:"output"`
	Dest    string `yaml:"dest"`
}

type Server struct {
	Kind string `yaml:"kind"`
	Addr string `yaml:"addr"`
}

type Config struct {
	ChunkSize  int           `yaml:"chunk_size"`
	Batch      int           `yaml:"batch"`
	Retries    int           `yaml:"retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	Freeze     bool          `yaml:"freeze"`
	Log        Log           `yaml:"log"`
	Server     Server        `yaml:"server"`
}

func Default() Config {
	return Config{
		ChunkSize:  4,
		Batch:      1,
		RetryDelay: 10 * time.Millisecond,
		Server: Server{
			Kind: ServerHTTP,
			Addr: "127.0.0.1:0",
		},
	}
}

// Load reads path over the defaults. An empty path falls back to
// $PROWL_CONFIG, and to the bare defaults when that is unset too.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvFile)
	}
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.Batch < 1 || c.Batch > proc.MaxVectors {
		return fmt.Errorf("batch must be within 1..%d, got %d", proc.MaxVectors, c.Batch)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", c.Retries)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay must not be negative, got %s", c.RetryDelay)
	}
	switch c.Server.Kind {
	case ServerHTTP, ServerGRPC:
	default:
		return fmt.Errorf("unknown server kind %q", c.Server.Kind)
	}
	return nil
}
