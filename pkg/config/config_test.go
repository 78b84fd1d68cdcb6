package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prowl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadEmpty(t *testing.T) {
	t.Setenv(EnvFile, "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
chunk_size: 8
batch: 64
retries: 2
retry_delay: 50ms
freeze: true
log:
  enabled: true
  output: prowler,grpc
server:
  kind: grpc
  addr: 127.0.0.1:7070
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.ChunkSize)
	assert.Equal(t, 64, cfg.Batch)
	assert.Equal(t, 2, cfg.Retries)
	assert.Equal(t, 50*time.Millisecond, cfg.RetryDelay)
	assert.True(t, cfg.Freeze)
	assert.Equal(t, Log{Enabled: true, Output: "prowler,grpc"}, cfg.Log)
	assert.Equal(t, Server{Kind: ServerGRPC, Addr: "127.0.0.1:7070"}, cfg.Server)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(EnvFile, writeConfig(t, "batch: 16\n"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Batch)
	assert.Equal(t, 4, cfg.ChunkSize)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "chunk_size: [1\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "batch: 4096\n"))
	assert.ErrorContains(t, err, "batch")
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"chunk":  func(c *Config) { c.ChunkSize = 0 },
		"batch":  func(c *Config) { c.Batch = 0 },
		"retry":  func(c *Config) { c.Retries = -1 },
		"delay":  func(c *Config) { c.RetryDelay = -time.Second },
		"server": func(c *Config) { c.Server.Kind = "tcp" },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
