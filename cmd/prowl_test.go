package cmd

import (
	"os"
	"path/filepath"
	"prowl/pkg/config"
	"prowl/pkg/scanner"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

// runProbe runs the app with a command that captures the merged
// configuration.
func runProbe(t *testing.T, args ...string) (config.Config, error) {
	t.Helper()

	var got config.Config
	app := NewProwl()
	app.Commands = append(app.Commands, cli.Command{
		Name: "probe",
		Action: func(ctx *cli.Context) error {
			got = configFrom(ctx)
			return nil
		},
	})

	err := app.Run(append(append([]string{"prowl"}, args...), "probe"))
	return got, err
}

func TestConfigDefaults(t *testing.T) {
	t.Setenv(config.EnvFile, "")

	cfg, err := runProbe(t)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prowl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("batch: 8\nretries: 1\nserver:\n  kind: grpc\n"), 0600))

	cfg, err := runProbe(t, "--config", path, "--batch", "32", "--retry-delay", "1s", "--freeze")
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Batch)
	assert.Equal(t, 1, cfg.Retries)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.True(t, cfg.Freeze)
	assert.Equal(t, config.ServerGRPC, cfg.Server.Kind)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv(config.EnvFile, "")
	t.Setenv("PROWL_CHUNK", "8")
	t.Setenv("PROWL_SRV", "grpc")

	cfg, err := runProbe(t)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.ChunkSize)
	assert.Equal(t, config.ServerGRPC, cfg.Server.Kind)
}

func TestInvalidFlags(t *testing.T) {
	t.Setenv(config.EnvFile, "")

	_, err := runProbe(t, "--batch", "0")
	assert.ErrorContains(t, err, "invalid configuration")

	_, err = runProbe(t, "--srv", "tcp")
	assert.ErrorContains(t, err, "invalid configuration")

	_, err = runProbe(t, "--log-output", "prowler,bogus", "--log")
	assert.Error(t, err)
}

func TestBadPid(t *testing.T) {
	t.Setenv(config.EnvFile, "")

	err := NewProwl().Run([]string{"prowl", "find", "notapid", "heap", "u32", "0"})
	assert.ErrorContains(t, err, "invalid pid")

	err = NewProwl().Run([]string{"prowl", "find", "1"})
	assert.ErrorContains(t, err, "exactly 4")
}

func TestMapsAndDumpSelf(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("/proc/<pid>/maps is linux only")
	}
	t.Setenv(config.EnvFile, "")
	pid := strconv.Itoa(os.Getpid())

	require.NoError(t, NewProwl().Run([]string{"prowl", "maps", pid}))

	path := filepath.Join(t.TempDir(), "vdso.zst")
	err := NewProwl().Run([]string{"prowl", "dump", pid, "[vdso]", path})
	if err != nil {
		t.Skipf("no readable [vdso] here: %v", err)
	}

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	snap, err := scanner.Import(f)
	require.NoError(t, err)
	assert.Equal(t, "[vdso]", snap.Region.Name)
}
