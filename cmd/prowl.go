package cmd

import (
	"fmt"
	"os"
	"prowl/pkg/config"
	"prowl/pkg/logflags"
	"strings"

	"github.com/urfave/cli"
)

const (
	usage = `prowl reads, searches and rewrites the memory of a running process
             from the outside, through process_vm_readv/process_vm_writev`

	configKey = "config"
)

var globalFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "config, c",
		Usage:  "YAML configuration file",
		EnvVar: config.EnvFile,
	},
	cli.IntFlag{
		Name:   "chunk",
		Usage:  "scan chunk size in bytes, used when no value fixes it",
		EnvVar: "PROWL_CHUNK",
	},
	cli.IntFlag{
		Name:   "batch",
		Usage:  "chunks transferred per vectored read (1-1024)",
		EnvVar: "PROWL_BATCH",
	},
	cli.IntFlag{
		Name:   "retries",
		Usage:  "extra attempts for a chunk read that failed",
		EnvVar: "PROWL_RETRIES",
	},
	cli.DurationFlag{
		Name:   "retry-delay",
		Usage:  "pause between chunk read attempts",
		EnvVar: "PROWL_RETRY_DELAY",
	},
	cli.BoolFlag{
		Name:   "freeze",
		Usage:  "stop the target with SIGSTOP while patching",
		EnvVar: "PROWL_FREEZE",
	},
	cli.BoolFlag{
		Name:   "log",
		Usage:  "enable debug logging",
		EnvVar: "PROWL_LOG",
	},
	cli.StringFlag{
		Name:   "log-output",
		Usage:  "comma separated list of components that should produce debug output (prowler, http, grpc)",
		EnvVar: "PROWL_LOG_OUTPUT",
	},
	cli.StringFlag{
		Name:   "log-dest",
		Usage:  "write logs to the specified file",
		EnvVar: "PROWL_LOG_DEST",
		Value:  logflags.DefaultLogDesc,
	},
	cli.StringFlag{
		Name:   "srv",
		Usage:  "remote service kind: http or grpc",
		EnvVar: "PROWL_SRV",
	},
}

func NewProwl() *cli.App {
	app := cli.NewApp()
	app.Name = "prowl"
	app.Usage = usage
	app.Flags = globalFlags
	app.Commands = []cli.Command{
		maps,
		find,
		patch,
		peek,
		dump,
		serve,
		attach,
		conn,
	}
	app.Before = setup
	app.After = func(*cli.Context) error {
		logflags.Close()
		return nil
	}

	return app
}

// setup loads the configuration file, applies the global flags on top and
// configures logging.
func setup(ctx *cli.Context) error {
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return err
	}

	if isSet(ctx, "chunk") {
		cfg.ChunkSize = ctx.Int("chunk")
	}
	if isSet(ctx, "batch") {
		cfg.Batch = ctx.Int("batch")
	}
	if isSet(ctx, "retries") {
		cfg.Retries = ctx.Int("retries")
	}
	if isSet(ctx, "retry-delay") {
		cfg.RetryDelay = ctx.Duration("retry-delay")
	}
	if isSet(ctx, "freeze") {
		cfg.Freeze = ctx.Bool("freeze")
	}
	if isSet(ctx, "log") {
		cfg.Log.Enabled = ctx.Bool("log")
	}
	if isSet(ctx, "log-output") {
		cfg.Log.Output = ctx.String("log-output")
	}
	if isSet(ctx, "log-dest") {
		cfg.Log.Dest = ctx.String("log-dest")
	}
	if isSet(ctx, "srv") {
		cfg.Server.Kind = ctx.String("srv")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logflags.Setup(cfg.Log.Enabled, cfg.Log.Output, cfg.Log.Dest); err != nil {
		return err
	}

	if ctx.App.Metadata == nil {
		ctx.App.Metadata = make(map[string]interface{})
	}
	ctx.App.Metadata[configKey] = cfg
	return nil
}

// isSet reports whether a global flag was given on the command line or
// through its PROWL_ environment variable.
func isSet(ctx *cli.Context, name string) bool {
	if ctx.IsSet(name) {
		return true
	}
	_, ok := os.LookupEnv(envName(name))
	return ok
}

func envName(flag string) string {
	return "PROWL_" + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

func configFrom(ctx *cli.Context) config.Config {
	if cfg, ok := ctx.App.Metadata[configKey].(config.Config); ok {
		return cfg
	}
	return config.Default()
}
