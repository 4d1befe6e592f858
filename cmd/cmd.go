// Package cmd assembles the tsdb command tree: global flags, telemetry
// bootstrap, and the append/insert/query/sort/serve subcommands.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/json"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// Version is set with ldflags at build time.
//
//nolint:gochecknoglobals
var Version = "dev"

type flagSourcesFn func(configFileKey, envVar string) cli.ValueSourceChain

// New builds the root tsdb command.
func New() *cli.Command {
	var (
		otelShutdown func(context.Context) error
		configPath   string
	)

	flagSources := func(configFileKey, envVar string) cli.ValueSourceChain {
		return cli.NewValueSourceChain(
			toml.TOML(configFileKey, altsrc.NewStringPtrSourcer(&configPath)),
			yaml.YAML(configFileKey, altsrc.NewStringPtrSourcer(&configPath)),
			json.JSON(configFileKey, altsrc.NewStringPtrSourcer(&configPath)),
			cli.EnvVar(envVar),
		)
	}

	return &cli.Command{
		Name:    "tsdb",
		Usage:   "directory-backed time-series storage engine",
		Version: Version,
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			ctx = withLogger(ctx, cmd)

			var err error

			otelShutdown, err = setupOTelSDK(ctx, cmd)
			if err != nil {
				return ctx, err
			}

			return ctx, nil
		},
		After: func(ctx context.Context, _ *cli.Command) error {
			if otelShutdown != nil {
				return otelShutdown(ctx)
			}

			return nil
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "Path to the configuration file (toml, yaml, json)",
				Sources:     cli.EnvVars("TSDB_CONFIG_FILE"),
				Value:       defaultConfigPath(),
				Destination: &configPath,
			},
			&cli.StringFlag{
				Name:    "data-root",
				Usage:   "Root directory under which every device's shard directory lives",
				Sources: flagSources("data-root", "TSDB_DATA_ROOT"),
			},
			&cli.StringFlag{
				Name:    "encoding",
				Usage:   `Shard text encoding: "utf-8" or "latin1"`,
				Sources: flagSources("encoding", "TSDB_ENCODING"),
				Value:   "utf-8",
				Validator: func(enc string) error {
					if enc != "utf-8" && enc != "latin1" {
						return fmt.Errorf("unsupported encoding %q: want utf-8 or latin1", enc)
					}

					return nil
				},
			},
			&cli.IntFlag{
				Name:    "block-size",
				Usage:   "Block reader read size in bytes",
				Sources: flagSources("block-size", "TSDB_BLOCK_SIZE"),
				Value:   8192,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Set the log level",
				Sources: flagSources("log.level", "TSDB_LOG_LEVEL"),
				Value:   "info",
				Validator: func(lvl string) error {
					_, err := zerolog.ParseLevel(lvl)

					return err
				},
			},
			&cli.BoolFlag{
				Name:    "otel-enabled",
				Usage:   "Enable OpenTelemetry tracing and metrics",
				Sources: flagSources("opentelemetry.enabled", "TSDB_OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "otel-endpoint",
				Usage:   "OTLP gRPC endpoint; omit to emit telemetry to stdout when enabled",
				Sources: flagSources("opentelemetry.endpoint", "TSDB_OTEL_ENDPOINT"),
			},
			&cli.BoolFlag{
				Name:    "prometheus-enabled",
				Usage:   "Serve /metrics in Prometheus exposition format (serve command only)",
				Sources: flagSources("prometheus.enabled", "TSDB_PROMETHEUS_ENABLED"),
			},
		},
		Commands: []*cli.Command{
			appendCommand(flagSources),
			insertCommand(flagSources),
			queryCommand(flagSources),
			sortCommand(flagSources),
			serveCommand(flagSources),
		},
	}
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	return filepath.Join(dir, "tsdb", "config.yaml")
}

func withLogger(ctx context.Context, cmd *cli.Command) context.Context {
	lvl, err := zerolog.ParseLevel(cmd.String("log-level"))
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var output io.Writer = os.Stdout
	if term.IsTerminal(int(os.Stdout.Fd())) {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(output).Level(lvl).With().Timestamp().Logger()

	return logger.WithContext(ctx)
}
