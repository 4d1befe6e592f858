package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/taransay/tsdb/pkg/config"
	"github.com/taransay/tsdb/pkg/device"
	"github.com/taransay/tsdb/pkg/tsdb"
)

func measurementFlags(flagSources flagSourcesFn) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "data-root",
			Usage:    "Root directory under which every device's shard directory lives",
			Sources:  flagSources("data-root", "TSDB_DATA_ROOT"),
			Required: true,
		},
		&cli.StringFlag{
			Name:     "device",
			Usage:    "Device name",
			Sources:  flagSources("device", "TSDB_DEVICE"),
			Required: true,
		},
		&cli.StringFlag{
			Name:     "at",
			Usage:    "Measurement timestamp, RFC3339",
			Sources:  flagSources("at", "TSDB_AT"),
			Required: true,
			Validator: func(s string) error {
				_, err := time.Parse(time.RFC3339Nano, s)

				return err
			},
		},
	}
}

func appendCommand(flagSources flagSourcesFn) *cli.Command {
	return &cli.Command{
		Name:      "append",
		Usage:     "append one measurement to the end of its shard",
		ArgsUsage: "VALUE...",
		Flags:     measurementFlags(flagSources),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			t, values, err := parseMeasurementArgs(cmd)
			if err != nil {
				return err
			}

			cfg := config.FromCommand(cmd)
			dev := device.New(cfg.DataRoot, cmd.String("device"), device.StringCodec{}, driverOptions(cfg)...)

			return dev.Appender(ctx, func(ctx context.Context, drv *tsdb.Driver[[]string]) error {
				return drv.Append(ctx, t, values)
			})
		},
	}
}

func parseMeasurementArgs(cmd *cli.Command) (time.Time, []string, error) {
	t, err := time.Parse(time.RFC3339Nano, cmd.String("at"))
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("error parsing --at: %w", err)
	}

	values := cmd.Args().Slice()
	if len(values) == 0 {
		return time.Time{}, nil, fmt.Errorf("%w: at least one value is required", tsdb.ErrUsage)
	}

	return t, values, nil
}
