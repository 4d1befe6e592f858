package cmd

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/taransay/tsdb/pkg/config"
	"github.com/taransay/tsdb/pkg/device"
	"github.com/taransay/tsdb/pkg/tsdb"
)

func insertCommand(flagSources flagSourcesFn) *cli.Command {
	return &cli.Command{
		Name:      "insert",
		Usage:     "insert one measurement at the position that keeps its shard sorted",
		ArgsUsage: "VALUE...",
		Flags:     measurementFlags(flagSources),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			t, values, err := parseMeasurementArgs(cmd)
			if err != nil {
				return err
			}

			cfg := config.FromCommand(cmd)
			dev := device.New(cfg.DataRoot, cmd.String("device"), device.StringCodec{}, driverOptions(cfg)...)

			return dev.Writer(ctx, func(ctx context.Context, drv *tsdb.Driver[[]string]) error {
				return drv.Insert(ctx, t, values)
			})
		},
	}
}
