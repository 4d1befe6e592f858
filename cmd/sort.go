package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/taransay/tsdb/pkg/config"
	"github.com/taransay/tsdb/pkg/device"
)

func sortCommand(flagSources flagSourcesFn) *cli.Command {
	return &cli.Command{
		Name:  "sort",
		Usage: "sort every shard of one device (or, without --device, every device under --data-root)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "data-root",
				Usage:    "Root directory under which every device's shard directory lives",
				Sources:  flagSources("data-root", "TSDB_DATA_ROOT"),
				Required: true,
			},
			&cli.StringFlag{
				Name:    "device",
				Usage:   "Device name; omit to sort every device under --data-root",
				Sources: flagSources("device", "TSDB_DEVICE"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.FromCommand(cmd)

			if name := cmd.String("device"); name != "" {
				dev := device.New(cfg.DataRoot, name, device.StringCodec{}, driverOptions(cfg)...)

				return dev.Sort(ctx)
			}

			entries, err := os.ReadDir(cfg.DataRoot)
			if err != nil {
				return fmt.Errorf("error listing devices under %q: %w", cfg.DataRoot, err)
			}

			for _, entry := range entries {
				if !entry.IsDir() {
					continue
				}

				dev := device.New(cfg.DataRoot, entry.Name(), device.StringCodec{}, driverOptions(cfg)...)
				if err := dev.Sort(ctx); err != nil {
					return fmt.Errorf("error sorting device %q: %w", entry.Name(), err)
				}
			}

			return nil
		},
	}
}
