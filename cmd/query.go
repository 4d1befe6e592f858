package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/taransay/tsdb/pkg/config"
	"github.com/taransay/tsdb/pkg/device"
	"github.com/taransay/tsdb/pkg/tsdb"
)

func queryCommand(flagSources flagSourcesFn) *cli.Command {
	return &cli.Command{
		Name:  "query",
		Usage: "print every measurement in [--from, --to) to stdout",
		Flags: []cli.Flag{
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
				Name:     "from",
				Usage:    "Interval start, RFC3339, inclusive",
				Sources:  flagSources("from", "TSDB_FROM"),
				Required: true,
			},
			&cli.StringFlag{
				Name:     "to",
				Usage:    "Interval end, RFC3339, exclusive",
				Sources:  flagSources("to", "TSDB_TO"),
				Required: true,
			},
			&cli.BoolFlag{
				Name:    "reverse",
				Usage:   "Walk the interval newest-to-oldest",
				Sources: flagSources("reverse", "TSDB_REVERSE"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			from, err := time.Parse(time.RFC3339Nano, cmd.String("from"))
			if err != nil {
				return fmt.Errorf("error parsing --from: %w", err)
			}

			to, err := time.Parse(time.RFC3339Nano, cmd.String("to"))
			if err != nil {
				return fmt.Errorf("error parsing --to: %w", err)
			}

			cfg := config.FromCommand(cmd)
			dev := device.New(cfg.DataRoot, cmd.String("device"), device.StringCodec{}, driverOptions(cfg)...)
			reverse := cmd.Bool("reverse")

			return dev.Reader(ctx, func(ctx context.Context, drv *tsdb.Driver[[]string]) error {
				cur, err := drv.QueryInterval(ctx, from, to)
				if err != nil {
					return err
				}

				print := func(m tsdb.Measurement[[]string]) bool {
					fmt.Fprintf(os.Stdout, "%s %s\n", m.Time.Format(time.RFC3339Nano), strings.Join(m.Values, " "))

					return true
				}

				if reverse {
					return cur.Backward(print)
				}

				return cur.Forward(print)
			})
		},
	}
}
