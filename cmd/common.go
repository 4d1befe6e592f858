package cmd

import (
	"github.com/taransay/tsdb/pkg/config"
	"github.com/taransay/tsdb/pkg/device"
	"github.com/taransay/tsdb/pkg/tsdb"
)

// driverOptions translates the resolved Config's encoding/block-size
// knobs into the tsdb.Option values every device.New call needs.
func driverOptions(cfg config.Config) []device.DeviceOption {
	var tsdbOpts []tsdb.Option

	if cfg.Encoding == "latin1" {
		tsdbOpts = append(tsdbOpts, tsdb.WithLatin1Encoding())
	}

	if cfg.BlockSize > 0 {
		tsdbOpts = append(tsdbOpts, tsdb.WithBlockSize(cfg.BlockSize))
	}

	return []device.DeviceOption{device.WithDriverOptions(tsdbOpts...)}
}
