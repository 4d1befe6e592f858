// Package config defines the resolved configuration surface shared by the
// tsdb command tree and the defaults its flags and daemon use.
package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

// Config is the fully resolved configuration surface for one invocation of
// the tsdb command tree: the driver-facing knobs from the external
// interface plus the telemetry and maintenance-daemon toggles.
type Config struct {
	DataRoot  string // root_path
	Encoding  string // "utf-8" | "latin1"
	BlockSize int    // read block size, default 8192

	LogLevel string

	OTelEnabled  bool
	OTelEndpoint string // empty => stdout exporters

	PrometheusEnabled bool

	CronSchedule string // robfig/cron spec for the maintenance sort
	ServerAddr   string // health/metrics listener
}

// FromCommand reads the resolved flag values off cmd into a Config. It is
// called once per invocation, after urfave/cli has already layered
// flag/env/config-file/default resolution.
func FromCommand(cmd *cli.Command) Config {
	return Config{
		DataRoot:          cmd.String("data-root"),
		Encoding:          cmd.String("encoding"),
		BlockSize:         int(cmd.Int("block-size")),
		LogLevel:          cmd.String("log-level"),
		OTelEnabled:       cmd.Bool("otel-enabled"),
		OTelEndpoint:      cmd.String("otel-endpoint"),
		PrometheusEnabled: cmd.Bool("prometheus-enabled"),
		CronSchedule:      cmd.String("cron-schedule"),
		ServerAddr:        cmd.String("server-addr"),
	}
}

// DefaultCronSchedule runs the maintenance sort once an hour.
const DefaultCronSchedule = "0 * * * *"

// DefaultBlockSize matches tsdb.DefaultBlockSize without importing the
// driver package here, keeping config dependency-free of the core.
const DefaultBlockSize = 8192

// HealthCheckInterval is how often autoMaxProcs re-evaluates GOMAXPROCS
// against the container's CPU quota while serve runs.
const HealthCheckInterval = 30 * time.Second
