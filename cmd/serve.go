package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riandyrn/otelchi"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/taransay/tsdb/pkg/config"
	"github.com/taransay/tsdb/pkg/device"
	"github.com/taransay/tsdb/pkg/prometheus"
)

func serveCommand(flagSources flagSourcesFn) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the maintenance daemon: periodic sort plus a health/metrics HTTP endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "cron-schedule",
				Usage:   "robfig/cron spec for the periodic maintenance sort",
				Sources: flagSources("cron-schedule", "TSDB_CRON_SCHEDULE"),
				Value:   config.DefaultCronSchedule,
				Validator: func(s string) error {
					_, err := cron.ParseStandard(s)

					return err
				},
			},
			&cli.StringFlag{
				Name:    "server-addr",
				Usage:   "Address the health/metrics HTTP server listens on",
				Sources: flagSources("server.addr", "TSDB_SERVER_ADDR"),
				Value:   ":8701",
			},
		},
		Action: serveAction,
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg := config.FromCommand(cmd)

	logger := zerolog.Ctx(ctx).With().Str("cmd", "serve").Logger()
	ctx = logger.WithContext(ctx)

	if cfg.DataRoot == "" {
		return fmt.Errorf("%w: --data-root is required", errServeMissingDataRoot)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return autoMaxProcs(ctx, config.HealthCheckInterval)
	})

	alive := make(chan struct{})
	close(alive) // becomes healthy as soon as the scheduler is registered

	sched := cron.New()

	_, err := sched.AddFunc(cfg.CronSchedule, func() {
		sortAllDevices(ctx, cfg)
	})
	if err != nil {
		return fmt.Errorf("error scheduling the maintenance sort: %w", err)
	}

	sched.Start()
	defer sched.Stop()

	router := chi.NewRouter()
	router.Use(otelchi.Middleware("tsdb", otelchi.WithChiRoutes(router)))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		select {
		case <-alive:
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})

	if cfg.PrometheusEnabled {
		gatherer, shutdown, err := prometheus.Setup(ctx, cmd.Root().Name, Version)
		if err != nil {
			return fmt.Errorf("error setting up Prometheus metrics: %w", err)
		}

		defer func() {
			if err := shutdown(ctx); err != nil {
				logger.Error().Err(err).Msg("error shutting down Prometheus metrics")
			}
		}()

		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	srv := &http.Server{
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	logger.Info().Str("server_addr", cfg.ServerAddr).Msg("server started")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("error starting the HTTP listener: %w", err)
	}

	cancel()

	return g.Wait()
}

var errServeMissingDataRoot = errors.New("missing data root")

// sortAllDevices runs Device.Sort for every immediate subdirectory of
// dataRoot, treating each as a device name. Errors are logged, not
// returned, so one misbehaving device doesn't block the rest from being
// maintained on this tick.
func sortAllDevices(ctx context.Context, cfg config.Config) {
	logger := zerolog.Ctx(ctx).With().Str("component", "cron-sort").Logger()

	entries, err := os.ReadDir(cfg.DataRoot)
	if err != nil {
		logger.Error().Err(err).Str("data_root", cfg.DataRoot).Msg("error listing devices")

		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		name := entry.Name()

		dev := device.New(cfg.DataRoot, name, device.StringCodec{}, driverOptions(cfg)...)

		if err := dev.Sort(ctx); err != nil {
			logger.Error().Err(err).Str("device", name).Msg("error sorting device")

			continue
		}

		logger.Debug().Str("device", name).Msg("device sorted")
	}
}
