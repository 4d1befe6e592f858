package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/automaxprocs/maxprocs"
)

// autoMaxProcs configures GOMAXPROCS from the container's CPU quota, then
// re-evaluates it every d in case the quota changes underneath the
// process (e.g. a Kubernetes resize).
func autoMaxProcs(ctx context.Context, d time.Duration) error {
	logger := zerolog.Ctx(ctx).With().Str("component", "auto-max-procs").Logger()

	setMaxProcs := func() {
		if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			logger.Info().Msgf(format, args...)
		})); err != nil {
			logger.Error().Err(err).Msg("failed to set GOMAXPROCS")
		}
	}

	setMaxProcs()

	ticker := time.NewTicker(d)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}

			return ctx.Err()
		case <-ticker.C:
			setMaxProcs()
		}
	}
}
