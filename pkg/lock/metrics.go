package lock

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	otelPackageName = "github.com/taransay/tsdb/pkg/lock"

	// ResultSuccess and ResultContention are the values RecordAcquisition's
	// result parameter takes.
	ResultSuccess    = "success"
	ResultContention = "contention"

	// ModeRead and ModeWrite are the values RecordAcquisition's mode
	// parameter takes.
	ModeRead  = "read"
	ModeWrite = "write"
)

//nolint:gochecknoglobals
var (
	meter = otel.Meter(otelPackageName)

	acquisitionsTotal metric.Int64Counter
	holdDuration      metric.Float64Histogram
)

//nolint:gochecknoinits
func init() {
	var err error

	acquisitionsTotal, err = meter.Int64Counter(
		"tsdb_lock_acquisitions_total",
		metric.WithDescription("Total device lock acquisition attempts by mode and result."),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		panic(err)
	}

	holdDuration, err = meter.Float64Histogram(
		"tsdb_lock_hold_duration_seconds",
		metric.WithDescription("Duration a device lock was held."),
		metric.WithUnit("s"),
	)
	if err != nil {
		panic(err)
	}
}

// RecordAcquisition records a lock acquisition attempt for the named
// device key.
func RecordAcquisition(ctx context.Context, key, mode, result string) {
	acquisitionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("key", key),
		attribute.String("mode", mode),
		attribute.String("result", result),
	))
}

// RecordHoldDuration records how long a lock was held for the named
// device key.
func RecordHoldDuration(ctx context.Context, key, mode string, seconds float64) {
	holdDuration.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("key", key),
		attribute.String("mode", mode),
	))
}
