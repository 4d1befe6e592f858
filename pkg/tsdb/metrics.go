package tsdb

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// otelPackageName names the tracer and meter this package registers,
// grounded on the "github.com/kalbasit/ncps/pkg/storage/local" and
// "github.com/kalbasit/ncps/pkg/lock" conventions of naming
// instrumentation after the owning package path.
const otelPackageName = "github.com/taransay/tsdb/pkg/tsdb"

//nolint:gochecknoglobals
var (
	tracer = otel.Tracer(otelPackageName)
	meter  = otel.Meter(otelPackageName)

	opCounter     metric.Int64Counter
	opDuration    metric.Float64Histogram
	sortRunsHisto metric.Int64Histogram
)

//nolint:gochecknoinits
func init() {
	var err error

	opCounter, err = meter.Int64Counter(
		"tsdb_driver_operations_total",
		metric.WithDescription("Count of directory driver operations by method and outcome."),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		panic(err)
	}

	opDuration, err = meter.Float64Histogram(
		"tsdb_driver_duration_seconds",
		metric.WithDescription("Directory driver operation latency."),
		metric.WithUnit("s"),
	)
	if err != nil {
		panic(err)
	}

	sortRunsHisto, err = meter.Int64Histogram(
		"tsdb_driver_sort_runs",
		metric.WithDescription("Number of sorted runs produced while sorting one shard."),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		panic(err)
	}
}

// recordOp starts a span named "driver.<op>" and returns a function that
// ends the span and records the operation counter and duration histogram.
// Call the returned function with the error (nil on success) once the
// operation completes.
func recordOp(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()

	ctx, span := tracer.Start(ctx, "driver."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)

	return ctx, func(err error) {
		defer span.End()

		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
		}

		kv := append(append([]attribute.KeyValue{}, attrs...),
			attribute.String("op", op),
			attribute.String("outcome", outcome),
		)

		opCounter.Add(ctx, 1, metric.WithAttributes(kv...))
		opDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(kv...))
	}
}

// recordSortRuns records the number of sorted runs phase 1 of sort()
// produced for one shard: a direct numeric signal of how "almost sorted"
// the shard already was.
func recordSortRuns(ctx context.Context, shard string, runs int) {
	sortRunsHisto.Record(ctx, int64(runs), metric.WithAttributes(attribute.String("shard", shard)))
}
