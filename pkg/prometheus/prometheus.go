// Package prometheus bridges the driver's OpenTelemetry metrics into a
// Prometheus exposition endpoint, for deployments that scrape rather than
// push.
package prometheus

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"

	promclient "github.com/prometheus/client_golang/prometheus"
	oteleprometheus "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

// Setup installs a Prometheus-backed OpenTelemetry MeterProvider globally,
// so every tsdb_* instrument registered via otel.Meter flows into the
// returned Gatherer. Call the returned shutdown function to flush and
// detach the provider.
func Setup(ctx context.Context, serviceName, serviceVersion string) (promclient.Gatherer, func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithProcess(),
		resource.WithOS(),
		resource.WithHost(),
	)
	if err != nil {
		return nil, nil, err
	}

	registry := promclient.NewRegistry()

	exporter, err := oteleprometheus.New(oteleprometheus.WithRegisterer(registry))
	if err != nil {
		return nil, nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	otel.SetMeterProvider(meterProvider)

	return registry, meterProvider.Shutdown, nil
}
