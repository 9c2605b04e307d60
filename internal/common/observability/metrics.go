// internal/common/observability/metrics.go
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability owns the OpenTelemetry meter provider and the dispatch
// instruments. The Prometheus reader exports through the default registry,
// so these surface on the same /metrics endpoint as the promauto
// collectors.
type Observability struct {
	meterProvider *metric.MeterProvider
	dispatches    otelmetric.Int64Counter
	duration      otelmetric.Float64Histogram
}

// New wires the meter provider and registers it globally. Failures fall
// back to a no-op Observability so metrics can never block startup.
func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	dispatches, err := meter.Int64Counter(
		"dispatch.processed",
		otelmetric.WithDescription("Number of dispatch operations processed"),
	)
	if err != nil {
		return &Observability{meterProvider: provider}
	}

	duration, err := meter.Float64Histogram(
		"dispatch.duration",
		otelmetric.WithDescription("Duration of dispatch operations"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return &Observability{meterProvider: provider, dispatches: dispatches}
	}

	return &Observability{
		meterProvider: provider,
		dispatches:    dispatches,
		duration:      duration,
	}
}

// RecordDispatch counts one dispatch outcome.
func (o *Observability) RecordDispatch(ctx context.Context, channel, status string) {
	if o.dispatches == nil {
		return
	}
	o.dispatches.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("channel", channel),
		attribute.String("status", status),
	))
}

// RecordDispatchDuration observes one dispatch latency.
func (o *Observability) RecordDispatchDuration(ctx context.Context, channel string, d time.Duration) {
	if o.duration == nil {
		return
	}
	o.duration.Record(ctx, float64(d.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("channel", channel),
	))
}

// Shutdown flushes the meter provider.
func (o *Observability) Shutdown() {
	if o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.meterProvider.Shutdown(ctx)
}
