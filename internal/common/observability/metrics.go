package observability

import (
	"context"
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Metrics exports dispatch instruments through a Prometheus registry.
type Metrics struct {
	meterProvider *metric.MeterProvider
	dispatches    otelmetric.Int64Counter
	dispatchTime  otelmetric.Float64Histogram
}

// NewMetrics registers with reg, or the default registerer when reg is nil.
func NewMetrics(serviceName string, reg promclient.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = promclient.DefaultRegisterer
	}
	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	dispatches, err := meter.Int64Counter(
		"notification.dispatches",
		otelmetric.WithDescription("Notification dispatches by type and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create dispatch counter: %w", err)
	}

	dispatchTime, err := meter.Float64Histogram(
		"notification.dispatch.duration",
		otelmetric.WithDescription("End-to-end dispatch duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create dispatch histogram: %w", err)
	}

	return &Metrics{
		meterProvider: provider,
		dispatches:    dispatches,
		dispatchTime:  dispatchTime,
	}, nil
}

// RecordDispatch counts one dispatch and its duration.
func (m *Metrics) RecordDispatch(ctx context.Context, notificationType, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("type", notificationType),
		attribute.String("outcome", outcome),
	)
	m.dispatches.Add(ctx, 1, attrs)
	m.dispatchTime.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return m.meterProvider.Shutdown(ctx)
}
