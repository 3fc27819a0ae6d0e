package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records dependency-call outcomes for the gateway.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly; recording never blocks a call path.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCall records one attempted dependency call with its
	// duration and error status.
	RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error)

	// RecordFallback records that a degraded payload was served.
	RecordFallback(ctx context.Context, meta CallMeta)

	// RecordTrip records a call refused by an open circuit breaker.
	RecordTrip(ctx context.Context, meta CallMeta)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter         metric.Meter
	totalCount    metric.Int64Counter
	errorCount    metric.Int64Counter
	fallbackCount metric.Int64Counter
	tripCount     metric.Int64Counter
	durationHist  metric.Float64Histogram
}

// NewMetrics creates a Metrics instance recording through the given
// meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"dep.call.total",
		metric.WithDescription("Total number of dependency calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"dep.call.errors",
		metric.WithDescription("Total number of failed dependency calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	fallbackCount, err := meter.Int64Counter(
		"dep.call.fallbacks",
		metric.WithDescription("Total number of degraded fallback responses served"),
		metric.WithUnit("{response}"),
	)
	if err != nil {
		return nil, err
	}

	tripCount, err := meter.Int64Counter(
		"dep.call.trips",
		metric.WithDescription("Total number of calls refused by an open circuit breaker"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"dep.call.duration_ms",
		metric.WithDescription("Dependency call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:         meter,
		totalCount:    totalCount,
		errorCount:    errorCount,
		fallbackCount: fallbackCount,
		tripCount:     tripCount,
		durationHist:  durationHist,
	}, nil
}

// RecordCall records metrics for one attempted dependency call.
func (m *metricsImpl) RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(meta.attributes()...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordFallback records a degraded response.
func (m *metricsImpl) RecordFallback(ctx context.Context, meta CallMeta) {
	m.fallbackCount.Add(ctx, 1, metric.WithAttributes(meta.attributes()...))
}

// RecordTrip records a breaker rejection.
func (m *metricsImpl) RecordTrip(ctx context.Context, meta CallMeta) {
	m.tripCount.Add(ctx, 1, metric.WithAttributes(meta.attributes()...))
}

func (m CallMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("dep.name", m.Dependency),
	}
	if m.Operation != "" {
		attrs = append(attrs, attribute.String("dep.operation", m.Operation))
	}
	return attrs
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (noopMetrics) RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
}
func (noopMetrics) RecordFallback(ctx context.Context, meta CallMeta) {}
func (noopMetrics) RecordTrip(ctx context.Context, meta CallMeta)     {}

// NopMetrics returns a Metrics that discards everything.
func NopMetrics() Metrics {
	return noopMetrics{}
}
