package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m, reader
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	found := findMetric(rm, name)
	if found == nil {
		t.Fatalf("%s metric not found", name)
	}
	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: expected Sum[int64], got %T", name, found.Data)
	}
	if len(sum.DataPoints) == 0 {
		t.Fatalf("%s: no data points", name)
	}
	return sum.DataPoints[0].Value
}

// TestMetrics_TotalCounterIncrements verifies dep.call.total is
// incremented for every recorded call.
func TestMetrics_TotalCounterIncrements(t *testing.T) {
	m, reader := newTestMetrics(t)

	meta := CallMeta{Dependency: "wearable", Operation: "fetch-samples"}
	m.RecordCall(context.Background(), meta, 100*time.Millisecond, nil)
	m.RecordCall(context.Background(), meta, 80*time.Millisecond, nil)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	if got := sumValue(t, rm, "dep.call.total"); got != 2 {
		t.Errorf("dep.call.total = %d, want 2", got)
	}
}

// TestMetrics_ErrorCounter verifies dep.call.errors tracks only failed
// calls.
func TestMetrics_ErrorCounter(t *testing.T) {
	m, reader := newTestMetrics(t)

	meta := CallMeta{Dependency: "nutritiondb"}
	m.RecordCall(context.Background(), meta, 50*time.Millisecond, nil)
	m.RecordCall(context.Background(), meta, 50*time.Millisecond, errors.New("lookup failed"))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	if got := sumValue(t, rm, "dep.call.errors"); got != 1 {
		t.Errorf("dep.call.errors = %d, want 1", got)
	}
}

// TestMetrics_FallbackAndTripCounters verifies the degraded-path
// counters.
func TestMetrics_FallbackAndTripCounters(t *testing.T) {
	m, reader := newTestMetrics(t)

	meta := CallMeta{Dependency: "imageanalysis"}
	m.RecordFallback(context.Background(), meta)
	m.RecordFallback(context.Background(), meta)
	m.RecordTrip(context.Background(), meta)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	if got := sumValue(t, rm, "dep.call.fallbacks"); got != 2 {
		t.Errorf("dep.call.fallbacks = %d, want 2", got)
	}
	if got := sumValue(t, rm, "dep.call.trips"); got != 1 {
		t.Errorf("dep.call.trips = %d, want 1", got)
	}
}

// TestMetrics_DurationHistogram verifies call durations are recorded.
func TestMetrics_DurationHistogram(t *testing.T) {
	m, reader := newTestMetrics(t)

	meta := CallMeta{Dependency: "storage"}
	m.RecordCall(context.Background(), meta, 250*time.Millisecond, nil)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	found := findMetric(rm, "dep.call.duration_ms")
	if found == nil {
		t.Fatal("dep.call.duration_ms metric not found")
	}
	hist, ok := found.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", found.Data)
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("no histogram data points")
	}
	if hist.DataPoints[0].Sum != 250 {
		t.Errorf("histogram sum = %f, want 250", hist.DataPoints[0].Sum)
	}
}

// TestNopMetrics verifies the noop implementation never panics.
func TestNopMetrics(t *testing.T) {
	m := NopMetrics()
	meta := CallMeta{Dependency: "notifications"}

	m.RecordCall(context.Background(), meta, time.Millisecond, errors.New("x"))
	m.RecordFallback(context.Background(), meta)
	m.RecordTrip(context.Background(), meta)
}
