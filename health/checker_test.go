package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusUnhealthy, "unhealthy"},
		{Status(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestResultConstructors(t *testing.T) {
	checkErr := errors.New("connection refused")

	h := Healthy("all good")
	if h.Status != StatusHealthy || h.Message != "all good" {
		t.Errorf("Healthy() = %+v", h)
	}
	if h.Timestamp.IsZero() {
		t.Error("Healthy() did not stamp a timestamp")
	}

	d := Degraded("slow")
	if d.Status != StatusDegraded || d.Message != "slow" {
		t.Errorf("Degraded() = %+v", d)
	}

	u := Unhealthy("down", checkErr)
	if u.Status != StatusUnhealthy || !errors.Is(u.Error, checkErr) {
		t.Errorf("Unhealthy() = %+v", u)
	}
}

func TestResult_WithDetails(t *testing.T) {
	r := Healthy("ok").WithDetails(map[string]any{"count": 3})
	if r.Details["count"] != 3 {
		t.Errorf("details not attached: %+v", r.Details)
	}
}

func TestCheckerFunc(t *testing.T) {
	checker := NewCheckerFunc("custom", func(ctx context.Context) Result {
		return Healthy("fine")
	})

	if checker.Name() != "custom" {
		t.Errorf("Name() = %q, want %q", checker.Name(), "custom")
	}

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Check().Status = %v, want %v", result.Status, StatusHealthy)
	}
}

func TestPingChecker(t *testing.T) {
	ok := NewPingChecker("wearable", func(ctx context.Context) error {
		return nil
	})
	if got := ok.Check(context.Background()); got.Status != StatusHealthy {
		t.Errorf("healthy probe: Status = %v, want %v", got.Status, StatusHealthy)
	}

	probeErr := errors.New("dial tcp: timeout")
	bad := NewPingChecker("nutritiondb", func(ctx context.Context) error {
		return probeErr
	})
	got := bad.Check(context.Background())
	if got.Status != StatusUnhealthy {
		t.Errorf("failing probe: Status = %v, want %v", got.Status, StatusUnhealthy)
	}
	if !errors.Is(got.Error, probeErr) {
		t.Errorf("failing probe: Error = %v, want %v", got.Error, probeErr)
	}
}

func TestPingChecker_HonorsContext(t *testing.T) {
	checker := NewPingChecker("slow", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := checker.Check(ctx)
	if result.Status != StatusUnhealthy {
		t.Errorf("cancelled probe: Status = %v, want %v", result.Status, StatusUnhealthy)
	}
}
