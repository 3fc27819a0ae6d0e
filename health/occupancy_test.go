package health

import (
	"context"
	"testing"
)

type fakeOccupancy struct {
	size     int
	capacity int
}

func (f fakeOccupancy) Len() int { return f.size }
func (f fakeOccupancy) Cap() int { return f.capacity }

func TestOccupancyChecker(t *testing.T) {
	tests := []struct {
		name string
		size int
		cap  int
		want Status
	}{
		{"empty", 0, 100, StatusHealthy},
		{"half full", 50, 100, StatusHealthy},
		{"at warning ratio", 90, 100, StatusDegraded},
		{"full", 100, 100, StatusDegraded},
		{"unbounded", 10, 0, StatusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewOccupancyChecker("cache", fakeOccupancy{tt.size, tt.cap}, OccupancyCheckerConfig{})
			result := checker.Check(context.Background())
			if result.Status != tt.want {
				t.Errorf("Check().Status = %v, want %v", result.Status, tt.want)
			}
		})
	}
}

func TestOccupancyChecker_CustomRatio(t *testing.T) {
	checker := NewOccupancyChecker("cache", fakeOccupancy{50, 100}, OccupancyCheckerConfig{WarningRatio: 0.5})
	if got := checker.Check(context.Background()); got.Status != StatusDegraded {
		t.Errorf("Status = %v, want degraded at 50%% with 0.5 ratio", got.Status)
	}
}

func TestOccupancyChecker_Details(t *testing.T) {
	checker := NewOccupancyChecker("lookup-cache", fakeOccupancy{25, 100}, OccupancyCheckerConfig{})
	result := checker.Check(context.Background())

	if checker.Name() != "lookup-cache" {
		t.Errorf("Name() = %q, want %q", checker.Name(), "lookup-cache")
	}
	if result.Details["size"] != 25 {
		t.Errorf("details size = %v, want 25", result.Details["size"])
	}
	if result.Details["capacity"] != 100 {
		t.Errorf("details capacity = %v, want 100", result.Details["capacity"])
	}
}

func TestOccupancyChecker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	checker := NewOccupancyChecker("cache", fakeOccupancy{0, 100}, OccupancyCheckerConfig{})
	if got := checker.Check(ctx); got.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy on cancelled context", got.Status)
	}
}
