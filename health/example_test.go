package health_test

import (
	"context"
	"fmt"

	"github.com/vitalops/wellgate/health"
)

func ExampleAggregator() {
	agg := health.NewAggregator()
	agg.Register("wearable", health.NewPingChecker("wearable", func(ctx context.Context) error {
		return nil
	}))
	agg.Register("nutritiondb", health.NewCheckerFunc("nutritiondb", func(ctx context.Context) health.Result {
		return health.Degraded("circuit breaker open")
	}))

	results := agg.CheckAll(context.Background())
	fmt.Println(agg.OverallStatus(results))
	// Output: degraded
}

func ExampleNewOccupancyChecker() {
	checker := health.NewOccupancyChecker("lookup-cache", occupancy{95, 100}, health.OccupancyCheckerConfig{})
	result := checker.Check(context.Background())
	fmt.Println(result.Status)
	// Output: degraded
}

type occupancy struct{ size, capacity int }

func (o occupancy) Len() int { return o.size }
func (o occupancy) Cap() int { return o.capacity }
