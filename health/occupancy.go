package health

import (
	"context"
	"fmt"
)

// Occupancy is the slice of a bounded container that health cares
// about. BoundedCache satisfies it.
type Occupancy interface {
	Len() int
	Cap() int
}

// OccupancyCheckerConfig configures the occupancy checker.
type OccupancyCheckerConfig struct {
	// WarningRatio is the fill ratio that triggers degraded status.
	// Value should be between 0 and 1. Default: 0.9 (90%)
	WarningRatio float64
}

// OccupancyChecker reports how full a bounded container is. A cache
// running at capacity is not broken, but it is evicting on every
// insert, so the checker degrades rather than fails.
type OccupancyChecker struct {
	name   string
	target Occupancy
	config OccupancyCheckerConfig
}

// NewOccupancyChecker creates a checker over a bounded container.
func NewOccupancyChecker(name string, target Occupancy, config OccupancyCheckerConfig) *OccupancyChecker {
	if config.WarningRatio <= 0 || config.WarningRatio > 1 {
		config.WarningRatio = 0.9
	}
	return &OccupancyChecker{name: name, target: target, config: config}
}

// Name returns the name of this checker.
func (c *OccupancyChecker) Name() string {
	return c.name
}

// Check reports the fill ratio of the container.
func (c *OccupancyChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	size := c.target.Len()
	capacity := c.target.Cap()
	if capacity <= 0 {
		return Healthy("unbounded")
	}

	ratio := float64(size) / float64(capacity)
	details := map[string]any{
		"size":         size,
		"capacity":     capacity,
		"fill_percent": ratio * 100,
	}

	if ratio >= c.config.WarningRatio {
		return Degraded(
			fmt.Sprintf("occupancy high: %d/%d", size, capacity),
		).WithDetails(details)
	}

	return Healthy(
		fmt.Sprintf("occupancy normal: %d/%d", size, capacity),
	).WithDetails(details)
}
