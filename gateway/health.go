package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/vitalops/wellgate/health"
	"github.com/vitalops/wellgate/resilience"
)

// Overall health report statuses.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// DependencyHealth describes one dependency in a health report.
type DependencyHealth struct {
	Name        string    `json:"name"`
	State       string    `json:"state"`
	Failures    int       `json:"failures"`
	LastFailure time.Time `json:"lastFailure,omitzero"`
	ProbeError  string    `json:"probeError,omitempty"`
}

// HealthReport is a snapshot of every dependency's availability.
type HealthReport struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Dependencies map[string]DependencyHealth `json:"dependencies"`
}

// HealthReport checks every dependency. The overall status is degraded
// when any breaker is not closed or any configured probe fails; the
// gateway itself keeps serving either way, on fallbacks.
func (g *Gateway) HealthReport(ctx context.Context) HealthReport {
	report := HealthReport{
		Status:       StatusHealthy,
		Timestamp:    time.Now(),
		Dependencies: make(map[string]DependencyHealth, len(g.deps)),
	}

	for name, d := range g.deps {
		m := d.breaker.Metrics()
		dh := DependencyHealth{
			Name:        name,
			State:       m.State.String(),
			Failures:    m.Failures,
			LastFailure: m.LastFailure,
		}

		if m.State != resilience.StateClosed {
			report.Status = StatusDegraded
		}

		if d.config.Probe != nil {
			if err := d.config.Probe(ctx); err != nil {
				dh.ProbeError = err.Error()
				report.Status = StatusDegraded
			}
		}

		report.Dependencies[name] = dh
	}

	return report
}

// Checker returns a health.Checker for one dependency, for hosts that
// aggregate gateway health with other probes. An open breaker reports
// degraded rather than unhealthy because the fallback keeps serving.
func (g *Gateway) Checker(name string) (health.Checker, error) {
	d, ok := g.deps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDependency, name)
	}

	return health.NewCheckerFunc(name, func(ctx context.Context) health.Result {
		m := d.breaker.Metrics()
		details := map[string]any{
			"state":    m.State.String(),
			"failures": m.Failures,
		}

		if d.config.Probe != nil {
			if err := d.config.Probe(ctx); err != nil {
				return health.Degraded("probe failed: " + err.Error()).WithDetails(details)
			}
		}

		if m.State != resilience.StateClosed {
			return health.Degraded("circuit breaker " + m.State.String()).WithDetails(details)
		}
		return health.Healthy("dependency available").WithDetails(details)
	}), nil
}

// RegisterHealthChecks registers a checker per dependency on the
// aggregator.
func (g *Gateway) RegisterHealthChecks(agg *health.Aggregator) {
	for _, name := range g.DependencyNames() {
		checker, err := g.Checker(name)
		if err != nil {
			continue
		}
		agg.Register(name, checker)
	}
}
