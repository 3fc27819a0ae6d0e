package gateway

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vitalops/wellgate/observe"
	"github.com/vitalops/wellgate/resilience"
)

// Call result sources.
const (
	// SourceLive marks a payload produced by the dependency itself.
	SourceLive = "live"
	// SourceFallback marks the declared degraded payload.
	SourceFallback = "fallback"
)

// DependencyConfig declares one protected dependency.
type DependencyConfig struct {
	// Name identifies the dependency at Invoke time (required).
	Name string

	// FailureThreshold is the failure count at which the breaker opens.
	// Default: 5
	FailureThreshold int

	// ResetTimeout is the breaker cooldown before probe calls.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// HalfOpenMaxCalls is the breaker probe quota.
	// Default: 1
	HalfOpenMaxCalls int

	// CallTimeout bounds each call to the dependency.
	// Default: 10 seconds
	CallTimeout time.Duration

	// Fallback is the degraded payload served when the dependency is
	// unavailable. A nil fallback is served as nil.
	Fallback any

	// Probe checks reachability for health reports. Optional.
	Probe func(ctx context.Context) error

	// MaxConcurrent caps in-flight calls to this dependency.
	// Default: 0 (unlimited)
	MaxConcurrent int

	// Retry re-attempts transient failures before the breaker sees
	// them. Only set this for idempotent dependency operations.
	Retry *resilience.RetryConfig
}

// Config configures the gateway.
type Config struct {
	// Dependencies declares every dependency the gateway protects.
	Dependencies []DependencyConfig

	// Logger receives structured call outcomes. Default: silent.
	Logger observe.Logger

	// Metrics receives call counters and durations. Default: discard.
	Metrics observe.Metrics

	// Tracer wraps live calls in spans. Default: noop.
	Tracer observe.Tracer
}

// CallFunc performs the actual dependency call.
type CallFunc func(ctx context.Context, payload any) (any, error)

// CallResult is the uniform envelope every Invoke returns.
type CallResult struct {
	// Success is true only for a live payload.
	Success bool `json:"success"`

	// Payload is the live response or the declared fallback.
	Payload any `json:"payload"`

	// Source is SourceLive or SourceFallback.
	Source string `json:"source"`

	// Timestamp is when the result was produced.
	Timestamp time.Time `json:"timestamp"`

	// ErrorDetail describes why a fallback was served. Empty on
	// success.
	ErrorDetail string `json:"errorDetail,omitempty"`
}

type dependency struct {
	config   DependencyConfig
	breaker  *resilience.CircuitBreaker
	timeout  *resilience.Timeout
	bulkhead *resilience.Bulkhead
	retry    *resilience.Retry
}

// Gateway fans calls out to declared dependencies with fault
// isolation. All methods are safe for concurrent use.
type Gateway struct {
	deps    map[string]*dependency
	logger  observe.Logger
	metrics observe.Metrics
	tracer  observe.Tracer

	totalCalls          atomic.Int64
	successfulCalls     atomic.Int64
	failedCalls         atomic.Int64
	circuitBreakerTrips atomic.Int64
	fallbackResponses   atomic.Int64
}

// New creates a gateway from declared dependencies. Misconfigured
// dependencies fail fast.
func New(cfg Config) (*Gateway, error) {
	if len(cfg.Dependencies) == 0 {
		return nil, ErrNoDependencies
	}

	g := &Gateway{
		deps:    make(map[string]*dependency, len(cfg.Dependencies)),
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		tracer:  cfg.Tracer,
	}
	if g.logger == nil {
		g.logger = observe.NopLogger()
	}
	if g.metrics == nil {
		g.metrics = observe.NopMetrics()
	}
	if g.tracer == nil {
		g.tracer = observe.NopTracer()
	}

	for _, dc := range cfg.Dependencies {
		if dc.Name == "" {
			return nil, ErrMissingDependencyName
		}
		if _, exists := g.deps[dc.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateDependency, dc.Name)
		}

		breaker, err := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:             dc.Name,
			FailureThreshold: dc.FailureThreshold,
			ResetTimeout:     dc.ResetTimeout,
			HalfOpenMaxCalls: dc.HalfOpenMaxCalls,
			OnStateChange:    g.logStateChange,
		})
		if err != nil {
			return nil, fmt.Errorf("dependency %q: %w", dc.Name, err)
		}

		if dc.CallTimeout == 0 {
			dc.CallTimeout = 10 * time.Second
		}
		if dc.CallTimeout < 0 {
			return nil, fmt.Errorf("dependency %q: %w: call timeout %v is negative",
				dc.Name, resilience.ErrInvalidConfig, dc.CallTimeout)
		}

		d := &dependency{
			config:  dc,
			breaker: breaker,
			timeout: resilience.NewTimeout(resilience.TimeoutConfig{Timeout: dc.CallTimeout}),
		}
		if dc.MaxConcurrent > 0 {
			d.bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: dc.MaxConcurrent})
		}
		if dc.Retry != nil {
			d.retry = resilience.NewRetry(*dc.Retry)
		}

		g.deps[dc.Name] = d
	}

	return g, nil
}

// Invoke routes one call through the named dependency's protections.
//
// The returned error is non-nil only for an unknown dependency name.
// Every dependency failure, timeout or breaker rejection is absorbed
// into a fallback CallResult so callers always have a payload to work
// with.
func (g *Gateway) Invoke(ctx context.Context, name, operation string, payload any, call CallFunc) (CallResult, error) {
	d, ok := g.deps[name]
	if !ok {
		return CallResult{}, fmt.Errorf("%w: %q", ErrUnknownDependency, name)
	}

	meta := observe.CallMeta{Dependency: name, Operation: operation}
	g.totalCalls.Add(1)

	if !d.breaker.Allow() {
		g.circuitBreakerTrips.Add(1)
		g.metrics.RecordTrip(ctx, meta)
		g.logger.WithDependency(meta).Warn(ctx, "call refused by open circuit breaker")
		return g.fallbackResult(ctx, d, meta, resilience.ErrCircuitOpen), nil
	}

	// The timed-out call keeps running in its goroutine; the mutex
	// keeps its late result write from racing the read below.
	var mu sync.Mutex
	var live any
	op := func(ctx context.Context) error {
		result, err := call(ctx, payload)
		if err != nil {
			return err
		}
		mu.Lock()
		live = result
		mu.Unlock()
		return nil
	}

	execute := func(ctx context.Context) error {
		return d.timeout.Execute(ctx, op)
	}
	if d.retry != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return d.retry.Execute(ctx, inner)
		}
	}

	ctx, span := g.tracer.StartSpan(ctx, meta)
	start := time.Now()

	var err error
	if d.bulkhead != nil {
		err = d.bulkhead.Execute(ctx, execute)
	} else {
		err = execute(ctx)
	}

	duration := time.Since(start)
	g.tracer.EndSpan(span, err)
	g.metrics.RecordCall(ctx, meta, duration, err)

	if err != nil {
		d.breaker.RecordFailure()
		g.failedCalls.Add(1)
		g.logger.WithDependency(meta).Warn(ctx, "dependency call failed",
			observe.Field{Key: "error", Value: err.Error()},
			observe.Field{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		)
		return g.fallbackResult(ctx, d, meta, err), nil
	}

	d.breaker.RecordSuccess()
	g.successfulCalls.Add(1)

	mu.Lock()
	result := live
	mu.Unlock()

	return CallResult{
		Success:   true,
		Payload:   result,
		Source:    SourceLive,
		Timestamp: time.Now(),
	}, nil
}

func (g *Gateway) fallbackResult(ctx context.Context, d *dependency, meta observe.CallMeta, cause error) CallResult {
	g.fallbackResponses.Add(1)
	g.metrics.RecordFallback(ctx, meta)

	return CallResult{
		Success:     false,
		Payload:     d.config.Fallback,
		Source:      SourceFallback,
		Timestamp:   time.Now(),
		ErrorDetail: cause.Error(),
	}
}

func (g *Gateway) logStateChange(name string, from, to resilience.State) {
	fields := []observe.Field{
		{Key: "from", Value: from.String()},
		{Key: "to", Value: to.String()},
	}
	meta := observe.CallMeta{Dependency: name}

	if to == resilience.StateOpen {
		g.logger.WithDependency(meta).Warn(context.Background(), "circuit breaker opened", fields...)
		return
	}
	g.logger.WithDependency(meta).Info(context.Background(), "circuit breaker state changed", fields...)
}

// DependencyNames returns the declared dependency names, sorted.
func (g *Gateway) DependencyNames() []string {
	names := make([]string, 0, len(g.deps))
	for name := range g.deps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BreakerState returns the breaker state of the named dependency.
func (g *Gateway) BreakerState(name string) (resilience.State, error) {
	d, ok := g.deps[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDependency, name)
	}
	return d.breaker.State(), nil
}

// ResetDependency forces the named dependency's breaker back to
// closed. Intended for operator tooling.
func (g *Gateway) ResetDependency(name string) error {
	d, ok := g.deps[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDependency, name)
	}
	d.breaker.Reset()
	return nil
}

// Stats is a point-in-time snapshot of gateway counters.
type Stats struct {
	TotalCalls          int64   `json:"totalCalls"`
	SuccessfulCalls     int64   `json:"successfulCalls"`
	FailedCalls         int64   `json:"failedCalls"`
	CircuitBreakerTrips int64   `json:"circuitBreakerTrips"`
	FallbackResponses   int64   `json:"fallbackResponses"`
	SuccessRatePercent  float64 `json:"successRatePercent"`
}

// Stats returns current gateway counters. The success rate is over
// all calls, including breaker rejections.
func (g *Gateway) Stats() Stats {
	s := Stats{
		TotalCalls:          g.totalCalls.Load(),
		SuccessfulCalls:     g.successfulCalls.Load(),
		FailedCalls:         g.failedCalls.Load(),
		CircuitBreakerTrips: g.circuitBreakerTrips.Load(),
		FallbackResponses:   g.fallbackResponses.Load(),
	}
	if s.TotalCalls > 0 {
		s.SuccessRatePercent = float64(s.SuccessfulCalls) / float64(s.TotalCalls) * 100
	}
	return s
}
