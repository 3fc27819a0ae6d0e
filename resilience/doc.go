// Package resilience provides fault-isolation patterns for calls to
// unreliable wellness-data dependencies.
//
// The package implements the building blocks the integration gateway
// composes around every outbound call. Each pattern can also be used on
// its own.
//
// # Patterns
//
//   - Circuit Breaker: stops calls to a failing dependency for a
//     cooldown period, then probes it with a bounded number of trial
//     calls before fully re-admitting traffic.
//
//   - Sliding-Window Rate Limiter: caps how often a given actor may
//     trigger an operation, counting events inside a continuously
//     moving time window.
//
//   - Timeout: bounds the duration of a single dependency call.
//
//   - Retry: re-attempts failed calls with configurable backoff.
//
//   - Bulkhead: limits concurrent calls to one dependency so a slow
//     backend cannot exhaust the worker pool.
//
// # Usage
//
// Patterns compose through an Executor:
//
//	cb, _ := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	    FailureThreshold: 3,
//	    ResetTimeout:     30 * time.Second,
//	    HalfOpenMaxCalls: 2,
//	})
//
//	executor := resilience.NewExecutor(
//	    resilience.WithCircuitBreaker(cb),
//	    resilience.WithTimeout(5*time.Second),
//	)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return fetchWearableSamples(ctx)
//	})
//
// All types are safe for concurrent use; every state mutation happens
// under a per-instance mutex so racing callers can never over-admit
// half-open probes or corrupt window bookkeeping.
package resilience
