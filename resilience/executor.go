package resilience

import (
	"context"
	"time"
)

// Executor composes the resilience patterns around one operation. The
// integration gateway builds one per dependency; callers outside the
// gateway can compose their own.
type Executor struct {
	circuitBreaker *CircuitBreaker
	retry          *Retry
	limiter        *SlidingWindowLimiter
	limiterKey     string
	bulkhead       *Bulkhead
	timeout        *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new resilience executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCircuitBreaker adds a circuit breaker to the executor.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) {
		e.circuitBreaker = cb
	}
}

// WithRetry adds retry logic to the executor.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithRateLimit throttles the executor under the given limiter key.
func WithRateLimit(l *SlidingWindowLimiter, key string) ExecutorOption {
	return func(e *Executor) {
		e.limiter = l
		e.limiterKey = key
	}
}

// WithBulkhead adds bulkhead isolation to the executor.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) {
		e.bulkhead = b
	}
}

// WithTimeout bounds each operation to the given duration.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = NewTimeout(TimeoutConfig{Timeout: timeout})
	}
}

// WithTimeoutConfig bounds each operation with a custom timeout wrapper.
func WithTimeoutConfig(t *Timeout) ExecutorOption {
	return func(e *Executor) {
		e.timeout = t
	}
}

// Execute runs the operation through all configured patterns.
//
// The execution order is:
//  1. Rate limiter - sheds callers over quota before any work happens
//  2. Bulkhead - caps in-flight calls
//  3. Circuit breaker - refuses calls to a tripped dependency
//  4. Retry - re-attempts transient failures
//  5. Timeout - bounds each individual attempt
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	// Build the chain from the inside out.
	execute := op

	if e.timeout != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.timeout.Execute(ctx, inner)
		}
	}

	if e.retry != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.retry.Execute(ctx, inner)
		}
	}

	if e.circuitBreaker != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.circuitBreaker.Execute(ctx, inner)
		}
	}

	if e.bulkhead != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.bulkhead.Execute(ctx, inner)
		}
	}

	if e.limiter != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.limiter.Execute(ctx, e.limiterKey, inner)
		}
	}

	return execute(ctx)
}
