package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means calls flow through normally.
	StateClosed State = iota
	// StateOpen means all calls are refused.
	StateOpen
	// StateHalfOpen means a bounded number of probe calls are admitted
	// to test whether the dependency recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures a circuit breaker.
//
// Zero values take the documented defaults; negative values are
// rejected by NewCircuitBreaker.
type CircuitBreakerConfig struct {
	// Name identifies the protected dependency in logs and hooks.
	Name string

	// FailureThreshold is the failure count at which the circuit opens.
	// Default: 5
	FailureThreshold int

	// ResetTimeout is the cooldown after the last failure before probe
	// calls are admitted.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// HalfOpenMaxCalls is both the probe admission quota while
	// half-open and the number of consecutive probe successes required
	// to close the circuit.
	// Default: 1
	HalfOpenMaxCalls int

	// OnStateChange is called after every state transition.
	OnStateChange func(name string, from, to State)

	// IsFailure decides whether an error counts against the breaker.
	// Default: all non-nil errors are failures.
	IsFailure func(err error) bool
}

// CircuitBreaker is a per-dependency fault-isolation state machine.
//
// While closed, each success decays the failure count by one instead of
// clearing it, so sporadic isolated failures bleed away without letting
// a burst hide behind a single success. The failure count is kept
// across the open to half-open transition: one probe failure is enough
// to re-open, and only a clean probe run resets the count to zero.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu                sync.Mutex
	state             State
	failures          int
	lastFailure       time.Time
	halfOpenAdmitted  int
	halfOpenSuccesses int
}

// NewCircuitBreaker creates a circuit breaker. Negative thresholds,
// timeouts, or probe quotas fail fast with ErrInvalidConfig.
func NewCircuitBreaker(config CircuitBreakerConfig) (*CircuitBreaker, error) {
	if config.FailureThreshold < 0 {
		return nil, fmt.Errorf("%w: failure threshold %d is negative", ErrInvalidConfig, config.FailureThreshold)
	}
	if config.ResetTimeout < 0 {
		return nil, fmt.Errorf("%w: reset timeout %v is negative", ErrInvalidConfig, config.ResetTimeout)
	}
	if config.HalfOpenMaxCalls < 0 {
		return nil, fmt.Errorf("%w: half-open max calls %d is negative", ErrInvalidConfig, config.HalfOpenMaxCalls)
	}

	// Apply defaults
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.ResetTimeout == 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxCalls == 0 {
		config.HalfOpenMaxCalls = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
	}, nil
}

// Allow reports whether a call may be attempted right now.
//
// In the open state, Allow flips the breaker to half-open once the
// reset timeout has elapsed since the last failure. While half-open,
// admission consumes the probe quota under the lock, so concurrent
// callers can never both take the last probe slot.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentStateLocked() {
	case StateClosed:
		return true
	case StateHalfOpen:
		if cb.halfOpenAdmitted >= cb.config.HalfOpenMaxCalls {
			return false
		}
		cb.halfOpenAdmitted++
		return true
	default:
		return false
	}
}

// RecordSuccess reports a successful call outcome.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		// Slow self-healing: decay rather than reset, so isolated
		// failures do not accumulate toward the threshold.
		if cb.failures > 0 {
			cb.failures--
		}
	case StateHalfOpen:
		cb.halfOpenSuccesses++
		if cb.halfOpenSuccesses >= cb.config.HalfOpenMaxCalls {
			cb.transitionLocked(StateClosed)
			cb.failures = 0
		}
	}
}

// RecordFailure reports a failed call outcome. A timeout counts the
// same as any other failure.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = time.Now()

	// The count is never reset on entry to half-open, so a breaker that
	// tripped is still at or above threshold here and a single probe
	// failure re-opens it.
	if cb.failures >= cb.config.FailureThreshold && cb.state != StateOpen {
		cb.transitionLocked(StateOpen)
	}
}

// Execute runs the operation through the circuit breaker.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if !cb.Allow() {
		return ErrCircuitOpen
	}

	err := op(ctx)
	if cb.config.IsFailure(err) {
		cb.RecordFailure()
	} else {
		cb.RecordSuccess()
	}
	return err
}

// State returns the current circuit state, applying the lazy
// open-to-half-open transition if the cooldown has elapsed.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentStateLocked()
}

// Name returns the configured dependency name.
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

// Reset forces the breaker back to closed with all counters cleared.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateClosed {
		cb.transitionLocked(StateClosed)
	}
	cb.failures = 0
	cb.lastFailure = time.Time{}
}

func (cb *CircuitBreaker) currentStateLocked() State {
	if cb.state == StateOpen && time.Since(cb.lastFailure) > cb.config.ResetTimeout {
		cb.transitionLocked(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) transitionLocked(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to

	// Probe counters are meaningful only while half-open.
	if from == StateHalfOpen || to == StateHalfOpen {
		cb.halfOpenAdmitted = 0
		cb.halfOpenSuccesses = 0
	}

	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}

// CircuitBreakerMetrics is a point-in-time snapshot of breaker state.
type CircuitBreakerMetrics struct {
	State             State
	Failures          int
	LastFailure       time.Time
	HalfOpenAdmitted  int
	HalfOpenSuccesses int
}

// Metrics returns current circuit breaker statistics.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerMetrics{
		State:             cb.currentStateLocked(),
		Failures:          cb.failures,
		LastFailure:       cb.lastFailure,
		HalfOpenAdmitted:  cb.halfOpenAdmitted,
		HalfOpenSuccesses: cb.halfOpenSuccesses,
	}
}
