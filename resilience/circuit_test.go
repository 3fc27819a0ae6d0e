package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNewCircuitBreaker(t *testing.T) {
	cb, err := NewCircuitBreaker(CircuitBreakerConfig{})
	if err != nil {
		t.Fatalf("NewCircuitBreaker() error = %v", err)
	}

	if cb.State() != StateClosed {
		t.Errorf("Initial state = %v, want closed", cb.State())
	}
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb, err := NewCircuitBreaker(CircuitBreakerConfig{})
	if err != nil {
		t.Fatalf("NewCircuitBreaker() error = %v", err)
	}

	if cb.config.FailureThreshold != 5 {
		t.Errorf("FailureThreshold = %d, want 5", cb.config.FailureThreshold)
	}
	if cb.config.ResetTimeout != 30*time.Second {
		t.Errorf("ResetTimeout = %v, want 30s", cb.config.ResetTimeout)
	}
	if cb.config.HalfOpenMaxCalls != 1 {
		t.Errorf("HalfOpenMaxCalls = %d, want 1", cb.config.HalfOpenMaxCalls)
	}
}

func TestNewCircuitBreaker_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config CircuitBreakerConfig
	}{
		{"negative threshold", CircuitBreakerConfig{FailureThreshold: -1}},
		{"negative reset timeout", CircuitBreakerConfig{ResetTimeout: -time.Second}},
		{"negative half-open quota", CircuitBreakerConfig{HalfOpenMaxCalls: -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCircuitBreaker(tt.config)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("NewCircuitBreaker() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestCircuitBreaker_OpenAfterThreshold(t *testing.T) {
	cb, _ := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		ResetTimeout:     time.Hour,
	})

	// First 2 failures should not open
	for i := 0; i < 2; i++ {
		cb.RecordFailure()
		if cb.State() != StateClosed {
			t.Errorf("After %d failures, state = %v, want closed", i+1, cb.State())
		}
		if !cb.Allow() {
			t.Errorf("After %d failures, Allow() = false, want true", i+1)
		}
	}

	// Third failure should open
	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Errorf("After 3 failures, state = %v, want open", cb.State())
	}
	if cb.Allow() {
		t.Error("Allow() while open = true, want false")
	}
}

func TestCircuitBreaker_HalfOpenAfterCooldown(t *testing.T) {
	cb, _ := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     10 * time.Millisecond,
	})

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Fatalf("State = %v, want open", cb.State())
	}
	if cb.Allow() {
		t.Error("Allow() before cooldown = true, want false")
	}

	time.Sleep(20 * time.Millisecond)

	// First admission after the cooldown is the probe
	if !cb.Allow() {
		t.Error("Allow() after cooldown = false, want true")
	}
	if cb.State() != StateHalfOpen {
		t.Errorf("State = %v, want half-open", cb.State())
	}
}

func TestCircuitBreaker_ProbeQuota(t *testing.T) {
	cb, _ := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     10 * time.Millisecond,
		HalfOpenMaxCalls: 2,
	})

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	// Exactly HalfOpenMaxCalls probes admitted, no more
	if !cb.Allow() {
		t.Error("first probe: Allow() = false, want true")
	}
	if !cb.Allow() {
		t.Error("second probe: Allow() = false, want true")
	}
	if cb.Allow() {
		t.Error("third probe: Allow() = true, want false")
	}
}

func TestCircuitBreaker_CloseAfterProbeRun(t *testing.T) {
	cb, _ := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     10 * time.Millisecond,
		HalfOpenMaxCalls: 3,
	})

	cb.RecordFailure()
	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	if cb.State() != StateHalfOpen {
		t.Fatalf("State = %v, want half-open", cb.State())
	}

	// Two successes are not enough
	cb.RecordSuccess()
	cb.RecordSuccess()
	if cb.State() != StateHalfOpen {
		t.Errorf("After 2 probe successes, state = %v, want half-open", cb.State())
	}

	// Third success closes and clears the failure count
	cb.RecordSuccess()
	if cb.State() != StateClosed {
		t.Errorf("After 3 probe successes, state = %v, want closed", cb.State())
	}
	if got := cb.Metrics().Failures; got != 0 {
		t.Errorf("Failures after close = %d, want 0", got)
	}
}

func TestCircuitBreaker_ProbeFailureReopens(t *testing.T) {
	cb, _ := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     10 * time.Millisecond,
		HalfOpenMaxCalls: 3,
	})

	cb.RecordFailure()
	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	if cb.State() != StateHalfOpen {
		t.Fatalf("State = %v, want half-open", cb.State())
	}

	// One success, then a failure: the cumulative count was never reset
	// on entering half-open, so a single failure re-opens.
	cb.RecordSuccess()
	cb.RecordFailure()

	if cb.State() != StateOpen {
		t.Errorf("After probe failure, state = %v, want open", cb.State())
	}
	if cb.Allow() {
		t.Error("Allow() after reopen = true, want false")
	}
}

func TestCircuitBreaker_SuccessDecaysFailures(t *testing.T) {
	cb, _ := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		ResetTimeout:     time.Hour,
	})

	// Two failures, one success: count decays to 1, not 0
	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()

	if got := cb.Metrics().Failures; got != 1 {
		t.Fatalf("Failures = %d, want 1", got)
	}

	// Two more failures reach the threshold through the decayed count
	cb.RecordFailure()
	cb.RecordFailure()

	if cb.State() != StateOpen {
		t.Errorf("State = %v, want open", cb.State())
	}
}

func TestCircuitBreaker_DecayFloorsAtZero(t *testing.T) {
	cb, _ := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2})

	cb.RecordSuccess()
	cb.RecordSuccess()

	if got := cb.Metrics().Failures; got != 0 {
		t.Errorf("Failures = %d, want 0", got)
	}
}

func TestCircuitBreaker_Execute(t *testing.T) {
	cb, _ := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Hour,
	})

	testErr := errors.New("wearable provider down")

	_ = cb.Execute(context.Background(), func(ctx context.Context) error {
		return testErr
	})
	_ = cb.Execute(context.Background(), func(ctx context.Context) error {
		return testErr
	})

	if cb.State() != StateOpen {
		t.Fatalf("State = %v, want open", cb.State())
	}

	// The wrapped call must not run while open
	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		t.Error("operation ran while circuit open")
		return nil
	})
	if err != ErrCircuitOpen {
		t.Errorf("Execute() while open = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var mu sync.Mutex
	var transitions []struct{ from, to State }

	cb, _ := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "nutritiondb",
		FailureThreshold: 1,
		ResetTimeout:     10 * time.Millisecond,
		OnStateChange: func(name string, from, to State) {
			if name != "nutritiondb" {
				t.Errorf("hook name = %q, want nutritiondb", name)
			}
			mu.Lock()
			transitions = append(transitions, struct{ from, to State }{from, to})
			mu.Unlock()
		},
	})

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	_ = cb.State() // Trigger the lazy half-open transition
	cb.RecordSuccess()

	mu.Lock()
	defer mu.Unlock()

	want := []struct{ from, to State }{
		{StateClosed, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateClosed},
	}
	if len(transitions) != len(want) {
		t.Fatalf("got %d transitions, want %d", len(transitions), len(want))
	}
	for i, tr := range transitions {
		if tr != want[i] {
			t.Errorf("transition %d = %v -> %v, want %v -> %v", i, tr.from, tr.to, want[i].from, want[i].to)
		}
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb, _ := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Hour,
	})

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Fatalf("State = %v, want open", cb.State())
	}

	cb.Reset()

	if cb.State() != StateClosed {
		t.Errorf("After reset, state = %v, want closed", cb.State())
	}
	if got := cb.Metrics().Failures; got != 0 {
		t.Errorf("Failures after reset = %d, want 0", got)
	}
}

func TestCircuitBreaker_ConcurrentProbeAdmission(t *testing.T) {
	cb, _ := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     5 * time.Millisecond,
		HalfOpenMaxCalls: 2,
	})

	cb.RecordFailure()
	time.Sleep(10 * time.Millisecond)

	// Many goroutines race for the probe quota; only HalfOpenMaxCalls
	// may win.
	var admitted sync.WaitGroup
	var mu sync.Mutex
	won := 0

	for i := 0; i < 16; i++ {
		admitted.Add(1)
		go func() {
			defer admitted.Done()
			if cb.Allow() {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	admitted.Wait()

	if won != 2 {
		t.Errorf("admitted probes = %d, want 2", won)
	}
}

func TestCircuitBreaker_TripScenario(t *testing.T) {
	// failureThreshold=3, resetTimeout standing in for the 30s window.
	cb, _ := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		ResetTimeout:     30 * time.Millisecond,
	})

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	if cb.State() != StateOpen {
		t.Fatalf("State = %v, want open", cb.State())
	}

	// Every admission attempt inside the cooldown is refused
	for i := 0; i < 5; i++ {
		if cb.Allow() {
			t.Fatalf("Allow() %d within cooldown = true, want false", i)
		}
	}

	time.Sleep(40 * time.Millisecond)

	// Past the cooldown the next call is permitted as a probe
	if !cb.Allow() {
		t.Error("Allow() after cooldown = false, want true")
	}
	if cb.State() != StateHalfOpen {
		t.Errorf("State = %v, want half-open", cb.State())
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("State.String() = %v, want %v", got, tt.want)
			}
		})
	}
}
