// Package health implements the circuit breaker and health monitor that
// wrap every resilient provider call.
package health

import (
	"context"
	"sync"
	"time"
)

// State is one of the three circuit breaker states.
type State string

const (
	Closed   State = "closed"
	Open     State = "open"
	HalfOpen State = "half_open"
)

// CircuitBreakerConfig mirrors the original's documented defaults.
type CircuitBreakerConfig struct {
	FailureThreshold     int
	SuccessThreshold     int
	TimeoutSeconds       int
	HalfOpenRequestLimit int
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold:     5,
		SuccessThreshold:     3,
		TimeoutSeconds:       60,
		HalfOpenRequestLimit: 3,
	}
}

// ErrCircuitOpen is returned by Call when the breaker refuses admission.
type ErrCircuitOpen struct {
	Name string
}

func (e *ErrCircuitOpen) Error() string {
	return "circuit breaker open: " + e.Name
}

// CircuitBreaker guards calls to a single downstream dependency. The state
// machine and transition rules are admission-counted and mutex-serialized;
// the wrapped call itself always runs outside the lock.
type CircuitBreaker struct {
	name string
	cfg  CircuitBreakerConfig

	mu                 sync.Mutex
	state              State
	consecutiveFails   int
	consecutiveSuccess int
	openedAt           time.Time
	halfOpenInFlight   int
}

func NewCircuitBreaker(name string, cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{name: name, cfg: cfg, state: Closed}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// admit decides, under lock, whether a call may proceed, and if so performs
// any state transition the admission itself causes (OPEN -> HALF_OPEN after
// the timeout elapses).
func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case Closed:
		return nil
	case Open:
		if time.Since(cb.openedAt) >= time.Duration(cb.cfg.TimeoutSeconds)*time.Second {
			cb.state = HalfOpen
			cb.consecutiveSuccess = 0
			cb.halfOpenInFlight = 0
		} else {
			return &ErrCircuitOpen{Name: cb.name}
		}
		fallthrough
	case HalfOpen:
		if cb.halfOpenInFlight >= cb.cfg.HalfOpenRequestLimit {
			return &ErrCircuitOpen{Name: cb.name}
		}
		cb.halfOpenInFlight++
		return nil
	}
	return nil
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case HalfOpen:
		cb.halfOpenInFlight--
		cb.consecutiveSuccess++
		if cb.consecutiveSuccess >= cb.cfg.SuccessThreshold {
			cb.state = Closed
			cb.consecutiveFails = 0
			cb.consecutiveSuccess = 0
		}
	case Closed:
		cb.consecutiveFails = 0
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case HalfOpen:
		cb.halfOpenInFlight--
		cb.state = Open
		cb.openedAt = time.Now()
		cb.consecutiveSuccess = 0
	case Closed:
		cb.consecutiveFails++
		if cb.consecutiveFails >= cb.cfg.FailureThreshold {
			cb.state = Open
			cb.openedAt = time.Now()
		}
	}
}

// Call admits the request (failing fast if the breaker is open), runs fn
// outside the lock, and records the outcome.
func (cb *CircuitBreaker) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}

	err := fn(ctx)

	if err != nil {
		cb.recordFailure()
		return err
	}
	cb.recordSuccess()
	return nil
}
