package clients

import (
	"sync"
	"time"
)

// State is a circuit breaker position.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects calls until the cool-down has passed.
	StateOpen
	// StateHalfOpen lets a limited number of trial calls through.
	StateHalfOpen
)

var stateNames = map[State]string{
	StateClosed:   "closed",
	StateOpen:     "open",
	StateHalfOpen: "half-open",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}

	return "unknown"
}

// CircuitBreakerConfig tunes a CircuitBreaker.
type CircuitBreakerConfig struct {
	// MaxFailures consecutive failures open the circuit.
	MaxFailures int
	// Timeout is the cool-down before an open circuit lets trial calls through again.
	Timeout time.Duration
	// HalfOpenLimit bounds concurrent trial calls and is the number of
	// consecutive trial successes that close the circuit.
	HalfOpenLimit int
}

// CircuitBreaker guards a downstream dependency.
//
//	closed    --MaxFailures failures-->  open
//	open      --Timeout elapsed------->  half-open
//	half-open --HalfOpenLimit ok------>  closed
//	half-open --any failure----------->  open
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu       sync.RWMutex
	state    State
	openedAt time.Time
	// streak counts consecutive failures while closed and consecutive
	// successes while half-open.
	streak   int
	inFlight int
	notify   func(from, to State)
}

// NewCircuitBreaker returns a closed breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// OnStateChange registers fn to run on every transition. fn runs on its
// own goroutine.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	cb.notify = fn
	cb.mu.Unlock()
}

// Allow reports whether a call may proceed. A caller that was allowed must
// report the outcome with RecordSuccess or RecordFailure.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if cb.now().Sub(cb.openedAt) < cb.cfg.Timeout {
			return false
		}

		cb.moveTo(StateHalfOpen)
	}

	if cb.state == StateHalfOpen {
		if cb.inFlight >= cb.cfg.HalfOpenLimit {
			return false
		}

		cb.inFlight++
	}

	return true
}

// RecordSuccess reports a successful call.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.streak = 0
	case StateHalfOpen:
		cb.inFlight--
		cb.streak++

		if cb.streak >= cb.cfg.HalfOpenLimit {
			cb.moveTo(StateClosed)
		}
	case StateOpen:
	}
}

// RecordFailure reports a failed call.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.streak++

		if cb.streak >= cb.cfg.MaxFailures {
			cb.moveTo(StateOpen)
		}
	case StateHalfOpen:
		cb.inFlight--
		cb.moveTo(StateOpen)
	case StateOpen:
		cb.openedAt = cb.now()
	}
}

// State returns the current position.
func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return cb.state
}

// moveTo must be called with mu held.
func (cb *CircuitBreaker) moveTo(next State) {
	if cb.state == next {
		return
	}

	prev := cb.state
	cb.state = next
	cb.streak = 0

	switch next {
	case StateOpen:
		cb.openedAt = cb.now()
	case StateClosed, StateHalfOpen:
		cb.inFlight = 0
	}

	if cb.notify != nil {
		go cb.notify(prev, next)
	}
}
