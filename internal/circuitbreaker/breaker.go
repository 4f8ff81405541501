// Package circuitbreaker fails calls fast after repeated errors from a
// downstream dependency such as the search index.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	Closed   State = iota // calls pass through
	Open                  // calls are rejected
	HalfOpen              // one probe call is allowed
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when the circuit breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Breaker implements the circuit breaker pattern.
type Breaker struct {
	mu              sync.Mutex
	state           State
	failures        int
	maxFailures     int
	resetTimeout    time.Duration
	lastFailureTime time.Time
	onChange        func(from, to State)
}

type Option func(*Breaker)

// WithOnStateChange registers fn to be called after every state transition.
// fn runs with the breaker unlocked.
func WithOnStateChange(fn func(from, to State)) Option {
	return func(b *Breaker) { b.onChange = fn }
}

// New creates a Breaker that opens after maxFailures consecutive errors
// and attempts recovery after resetTimeout.
func New(maxFailures int, resetTimeout time.Duration, opts ...Option) *Breaker {
	b := &Breaker{
		state:        Closed,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// setState must be called with mu held. It returns the transition to report.
func (b *Breaker) setState(to State) (from State, changed bool) {
	from = b.state
	b.state = to
	return from, from != to
}

func (b *Breaker) notify(from, to State, changed bool) {
	if changed && b.onChange != nil {
		b.onChange(from, to)
	}
}

// Execute runs fn through the circuit breaker. If the circuit is open,
// ErrCircuitOpen is returned without calling fn.
func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()
	if b.state == Open {
		if time.Since(b.lastFailureTime) <= b.resetTimeout {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		from, changed := b.setState(HalfOpen)
		b.mu.Unlock()
		b.notify(from, HalfOpen, changed)
	} else {
		b.mu.Unlock()
	}

	err := fn()

	b.mu.Lock()
	var to State
	if err != nil {
		b.failures++
		b.lastFailureTime = time.Now()
		to = b.state
		if b.failures >= b.maxFailures {
			to = Open
		}
	} else {
		b.failures = 0
		to = Closed
	}
	from, changed := b.setState(to)
	b.mu.Unlock()

	b.notify(from, to, changed)
	return err
}

// GetState returns the current state of the breaker.
func (b *Breaker) GetState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
