package route

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/tourviz/pkg/models"
)

// ErrCircuitOpen is returned while the breaker rejects lookups
var ErrCircuitOpen = errors.New("routing circuit open")

// CircuitState represents the state of a circuit breaker
type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"   // Normal operation
	CircuitStateOpen     CircuitState = "open"     // Failing, rejecting requests
	CircuitStateHalfOpen CircuitState = "halfopen" // Testing if service recovered
)

// Breaker stops route lookups after repeated failures and lets a trial
// request through once the open timeout has elapsed
type Breaker struct {
	// failureThreshold is the number of failures before opening the circuit
	failureThreshold int
	// successThreshold is the number of successes needed in half-open state to close
	successThreshold int
	// timeout is how long the circuit stays open before transitioning to half-open
	timeout time.Duration

	mu              sync.Mutex
	state           CircuitState
	failureCount    int
	successCount    int
	lastStateChange time.Time
}

// NewBreaker creates a closed breaker
func NewBreaker(failureThreshold, successThreshold int, timeout time.Duration) *Breaker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	if successThreshold < 1 {
		successThreshold = 1
	}
	return &Breaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		timeout:          timeout,
		state:            CircuitStateClosed,
	}
}

// AllowRequest reports whether a lookup may be attempted at now
func (b *Breaker) AllowRequest(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.checkLocked(now) != CircuitStateOpen
}

// RecordSuccess records a successful lookup
func (b *Breaker) RecordSuccess(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateHalfOpen:
		b.successCount++
		if b.successCount >= b.successThreshold {
			b.state = CircuitStateClosed
			b.failureCount = 0
			b.lastStateChange = now
		}
	case CircuitStateClosed:
		b.failureCount = 0
	}
}

// RecordFailure records a failed lookup
func (b *Breaker) RecordFailure(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	switch b.state {
	case CircuitStateHalfOpen:
		// any failure while probing reopens
		b.state = CircuitStateOpen
		b.successCount = 0
		b.lastStateChange = now
	case CircuitStateClosed:
		if b.failureCount >= b.failureThreshold {
			b.state = CircuitStateOpen
			b.lastStateChange = now
		}
	}
}

// State returns the breaker state at now
func (b *Breaker) State(now time.Time) CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.checkLocked(now)
}

func (b *Breaker) checkLocked(now time.Time) CircuitState {
	if b.state == CircuitStateOpen && now.Sub(b.lastStateChange) >= b.timeout {
		b.state = CircuitStateHalfOpen
		b.successCount = 0
		b.lastStateChange = now
	}
	return b.state
}

type breakerRouter struct {
	next    Router
	breaker *Breaker
	now     func() time.Time
}

// WithBreaker guards a router with a circuit breaker. While the circuit is
// open lookups fail fast with ErrCircuitOpen.
func WithBreaker(next Router, b *Breaker) Router {
	return &breakerRouter{next: next, breaker: b, now: time.Now}
}

func (r *breakerRouter) Route(ctx context.Context, waypoints []models.LatLng) ([]models.LatLng, error) {
	if !r.breaker.AllowRequest(r.now()) {
		return nil, ErrCircuitOpen
	}
	path, err := r.next.Route(ctx, waypoints)
	if err != nil {
		// a superseded lookup says nothing about the service
		if !errors.Is(err, context.Canceled) {
			r.breaker.RecordFailure(r.now())
		}
		return nil, err
	}
	r.breaker.RecordSuccess(r.now())
	return path, nil
}
