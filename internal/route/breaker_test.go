package route

import (
	"context"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/tourviz/pkg/models"
)

func TestBreakerClosedState(t *testing.T) {
	b := NewBreaker(3, 2, 5*time.Second)
	now := time.Now()

	if !b.AllowRequest(now) {
		t.Fatalf("expected request to be allowed in closed state")
	}
	if b.State(now) != CircuitStateClosed {
		t.Fatalf("expected state to be closed, got %s", b.State(now))
	}
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewBreaker(3, 2, 5*time.Second)
	now := time.Now()

	b.RecordFailure(now)
	b.RecordFailure(now)
	if b.State(now) != CircuitStateClosed {
		t.Fatalf("expected state to stay closed below threshold")
	}
	b.RecordFailure(now)

	if b.State(now) != CircuitStateOpen {
		t.Fatalf("expected state to be open after 3 failures, got %s", b.State(now))
	}
	if b.AllowRequest(now) {
		t.Fatalf("expected request to be rejected in open state")
	}
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := NewBreaker(2, 1, time.Second)
	now := time.Now()

	b.RecordFailure(now)
	b.RecordSuccess(now)
	b.RecordFailure(now)

	if b.State(now) != CircuitStateClosed {
		t.Fatalf("non-consecutive failures must not open the circuit")
	}
}

func TestBreakerHalfOpenAndRecovery(t *testing.T) {
	b := NewBreaker(1, 2, 100*time.Millisecond)
	now := time.Now()

	b.RecordFailure(now)
	later := now.Add(150 * time.Millisecond)

	if state := b.State(later); state != CircuitStateHalfOpen {
		t.Fatalf("expected half-open after timeout, got %s", state)
	}
	if !b.AllowRequest(later) {
		t.Fatalf("expected trial request to be allowed in half-open state")
	}

	b.RecordSuccess(later)
	if b.State(later) != CircuitStateHalfOpen {
		t.Fatalf("one success is below the success threshold")
	}
	b.RecordSuccess(later)
	if b.State(later) != CircuitStateClosed {
		t.Fatalf("expected closed after 2 successes, got %s", b.State(later))
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker(1, 1, 100*time.Millisecond)
	now := time.Now()

	b.RecordFailure(now)
	later := now.Add(time.Second)
	b.AllowRequest(later)
	b.RecordFailure(later)

	if b.State(later) != CircuitStateOpen {
		t.Fatalf("expected open after failure in half-open state")
	}
}

func TestWithBreakerShortCircuits(t *testing.T) {
	calls := 0
	failing := funcRouter(func(ctx context.Context, _ []models.LatLng) ([]models.LatLng, error) {
		calls++
		return nil, ErrRouting
	})
	r := WithBreaker(failing, NewBreaker(2, 1, time.Hour))

	for i := 0; i < 5; i++ {
		r.Route(context.Background(), loop)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls before the circuit opened, got %d", calls)
	}
	if _, err := r.Route(context.Background(), loop); err != ErrCircuitOpen {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestWithBreakerIgnoresCancellation(t *testing.T) {
	cancelled := funcRouter(func(ctx context.Context, _ []models.LatLng) ([]models.LatLng, error) {
		return nil, context.Canceled
	})
	b := NewBreaker(1, 1, time.Hour)
	r := WithBreaker(cancelled, b)

	r.Route(context.Background(), loop)
	if b.State(time.Now()) != CircuitStateClosed {
		t.Fatalf("cancelled lookups must not count as failures")
	}
}
