package utils

import (
	"math"
	"time"
)

// BackoffStrategy spaces out repeated attempts after failures
type BackoffStrategy interface {
	// NextDelay returns the wait before the retry following the given
	// number of consecutive failures, counting from 0
	NextDelay(failures int) time.Duration
}

// Backoff kinds accepted by BackoffFromConfig
const (
	BackoffNone        = "none"
	BackoffConstant    = "constant"
	BackoffLinear      = "linear"
	BackoffExponential = "exponential"
)

const defaultMaxBackoff = 30 * time.Second

// ConstantBackoff always waits the same delay
type ConstantBackoff struct {
	Delay time.Duration
}

// NewConstantBackoff creates a constant backoff
func NewConstantBackoff(delay time.Duration) *ConstantBackoff {
	return &ConstantBackoff{Delay: delay}
}

func (b *ConstantBackoff) NextDelay(int) time.Duration {
	return b.Delay
}

// LinearBackoff grows by Base per failure up to Max
type LinearBackoff struct {
	Base time.Duration
	Max  time.Duration
}

func (b *LinearBackoff) NextDelay(failures int) time.Duration {
	return min(b.Base*time.Duration(failures+1), b.Max)
}

// ExponentialBackoff doubles from Base up to Max. With Jitter the delay is
// scaled by a random factor in [0.5, 1.5).
type ExponentialBackoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter bool
}

func (b *ExponentialBackoff) NextDelay(failures int) time.Duration {
	d := min(float64(b.Base)*math.Pow(2, float64(failures)), float64(b.Max))
	if b.Jitter {
		d *= 0.5 + Float64()
	}
	return time.Duration(d)
}

// BackoffFromConfig builds the strategy named by kind. "none" (or empty)
// returns nil, which callers treat as keeping their fixed cadence. Unknown
// kinds fall back to jittered exponential.
func BackoffFromConfig(kind string, base, max time.Duration) BackoffStrategy {
	if max <= 0 {
		max = defaultMaxBackoff
	}
	switch kind {
	case "", BackoffNone:
		return nil
	case BackoffConstant:
		return NewConstantBackoff(base)
	case BackoffLinear:
		return &LinearBackoff{Base: base, Max: max}
	default:
		return &ExponentialBackoff{Base: base, Max: max, Jitter: true}
	}
}
