// Package audio plays a short chime when an optimizer run finishes.
package audio

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/GoSim-25-26J-441/tourviz/internal/session"
	"github.com/GoSim-25-26J-441/tourviz/pkg/models"
)

const (
	sampleRate = beep.SampleRate(44100)

	CompleteFreq  = 880.0
	ErrorFreq     = 220.0
	chimeDuration = 250 * time.Millisecond
	chimeVolume   = 0.4
)

// ToneFor picks the chime for a status change. Only transitions into a
// terminal status chime.
func ToneFor(from, to models.RunStatus) (float64, bool) {
	if from == to {
		return 0, false
	}
	switch to {
	case models.RunStatusComplete:
		return CompleteFreq, true
	case models.RunStatusError:
		return ErrorFreq, true
	default:
		return 0, false
	}
}

// NewTone builds a sine tone of the given length at reduced volume
func NewTone(freq float64, duration time.Duration, rate beep.SampleRate) (beep.Streamer, error) {
	tone, err := generators.SineTone(rate, freq)
	if err != nil {
		return nil, fmt.Errorf("failed to create %.0f Hz tone: %w", freq, err)
	}
	return &effects.Volume{
		Streamer: beep.Take(rate.N(duration), tone),
		Base:     2,
		Volume:   math.Log2(chimeVolume),
	}, nil
}

// Chime plays status chimes on the system speaker
type Chime struct {
	log *slog.Logger

	mu          sync.Mutex
	initialized bool
	disabled    bool
}

// NewChime creates a chime. The speaker is opened lazily on first use.
func NewChime(log *slog.Logger) *Chime {
	return &Chime{log: log}
}

func (c *Chime) init() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized || c.disabled {
		return c.initialized
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		// no audio device is not worth failing over
		c.log.Warn("audio unavailable, chimes disabled", "error", err)
		c.disabled = true
		return false
	}
	c.initialized = true
	return true
}

// Play sounds a tone at freq without blocking
func (c *Chime) Play(freq float64) {
	if !c.init() {
		return
	}
	tone, err := NewTone(freq, chimeDuration, sampleRate)
	if err != nil {
		c.log.Warn("failed to build chime", "error", err)
		return
	}
	speaker.Play(tone)
}

// Run chimes on terminal status transitions in store until ctx is done
func (c *Chime) Run(ctx context.Context, store *session.Store) error {
	events, unsubscribe := store.Subscribe()
	defer unsubscribe()

	last := store.Status()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Kind != session.EventStatus {
				continue
			}
			status := store.Status()
			if freq, ok := ToneFor(last, status); ok {
				c.log.Debug("chime", "status", status, "freq", freq)
				c.Play(freq)
			}
			last = status
		}
	}
}

// Close releases the speaker
func (c *Chime) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		speaker.Close()
		c.initialized = false
	}
}
