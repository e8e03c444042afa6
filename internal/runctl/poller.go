package runctl

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/tourviz/internal/session"
	"github.com/GoSim-25-26J-441/tourviz/pkg/config"
	"github.com/GoSim-25-26J-441/tourviz/pkg/models"
	"github.com/GoSim-25-26J-441/tourviz/pkg/utils"
)

const defaultPollInterval = 500 * time.Millisecond

// StateFetcher fetches the optimizer's current snapshot
type StateFetcher interface {
	FetchState(ctx context.Context) (models.Snapshot, error)
}

// PollerOptions tune the poll loop. The zero Backoff and MaxFailures keep a
// fixed cadence that retries forever.
type PollerOptions struct {
	Interval    time.Duration
	Backoff     utils.BackoffStrategy
	MaxFailures int
}

// PollerOptionsFromConfig builds poll options from a validated config section
func PollerOptionsFromConfig(cfg config.PollConfig) (PollerOptions, error) {
	interval, err := cfg.GetInterval()
	if err != nil {
		return PollerOptions{}, fmt.Errorf("invalid poll interval: %w", err)
	}
	opts := PollerOptions{Interval: interval, MaxFailures: cfg.MaxFailures}
	if cfg.Backoff == "" || cfg.Backoff == "none" {
		return opts, nil
	}

	base, err := cfg.GetBackoffBase()
	if err != nil {
		return PollerOptions{}, fmt.Errorf("invalid poll backoff_base: %w", err)
	}
	max, err := cfg.GetBackoffMax()
	if err != nil {
		return PollerOptions{}, fmt.Errorf("invalid poll backoff_max: %w", err)
	}
	opts.Backoff = utils.BackoffFromConfig(cfg.Backoff, base, max)
	return opts, nil
}

// Poller periodically fetches snapshots into the session store while a run is active.
// At most one fetch is in flight; ticks that elapse during a slow fetch are dropped.
type Poller struct {
	fetcher StateFetcher
	store   *session.Store
	opts    PollerOptions
	log     *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates an inactive poller
func NewPoller(fetcher StateFetcher, store *session.Store, opts PollerOptions, log *slog.Logger) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = defaultPollInterval
	}
	return &Poller{
		fetcher: fetcher,
		store:   store,
		opts:    opts,
		log:     log,
	}
}

// Start launches the loop. It reports false when the loop is already active.
func (p *Poller) Start(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return false
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go p.run(ctx, done)
	return true
}

// Cancel stops the loop and waits for it to exit, so no snapshot is applied
// after Cancel returns. Calling it on an inactive poller does nothing.
func (p *Poller) Cancel() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Active reports whether the loop is running
func (p *Poller) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Wait blocks until the current loop exits or ctx is done
func (p *Poller) Wait(ctx context.Context) error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer p.release(done)

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		snap, err := p.fetcher.FetchState(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			failures++
			p.log.Warn("poll failed", "error", err, "consecutive_failures", failures)
			if p.opts.MaxFailures > 0 && failures >= p.opts.MaxFailures {
				p.log.Error("giving up on run after repeated poll failures", "failures", failures)
				p.store.SetStatus(models.RunStatusError)
				return
			}
			if p.opts.Backoff != nil && !sleep(ctx, p.opts.Backoff.NextDelay(failures-1)) {
				return
			}
			continue
		}

		failures = 0
		p.store.ApplySnapshot(snap)
		if snap.Status.IsTerminal() {
			p.log.Info("run finished, polling stopped",
				"status", snap.Status,
				"iteration", snap.IterationNumber,
				"best_distance", snap.BestDistance)
			return
		}
	}
}

// release forgets the loop handle unless a newer loop has replaced it
func (p *Poller) release(done chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == done {
		p.cancel()
		p.cancel, p.done = nil, nil
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
