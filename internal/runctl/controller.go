// Package runctl drives an optimizer run through its lifecycle: it starts the
// run, polls for snapshots and tears everything down on reset, mode switch or
// session close.
package runctl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GoSim-25-26J-441/tourviz/internal/session"
	"github.com/GoSim-25-26J-441/tourviz/pkg/models"
)

// MinPoints is the smallest point set a run can be started with
const MinPoints = 3

// ErrClosed is returned by operations on a closed controller
var ErrClosed = errors.New("controller closed")

// Optimizer is the remote service a run is delegated to
type Optimizer interface {
	StateFetcher
	Probe(ctx context.Context) error
	StartRun(ctx context.Context, points []models.Point) error
}

// PresetSource resolves preset names to point sets
type PresetSource interface {
	Names() []string
	Lookup(name string) ([]models.Point, error)
	Next(current string, step int) string
}

// Controller owns the run state machine and its poll loop
type Controller struct {
	store   *session.Store
	client  Optimizer
	presets PresetSource
	poller  *Poller
	log     *slog.Logger

	mu          sync.Mutex
	epoch       uint64
	startCancel context.CancelFunc
	closed      bool
}

// NewController wires a controller to the store and the optimizer client
func NewController(store *session.Store, client Optimizer, presets PresetSource, opts PollerOptions, log *slog.Logger) *Controller {
	return &Controller{
		store:   store,
		client:  client,
		presets: presets,
		poller:  NewPoller(client, store, opts, log.With("component", "poller")),
		log:     log,
	}
}

// CanStart reports whether StartRun would issue a request for the current session
func (c *Controller) CanStart() bool {
	v := c.store.View()
	return len(v.Points) >= MinPoints && !v.Status.IsActive()
}

// StartRun starts an optimizer run over the current points. It is a no-op
// returning false when fewer than MinPoints points exist or a run is already
// starting or running. A failed start leaves the session in the error status.
func (c *Controller) StartRun(ctx context.Context) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	points := c.store.Points()
	from := c.store.Status()
	if len(points) < MinPoints || from.IsActive() {
		c.mu.Unlock()
		c.log.Debug("start ignored", "points", len(points), "status", from)
		return false
	}

	// a finished run may still own a loop that has not released yet
	c.poller.Cancel()
	c.transition(from, models.RunStatusStarting)
	c.epoch++
	epoch := c.epoch
	startCtx, cancel := context.WithCancel(ctx)
	c.startCancel = cancel
	c.mu.Unlock()

	err := c.start(startCtx, points)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		c.log.Info("discarding start result of a superseded run", "error", err)
		return true
	}
	c.startCancel = nil

	if err != nil {
		c.log.Error("failed to start run", "error", err, "points", len(points))
		c.transition(models.RunStatusStarting, models.RunStatusError)
		return true
	}

	c.transition(models.RunStatusStarting, models.RunStatusRunning)
	c.poller.Start(context.Background())
	return true
}

func (c *Controller) start(ctx context.Context, points []models.Point) error {
	if err := c.client.Probe(ctx); err != nil {
		c.log.Warn("optimizer probe failed", "error", err)
	}
	if err := c.client.StartRun(ctx, points); err != nil {
		return err
	}
	return nil
}

// Reset cancels any in-flight start and the poll loop, then returns the
// session to idle manual mode with no points
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	from := c.stopLocked()
	c.store.Reset()
	c.log.Info("session reset", "from", from)
}

// SwitchMode changes the point-entry mode. Entering preset mode loads the
// previously selected preset, or the first one.
func (c *Controller) SwitchMode(mode models.Mode) error {
	if mode == models.ModePreset {
		name := c.store.Preset()
		if name == "" {
			names := c.presets.Names()
			if len(names) == 0 {
				return fmt.Errorf("no presets available")
			}
			name = names[0]
		}
		return c.LoadPreset(name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	from := c.stopLocked()
	c.store.SetMode(mode)
	c.log.Info("mode switched", "mode", mode, "from", from)
	return nil
}

// ToggleMode flips between manual and preset mode
func (c *Controller) ToggleMode() error {
	if c.store.Mode() == models.ModeManual {
		return c.SwitchMode(models.ModePreset)
	}
	return c.SwitchMode(models.ModeManual)
}

// LoadPreset selects a named preset, replacing the point set and clearing run state
func (c *Controller) LoadPreset(name string) error {
	points, err := c.presets.Lookup(name)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	from := c.stopLocked()
	c.store.SelectPreset(name, points)
	c.log.Info("preset loaded", "preset", name, "points", len(points), "from", from)
	return nil
}

// CyclePreset moves step presets forward (or backward) from the current one.
// It does nothing outside preset mode.
func (c *Controller) CyclePreset(step int) error {
	if c.store.Mode() != models.ModePreset {
		return nil
	}
	return c.LoadPreset(c.presets.Next(c.store.Preset(), step))
}

// Polling reports whether the poll loop is active
func (c *Controller) Polling() bool {
	return c.poller.Active()
}

// Close tears the session down. It is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopLocked()
	c.log.Info("controller closed")
}

// stopLocked supersedes any in-flight start and cancels polling
func (c *Controller) stopLocked() models.RunStatus {
	c.epoch++
	if c.startCancel != nil {
		c.startCancel()
		c.startCancel = nil
	}
	c.poller.Cancel()
	return c.store.Status()
}

func (c *Controller) transition(from, to models.RunStatus) {
	c.store.SetStatus(to)
	c.log.Info("run status changed", "from", from, "to", to)
}
