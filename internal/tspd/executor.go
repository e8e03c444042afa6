// Package tspd is a mock tour optimizer service: it runs a genetic TSP solver
// in the background and serves its progress over HTTP.
package tspd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GoSim-25-26J-441/tourviz/pkg/models"
	"github.com/GoSim-25-26J-441/tourviz/pkg/utils"
)

// Status values reported on GET /state
const (
	StatusIdle     = "idle"
	StatusPending  = "pending"
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusError    = "error"
)

// MinPoints is the smallest problem the solver accepts
const MinPoints = 3

var (
	ErrTooFewPoints = errors.New("at least 3 points required")
)

// Executor runs one solver at a time. Starting a run cancels the previous one.
type Executor struct {
	iterations *IterationLog
	opts       SolverOptions
	log        *slog.Logger

	startMu sync.Mutex // serializes Start

	mu     sync.Mutex
	runID  string
	status string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewExecutor creates an idle executor writing progress to iterations
func NewExecutor(iterations *IterationLog, opts SolverOptions, log *slog.Logger) *Executor {
	return &Executor{
		iterations: iterations,
		opts:       opts,
		log:        log,
		status:     StatusIdle,
	}
}

// Start cancels any in-flight run, clears the iteration log and starts
// solving points in the background. It returns the new run id.
func (e *Executor) Start(ctx context.Context, points []models.Point) (string, error) {
	if len(points) < MinPoints {
		return "", fmt.Errorf("%w: got %d", ErrTooFewPoints, len(points))
	}

	e.startMu.Lock()
	defer e.startMu.Unlock()

	e.stop()
	if err := e.iterations.Clear(ctx); err != nil {
		return "", err
	}

	runID := utils.GenerateRunID()
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	e.mu.Lock()
	e.runID = runID
	e.status = StatusPending
	e.cancel = cancel
	e.done = done
	e.mu.Unlock()

	go e.run(runCtx, runID, models.ClonePoints(points), done)

	e.log.Info("run started", "run_id", runID, "points", len(points))
	return runID, nil
}

// Stop cancels the in-flight run, if any, and waits for it to exit
func (e *Executor) Stop() {
	e.startMu.Lock()
	defer e.startMu.Unlock()
	e.stop()
}

func (e *Executor) stop() {
	e.mu.Lock()
	cancel, done, runID := e.cancel, e.done, e.runID
	e.cancel, e.done = nil, nil
	e.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	e.log.Info("run cancelled", "run_id", runID)
}

func (e *Executor) run(ctx context.Context, runID string, points []models.Point, done chan struct{}) {
	defer close(done)

	e.setStatus(runID, StatusRunning)
	solver := NewSolver(e.opts, e.log.With("run_id", runID))

	err := solver.Solve(ctx, points, func(it Iteration) error {
		return e.iterations.Append(ctx, IterationRecord{
			RunID:        runID,
			Iteration:    it.Number,
			BestDistance: it.BestDistance,
			BestPath:     it.BestPath,
			Operation:    it.Operation,
			Goal:         it.Goal,
			Heatmap:      it.Heatmap,
		})
	})

	switch {
	case ctx.Err() != nil:
		// superseded or stopped; the replacing run owns the status
	case err != nil:
		e.log.Error("solver failed", "run_id", runID, "error", err)
		e.setStatus(runID, StatusError)
	default:
		e.log.Info("run complete", "run_id", runID)
		e.setStatus(runID, StatusComplete)
	}
}

func (e *Executor) setStatus(runID, status string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.runID == runID {
		e.status = status
	}
}

// Status returns the current run id and status
func (e *Executor) Status() (runID, status string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runID, e.status
}

// Wait blocks until the current run finishes or ctx is done
func (e *Executor) Wait(ctx context.Context) error {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
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

// Snapshot assembles the optimizer state reported to clients from the iteration log
func (e *Executor) Snapshot(ctx context.Context) (models.Snapshot, error) {
	runID, status := e.Status()

	snap := models.IdleSnapshot()
	snap.RawStatus = status
	snap.Status = models.ParseRunStatus(status)
	if runID == "" {
		return snap, nil
	}

	records, err := e.iterations.List(ctx, runID)
	if err != nil {
		return models.Snapshot{}, err
	}
	for _, rec := range records {
		snap.DistanceHistory = append(snap.DistanceHistory, models.DistanceSample{Iteration: rec.Iteration, Distance: rec.BestDistance})
		snap.GoalHistory = append(snap.GoalHistory, models.GoalSample{Iteration: rec.Iteration, Goal: rec.Goal})
	}
	if n := len(records); n > 0 {
		last := records[n-1]
		snap.IterationNumber = last.Iteration
		snap.BestDistance = last.BestDistance
		snap.BestPath = last.BestPath
		snap.PopulationHeatmap = last.Heatmap
	}
	return snap, nil
}
