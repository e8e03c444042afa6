package runctl

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/GoSim-25-26J-441/tourviz/internal/optimizer"
	"github.com/GoSim-25-26J-441/tourviz/pkg/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeOptimizer scripts the optimizer's answers. Snapshots are served in order
// and the last one repeats.
type fakeOptimizer struct {
	mu        sync.Mutex
	probeErr  error
	startErr  error
	startGate chan struct{}
	snapshots []models.Snapshot
	fetchErrs []error

	probes  atomic.Int32
	starts  atomic.Int32
	fetches atomic.Int32
	started [][]models.Point
}

func (f *fakeOptimizer) Probe(ctx context.Context) error {
	f.probes.Add(1)
	return f.probeErr
}

func (f *fakeOptimizer) StartRun(ctx context.Context, points []models.Point) error {
	f.starts.Add(1)
	f.mu.Lock()
	f.started = append(f.started, models.ClonePoints(points))
	gate := f.startGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return errors.Join(optimizer.ErrStartRun, ctx.Err())
		}
	}
	return f.startErr
}

func (f *fakeOptimizer) FetchState(ctx context.Context) (models.Snapshot, error) {
	n := int(f.fetches.Add(1)) - 1

	f.mu.Lock()
	defer f.mu.Unlock()
	if n < len(f.fetchErrs) && f.fetchErrs[n] != nil {
		return models.Snapshot{}, f.fetchErrs[n]
	}
	if len(f.snapshots) == 0 {
		return models.Snapshot{}, optimizer.ErrPoll
	}
	idx := n
	if idx >= len(f.snapshots) {
		idx = len(f.snapshots) - 1
	}
	return f.snapshots[idx].Clone(), nil
}

type fakePresets struct {
	names  []string
	points map[string][]models.Point
}

func (p *fakePresets) Names() []string { return p.names }

func (p *fakePresets) Lookup(name string) ([]models.Point, error) {
	pts, ok := p.points[name]
	if !ok {
		return nil, errors.New("preset not found")
	}
	return models.ClonePoints(pts), nil
}

func (p *fakePresets) Next(current string, step int) string {
	for i, n := range p.names {
		if n == current {
			return p.names[((i+step)%len(p.names)+len(p.names))%len(p.names)]
		}
	}
	return p.names[0]
}

func snapshot(status string, iteration int, path ...int) models.Snapshot {
	s := models.Snapshot{RawStatus: status, IterationNumber: iteration, BestPath: path}
	s.Normalize()
	return s
}
