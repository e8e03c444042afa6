// Package route derives the path drawn over the map from the optimizer's best
// tour. Lookups run concurrently and only the latest one is applied.
package route

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/GoSim-25-26J-441/tourviz/internal/session"
	"github.com/GoSim-25-26J-441/tourviz/pkg/config"
	"github.com/GoSim-25-26J-441/tourviz/pkg/models"
)

// Resolve maps tour indices onto point coordinates, skipping indices with no point
func Resolve(bestPath []int, points []models.Point) []models.LatLng {
	out := make([]models.LatLng, 0, len(bestPath))
	for _, idx := range bestPath {
		if idx < 0 || idx >= len(points) {
			continue
		}
		out = append(out, points[idx].LatLng())
	}
	return out
}

// CloseLoop returns waypoints with the first one appended at the end
func CloseLoop(waypoints []models.LatLng) []models.LatLng {
	if len(waypoints) == 0 {
		return []models.LatLng{}
	}
	out := make([]models.LatLng, 0, len(waypoints)+1)
	out = append(out, waypoints...)
	return append(out, waypoints[0])
}

// NewRouterFromConfig builds the configured router. It returns nil when
// lookups are disabled, in which case paths are always straight segments.
func NewRouterFromConfig(cfg config.RoutingConfig) (Router, error) {
	if !cfg.IsEnabled() {
		return nil, nil
	}
	timeout, err := cfg.GetTimeout()
	if err != nil {
		return nil, fmt.Errorf("invalid routing timeout: %w", err)
	}
	var r Router = NewOSRMClient(cfg.BaseURL, timeout)
	if cfg.Breaker.Enabled {
		open, err := cfg.Breaker.GetOpenTimeout()
		if err != nil {
			return nil, fmt.Errorf("invalid routing breaker open_timeout: %w", err)
		}
		r = WithBreaker(r, NewBreaker(cfg.Breaker.FailureThreshold, cfg.Breaker.SuccessThreshold, open))
	}
	return r, nil
}

// Deriver computes the session path from the best tour and the point set
type Deriver struct {
	store  *session.Store
	router Router
	log    *slog.Logger

	seq     atomic.Uint64
	applyMu sync.Mutex
	wg      sync.WaitGroup
	lastKey string
}

// NewDeriver creates a deriver writing into store. A nil router yields
// straight segments.
func NewDeriver(store *session.Store, router Router, log *slog.Logger) *Deriver {
	return &Deriver{store: store, router: router, log: log}
}

// Derive recomputes the path for bestPath over points. A road lookup, when
// one is needed, runs in the background and is dropped if a newer Derive
// call has been made by the time it completes.
func (d *Deriver) Derive(ctx context.Context, bestPath []int, points []models.Point) {
	seq := d.seq.Add(1)
	waypoints := Resolve(bestPath, points)

	if len(waypoints) < 2 {
		d.apply(seq, []models.LatLng{})
		return
	}
	closed := CloseLoop(waypoints)
	if d.router == nil {
		d.apply(seq, closed)
		return
	}

	d.store.SetRouting(true)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		path, err := d.router.Route(ctx, closed)
		if err != nil {
			d.log.Debug("route lookup failed, using straight segments", "seq", seq, "error", err)
			path = closed
		}
		d.apply(seq, path)
	}()
}

func (d *Deriver) apply(seq uint64, path []models.LatLng) {
	d.applyMu.Lock()
	defer d.applyMu.Unlock()

	if latest := d.seq.Load(); seq != latest {
		d.log.Debug("discarding stale route", "seq", seq, "latest", latest)
		return
	}
	d.store.SetPath(path)
	d.store.SetRouting(false)
}

// Wait blocks until all issued lookups have finished
func (d *Deriver) Wait() {
	d.wg.Wait()
}

// Run follows the store and re-derives the path whenever the best tour or the
// point set changes, until ctx is done
func (d *Deriver) Run(ctx context.Context) error {
	events, unsubscribe := d.store.Subscribe()
	defer unsubscribe()

	d.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Kind == session.EventPoints || ev.Kind == session.EventSnapshot {
				d.refresh(ctx)
			}
		}
	}
}

// refresh derives from the current store contents unless they match the last inputs
func (d *Deriver) refresh(ctx context.Context) {
	v := d.store.View()
	key := inputKey(v.Snapshot.BestPath, v.Points)
	if key == d.lastKey {
		return
	}
	d.lastKey = key
	d.Derive(ctx, v.Snapshot.BestPath, v.Points)
}

func inputKey(bestPath []int, points []models.Point) string {
	var b strings.Builder
	for _, idx := range bestPath {
		b.WriteString(strconv.Itoa(idx))
		b.WriteByte(',')
	}
	b.WriteByte('|')
	for _, p := range points {
		b.WriteString(strconv.FormatFloat(p.Lat, 'g', -1, 64))
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(p.Lng, 'g', -1, 64))
		b.WriteByte(';')
	}
	return b.String()
}
