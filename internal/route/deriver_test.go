package route

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/tourviz/internal/session"
	"github.com/GoSim-25-26J-441/tourviz/pkg/config"
	"github.com/GoSim-25-26J-441/tourviz/pkg/models"
)

var (
	p0 = models.Point{ID: 1, Lat: 52.52, Lng: 13.405}
	p1 = models.Point{ID: 2, Lat: 52.51, Lng: 13.38}
	p2 = models.Point{ID: 3, Lat: 52.53, Lng: 13.42}

	triangle = []models.Point{p0, p1, p2}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// lookup is one pending Route call waiting for a scripted answer
type lookup struct {
	waypoints []models.LatLng
	reply     chan result
}

type result struct {
	path []models.LatLng
	err  error
}

// gatedRouter hands every call to the test and blocks until it is answered
type gatedRouter struct {
	calls chan lookup
}

func newGatedRouter() *gatedRouter {
	return &gatedRouter{calls: make(chan lookup, 8)}
}

func (g *gatedRouter) Route(ctx context.Context, waypoints []models.LatLng) ([]models.LatLng, error) {
	l := lookup{waypoints: waypoints, reply: make(chan result, 1)}
	g.calls <- l
	select {
	case r := <-l.reply:
		return r.path, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedRouter) next(t *testing.T) lookup {
	t.Helper()
	select {
	case l := <-g.calls:
		return l
	case <-time.After(2 * time.Second):
		t.Fatal("no route lookup issued")
		return lookup{}
	}
}

type funcRouter func(ctx context.Context, waypoints []models.LatLng) ([]models.LatLng, error)

func (f funcRouter) Route(ctx context.Context, waypoints []models.LatLng) ([]models.LatLng, error) {
	return f(ctx, waypoints)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		bestPath []int
		want     []models.LatLng
	}{
		{"in order", []int{0, 1, 2}, []models.LatLng{p0.LatLng(), p1.LatLng(), p2.LatLng()}},
		{"permuted", []int{2, 0}, []models.LatLng{p2.LatLng(), p0.LatLng()}},
		{"unresolvable dropped", []int{0, 7, -1, 2}, []models.LatLng{p0.LatLng(), p2.LatLng()}},
		{"empty", nil, []models.LatLng{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.bestPath, triangle))
		})
	}
}

func TestCloseLoop(t *testing.T) {
	in := []models.LatLng{p0.LatLng(), p1.LatLng()}
	out := CloseLoop(in)

	assert.Equal(t, []models.LatLng{p0.LatLng(), p1.LatLng(), p0.LatLng()}, out)
	assert.Len(t, in, 2, "input must not grow")
	assert.Empty(t, CloseLoop(nil))
}

func TestDeriveFallsBackToStraightSegments(t *testing.T) {
	store := session.NewStore()
	router := funcRouter(func(ctx context.Context, _ []models.LatLng) ([]models.LatLng, error) {
		return nil, ErrRouting
	})
	d := NewDeriver(store, router, discardLogger())

	d.Derive(context.Background(), []int{0, 1, 2}, triangle)
	d.Wait()

	want := []models.LatLng{p0.LatLng(), p1.LatLng(), p2.LatLng(), p0.LatLng()}
	assert.Equal(t, want, store.Path())
	assert.False(t, store.Routing())
}

func TestDeriveUsesRoutedPath(t *testing.T) {
	store := session.NewStore()
	routed := []models.LatLng{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}, {Lat: 3, Lng: 3}}
	var got []models.LatLng
	router := funcRouter(func(ctx context.Context, waypoints []models.LatLng) ([]models.LatLng, error) {
		got = waypoints
		return routed, nil
	})
	d := NewDeriver(store, router, discardLogger())

	d.Derive(context.Background(), []int{1, 2, 0}, triangle)
	d.Wait()

	assert.Equal(t, []models.LatLng{p1.LatLng(), p2.LatLng(), p0.LatLng(), p1.LatLng()}, got, "lookup gets the closed loop")
	assert.Equal(t, routed, store.Path())
}

func TestDeriveTooFewWaypoints(t *testing.T) {
	store := session.NewStore()
	var calls atomic.Int32
	router := funcRouter(func(ctx context.Context, _ []models.LatLng) ([]models.LatLng, error) {
		calls.Add(1)
		return nil, nil
	})
	d := NewDeriver(store, router, discardLogger())

	store.SetPath([]models.LatLng{{Lat: 9, Lng: 9}})
	d.Derive(context.Background(), []int{0, 9}, triangle)
	d.Wait()

	assert.Empty(t, store.Path())
	assert.Zero(t, calls.Load())
}

func TestDeriveWithoutRouter(t *testing.T) {
	store := session.NewStore()
	d := NewDeriver(store, nil, discardLogger())

	d.Derive(context.Background(), []int{0, 1, 2}, triangle)

	assert.Len(t, store.Path(), 4)
	assert.False(t, store.Routing())
}

func TestStaleLookupIsDiscarded(t *testing.T) {
	store := session.NewStore()
	router := newGatedRouter()
	d := NewDeriver(store, router, discardLogger())
	ctx := context.Background()

	r1 := []models.LatLng{{Lat: 1, Lng: 1}, {Lat: 1, Lng: 2}}
	r2 := []models.LatLng{{Lat: 2, Lng: 1}, {Lat: 2, Lng: 2}}

	d.Derive(ctx, []int{0, 1, 2}, triangle)
	first := router.next(t)
	d.Derive(ctx, []int{0, 2, 1}, triangle)
	second := router.next(t)
	assert.True(t, store.Routing())

	// the older lookup finishes first and must not land
	first.reply <- result{path: r1}
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, store.Path())
	assert.True(t, store.Routing(), "only the latest result clears the flag")

	second.reply <- result{path: r2}
	d.Wait()
	assert.Equal(t, r2, store.Path())
	assert.False(t, store.Routing())
}

func TestStaleLookupFinishingLastIsDiscarded(t *testing.T) {
	store := session.NewStore()
	router := newGatedRouter()
	d := NewDeriver(store, router, discardLogger())
	ctx := context.Background()

	r2 := []models.LatLng{{Lat: 2, Lng: 1}, {Lat: 2, Lng: 2}}

	d.Derive(ctx, []int{0, 1, 2}, triangle)
	first := router.next(t)
	d.Derive(ctx, []int{0, 2, 1}, triangle)
	second := router.next(t)

	second.reply <- result{path: r2}
	require.Eventually(t, func() bool { return !store.Routing() }, time.Second, time.Millisecond)
	first.reply <- result{err: errors.New("timeout")}
	d.Wait()

	assert.Equal(t, r2, store.Path())
}

func TestRunRederivesOnChangesOnly(t *testing.T) {
	store := session.NewStore()
	var calls atomic.Int32
	router := funcRouter(func(ctx context.Context, waypoints []models.LatLng) ([]models.LatLng, error) {
		calls.Add(1)
		return waypoints, nil
	})
	d := NewDeriver(store, router, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	store.SetPoints(triangle)
	snap := models.Snapshot{RawStatus: "running", IterationNumber: 1, BestPath: []int{0, 1, 2}}
	snap.Normalize()
	store.ApplySnapshot(snap)
	require.Eventually(t, func() bool { return len(store.Path()) == 4 }, time.Second, time.Millisecond)

	// a new iteration with the same tour is not looked up again
	snap.IterationNumber = 2
	store.ApplySnapshot(snap)
	time.Sleep(20 * time.Millisecond)
	d.Wait()
	assert.Equal(t, int32(1), calls.Load())

	snap.BestPath = []int{2, 1, 0}
	store.ApplySnapshot(snap)
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	d.Wait()
}

func TestNewRouterFromConfig(t *testing.T) {
	disabled := false
	r, err := NewRouterFromConfig(config.RoutingConfig{Enabled: &disabled})
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = NewRouterFromConfig(config.RoutingConfig{BaseURL: "http://osrm.local", Timeout: "2s"})
	require.NoError(t, err)
	assert.IsType(t, &OSRMClient{}, r)

	r, err = NewRouterFromConfig(config.RoutingConfig{
		BaseURL: "http://osrm.local",
		Timeout: "2s",
		Breaker: config.BreakerConfig{Enabled: true, FailureThreshold: 2, SuccessThreshold: 1, OpenTimeout: "30s"},
	})
	require.NoError(t, err)
	assert.IsType(t, &breakerRouter{}, r)

	_, err = NewRouterFromConfig(config.RoutingConfig{Timeout: "later"})
	assert.Error(t, err)
}
