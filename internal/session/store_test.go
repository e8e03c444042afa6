package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/tourviz/pkg/models"
)

func TestNewStoreIsIdle(t *testing.T) {
	s := NewStore()
	v := s.View()

	assert.Equal(t, models.RunStatusIdle, v.Status)
	assert.Equal(t, models.ModeManual, v.Mode)
	assert.Empty(t, v.Points)
	assert.Empty(t, v.Path)
	assert.Equal(t, models.IdleSnapshot(), v.Snapshot)
}

func TestAddAndRemovePoints(t *testing.T) {
	s := NewStore()

	p1, ok := s.AddPoint(52.52, 13.405)
	require.True(t, ok)
	p2, _ := s.AddPoint(52.51, 13.38)
	p3, _ := s.AddPoint(52.53, 13.42)

	assert.Equal(t, []int{1, 2, 3}, []int{p1.ID, p2.ID, p3.ID})
	assert.Len(t, s.Points(), 3)

	assert.True(t, s.RemovePoint(p2.ID))
	assert.False(t, s.RemovePoint(p2.ID), "second removal is a no-op")

	// ids stay unique after a removal
	p4, _ := s.AddPoint(1, 1)
	assert.Equal(t, 4, p4.ID)

	ids := []int{}
	for _, p := range s.Points() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int{1, 3, 4}, ids)
}

func TestPresetModeRejectsManualEdits(t *testing.T) {
	s := NewStore()
	s.SelectPreset("berlin", []models.Point{{ID: 1, Lat: 1, Lng: 1}, {ID: 5, Lat: 2, Lng: 2}})

	_, ok := s.AddPoint(3, 3)
	assert.False(t, ok)
	assert.False(t, s.RemovePoint(1))
	assert.Len(t, s.Points(), 2)
	assert.Equal(t, "berlin", s.Preset())
	assert.Equal(t, models.ModePreset, s.Mode())
}

func TestPointsAreCopies(t *testing.T) {
	s := NewStore()
	s.AddPoint(1, 1)

	pts := s.Points()
	pts[0].Lat = 99
	assert.Equal(t, 1.0, s.Points()[0].Lat)
}

func TestApplySnapshotMirrorsStatus(t *testing.T) {
	s := NewStore()
	s.SetStatus(models.RunStatusRunning)

	snap := models.IdleSnapshot()
	snap.Status = models.RunStatusComplete
	snap.RawStatus = "complete"
	snap.BestPath = []int{0, 1, 2}
	snap.IterationNumber = 20
	s.ApplySnapshot(snap)

	assert.Equal(t, models.RunStatusComplete, s.Status())
	got := s.Snapshot()
	assert.Equal(t, []int{0, 1, 2}, got.BestPath)
	assert.Equal(t, 20, got.IterationNumber)

	// stored snapshot is not aliased by the caller's slices
	snap.BestPath[0] = 7
	assert.Equal(t, 0, s.Snapshot().BestPath[0])
}

func TestResetFromAnyState(t *testing.T) {
	s := NewStore()
	s.SelectPreset("x", []models.Point{{ID: 1}, {ID: 2}, {ID: 3}})
	s.SetStatus(models.RunStatusRunning)
	snap := models.IdleSnapshot()
	snap.Status = models.RunStatusRunning
	snap.BestPath = []int{2, 1, 0}
	s.ApplySnapshot(snap)
	s.SetPath([]models.LatLng{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}})
	s.SetRouting(true)

	s.Reset()
	v := s.View()

	assert.Equal(t, models.RunStatusIdle, v.Status)
	assert.Empty(t, v.Points)
	assert.Equal(t, models.IdleSnapshot(), v.Snapshot)
	assert.Empty(t, v.Path)
	assert.False(t, v.Routing)
	assert.Equal(t, models.ModeManual, v.Mode)
}

func TestSetModeClearsSession(t *testing.T) {
	s := NewStore()
	s.AddPoint(1, 1)
	s.SetStatus(models.RunStatusError)

	s.SetMode(models.ModePreset)
	assert.Empty(t, s.Points())
	assert.Equal(t, models.RunStatusIdle, s.Status())
	assert.Equal(t, models.ModePreset, s.Mode())
}

func TestSelectPresetKeepsManualIDsUnique(t *testing.T) {
	s := NewStore()
	s.SelectPreset("p", []models.Point{{ID: 10}, {ID: 12}})
	s.SetMode(models.ModeManual)

	p, ok := s.AddPoint(0, 0)
	require.True(t, ok)
	assert.Equal(t, 13, p.ID)
}

func TestSubscribeReceivesEvents(t *testing.T) {
	s := NewStore()
	events, unsubscribe := s.Subscribe()
	defer unsubscribe()

	s.AddPoint(1, 1)
	s.SetStatus(models.RunStatusStarting)
	s.SetStatus(models.RunStatusStarting) // unchanged, no event
	s.SetRouting(true)

	want := []EventKind{EventPoints, EventStatus, EventRouting}
	for _, kind := range want {
		select {
		case ev := <-events:
			assert.Equal(t, kind, ev.Kind, "got %s", ev.Kind)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", kind)
		}
	}

	select {
	case ev := <-events:
		t.Fatalf("unexpected extra event %s", ev.Kind)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	s := NewStore()
	events, unsubscribe := s.Subscribe()
	unsubscribe()
	unsubscribe()

	_, open := <-events
	assert.False(t, open)

	// publishing after unsubscribe must not panic
	s.AddPoint(1, 1)
}

func TestSlowSubscriberDoesNotBlockWriters(t *testing.T) {
	s := NewStore()
	_, unsubscribe := s.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*4; i++ {
			s.AddPoint(float64(i), 0)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("writers blocked on a full subscriber")
	}
}

func TestConcurrentSnapshotWrites(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			snap := models.IdleSnapshot()
			snap.Status = models.RunStatusRunning
			snap.IterationNumber = i
			snap.BestPath = []int{i, i, i}
			s.ApplySnapshot(snap)
		}(i)
		go func() {
			defer wg.Done()
			v := s.View()
			// a snapshot is never observed half-applied
			for _, idx := range v.Snapshot.BestPath {
				assert.Equal(t, v.Snapshot.IterationNumber, idx)
			}
		}()
	}
	wg.Wait()
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "snapshot", EventSnapshot.String())
	assert.Equal(t, "unknown", EventKind(42).String())
}
