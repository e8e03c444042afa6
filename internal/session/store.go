// Package session holds the operator's session state: the point set, the run
// status, the latest optimizer snapshot and the derived path. Every mutation
// goes through a Store method so readers never observe a half-applied write.
package session

import (
	"sync"

	"github.com/GoSim-25-26J-441/tourviz/pkg/models"
)

// EventKind tells subscribers which part of the session changed
type EventKind int

const (
	EventPoints EventKind = iota
	EventStatus
	EventSnapshot
	EventPath
	EventRouting
	EventMode
)

func (k EventKind) String() string {
	switch k {
	case EventPoints:
		return "points"
	case EventStatus:
		return "status"
	case EventSnapshot:
		return "snapshot"
	case EventPath:
		return "path"
	case EventRouting:
		return "routing"
	case EventMode:
		return "mode"
	default:
		return "unknown"
	}
}

// Event is a change notification
type Event struct {
	Kind EventKind
}

// View is a consistent copy of the whole session
type View struct {
	Points   []models.Point
	Mode     models.Mode
	Preset   string
	Status   models.RunStatus
	Snapshot models.Snapshot
	Path     []models.LatLng
	Routing  bool
}

const subscriberBuffer = 64

// Store is the session state store
type Store struct {
	mu       sync.RWMutex
	points   []models.Point
	mode     models.Mode
	preset   string
	status   models.RunStatus
	snapshot models.Snapshot
	path     []models.LatLng
	routing  bool
	nextID   int

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// NewStore creates an idle session in manual mode
func NewStore() *Store {
	return &Store{
		points:   []models.Point{},
		mode:     models.ModeManual,
		status:   models.RunStatusIdle,
		snapshot: models.IdleSnapshot(),
		path:     []models.LatLng{},
		nextID:   1,
		subs:     make(map[int]chan Event),
	}
}

// Subscribe returns a channel of change events and a function that unsubscribes.
// Events are dropped for a subscriber whose buffer is full.
func (s *Store) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) publish(kinds ...EventKind) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, kind := range kinds {
		for _, ch := range s.subs {
			select {
			case ch <- Event{Kind: kind}:
			default:
			}
		}
	}
}

// Points returns a copy of the current point set
func (s *Store) Points() []models.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.ClonePoints(s.points)
}

// Mode returns the current point-entry mode
func (s *Store) Mode() models.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Preset returns the name of the selected preset
func (s *Store) Preset() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preset
}

// Status returns the current run status
func (s *Store) Status() models.RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Snapshot returns a copy of the latest snapshot
func (s *Store) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone()
}

// Path returns a copy of the derived path
func (s *Store) Path() []models.LatLng {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.LatLng{}, s.path...)
}

// Routing reports whether a route computation is pending
func (s *Store) Routing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.routing
}

// View returns a consistent copy of the whole session
func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return View{
		Points:   models.ClonePoints(s.points),
		Mode:     s.mode,
		Preset:   s.preset,
		Status:   s.status,
		Snapshot: s.snapshot.Clone(),
		Path:     append([]models.LatLng{}, s.path...),
		Routing:  s.routing,
	}
}

// AddPoint appends a point in manual mode. It reports false in preset mode.
func (s *Store) AddPoint(lat, lng float64) (models.Point, bool) {
	s.mu.Lock()
	if s.mode != models.ModeManual {
		s.mu.Unlock()
		return models.Point{}, false
	}
	p := models.Point{ID: s.nextID, Lat: lat, Lng: lng}
	s.nextID++
	next := make([]models.Point, 0, len(s.points)+1)
	next = append(next, s.points...)
	s.points = append(next, p)
	s.mu.Unlock()

	s.publish(EventPoints)
	return p, true
}

// RemovePoint removes the point with the given id in manual mode
func (s *Store) RemovePoint(id int) bool {
	s.mu.Lock()
	if s.mode != models.ModeManual {
		s.mu.Unlock()
		return false
	}
	next := make([]models.Point, 0, len(s.points))
	for _, p := range s.points {
		if p.ID != id {
			next = append(next, p)
		}
	}
	removed := len(next) != len(s.points)
	if removed {
		s.points = next
	}
	s.mu.Unlock()

	if removed {
		s.publish(EventPoints)
	}
	return removed
}

// SetPoints replaces the point set wholesale
func (s *Store) SetPoints(points []models.Point) {
	s.mu.Lock()
	s.points = models.ClonePoints(points)
	s.bumpNextID()
	s.mu.Unlock()

	s.publish(EventPoints)
}

// SetMode switches the entry mode. Switching clears the points, the snapshot
// and the derived path and returns the status to idle.
func (s *Store) SetMode(mode models.Mode) {
	s.mu.Lock()
	s.mode = mode
	s.clearRunLocked()
	s.points = []models.Point{}
	s.mu.Unlock()

	s.publish(EventMode, EventPoints, EventStatus, EventSnapshot, EventPath)
}

// SelectPreset switches to preset mode with the given preset's points
func (s *Store) SelectPreset(name string, points []models.Point) {
	s.mu.Lock()
	s.mode = models.ModePreset
	s.preset = name
	s.clearRunLocked()
	s.points = models.ClonePoints(points)
	s.bumpNextID()
	s.mu.Unlock()

	s.publish(EventMode, EventPoints, EventStatus, EventSnapshot, EventPath)
}

// SetStatus sets the run status
func (s *Store) SetStatus(status models.RunStatus) {
	s.mu.Lock()
	changed := s.status != status
	s.status = status
	s.mu.Unlock()

	if changed {
		s.publish(EventStatus)
	}
}

// ApplySnapshot replaces the snapshot wholesale and mirrors its status in the
// same critical section
func (s *Store) ApplySnapshot(snap models.Snapshot) {
	s.mu.Lock()
	s.snapshot = snap.Clone()
	changed := s.status != snap.Status
	s.status = snap.Status
	s.mu.Unlock()

	if changed {
		s.publish(EventSnapshot, EventStatus)
		return
	}
	s.publish(EventSnapshot)
}

// Reset returns the session to its initial state: idle, no points, idle
// snapshot, no path, manual mode
func (s *Store) Reset() {
	s.mu.Lock()
	s.mode = models.ModeManual
	s.points = []models.Point{}
	s.clearRunLocked()
	s.mu.Unlock()

	s.publish(EventMode, EventPoints, EventStatus, EventSnapshot, EventPath)
}

// SetPath stores a freshly derived path
func (s *Store) SetPath(path []models.LatLng) {
	s.mu.Lock()
	s.path = append([]models.LatLng{}, path...)
	s.mu.Unlock()

	s.publish(EventPath)
}

// SetRouting toggles the route-computation-pending flag
func (s *Store) SetRouting(pending bool) {
	s.mu.Lock()
	changed := s.routing != pending
	s.routing = pending
	s.mu.Unlock()

	if changed {
		s.publish(EventRouting)
	}
}

func (s *Store) clearRunLocked() {
	s.status = models.RunStatusIdle
	s.snapshot = models.IdleSnapshot()
	s.path = []models.LatLng{}
	s.routing = false
}

// bumpNextID keeps manually added ids unique after a wholesale replacement
func (s *Store) bumpNextID() {
	for _, p := range s.points {
		if p.ID >= s.nextID {
			s.nextID = p.ID + 1
		}
	}
}
