package models

import "strings"

// RunStatus represents the client-side status of an optimizer run
type RunStatus string

const (
	RunStatusIdle     RunStatus = "idle"
	RunStatusStarting RunStatus = "starting"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusError    RunStatus = "error"
)

// ParseRunStatus maps a status string reported by the optimizer onto a RunStatus.
// The optimizer reports "pending" between accepting a run and starting its
// solver; the client treats that as running. Unknown values map to error.
func ParseRunStatus(s string) RunStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "idle":
		return RunStatusIdle
	case "starting":
		return RunStatusStarting
	case "running", "pending":
		return RunStatusRunning
	case "complete", "completed":
		return RunStatusComplete
	default:
		return RunStatusError
	}
}

// IsTerminal reports whether no further progress is expected for the run
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusComplete || s == RunStatusError
}

// IsActive reports whether a run is being started or is in progress
func (s RunStatus) IsActive() bool {
	return s == RunStatusStarting || s == RunStatusRunning
}

// Mode selects how the point set is populated
type Mode string

const (
	ModeManual Mode = "manual"
	ModePreset Mode = "preset"
)

// Point is a geographic point participating in a tour
type Point struct {
	ID  int     `json:"id" yaml:"id"`
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// LatLng is one vertex of a renderable path
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LatLng returns the point's coordinates
func (p Point) LatLng() LatLng {
	return LatLng{Lat: p.Lat, Lng: p.Lng}
}

// DistanceSample is one entry of the best-distance history
type DistanceSample struct {
	Iteration int     `json:"iteration"`
	Distance  float64 `json:"distance"`
}

// GoalSample is one entry of the goal-function history
type GoalSample struct {
	Iteration int     `json:"iteration"`
	Goal      float64 `json:"goal"`
}

// HeatmapCell is the normalized score of one solution in the optimizer population
type HeatmapCell struct {
	SolutionID int     `json:"solution_id"`
	Score      float64 `json:"score"`
}

// Snapshot is a point-in-time summary of the optimizer's progress.
// It is always replaced wholesale, never merged.
type Snapshot struct {
	Status            RunStatus        `json:"-"`
	RawStatus         string           `json:"status"`
	IterationNumber   int              `json:"iteration_number"`
	BestDistance      float64          `json:"best_distance"`
	BestPath          []int            `json:"best_path"`
	DistanceHistory   []DistanceSample `json:"distance_history"`
	GoalHistory       []GoalSample     `json:"goal_history"`
	PopulationHeatmap []HeatmapCell    `json:"population_heatmap"`
}

// IdleSnapshot returns the snapshot a session starts with and returns to on reset
func IdleSnapshot() Snapshot {
	return Snapshot{
		Status:            RunStatusIdle,
		RawStatus:         string(RunStatusIdle),
		BestPath:          []int{},
		DistanceHistory:   []DistanceSample{},
		GoalHistory:       []GoalSample{},
		PopulationHeatmap: []HeatmapCell{},
	}
}

// Normalize fills Status from RawStatus and replaces nil slices with empty ones
func (s *Snapshot) Normalize() {
	s.Status = ParseRunStatus(s.RawStatus)
	if s.BestPath == nil {
		s.BestPath = []int{}
	}
	if s.DistanceHistory == nil {
		s.DistanceHistory = []DistanceSample{}
	}
	if s.GoalHistory == nil {
		s.GoalHistory = []GoalSample{}
	}
	if s.PopulationHeatmap == nil {
		s.PopulationHeatmap = []HeatmapCell{}
	}
}

// Clone returns a deep copy so stored snapshots are never aliased by callers
func (s Snapshot) Clone() Snapshot {
	out := s
	out.BestPath = append([]int{}, s.BestPath...)
	out.DistanceHistory = append([]DistanceSample{}, s.DistanceHistory...)
	out.GoalHistory = append([]GoalSample{}, s.GoalHistory...)
	out.PopulationHeatmap = append([]HeatmapCell{}, s.PopulationHeatmap...)
	return out
}

// LastGoal returns the most recent goal value, or 0 when none was reported
func (s Snapshot) LastGoal() float64 {
	if len(s.GoalHistory) == 0 {
		return 0
	}
	return s.GoalHistory[len(s.GoalHistory)-1].Goal
}

// ClonePoints copies a point slice; a nil input yields an empty slice
func ClonePoints(points []Point) []Point {
	return append([]Point{}, points...)
}
