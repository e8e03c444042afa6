package models

import (
	"encoding/json"
	"testing"
)

func TestParseRunStatus(t *testing.T) {
	tests := []struct {
		in   string
		want RunStatus
	}{
		{"idle", RunStatusIdle},
		{"starting", RunStatusStarting},
		{"running", RunStatusRunning},
		{"pending", RunStatusRunning},
		{"complete", RunStatusComplete},
		{"COMPLETE", RunStatusComplete},
		{"error", RunStatusError},
		{"exploded", RunStatusError},
		{"", RunStatusError},
	}

	for _, tt := range tests {
		if got := ParseRunStatus(tt.in); got != tt.want {
			t.Errorf("ParseRunStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRunStatusPredicates(t *testing.T) {
	if !RunStatusComplete.IsTerminal() || !RunStatusError.IsTerminal() {
		t.Error("complete and error must be terminal")
	}
	if RunStatusRunning.IsTerminal() || RunStatusIdle.IsTerminal() {
		t.Error("running and idle must not be terminal")
	}
	if !RunStatusStarting.IsActive() || !RunStatusRunning.IsActive() {
		t.Error("starting and running must be active")
	}
	if RunStatusIdle.IsActive() || RunStatusComplete.IsActive() {
		t.Error("idle and complete must not be active")
	}
}

func TestSnapshotDecodeAndNormalize(t *testing.T) {
	payload := `{
		"status": "running",
		"iteration_number": 4,
		"best_distance": 12.5,
		"best_path": [2, 0, 1],
		"distance_history": [{"iteration": 1, "distance": 20}, {"iteration": 4, "distance": 12.5}],
		"goal_history": [{"iteration": 1, "goal": 500}, {"iteration": 4, "goal": 800}],
		"population_heatmap": [{"solution_id": 0, "score": 0.75}]
	}`

	var snap Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	snap.Normalize()

	if snap.Status != RunStatusRunning {
		t.Errorf("Status = %q, want running", snap.Status)
	}
	if snap.IterationNumber != 4 || snap.BestDistance != 12.5 {
		t.Errorf("unexpected counters: %+v", snap)
	}
	if len(snap.BestPath) != 3 || snap.BestPath[0] != 2 {
		t.Errorf("BestPath = %v", snap.BestPath)
	}
	if snap.LastGoal() != 800 {
		t.Errorf("LastGoal = %v, want 800", snap.LastGoal())
	}
	if len(snap.PopulationHeatmap) != 1 || snap.PopulationHeatmap[0].Score != 0.75 {
		t.Errorf("PopulationHeatmap = %v", snap.PopulationHeatmap)
	}
}

func TestNormalizeFillsEmptySlices(t *testing.T) {
	var snap Snapshot
	snap.RawStatus = "complete"
	snap.Normalize()

	if snap.BestPath == nil || snap.DistanceHistory == nil || snap.GoalHistory == nil || snap.PopulationHeatmap == nil {
		t.Error("Normalize left nil slices")
	}
	if snap.LastGoal() != 0 {
		t.Errorf("LastGoal on empty history = %v", snap.LastGoal())
	}
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	orig := IdleSnapshot()
	orig.BestPath = []int{0, 1, 2}
	orig.PopulationHeatmap = []HeatmapCell{{SolutionID: 1, Score: 0.5}}

	cp := orig.Clone()
	cp.BestPath[0] = 9
	cp.PopulationHeatmap[0].Score = 1

	if orig.BestPath[0] != 0 {
		t.Error("Clone shares BestPath backing array")
	}
	if orig.PopulationHeatmap[0].Score != 0.5 {
		t.Error("Clone shares PopulationHeatmap backing array")
	}
}

func TestIdleSnapshot(t *testing.T) {
	snap := IdleSnapshot()
	if snap.Status != RunStatusIdle || snap.RawStatus != "idle" {
		t.Errorf("unexpected idle status: %+v", snap)
	}
	if snap.IterationNumber != 0 || snap.BestDistance != 0 || len(snap.BestPath) != 0 {
		t.Errorf("idle snapshot must be zeroed: %+v", snap)
	}
}
