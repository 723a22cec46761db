package storage

import (
	"math"
	"testing"

	"github.com/san-kum/renosim/internal/dynamo"
)

func sampleResult() *dynamo.Result {
	return &dynamo.Result{
		Times: []float64{0, 0.5, 1.0},
		States: []dynamo.State{
			{5.0, 93.0},
			{5.01, 94.0},
			{5.02, 95.0},
		},
		Derived: [][]float64{
			{120.0},
			{119.5},
			{119.0},
		},
		Metrics:    map[string]float64{"stability": 1.0},
		Status:     dynamo.Completed,
		StepsTaken: 2,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	meta := RunMetadata{
		Scenario:      "volume-expansion",
		Dt:            0.5,
		DurationHours: 1,
		Integrator:    "rk4",
		StateNames:    []string{"blood_volume_l", "map_filtered"},
		DerivedNames:  []string{"gfr_ml_min"},
	}
	result := sampleResult()

	runID, err := st.Save(meta, result)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := st.Load(runID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Scenario != "volume-expansion" {
		t.Errorf("scenario = %q", loaded.Scenario)
	}
	if loaded.Status != "completed" {
		t.Errorf("status = %q", loaded.Status)
	}
	if loaded.Metrics["stability"] != 1.0 {
		t.Errorf("metrics lost: %v", loaded.Metrics)
	}
	if len(loaded.StateNames) != 2 || loaded.StateNames[0] != "blood_volume_l" {
		t.Errorf("state names lost: %v", loaded.StateNames)
	}

	states, times, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("LoadStates: %v", err)
	}
	if len(states) != 3 || len(times) != 3 {
		t.Fatalf("got %d states, %d times", len(states), len(times))
	}
	// Columns are states then derived.
	if len(states[0]) != 3 {
		t.Fatalf("got %d columns, want 3", len(states[0]))
	}
	if math.Abs(states[1][1]-94.0) > 1e-6 {
		t.Errorf("state value lost: %g", states[1][1])
	}
	if math.Abs(states[2][2]-119.0) > 1e-6 {
		t.Errorf("derived value lost: %g", states[2][2])
	}
}

func TestListSkipsCorruptRuns(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	meta := RunMetadata{Scenario: "nominal", StateNames: []string{"a", "b"}}
	if _, err := st.Save(meta, sampleResult()); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].Scenario != "nominal" {
		t.Errorf("scenario = %q", runs[0].Scenario)
	}
}

func TestListEmptyDir(t *testing.T) {
	st := New(t.TempDir() + "/never-created")
	runs, err := st.List()
	if err != nil {
		t.Fatalf("List on missing dir: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("got %d runs, want 0", len(runs))
	}
}

func TestSaveWithoutDerived(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	result := sampleResult()
	result.Derived = nil
	meta := RunMetadata{Scenario: "nominal", StateNames: []string{"a", "b"}}

	runID, err := st.Save(meta, result)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	states, _, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("LoadStates: %v", err)
	}
	if len(states[0]) != 2 {
		t.Errorf("got %d columns, want 2", len(states[0]))
	}
}
