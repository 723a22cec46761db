// Package storage persists runs on disk: one directory per run holding
// metadata.json and states.csv with named state and derived columns.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/renosim/internal/dynamo"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID              string             `json:"id"`
	Scenario        string             `json:"scenario"`
	Disease         string             `json:"disease,omitempty"`
	Timestamp       time.Time          `json:"timestamp"`
	Dt              float64            `json:"dt_min"`
	DurationHours   float64            `json:"duration_hours"`
	Integrator      string             `json:"integrator"`
	Adaptive        bool               `json:"adaptive"`
	Status          string             `json:"status"`
	StepsTaken      int                `json:"steps_taken"`
	BoundViolations int                `json:"bound_violations"`
	Metrics         map[string]float64 `json:"metrics"`
	StateNames      []string           `json:"state_names"`
	DerivedNames    []string           `json:"derived_names"`
}

// Save writes one run directory. Column names come from the reporter so
// the CSV is self-describing; the derived columns follow the state
// columns.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Scenario, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Status = result.Status.String()
	meta.StepsTaken = result.StepsTaken
	meta.BoundViolations = result.BoundViolations
	meta.Metrics = result.Metrics

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvPath := filepath.Join(runDir, "states.csv")
	if err := WriteCSV(csvPath, meta.StateNames, meta.DerivedNames, result); err != nil {
		return "", err
	}
	return runID, nil
}

// WriteCSV writes the trajectory to path: time_min, the named state
// columns, then the named derived columns.
func WriteCSV(path string, stateNames, derivedNames []string, result *dynamo.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if len(result.States) == 0 {
		return nil
	}

	header := []string{"time_min"}
	for i := range result.States[0] {
		if i < len(stateNames) {
			header = append(header, stateNames[i])
		} else {
			header = append(header, fmt.Sprintf("x%d", i))
		}
	}
	hasDerived := len(result.Derived) == len(result.States)
	if hasDerived {
		for i := range result.Derived[0] {
			if i < len(derivedNames) {
				header = append(header, derivedNames[i])
			} else {
				header = append(header, fmt.Sprintf("d%d", i))
			}
		}
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range result.States {
		row := []string{strconv.FormatFloat(result.Times[i], 'f', 6, 64)}
		for _, val := range result.States[i] {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if hasDerived {
			for _, val := range result.Derived[i] {
				row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON exports the whole trajectory as one JSON document.
func WriteJSON(path string, meta RunMetadata, result *dynamo.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	doc := struct {
		Meta    RunMetadata `json:"meta"`
		Times   []float64   `json:"times_min"`
		States  [][]float64 `json:"states"`
		Derived [][]float64 `json:"derived,omitempty"`
	}{
		Meta:  meta,
		Times: result.Times,
	}
	doc.States = make([][]float64, len(result.States))
	for i, st := range result.States {
		doc.States[i] = st
	}
	doc.Derived = result.Derived

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadStates reads back a run's trajectory. The returned columns include
// the derived values; use the metadata's name lists to locate one.
func (s *Store) LoadStates(runID string) ([][]float64, []float64, error) {
	csvPath := filepath.Join(s.baseDir, runID, "states.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return [][]float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([][]float64, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) == 0 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		times = append(times, t)

		state := make([]float64, 0, len(record)-1)
		for j := 1; j < len(record); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				continue
			}
			state = append(state, val)
		}
		states = append(states, state)
	}

	return states, times, nil
}

// CSVPath returns the on-disk trajectory file for a run.
func (s *Store) CSVPath(runID string) string {
	return filepath.Join(s.baseDir, runID, "states.csv")
}
