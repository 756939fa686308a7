// Package store persists simulation runs as one directory per run:
// metadata.json with the run parameters and shares.csv with the full
// trajectory under named technology columns.
package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"enermix/internal/dynamo"
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
	ID          string             `json:"id"`
	Scenario    string             `json:"scenario"`
	Timestamp   time.Time          `json:"timestamp"`
	T0          float64            `json:"t0"`
	TEnd        float64            `json:"t_end"`
	Dt          float64            `json:"dt"`
	ClipFinal   bool               `json:"clip_final"`
	Integrator  string             `json:"integrator"`
	Samples     int                `json:"samples"`
	FinalShares map[string]float64 `json:"final_shares"`
}

// Save writes one run. Labels name the share columns; when they don't
// match the state width the columns fall back to x0..xN.
func (s *Store) Save(scenarioName, integrator string, cfg dynamo.Config, labels []string, traj *dynamo.Trajectory) (string, error) {
	runID := fmt.Sprintf("%s_%d", scenarioName, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	_, final := traj.Final()
	cols := columnNames(labels, len(final))

	finalShares := make(map[string]float64, len(final))
	for i, v := range final {
		finalShares[cols[i]] = v
	}

	meta := RunMetadata{
		ID:          runID,
		Scenario:    scenarioName,
		Timestamp:   time.Now(),
		T0:          cfg.T0,
		TEnd:        cfg.TEnd,
		Dt:          cfg.Dt,
		ClipFinal:   cfg.ClipFinal,
		Integrator:  integrator,
		Samples:     traj.Len(),
		FinalShares: finalShares,
	}

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

	csvPath := filepath.Join(runDir, "shares.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, cols, traj); err != nil {
		return "", err
	}

	return runID, nil
}

// WriteCSV streams a trajectory as CSV: time plus one column per share.
func WriteCSV(out io.Writer, cols []string, traj *dynamo.Trajectory) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	header := append([]string{"time"}, cols...)
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range traj.States {
		row := make([]string, 0, len(traj.States[i])+1)
		row = append(row, strconv.FormatFloat(traj.Times[i], 'f', 6, 64))
		for _, val := range traj.States[i] {
			row = append(row, strconv.FormatFloat(val, 'f', 9, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
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

// LoadShares reads a stored trajectory back, returning the column
// labels alongside it.
func (s *Store) LoadShares(runID string) ([]string, *dynamo.Trajectory, error) {
	csvPath := filepath.Join(s.baseDir, runID, "shares.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return nil, &dynamo.Trajectory{}, nil
	}

	labels := records[0][1:]
	traj := &dynamo.Trajectory{
		Times:  make([]float64, 0, len(records)-1),
		States: make([]dynamo.State, 0, len(records)-1),
	}

	for _, record := range records[1:] {
		if len(record) < 2 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}

		state := make(dynamo.State, 0, len(record)-1)
		for _, field := range record[1:] {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				continue
			}
			state = append(state, val)
		}

		traj.Times = append(traj.Times, t)
		traj.States = append(traj.States, state)
	}

	return labels, traj, nil
}

func columnNames(labels []string, n int) []string {
	if len(labels) == n {
		return labels
	}
	cols := make([]string, n)
	for i := range cols {
		cols[i] = fmt.Sprintf("x%d", i)
	}
	return cols
}
