package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/mv2dsim/internal/dynamo"
)

var stateColumns = []string{"x", "y", "yaw", "vx", "vy", "w"}

// FileStore keeps each run in its own directory under baseDir.
type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

// pathElement rejects names that would leave the run directory.
func pathElement(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return nil
}

func (s *FileStore) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) Save(world string, result *dynamo.Result) (string, error) {
	for i := range result.Trajectories {
		if err := pathElement(result.Trajectories[i].Vehicle); err != nil {
			return "", err
		}
	}
	runID := newRunID(world)
	if err := pathElement(runID); err != nil {
		return "", err
	}
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(newMetadata(runID, world, result)); err != nil {
		return "", err
	}

	for i := range result.Trajectories {
		if err := writeTrajectory(filepath.Join(runDir, result.Trajectories[i].Vehicle+".csv"), &result.Trajectories[i]); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func writeTrajectory(path string, tr *dynamo.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	numControls := 0
	for _, u := range tr.Controls {
		if len(u) > numControls {
			numControls = len(u)
		}
	}

	header := append([]string{"time"}, stateColumns...)
	for i := 0; i < numControls; i++ {
		header = append(header, fmt.Sprintf("u%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range tr.States {
		row := []string{strconv.FormatFloat(tr.Times[i], 'g', -1, 64)}
		for _, val := range tr.States[i] {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}

		// Controls lag states by one: the first row is the initial state.
		var u dynamo.Control
		if i > 0 && i-1 < len(tr.Controls) {
			u = tr.Controls[i-1]
		}
		for j := 0; j < numControls; j++ {
			val := 0.0
			if j < len(u) {
				val = u[j]
			}
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}

		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func (s *FileStore) List() ([]RunMetadata, error) {
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
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *FileStore) Load(runID string) (*RunMetadata, error) {
	if err := pathElement(runID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *FileStore) LoadTrajectory(runID, vehicle string) (*dynamo.Trajectory, error) {
	if err := pathElement(vehicle); err != nil {
		return nil, err
	}
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	tr := &dynamo.Trajectory{Vehicle: vehicle}
	found := false
	for _, v := range meta.Vehicles {
		if v.Name == vehicle {
			tr.Class = v.Class
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s/%s", ErrRunNotFound, runID, vehicle)
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, vehicle+".csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) < 1+len(stateColumns) {
			continue
		}

		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s/%s.csv line %d: %w", runID, vehicle, i+1, err)
			}
			vals[j] = v
		}

		tr.Times = append(tr.Times, vals[0])
		tr.States = append(tr.States, dynamo.State(vals[1:1+len(stateColumns)]))
		if i > 1 {
			tr.Controls = append(tr.Controls, dynamo.Control(vals[1+len(stateColumns):]))
		}
	}

	return tr, nil
}
