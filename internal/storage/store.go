// Package storage persists run results under a base directory, one
// subdirectory per run holding metadata.json and a per-step series.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
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

// RunMetadata summarizes one finished run.
type RunMetadata struct {
	ID           string             `json:"id"`
	Topology     string             `json:"topology"`
	Replicas     int                `json:"replicas"`
	Timestamp    time.Time          `json:"timestamp"`
	Seed         int64              `json:"seed"`
	Dt           float64            `json:"dt"`
	Steps        int                `json:"steps"`
	Runner       string             `json:"runner"`
	NonConverged int                `json:"non_converged"`
	MaxBondError float64            `json:"max_bond_error"`
	Metrics      map[string]float64 `json:"metrics"`
}

// Sample is one row of the per-step series.
type Sample struct {
	Step        int
	Time        float64
	Kinetic     float64
	Temperature float64
	BondError   float64
	ShakeIters  int
	RattleIters int
}

var seriesHeader = []string{"step", "time", "kinetic", "temperature", "bond_error", "shake_iters", "rattle_iters"}

// Save writes a run directory and returns its generated ID.
func (s *Store) Save(meta RunMetadata, samples []Sample) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Topology, time.Now().Unix())
	meta.ID = runID
	meta.Timestamp = time.Now()

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
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "series.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write(seriesHeader); err != nil {
		return "", err
	}
	for _, smp := range samples {
		row := []string{
			strconv.Itoa(smp.Step),
			strconv.FormatFloat(smp.Time, 'f', 6, 64),
			strconv.FormatFloat(smp.Kinetic, 'g', 12, 64),
			strconv.FormatFloat(smp.Temperature, 'g', 12, 64),
			strconv.FormatFloat(smp.BondError, 'e', 6, 64),
			strconv.Itoa(smp.ShakeIters),
			strconv.Itoa(smp.RattleIters),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

// List returns metadata for every readable run, skipping broken entries.
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
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
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

// Load reads one run's metadata.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSeries reads a run's per-step samples back.
func (s *Store) LoadSeries(runID string) ([]Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "series.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Sample{}, nil
	}

	samples := make([]Sample, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != len(seriesHeader) {
			continue
		}
		step, err := strconv.Atoi(rec[0])
		if err != nil {
			continue
		}
		t, _ := strconv.ParseFloat(rec[1], 64)
		ke, _ := strconv.ParseFloat(rec[2], 64)
		temp, _ := strconv.ParseFloat(rec[3], 64)
		be, _ := strconv.ParseFloat(rec[4], 64)
		si, _ := strconv.Atoi(rec[5])
		ri, _ := strconv.Atoi(rec[6])
		samples = append(samples, Sample{
			Step: step, Time: t, Kinetic: ke, Temperature: temp,
			BondError: be, ShakeIters: si, RattleIters: ri,
		})
	}
	return samples, nil
}
