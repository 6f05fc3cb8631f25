package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	meta := RunMetadata{
		Topology: "water",
		Replicas: 27,
		Seed:     42,
		Dt:       0.002,
		Steps:    100,
		Runner:   "chunked",
		Metrics: map[string]float64{
			"bond_error": 3.1e-9,
		},
	}
	samples := []Sample{
		{Step: 0, Time: 0, Kinetic: 12.5, Temperature: 0.31, BondError: 1e-9, ShakeIters: 2, RattleIters: 1},
		{Step: 10, Time: 0.02, Kinetic: 12.1, Temperature: 0.30, BondError: 2e-9, ShakeIters: 3, RattleIters: 1},
	}

	runID, err := st.Save(meta, samples)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	loaded, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Topology != "water" {
		t.Errorf("expected topology 'water', got '%s'", loaded.Topology)
	}
	if loaded.Seed != 42 {
		t.Errorf("expected seed 42, got %d", loaded.Seed)
	}
	if loaded.Metrics["bond_error"] != 3.1e-9 {
		t.Errorf("expected bond_error 3.1e-9, got %g", loaded.Metrics["bond_error"])
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		t.Fatalf("load series failed: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(series))
	}
	if series[1].Step != 10 {
		t.Errorf("expected step 10, got %d", series[1].Step)
	}
	if series[1].ShakeIters != 3 {
		t.Errorf("expected 3 shake iters, got %d", series[1].ShakeIters)
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	_, err = st.Save(RunMetadata{Topology: "nitrogen"}, nil)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{Topology: "ammonia"}, []Sample{{Step: 0}})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}
	if _, err := os.Stat(filepath.Join(runDir, "series.csv")); os.IsNotExist(err) {
		t.Error("series.csv not created")
	}
}
