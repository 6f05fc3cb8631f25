package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const suiteYAML = `name: smoke
description: tiny runs for the test
cases:
  - name: free water
    topology: water
    preset: single
    steps: 5
  - name: nitrogen pair
    topology: nitrogen
    replicas: 2
    steps: 5
    temperature: 0.2
    seed: 7
    runner: serial
`

func writeSuite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite.yaml")
	if err := os.WriteFile(path, []byte(suiteYAML), 0644); err != nil {
		t.Fatalf("write suite: %v", err)
	}
	return path
}

func TestLoadSuite(t *testing.T) {
	s, err := LoadSuite(writeSuite(t))
	if err != nil {
		t.Fatalf("LoadSuite returned %v", err)
	}
	if s.Name != "smoke" {
		t.Errorf("name = %q", s.Name)
	}
	if len(s.Cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(s.Cases))
	}
	if s.Cases[0].Preset != "single" {
		t.Errorf("preset = %q", s.Cases[0].Preset)
	}
}

func TestLoadSuiteEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("name: x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSuite(path); err == nil {
		t.Error("expected an error for a suite with no cases")
	}
}

func TestCaseConfigLayering(t *testing.T) {
	c := Case{Topology: "water", Preset: "single", Steps: 5, Seed: 9}
	cfg, err := c.Config()
	if err != nil {
		t.Fatalf("Config returned %v", err)
	}
	if cfg.Steps != 5 {
		t.Errorf("steps override lost: %d", cfg.Steps)
	}
	if cfg.Seed != 9 {
		t.Errorf("seed override lost: %d", cfg.Seed)
	}
	// Untouched fields keep the preset values.
	if cfg.Dt != 0.002 {
		t.Errorf("dt = %v, want preset value", cfg.Dt)
	}
	if cfg.Forces.Enabled {
		t.Error("single preset runs without forces")
	}
}

func TestCaseConfigUnknownPreset(t *testing.T) {
	c := Case{Topology: "water", Preset: "no-such"}
	if _, err := c.Config(); err == nil {
		t.Error("expected an error for unknown preset")
	}
}

func TestRunSuite(t *testing.T) {
	s, err := LoadSuite(writeSuite(t))
	if err != nil {
		t.Fatalf("LoadSuite returned %v", err)
	}

	results, err := RunSuite(context.Background(), s, nil)
	if err != nil {
		t.Fatalf("RunSuite returned %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Stats.Steps != 5 {
			t.Errorf("case %q ran %d steps, want 5", r.Case.Name, r.Stats.Steps)
		}
		if r.Stats.NonConverged != 0 {
			t.Errorf("case %q had %d non-converged steps", r.Case.Name, r.Stats.NonConverged)
		}
		if _, ok := r.Metrics["bond_error"]; !ok {
			t.Errorf("case %q missing bond_error metric", r.Case.Name)
		}
	}
}

func TestRunSuiteCancelled(t *testing.T) {
	s := &Suite{Cases: []Case{{Topology: "water", Preset: "single", Steps: 50}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := RunSuite(ctx, s, nil); err == nil {
		t.Error("expected a context error")
	}
}
