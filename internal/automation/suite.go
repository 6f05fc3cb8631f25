// Package automation runs scripted batches of simulations described in a
// yaml suite file, one case per run. Suites are how tolerance and runner
// choices get compared without shell loops.
package automation

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ornlund/mdshake/internal/config"
	"github.com/ornlund/mdshake/internal/md"
	"github.com/ornlund/mdshake/internal/metrics"
	"github.com/ornlund/mdshake/internal/solve"
	"github.com/ornlund/mdshake/internal/topology"
)

// Case describes one run of a suite. A preset supplies the baseline; any
// non-zero field overrides it.
type Case struct {
	Name        string  `yaml:"name"`
	Topology    string  `yaml:"topology"`
	Preset      string  `yaml:"preset"`
	Replicas    int     `yaml:"replicas"`
	Dt          float64 `yaml:"dt"`
	Steps       int     `yaml:"steps"`
	Temperature float64 `yaml:"temperature"`
	Seed        int64   `yaml:"seed"`
	Runner      string  `yaml:"runner"`
}

// Suite is an ordered list of cases run back to back.
type Suite struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Cases       []Case `yaml:"cases"`
}

// LoadSuite reads a suite from a yaml file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("automation: parsing %s: %w", path, err)
	}
	if len(s.Cases) == 0 {
		return nil, fmt.Errorf("automation: suite %s has no cases", path)
	}
	return &s, nil
}

// Result pairs a case with its run outcome.
type Result struct {
	Case    Case
	Stats   md.RunStats
	Metrics map[string]float64
	Elapsed time.Duration
}

// Config resolves the case into a full run configuration.
func (c Case) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if c.Preset != "" {
		p := config.GetPreset(c.Topology, c.Preset)
		if p == nil {
			return nil, fmt.Errorf("automation: case %q: unknown preset %s (available: %v)",
				c.Name, c.Preset, config.ListPresets(c.Topology))
		}
		cp := *p
		cfg = &cp
	}
	if c.Topology != "" {
		cfg.Topology = c.Topology
	}
	if c.Replicas > 0 {
		cfg.Replicas = c.Replicas
	}
	if c.Dt > 0 {
		cfg.Dt = c.Dt
	}
	if c.Steps > 0 {
		cfg.Steps = c.Steps
	}
	if c.Temperature > 0 {
		cfg.Temperature = c.Temperature
	}
	if c.Seed != 0 {
		cfg.Seed = c.Seed
	}
	if c.Runner != "" {
		cfg.Solver.Runner = c.Runner
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("automation: case %q: %w", c.Name, err)
	}
	return cfg, nil
}

// RunSuite executes every case in order and stops at the first failure.
func RunSuite(ctx context.Context, suite *Suite, log *zap.Logger) ([]Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	results := make([]Result, 0, len(suite.Cases))

	for i, cs := range suite.Cases {
		name := cs.Name
		if name == "" {
			name = fmt.Sprintf("case %d", i+1)
		}

		cfg, err := cs.Config()
		if err != nil {
			return results, err
		}

		mol, err := loadMolecule(cfg.Topology)
		if err != nil {
			return results, fmt.Errorf("automation: %s: %w", name, err)
		}
		sys, err := topology.Build(mol, cfg.Replicas, 0)
		if err != nil {
			return results, fmt.Errorf("automation: %s: %w", name, err)
		}
		scfg, err := cfg.Solver.Build(log)
		if err != nil {
			return results, fmt.Errorf("automation: %s: %w", name, err)
		}
		solver, err := solve.New(sys.Cons, sys.InvMass, sys.Boundary, scfg)
		if err != nil {
			return results, fmt.Errorf("automation: %s: %w", name, err)
		}

		st := md.NewState(sys)
		st.Thermalize(cfg.Temperature, rand.New(rand.NewSource(cfg.Seed)))

		var force md.Force
		if cfg.Forces.Enabled {
			force = md.LennardJones{
				Epsilon: cfg.Forces.Epsilon,
				Sigma:   cfg.Forces.Sigma,
				Cutoff:  cfg.Forces.Cutoff,
			}
		}
		integ, err := md.NewIntegrator(cfg.Dt, solver, force)
		if err != nil {
			return results, fmt.Errorf("automation: %s: %w", name, err)
		}

		ms := []metrics.Metric{
			metrics.NewBondError(solver),
			metrics.NewKineticEnergy(),
			metrics.NewTemperature(),
			metrics.NewMomentumDrift(),
			metrics.NewSolverIterations(),
		}
		obs := make([]md.Observer, len(ms))
		for k, m := range ms {
			obs[k] = m
		}

		start := time.Now()
		rs, err := md.Run(ctx, st, integ, cfg.Steps, obs...)
		if err != nil {
			return results, fmt.Errorf("automation: %s: %w", name, err)
		}
		elapsed := time.Since(start)

		vals := make(map[string]float64, len(ms))
		for _, m := range ms {
			vals[m.Name()] = m.Value()
		}
		results = append(results, Result{Case: cs, Stats: rs, Metrics: vals, Elapsed: elapsed})

		log.Info("case finished",
			zap.String("case", name),
			zap.String("topology", cfg.Topology),
			zap.Int("steps", rs.Steps),
			zap.Duration("elapsed", elapsed),
		)
	}
	return results, nil
}

func loadMolecule(name string) (topology.Molecule, error) {
	if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
		return topology.Load(name)
	}
	return topology.Get(name)
}
