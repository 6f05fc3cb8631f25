package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ornlund/mdshake/internal/solve"
	"github.com/ornlund/mdshake/internal/sweep"
)

const (
	DefaultDt            = 0.002
	DefaultSteps         = 1000
	DefaultTemperature   = 0.5
	DefaultDistTolerance = 1e-8
	DefaultVelTolerance  = 1e-10
	DefaultMaxIterations = 50
	DefaultEpsilon       = 0.2
	DefaultSigma         = 2.5
	DefaultCutoff        = 6.0
)

// Config describes one simulation run: which topology to build, how to
// integrate, and how the constraint solver is tuned.
type Config struct {
	Topology    string       `yaml:"topology"`
	Replicas    int          `yaml:"replicas"`
	Dt          float64      `yaml:"dt"`
	Steps       int          `yaml:"steps"`
	Temperature float64      `yaml:"temperature"`
	Seed        int64        `yaml:"seed"`
	Solver      SolverConfig `yaml:"solver"`
	Forces      ForceConfig  `yaml:"forces"`
}

// SolverConfig is the yaml-facing view of solve.Config plus the runner
// selection.
type SolverConfig struct {
	DistTolerance float64 `yaml:"dist_tolerance"`
	VelTolerance  float64 `yaml:"vel_tolerance"`
	MaxIterations int     `yaml:"max_iterations"`
	Discriminant  string  `yaml:"discriminant"`
	Runner        string  `yaml:"runner"`
	Workers       int     `yaml:"workers"`
}

// ForceConfig tunes the demo Lennard-Jones interaction between molecules.
type ForceConfig struct {
	Enabled bool    `yaml:"enabled"`
	Epsilon float64 `yaml:"epsilon"`
	Sigma   float64 `yaml:"sigma"`
	Cutoff  float64 `yaml:"cutoff"`
}

func DefaultConfig() *Config {
	return &Config{
		Topology:    "water",
		Replicas:    1,
		Dt:          DefaultDt,
		Steps:       DefaultSteps,
		Temperature: DefaultTemperature,
		Seed:        1,
		Solver: SolverConfig{
			DistTolerance: DefaultDistTolerance,
			VelTolerance:  DefaultVelTolerance,
			MaxIterations: DefaultMaxIterations,
			Discriminant:  "fail",
			Runner:        "auto",
		},
		Forces: ForceConfig{
			Enabled: true,
			Epsilon: DefaultEpsilon,
			Sigma:   DefaultSigma,
			Cutoff:  DefaultCutoff,
		},
	}
}

// Load reads a yaml config, layering it over the defaults so partial files
// work.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("config: dt %v must be positive", c.Dt)
	}
	if c.Steps < 1 {
		return fmt.Errorf("config: steps %d must be at least 1", c.Steps)
	}
	if c.Replicas < 1 {
		return fmt.Errorf("config: replicas %d must be at least 1", c.Replicas)
	}
	if c.Temperature < 0 {
		return fmt.Errorf("config: temperature %v must not be negative", c.Temperature)
	}
	if _, err := solve.ParseDiscriminantPolicy(c.Solver.Discriminant); err != nil {
		return err
	}
	if _, err := sweep.New(runnerOrDefault(c.Solver.Runner), c.Solver.Workers); err != nil {
		return err
	}
	return nil
}

// Build converts the yaml view into the solver's own configuration,
// wiring in the chosen runner and logger.
func (sc SolverConfig) Build(log *zap.Logger) (solve.Config, error) {
	policy, err := solve.ParseDiscriminantPolicy(sc.Discriminant)
	if err != nil {
		return solve.Config{}, err
	}
	runner, err := sweep.New(runnerOrDefault(sc.Runner), sc.Workers)
	if err != nil {
		return solve.Config{}, err
	}
	return solve.Config{
		DistTolerance: sc.DistTolerance,
		VelTolerance:  sc.VelTolerance,
		MaxIterations: sc.MaxIterations,
		Discriminant:  policy,
		Runner:        runner,
		Logger:        log,
	}, nil
}

func runnerOrDefault(name string) string {
	if name == "" {
		return "auto"
	}
	return name
}
