package config

// Presets maps topology name to ready-made run configurations. They are
// starting points for the CLI; flags layer on top.
var Presets = map[string]map[string]*Config{
	"water": {
		"single": {
			Topology: "water", Replicas: 1, Dt: 0.002, Steps: 2000,
			Temperature: 0.5, Seed: 1,
			Solver: SolverConfig{DistTolerance: 1e-8, VelTolerance: 1e-10, MaxIterations: 50, Discriminant: "fail", Runner: "serial"},
			Forces: ForceConfig{Enabled: false},
		},
		"box": {
			Topology: "water", Replicas: 125, Dt: 0.002, Steps: 1000,
			Temperature: 0.5, Seed: 1,
			Solver: SolverConfig{DistTolerance: 1e-8, VelTolerance: 1e-10, MaxIterations: 50, Discriminant: "fail", Runner: "chunked"},
			Forces: ForceConfig{Enabled: true, Epsilon: DefaultEpsilon, Sigma: DefaultSigma, Cutoff: DefaultCutoff},
		},
		"bulk": {
			Topology: "water", Replicas: 1000, Dt: 0.001, Steps: 200,
			Temperature: 0.5, Seed: 1,
			Solver: SolverConfig{DistTolerance: 1e-8, VelTolerance: 1e-10, MaxIterations: 50, Discriminant: "fail", Runner: "batch"},
			Forces: ForceConfig{Enabled: true, Epsilon: DefaultEpsilon, Sigma: DefaultSigma, Cutoff: DefaultCutoff},
		},
	},
	"ammonia": {
		"single": {
			Topology: "ammonia", Replicas: 1, Dt: 0.002, Steps: 2000,
			Temperature: 0.4, Seed: 1,
			Solver: SolverConfig{DistTolerance: 1e-8, VelTolerance: 1e-10, MaxIterations: 50, Discriminant: "fail", Runner: "serial"},
			Forces: ForceConfig{Enabled: false},
		},
		"box": {
			Topology: "ammonia", Replicas: 64, Dt: 0.002, Steps: 1000,
			Temperature: 0.4, Seed: 1,
			Solver: SolverConfig{DistTolerance: 1e-8, VelTolerance: 1e-10, MaxIterations: 50, Discriminant: "fail", Runner: "chunked"},
			Forces: ForceConfig{Enabled: true, Epsilon: DefaultEpsilon, Sigma: DefaultSigma, Cutoff: DefaultCutoff},
		},
	},
	"nitrogen": {
		"gas": {
			Topology: "nitrogen", Replicas: 256, Dt: 0.002, Steps: 1000,
			Temperature: 0.8, Seed: 1,
			Solver: SolverConfig{DistTolerance: 1e-8, VelTolerance: 1e-10, MaxIterations: 50, Discriminant: "fail", Runner: "chunked"},
			Forces: ForceConfig{Enabled: true, Epsilon: DefaultEpsilon, Sigma: DefaultSigma, Cutoff: DefaultCutoff},
		},
	},
	"methylene": {
		"single": {
			Topology: "methylene", Replicas: 1, Dt: 0.002, Steps: 2000,
			Temperature: 0.4, Seed: 1,
			Solver: SolverConfig{DistTolerance: 1e-8, VelTolerance: 1e-10, MaxIterations: 50, Discriminant: "fail", Runner: "serial"},
			Forces: ForceConfig{Enabled: false},
		},
	},
}

func GetPreset(topology, preset string) *Config {
	topoPresets, ok := Presets[topology]
	if !ok {
		return nil
	}
	cfg, ok := topoPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(topology string) []string {
	topoPresets, ok := Presets[topology]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(topoPresets))
	for name := range topoPresets {
		names = append(names, name)
	}
	return names
}
