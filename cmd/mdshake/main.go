package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ornlund/mdshake/internal/analysis"
	"github.com/ornlund/mdshake/internal/automation"
	"github.com/ornlund/mdshake/internal/config"
	"github.com/ornlund/mdshake/internal/export"
	"github.com/ornlund/mdshake/internal/md"
	"github.com/ornlund/mdshake/internal/metrics"
	"github.com/ornlund/mdshake/internal/solve"
	"github.com/ornlund/mdshake/internal/storage"
	"github.com/ornlund/mdshake/internal/sweep"
	"github.com/ornlund/mdshake/internal/topology"
	"github.com/ornlund/mdshake/internal/tui"
)

var (
	dataDir    string
	configFile string
	preset     string
	dt         float64
	steps      int
	temp       float64
	seed       int64
	replicas   int
	spacing    float64
	runner     string
	workers    int
	distTol    float64
	velTol     float64
	maxIter    int
	noForces   bool
	save       bool
	sample     int
	// converge parameters
	kick float64
	// live view pacing
	stepsPerTick int
	// analyze column selection
	column string
	// check snapshot output
	svgPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mdshake",
		Short: "rigid-bond molecular dynamics sandbox",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mdshake", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [topology]",
		Short: "run a constrained simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().BoolVar(&save, "save", false, "persist the run under the data directory")
	runCmd.Flags().IntVar(&sample, "sample", 0, "steps between saved samples (0 = auto)")

	checkCmd := &cobra.Command{
		Use:   "check [topology]",
		Short: "validate a topology and show its clusters",
		Args:  cobra.ExactArgs(1),
		RunE:  checkTopology,
	}
	checkCmd.Flags().IntVar(&replicas, "replicas", 1, "number of molecules")
	checkCmd.Flags().Float64Var(&spacing, "spacing", 0, "lattice spacing (0 = default)")
	checkCmd.Flags().StringVar(&svgPath, "svg", "", "write a structure snapshot to this svg file")

	convergeCmd := &cobra.Command{
		Use:   "converge [topology]",
		Short: "perturb a topology and plot solver convergence",
		Args:  cobra.ExactArgs(1),
		RunE:  plotConvergence,
	}
	convergeCmd.Flags().IntVar(&replicas, "replicas", 1, "number of molecules")
	convergeCmd.Flags().Float64Var(&kick, "kick", 0.1, "position perturbation amplitude")
	convergeCmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	convergeCmd.Flags().Float64Var(&distTol, "dist-tol", config.DefaultDistTolerance, "distance tolerance")
	convergeCmd.Flags().IntVar(&maxIter, "max-iter", config.DefaultMaxIterations, "iteration cap")

	benchCmd := &cobra.Command{
		Use:   "bench [topology]",
		Short: "benchmark the solver across system sizes and runners",
		Args:  cobra.ExactArgs(1),
		RunE:  benchSolver,
	}
	benchCmd.Flags().IntVar(&workers, "workers", 0, "worker count (0 = GOMAXPROCS)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&column, "column", "kinetic", "series column: kinetic, temperature, bond_error")

	liveCmd := &cobra.Command{
		Use:   "live [topology]",
		Short: "run with a live terminal view",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().IntVar(&stepsPerTick, "steps-per-frame", 4, "integration steps per frame")

	suiteCmd := &cobra.Command{
		Use:   "suite [file]",
		Short: "run a scripted batch of simulations",
		Args:  cobra.ExactArgs(1),
		RunE:  runSuite,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [topology]",
		Short: "list built-in topologies and presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	rootCmd.AddCommand(runCmd, checkCmd, convergeCmd, benchCmd, analyzeCmd, liveCmd, suiteCmd, presetsCmd, listCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	cmd.Flags().Float64Var(&temp, "temp", config.DefaultTemperature, "initial temperature")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().IntVar(&replicas, "replicas", 1, "number of molecules")
	cmd.Flags().Float64Var(&spacing, "spacing", 0, "lattice spacing (0 = default)")
	cmd.Flags().StringVar(&runner, "runner", "", "sweep runner: "+strings.Join(sweep.Names(), ", "))
	cmd.Flags().IntVar(&workers, "workers", 0, "worker count (0 = GOMAXPROCS)")
	cmd.Flags().Float64Var(&distTol, "dist-tol", config.DefaultDistTolerance, "distance tolerance")
	cmd.Flags().Float64Var(&velTol, "vel-tol", config.DefaultVelTolerance, "velocity tolerance")
	cmd.Flags().IntVar(&maxIter, "max-iter", config.DefaultMaxIterations, "iteration cap")
	cmd.Flags().BoolVar(&noForces, "no-forces", false, "disable the demo force field")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use a preset configuration")
}

// buildConfig layers preset, config file, and flags over the defaults.
// Flags win over the file, the file wins over the preset.
func buildConfig(cmd *cobra.Command, topoName string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(topoName, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(topoName))
		}
		c := *p
		cfg = &c
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	cfg.Topology = topoName
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("steps") {
		cfg.Steps = steps
	}
	if cmd.Flags().Changed("temp") {
		cfg.Temperature = temp
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("replicas") {
		cfg.Replicas = replicas
	}
	if cmd.Flags().Changed("runner") {
		cfg.Solver.Runner = runner
	}
	if cmd.Flags().Changed("workers") {
		cfg.Solver.Workers = workers
	}
	if cmd.Flags().Changed("dist-tol") {
		cfg.Solver.DistTolerance = distTol
	}
	if cmd.Flags().Changed("vel-tol") {
		cfg.Solver.VelTolerance = velTol
	}
	if cmd.Flags().Changed("max-iter") {
		cfg.Solver.MaxIterations = maxIter
	}
	if noForces {
		cfg.Forces.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveMolecule loads a yaml template when the name looks like a path,
// and a built-in otherwise.
func resolveMolecule(name string) (topology.Molecule, error) {
	if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
		return topology.Load(name)
	}
	return topology.Get(name)
}

// prepare builds the state, solver, and integrator a run needs.
func prepare(cfg *config.Config, log *zap.Logger) (*md.State, *solve.Solver, *md.Integrator, error) {
	mol, err := resolveMolecule(cfg.Topology)
	if err != nil {
		return nil, nil, nil, err
	}
	sys, err := topology.Build(mol, cfg.Replicas, spacing)
	if err != nil {
		return nil, nil, nil, err
	}

	scfg, err := cfg.Solver.Build(log)
	if err != nil {
		return nil, nil, nil, err
	}
	solver, err := solve.New(sys.Cons, sys.InvMass, sys.Boundary, scfg)
	if err != nil {
		return nil, nil, nil, err
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
		return nil, nil, nil, err
	}
	return st, solver, integ, nil
}

// sampler records a thin per-step series for storage.
type sampler struct {
	dt      float64
	stride  int
	solver  *solve.Solver
	samples []storage.Sample
}

func (s *sampler) Observe(step int, st *md.State, info md.StepInfo) {
	if step%s.stride != 0 {
		return
	}
	s.samples = append(s.samples, storage.Sample{
		Step:        step,
		Time:        float64(step) * s.dt,
		Kinetic:     st.KineticEnergy(),
		Temperature: st.Temperature(),
		BondError:   s.solver.MaxPositionError(st.Pos),
		ShakeIters:  info.Positions.Iterations,
		RattleIters: info.Velocities.Iterations,
	})
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer log.Sync()

	st, solver, integ, err := prepare(cfg, log)
	if err != nil {
		return err
	}

	obs := []md.Observer{
		metrics.NewBondError(solver),
		metrics.NewKineticEnergy(),
		metrics.NewTemperature(),
		metrics.NewMomentumDrift(),
		metrics.NewSolverIterations(),
	}

	var smp *sampler
	if save {
		stride := sample
		if stride < 1 {
			stride = max(1, cfg.Steps/200)
		}
		smp = &sampler{dt: cfg.Dt, stride: stride, solver: solver}
		obs = append(obs, smp)
	}

	fmt.Printf("running %s: %d molecules, %d atoms, %d clusters\n",
		cfg.Topology, cfg.Replicas, st.NumAtoms(), len(solver.Clusters()))
	start := time.Now()

	rs, err := md.Run(context.Background(), st, integ, cfg.Steps, obs...)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v (%.0f steps/sec)\n", elapsed, float64(rs.Steps)/elapsed.Seconds())
	if rs.NonConverged > 0 {
		fmt.Printf("warning: %d steps did not converge within %d iterations\n",
			rs.NonConverged, cfg.Solver.MaxIterations)
	}

	fmt.Println("\nmetrics:")
	vals := make(map[string]float64, len(obs))
	for _, o := range obs {
		if m, ok := o.(metrics.Metric); ok {
			fmt.Printf("  %s: %.6g\n", m.Name(), m.Value())
			vals[m.Name()] = m.Value()
		}
	}

	if save {
		store := storage.New(dataDir)
		if err := store.Init(); err != nil {
			return err
		}
		runID, err := store.Save(storage.RunMetadata{
			Topology:     cfg.Topology,
			Replicas:     cfg.Replicas,
			Seed:         cfg.Seed,
			Dt:           cfg.Dt,
			Steps:        rs.Steps,
			Runner:       cfg.Solver.Runner,
			NonConverged: rs.NonConverged,
			MaxBondError: rs.MaxPosError,
			Metrics:      vals,
		}, smp.samples)
		if err != nil {
			return err
		}
		fmt.Printf("\nrun id: %s\n", runID)
	}

	return nil
}

func checkTopology(cmd *cobra.Command, args []string) error {
	mol, err := resolveMolecule(args[0])
	if err != nil {
		return err
	}
	sys, err := topology.Build(mol, replicas, spacing)
	if err != nil {
		return err
	}
	solver, err := solve.New(sys.Cons, sys.InvMass, sys.Boundary, solve.Config{})
	if err != nil {
		return err
	}

	clusters := solver.Clusters()
	fmt.Printf("topology %s: %d atoms, %d bonds, %d clusters\n",
		mol.Name, sys.NumAtoms(), len(sys.Cons), len(clusters))
	fmt.Printf("initial bond error: %.3e\n\n", solver.MaxPositionError(sys.Pos))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if len(clusters) <= 16 {
		fmt.Fprintln(w, "CLUSTER\tKIND\tATOMS\tBONDS")
		for _, cl := range clusters {
			fmt.Fprintf(w, "%d\t%s\t%v\t%d\n", cl.ID, cl.Kind, cl.Atoms, len(cl.Cons))
		}
	} else {
		counts := map[string]int{}
		for _, cl := range clusters {
			counts[cl.Kind.String()]++
		}
		kinds := make([]string, 0, len(counts))
		for k := range counts {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		fmt.Fprintln(w, "KIND\tCLUSTERS")
		for _, k := range kinds {
			fmt.Fprintf(w, "%s\t%d\n", k, counts[k])
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if svgPath != "" {
		canvas := tui.NewCanvas(96, 36)
		tui.RenderSystem(canvas, tui.NewCamera(4), md.NewState(sys), clusters)
		if err := export.WriteSVG(svgPath, canvas, 4); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", svgPath)
	}
	return nil
}

func plotConvergence(cmd *cobra.Command, args []string) error {
	mol, err := resolveMolecule(args[0])
	if err != nil {
		return err
	}
	sys, err := topology.Build(mol, replicas, spacing)
	if err != nil {
		return err
	}
	solver, err := solve.New(sys.Cons, sys.InvMass, sys.Boundary, solve.Config{
		DistTolerance: distTol,
		MaxIterations: maxIter,
	})
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(seed))
	pos := make([]r3.Vec, len(sys.Pos))
	for i, p := range sys.Pos {
		pos[i] = r3.Add(p, r3.Vec{
			X: kick * (rng.Float64() - 0.5),
			Y: kick * (rng.Float64() - 0.5),
			Z: kick * (rng.Float64() - 0.5),
		})
	}

	before := solver.MaxPositionError(pos)
	stats, err := solver.ConstrainPositions(pos, sys.Pos)
	if err != nil {
		return err
	}

	fmt.Printf("topology %s, kick %.3f: error %.3e -> %.3e in %d passes (converged: %v)\n\n",
		mol.Name, kick, before, stats.MaxError, stats.Iterations, stats.Converged)

	residuals := solver.PassResiduals()
	if len(residuals) > 1 {
		logRes := make([]float64, len(residuals))
		for i, r := range residuals {
			logRes[i] = math.Log10(math.Max(r, 1e-16))
		}
		graph := asciigraph.Plot(logRes,
			asciigraph.Height(12),
			asciigraph.Width(60),
			asciigraph.Caption("log10 max residual per pass"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PASS\tMAX RESIDUAL")
	for i, r := range residuals {
		fmt.Fprintf(w, "%d\t%.6e\n", i+1, r)
	}
	return w.Flush()
}

func benchSolver(cmd *cobra.Command, args []string) error {
	mol, err := resolveMolecule(args[0])
	if err != nil {
		return err
	}

	sizes := []int{8, 64, 512}
	runners := sweep.Names()
	const solves = 20

	fmt.Printf("benchmarking %s (%d solves per cell)\n\n", mol.Name, solves)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "REPLICAS\tATOMS\tCLUSTERS\tRUNNER\tTIME\tCLUSTERS/SEC")

	for _, n := range sizes {
		sys, err := topology.Build(mol, n, spacing)
		if err != nil {
			return err
		}
		base := make([]r3.Vec, len(sys.Pos))
		pos := make([]r3.Vec, len(sys.Pos))
		rng := rand.New(rand.NewSource(42))
		for i, p := range sys.Pos {
			base[i] = r3.Add(p, r3.Vec{
				X: 0.05 * (rng.Float64() - 0.5),
				Y: 0.05 * (rng.Float64() - 0.5),
				Z: 0.05 * (rng.Float64() - 0.5),
			})
		}

		for _, name := range runners {
			r, err := sweep.New(name, workers)
			if err != nil {
				return err
			}
			solver, err := solve.New(sys.Cons, sys.InvMass, sys.Boundary, solve.Config{Runner: r})
			if err != nil {
				return err
			}

			var total time.Duration
			for k := 0; k < solves; k++ {
				copy(pos, base)
				start := time.Now()
				if _, err := solver.ConstrainPositions(pos, sys.Pos); err != nil {
					return err
				}
				total += time.Since(start)
			}

			nc := len(solver.Clusters())
			rate := float64(nc*solves) / total.Seconds()
			fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%v\t%.0f\n",
				n, sys.NumAtoms(), nc, name, total, rate)
		}
	}
	return w.Flush()
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	meta, err := store.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := store.LoadSeries(args[0])
	if err != nil {
		return err
	}
	if len(samples) < 4 {
		return fmt.Errorf("not enough samples to analyze (%d)", len(samples))
	}

	series := make([]float64, len(samples))
	for i, s := range samples {
		switch column {
		case "kinetic":
			series[i] = s.Kinetic
		case "temperature":
			series[i] = s.Temperature
		case "bond_error":
			series[i] = s.BondError
		default:
			return fmt.Errorf("unknown column: %s", column)
		}
	}
	sampleDt := samples[1].Time - samples[0].Time
	if sampleDt <= 0 {
		sampleDt = meta.Dt
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("topology: %s, column: %s, samples: %d\n\n", meta.Topology, column, len(samples))

	ps := analysis.PowerSpectrum(series)
	plotData := ps
	if len(ps) > 4 {
		plotData = ps[:len(ps)/2]
	}
	graph := asciigraph.Plot(plotData,
		asciigraph.Height(12),
		asciigraph.Width(70),
		asciigraph.Caption(fmt.Sprintf("power spectrum (%s)", column)),
	)
	fmt.Println(graph)
	fmt.Println()

	freq, power := analysis.DominantFrequency(series, sampleDt)
	fmt.Printf("dominant frequency: %.4f cycles per time unit (power %.3g)\n", freq, power)
	if freq > 0 {
		fmt.Printf("period: %.4f time units\n", 1/freq)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	// The live view owns the terminal, so solver warnings stay silent.
	st, _, integ, err := prepare(cfg, zap.NewNop())
	if err != nil {
		return err
	}

	m := tui.NewModel(cfg.Topology, st, integ, stepsPerTick)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func runSuite(cmd *cobra.Command, args []string) error {
	s, err := automation.LoadSuite(args[0])
	if err != nil {
		return err
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer log.Sync()

	fmt.Printf("suite %s: %d cases\n", s.Name, len(s.Cases))
	if s.Description != "" {
		fmt.Println(s.Description)
	}
	fmt.Println()

	results, err := automation.RunSuite(context.Background(), s, log)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CASE\tTOPOLOGY\tSTEPS\tTIME\tBOND ERROR\tNONCONV")
	for i, r := range results {
		name := r.Case.Name
		if name == "" {
			name = fmt.Sprintf("case %d", i+1)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%v\t%.2e\t%d\n",
			name,
			r.Case.Topology,
			r.Stats.Steps,
			r.Elapsed.Round(time.Millisecond),
			r.Stats.MaxPosError,
			r.Stats.NonConverged,
		)
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		names := config.ListPresets(args[0])
		if len(names) == 0 {
			fmt.Printf("no presets for topology: %s\n", args[0])
			return nil
		}
		sort.Strings(names)
		fmt.Printf("presets for %s:\n", args[0])
		for _, p := range names {
			fmt.Printf("  %s\n", p)
		}
		return nil
	}

	fmt.Println("built-in topologies:")
	for _, name := range topology.Names() {
		fmt.Printf("  %s\n", name)
	}
	topos := make([]string, 0, len(config.Presets))
	for name := range config.Presets {
		topos = append(topos, name)
	}
	sort.Strings(topos)
	fmt.Println("\npresets:")
	for _, name := range topos {
		ps := config.ListPresets(name)
		sort.Strings(ps)
		fmt.Printf("  %s: %s\n", name, strings.Join(ps, ", "))
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	runs, err := store.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTOPOLOGY\tTIME\tREPLICAS\tSTEPS\tDT\tRUNNER\tMAX ERROR")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.4f\t%s\t%.2e\n",
			run.ID,
			run.Topology,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Replicas,
			run.Steps,
			run.Dt,
			run.Runner,
			run.MaxBondError,
		)
	}
	return w.Flush()
}
