package solve

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ornlund/mdshake/internal/constraint"
	"github.com/ornlund/mdshake/internal/geom"
	"github.com/ornlund/mdshake/internal/sweep"
)

// DiscriminantPolicy selects how the pair kernel treats an unsatisfiable
// correction (negative discriminant). Fail is the correctness-first
// default; Clamp reproduces the tolerant behavior of older engines, which
// flatten the discriminant to zero and keep going.
type DiscriminantPolicy int

const (
	DiscriminantFail DiscriminantPolicy = iota
	DiscriminantClamp
)

func (p DiscriminantPolicy) String() string {
	if p == DiscriminantClamp {
		return "clamp"
	}
	return "fail"
}

// ParseDiscriminantPolicy maps a configuration string to a policy.
func ParseDiscriminantPolicy(s string) (DiscriminantPolicy, error) {
	switch s {
	case "fail", "":
		return DiscriminantFail, nil
	case "clamp":
		return DiscriminantClamp, nil
	default:
		return 0, fmt.Errorf("%w: discriminant policy %q (want fail or clamp)", ErrConfig, s)
	}
}

// Config carries the numerical knobs of a solver. Zero values are filled
// from DefaultConfig by New.
type Config struct {
	// DistTolerance bounds | |bond| − target | per constraint, in length
	// units.
	DistTolerance float64
	// VelTolerance bounds |bond · v_rel| per constraint, in length ×
	// velocity units.
	VelTolerance float64
	// MaxIterations caps the passes of every sweep; exhausting it is a
	// warning, not an error.
	MaxIterations int
	Discriminant  DiscriminantPolicy
	// Runner schedules per-cluster work. Defaults to sweep.Auto.
	Runner sweep.Runner
	// Logger receives warnings (non-convergence, clamped discriminants).
	// Defaults to a no-op logger.
	Logger *zap.Logger
}

// DefaultConfig returns the tolerances and cap used when the caller does
// not override them.
func DefaultConfig() Config {
	return Config{
		DistTolerance: 1e-8,
		VelTolerance:  1e-10,
		MaxIterations: 50,
		Discriminant:  DiscriminantFail,
	}
}

// Stats reports the outcome of one constraint sweep.
type Stats struct {
	// Iterations is the number of full passes performed.
	Iterations int
	// Converged reports whether every cluster reached tolerance before
	// the iteration cap.
	Converged bool
	// MaxError is the strictest per-constraint error after the sweep.
	MaxError float64
}

// Solver enforces rigid bond constraints on position and velocity arrays.
// It owns the immutable cluster list; the position, velocity, and mass
// arrays belong to the caller and are borrowed only for the duration of a
// call. A Solver is not safe for concurrent calls; parallelism happens
// inside a pass, over clusters.
type Solver struct {
	clusters []constraint.Cluster
	invMass  []float64
	bnd      geom.Boundary
	cfg      Config
	runner   sweep.Runner
	log      *zap.Logger

	active []int
	hist   []float64
}

// New validates the configuration, partitions the constraints into
// clusters, and returns a solver bound to the given inverse masses and
// boundary. Topology problems and bad tolerances surface here, never at
// solve time.
func New(cons []constraint.Constraint, invMass []float64, bnd geom.Boundary, cfg Config) (*Solver, error) {
	def := DefaultConfig()
	if cfg.DistTolerance == 0 {
		cfg.DistTolerance = def.DistTolerance
	}
	if cfg.VelTolerance == 0 {
		cfg.VelTolerance = def.VelTolerance
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	if cfg.DistTolerance < 0 || cfg.VelTolerance < 0 {
		return nil, fmt.Errorf("%w: tolerances must be positive", ErrConfig)
	}
	if cfg.MaxIterations < 1 {
		return nil, fmt.Errorf("%w: iteration cap %d", ErrConfig, cfg.MaxIterations)
	}
	if bnd == nil {
		bnd = geom.Free{}
	}
	if cfg.Runner == nil {
		cfg.Runner = sweep.Auto(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	for i, im := range invMass {
		if im <= 0 || math.IsInf(im, 0) || math.IsNaN(im) {
			return nil, fmt.Errorf("%w: atom %d has inverse mass %v", ErrConfig, i, im)
		}
	}

	clusters, err := constraint.BuildClusters(cons, len(invMass))
	if err != nil {
		return nil, err
	}

	return &Solver{
		clusters: clusters,
		invMass:  invMass,
		bnd:      bnd,
		cfg:      cfg,
		runner:   cfg.Runner,
		log:      cfg.Logger,
	}, nil
}

// Clusters exposes the immutable cluster list for inspection and reporting.
func (s *Solver) Clusters() []constraint.Cluster { return s.clusters }

// NumAtoms returns the atom count the solver was built for.
func (s *Solver) NumAtoms() int { return len(s.invMass) }

// ConstrainPositions corrects pos in place so every constrained distance
// matches its target within DistTolerance. prev must hold the positions as
// they stood before the integrator's unconstrained update; the original
// bond directions come from there. Returns non-converged stats (not an
// error) when the iteration cap runs out, and an error only for degenerate
// geometry or an unsatisfiable pair under the fail policy.
func (s *Solver) ConstrainPositions(pos, prev []r3.Vec) (Stats, error) {
	if len(pos) != len(s.invMass) || len(prev) != len(s.invMass) {
		return Stats{}, fmt.Errorf("%w: pos %d, prev %d, want %d",
			ErrState, len(pos), len(prev), len(s.invMass))
	}
	return s.sweepAll("positions",
		func(cl *constraint.Cluster) error {
			if cl.Kind == constraint.Pair {
				return s.shakePair(cl, pos, prev)
			}
			return s.shakeCoupled(cl, pos, prev)
		},
		func(idx int) float64 { return s.clusterPositionError(idx, pos) },
		s.cfg.DistTolerance)
}

// ConstrainVelocities corrects vel in place so the relative velocity along
// every constrained bond vanishes within VelTolerance. pos must already be
// position-corrected. The velocity system is linear, so the sweep normally
// finishes in one pass; further passes only mop up round-off.
func (s *Solver) ConstrainVelocities(pos, vel []r3.Vec) (Stats, error) {
	if len(pos) != len(s.invMass) || len(vel) != len(s.invMass) {
		return Stats{}, fmt.Errorf("%w: pos %d, vel %d, want %d",
			ErrState, len(pos), len(vel), len(s.invMass))
	}
	return s.sweepAll("velocities",
		func(cl *constraint.Cluster) error {
			if cl.Kind == constraint.Pair {
				return s.rattlePair(cl, pos, vel)
			}
			return s.rattleCoupled(cl, pos, vel)
		},
		func(idx int) float64 { return s.clusterVelocityError(idx, pos, vel) },
		s.cfg.VelTolerance)
}

// sweepAll is the shared converge-or-cap loop. Each pass dispatches the
// kernel once per active cluster through the runner (Run returning is the
// barrier), then compacts the active set in place by the read-only
// residual check. Clusters never share atoms, so in-place kernel writes
// from one pass cannot race.
func (s *Solver) sweepAll(op string, kernel func(*constraint.Cluster) error, residual func(int) float64, tol float64) (Stats, error) {
	s.active = s.active[:0]
	for i := range s.clusters {
		s.active = append(s.active, i)
	}
	s.hist = s.hist[:0]

	var st Stats
	for len(s.active) > 0 && st.Iterations < s.cfg.MaxIterations {
		st.Iterations++
		err := s.runner.Run(context.Background(), len(s.active), func(k int) error {
			return kernel(&s.clusters[s.active[k]])
		})
		if err != nil {
			st.MaxError = s.maxResidual(residual)
			return st, err
		}

		passMax := 0.0
		keep := s.active[:0]
		for _, idx := range s.active {
			r := residual(idx)
			if r > passMax {
				passMax = r
			}
			if r > tol {
				keep = append(keep, idx)
			}
		}
		s.active = keep
		s.hist = append(s.hist, passMax)
	}

	st.Converged = len(s.active) == 0
	st.MaxError = s.maxResidual(residual)
	if !st.Converged {
		s.log.Warn("constraints not converged",
			zap.String("op", op),
			zap.Int("iterations", st.Iterations),
			zap.Int("unconverged_clusters", len(s.active)),
			zap.Float64("max_error", st.MaxError))
	}
	return st, nil
}

func (s *Solver) maxResidual(residual func(int) float64) float64 {
	max := 0.0
	for i := range s.clusters {
		if r := residual(i); r > max {
			max = r
		}
	}
	return max
}

func (s *Solver) clusterPositionError(idx int, pos []r3.Vec) float64 {
	max := 0.0
	for _, c := range s.clusters[idx].Cons {
		d := s.bnd.Displacement(pos[c.I], pos[c.J])
		if e := math.Abs(r3.Norm(d) - c.Length); e > max {
			max = e
		}
	}
	return max
}

func (s *Solver) clusterVelocityError(idx int, pos, vel []r3.Vec) float64 {
	max := 0.0
	for _, c := range s.clusters[idx].Cons {
		d := s.bnd.Displacement(pos[c.I], pos[c.J])
		vr := r3.Sub(vel[c.I], vel[c.J])
		if e := math.Abs(r3.Dot(d, vr)); e > max {
			max = e
		}
	}
	return max
}

// MaxPositionError returns the strictest | |bond| − target | over all
// constraints. Read-only.
func (s *Solver) MaxPositionError(pos []r3.Vec) float64 {
	return s.maxResidual(func(idx int) float64 { return s.clusterPositionError(idx, pos) })
}

// MaxVelocityError returns the strictest |bond · v_rel| over all
// constraints. Read-only.
func (s *Solver) MaxVelocityError(pos, vel []r3.Vec) float64 {
	return s.maxResidual(func(idx int) float64 { return s.clusterVelocityError(idx, pos, vel) })
}

// CheckPositions reports whether every constrained distance is within
// tolerance.
func (s *Solver) CheckPositions(pos []r3.Vec) bool {
	return s.MaxPositionError(pos) <= s.cfg.DistTolerance
}

// CheckVelocities reports whether every bond-aligned relative velocity is
// within tolerance.
func (s *Solver) CheckVelocities(pos, vel []r3.Vec) bool {
	return s.MaxVelocityError(pos, vel) <= s.cfg.VelTolerance
}

// PassResiduals returns the worst active-cluster residual recorded after
// each pass of the most recent sweep. Useful for convergence plots.
func (s *Solver) PassResiduals() []float64 {
	out := make([]float64, len(s.hist))
	copy(out, s.hist)
	return out
}
