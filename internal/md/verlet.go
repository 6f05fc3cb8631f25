package md

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ornlund/mdshake/internal/solve"
)

// Integrator advances a State with velocity Verlet, enforcing rigid bonds
// after the position drift (SHAKE) and after the final kick (RATTLE).
// Scratch buffers are reused across steps.
type Integrator struct {
	Dt     float64
	Solver *solve.Solver
	Force  Force

	f     []r3.Vec
	prev  []r3.Vec
	trial []r3.Vec
}

// StepInfo reports one step's solver work and the potential energy at the
// end of the step.
type StepInfo struct {
	Positions  solve.Stats
	Velocities solve.Stats
	Potential  float64
}

// NewIntegrator wires a solver and an optional force (nil means free
// constrained motion).
func NewIntegrator(dt float64, solver *solve.Solver, force Force) (*Integrator, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("md: dt %v must be positive", dt)
	}
	if solver == nil {
		return nil, fmt.Errorf("md: integrator needs a solver")
	}
	return &Integrator{Dt: dt, Solver: solver, Force: force}, nil
}

func (in *Integrator) ensureScratch(n int) {
	if len(in.f) != n {
		in.f = make([]r3.Vec, n)
		in.prev = make([]r3.Vec, n)
		in.trial = make([]r3.Vec, n)
	}
}

// Step advances the state by one timestep. The position corrections are
// folded back into the half-step velocities so positions and velocities
// stay consistent before the velocity constraint runs.
func (in *Integrator) Step(st *State) (StepInfo, error) {
	n := st.NumAtoms()
	in.ensureScratch(n)
	var info StepInfo

	clear(in.f)
	if in.Force != nil {
		in.Force.Accumulate(st, in.f)
	}
	half := 0.5 * in.Dt
	for i := range st.Vel {
		st.Vel[i] = r3.Add(st.Vel[i], r3.Scale(half*st.InvMass[i], in.f[i]))
	}

	copy(in.prev, st.Pos)
	for i := range st.Pos {
		st.Pos[i] = r3.Add(st.Pos[i], r3.Scale(in.Dt, st.Vel[i]))
	}
	copy(in.trial, st.Pos)

	ps, err := in.Solver.ConstrainPositions(st.Pos, in.prev)
	if err != nil {
		return info, err
	}
	info.Positions = ps

	invDt := 1 / in.Dt
	for i := range st.Vel {
		st.Vel[i] = r3.Add(st.Vel[i], r3.Scale(invDt, r3.Sub(st.Pos[i], in.trial[i])))
	}

	clear(in.f)
	if in.Force != nil {
		info.Potential = in.Force.Accumulate(st, in.f)
	}
	for i := range st.Vel {
		st.Vel[i] = r3.Add(st.Vel[i], r3.Scale(half*st.InvMass[i], in.f[i]))
	}

	vs, err := in.Solver.ConstrainVelocities(st.Pos, st.Vel)
	if err != nil {
		return info, err
	}
	info.Velocities = vs

	for i := range st.Pos {
		st.Pos[i] = st.Boundary.Wrap(st.Pos[i])
	}
	return info, nil
}
