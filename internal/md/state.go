// Package md is the demonstration harness around the constraint solver: a
// simulation state, a velocity-Verlet integrator with constraint hooks, and
// a naive Lennard-Jones force. It exists to exercise the solver end to end;
// it is deliberately not a production engine.
package md

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ornlund/mdshake/internal/geom"
	"github.com/ornlund/mdshake/internal/topology"
)

// State holds the mutable arrays of a running simulation. The constraint
// solver borrows Pos and Vel during a solve; nothing else mutates them
// concurrently.
type State struct {
	Pos      []r3.Vec
	Vel      []r3.Vec
	InvMass  []float64
	Boundary geom.Boundary
	MolSize  int
}

// NewState copies a built topology into a fresh state with zero velocities.
func NewState(sys *topology.System) *State {
	st := &State{
		Pos:      make([]r3.Vec, len(sys.Pos)),
		Vel:      make([]r3.Vec, len(sys.Pos)),
		InvMass:  make([]float64, len(sys.InvMass)),
		Boundary: sys.Boundary,
		MolSize:  sys.MolSize,
	}
	copy(st.Pos, sys.Pos)
	copy(st.InvMass, sys.InvMass)
	return st
}

func (s *State) NumAtoms() int { return len(s.Pos) }

// Clone returns an independent copy sharing only the boundary.
func (s *State) Clone() *State {
	c := &State{
		Pos:      make([]r3.Vec, len(s.Pos)),
		Vel:      make([]r3.Vec, len(s.Vel)),
		InvMass:  make([]float64, len(s.InvMass)),
		Boundary: s.Boundary,
		MolSize:  s.MolSize,
	}
	copy(c.Pos, s.Pos)
	copy(c.Vel, s.Vel)
	copy(c.InvMass, s.InvMass)
	return c
}

// Thermalize draws velocities from a Maxwell-Boltzmann distribution at the
// given temperature (reduced units, k_B = 1) and removes the net momentum
// so the system does not drift.
func (s *State) Thermalize(temp float64, rng *rand.Rand) {
	if temp < 0 {
		temp = 0
	}
	for i := range s.Vel {
		sd := math.Sqrt(temp * s.InvMass[i])
		s.Vel[i] = r3.Vec{
			X: sd * rng.NormFloat64(),
			Y: sd * rng.NormFloat64(),
			Z: sd * rng.NormFloat64(),
		}
	}

	p := s.Momentum()
	total := 0.0
	for _, im := range s.InvMass {
		total += 1 / im
	}
	drift := r3.Scale(1/total, p)
	for i := range s.Vel {
		s.Vel[i] = r3.Sub(s.Vel[i], drift)
	}
}

// Momentum returns the total linear momentum.
func (s *State) Momentum() r3.Vec {
	var p r3.Vec
	for i := range s.Vel {
		p = r3.Add(p, r3.Scale(1/s.InvMass[i], s.Vel[i]))
	}
	return p
}

// KineticEnergy returns Σ ½m|v|².
func (s *State) KineticEnergy() float64 {
	e := 0.0
	for i := range s.Vel {
		e += 0.5 / s.InvMass[i] * r3.Norm2(s.Vel[i])
	}
	return e
}

// Temperature returns the instantaneous kinetic temperature 2E/(3N).
func (s *State) Temperature() float64 {
	if len(s.Vel) == 0 {
		return 0
	}
	return 2 * s.KineticEnergy() / (3 * float64(len(s.Vel)))
}
