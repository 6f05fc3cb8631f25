package solve

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ornlund/mdshake/internal/constraint"
)

func randVel(n int, rng *rand.Rand) []r3.Vec {
	v := make([]r3.Vec, n)
	for i := range v {
		v[i] = r3.Vec{
			X: rng.NormFloat64(),
			Y: rng.NormFloat64(),
			Z: rng.NormFloat64(),
		}
	}
	return v
}

func momentum(invMass []float64, vel []r3.Vec) r3.Vec {
	var p r3.Vec
	for i := range vel {
		p = r3.Add(p, r3.Scale(1/invMass[i], vel[i]))
	}
	return p
}

func kinetic(invMass []float64, vel []r3.Vec) float64 {
	e := 0.0
	for i := range vel {
		e += 0.5 / invMass[i] * r3.Norm2(vel[i])
	}
	return e
}

func TestRattlePair(t *testing.T) {
	cons := []constraint.Constraint{{I: 0, J: 1, Length: 1}}
	invMass := []float64{1.0 / 3, 1}
	pos := []r3.Vec{{}, {X: 1}}
	vel := []r3.Vec{{X: 0.4, Y: 0.1}, {X: -0.2, Y: 0.3, Z: 0.5}}

	s, err := New(cons, invMass, nil, Config{})
	if err != nil {
		t.Fatalf("New returned %v", err)
	}
	p0 := momentum(invMass, vel)
	st, err := s.ConstrainVelocities(pos, vel)
	if err != nil {
		t.Fatalf("ConstrainVelocities returned %v", err)
	}
	if !st.Converged || st.Iterations != 1 {
		t.Fatalf("stats = %+v, want convergence in one pass", st)
	}

	r := r3.Sub(pos[0], pos[1])
	if dot := r3.Dot(r, r3.Sub(vel[0], vel[1])); math.Abs(dot) > 1e-10 {
		t.Errorf("bond-aligned relative velocity = %v", dot)
	}
	if d := r3.Norm(r3.Sub(momentum(invMass, vel), p0)); d > 1e-12 {
		t.Errorf("momentum changed by %v", d)
	}
}

func TestRattlePerpendicularMotionUntouched(t *testing.T) {
	// Pure rotation has no bond-aligned component and must pass through
	// unchanged.
	cons := []constraint.Constraint{{I: 0, J: 1, Length: 1}}
	invMass := []float64{1, 1}
	pos := []r3.Vec{{}, {X: 1}}
	vel := []r3.Vec{{Y: 1}, {Y: -1}}

	s, err := New(cons, invMass, nil, Config{})
	if err != nil {
		t.Fatalf("New returned %v", err)
	}
	if _, err := s.ConstrainVelocities(pos, vel); err != nil {
		t.Fatalf("ConstrainVelocities returned %v", err)
	}
	if vel[0] != (r3.Vec{Y: 1}) || vel[1] != (r3.Vec{Y: -1}) {
		t.Errorf("velocities changed: %v, %v", vel[0], vel[1])
	}
}

func TestRattleCoupledClusters(t *testing.T) {
	rng := rand.New(rand.NewSource(19))

	// A star and a triangle under random velocities, one linear solve each.
	cases := []struct {
		name string
		cons []constraint.Constraint
		mass []float64
		pos  []r3.Vec
	}{
		{
			name: "star3",
			cons: []constraint.Constraint{
				{I: 0, J: 1, Length: 1},
				{I: 0, J: 2, Length: 1},
			},
			mass: []float64{1.0 / 16, 1, 1},
			pos:  []r3.Vec{{}, {X: 1}, {Y: 1}},
		},
		{
			name: "star4",
			cons: []constraint.Constraint{
				{I: 0, J: 1, Length: 1},
				{I: 0, J: 2, Length: 1},
				{I: 0, J: 3, Length: 1},
			},
			mass: []float64{1.0 / 12, 1, 1, 1},
			pos:  []r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}},
		},
		{
			name: "triangle",
			cons: []constraint.Constraint{
				{I: 0, J: 1, Length: 1},
				{I: 0, J: 2, Length: 1},
				{I: 1, J: 2, Length: 1.6330},
			},
			mass: []float64{1.0 / 16, 1, 1},
			pos:  []r3.Vec{{}, {X: 1}, {X: 1 - 1.6330*1.6330/2, Y: 0.9428052}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			vel := randVel(len(tc.mass), rng)
			s, err := New(tc.cons, tc.mass, nil, Config{})
			if err != nil {
				t.Fatalf("New returned %v", err)
			}
			p0 := momentum(tc.mass, vel)
			e0 := kinetic(tc.mass, vel)

			st, err := s.ConstrainVelocities(tc.pos, vel)
			if err != nil {
				t.Fatalf("ConstrainVelocities returned %v", err)
			}
			if !st.Converged || st.Iterations != 1 {
				t.Fatalf("stats = %+v, want one-pass convergence", st)
			}
			if !s.CheckVelocities(tc.pos, vel) {
				t.Errorf("CheckVelocities false, max error %v", s.MaxVelocityError(tc.pos, vel))
			}
			if d := r3.Norm(r3.Sub(momentum(tc.mass, vel), p0)); d > 1e-12 {
				t.Errorf("momentum changed by %v", d)
			}
			if e := kinetic(tc.mass, vel); e > e0+1e-12 {
				t.Errorf("kinetic energy grew from %v to %v", e0, e)
			}
		})
	}
}

func TestRattleZeroBondFails(t *testing.T) {
	cons := []constraint.Constraint{{I: 0, J: 1, Length: 1}}
	invMass := []float64{1, 1}
	pos := []r3.Vec{{X: 2}, {X: 2}} // coincident atoms
	vel := []r3.Vec{{X: 1}, {}}

	s, err := New(cons, invMass, nil, Config{})
	if err != nil {
		t.Fatalf("New returned %v", err)
	}
	if _, err := s.ConstrainVelocities(pos, vel); !errors.Is(err, ErrSingular) {
		t.Fatalf("error = %v, want ErrSingular", err)
	}
}
