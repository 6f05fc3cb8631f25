package md

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ornlund/mdshake/internal/topology"
)

func TestThermalize(t *testing.T) {
	sys, err := topology.Build(topology.Water(), 125, 0)
	if err != nil {
		t.Fatalf("Build returned %v", err)
	}
	st := NewState(sys)
	st.Thermalize(0.5, rand.New(rand.NewSource(1)))

	if p := r3.Norm(st.Momentum()); p > 1e-10 {
		t.Errorf("net momentum = %v after thermalize", p)
	}
	// 1125 degrees of freedom put the sample temperature within a few
	// percent of the target.
	if temp := st.Temperature(); math.Abs(temp-0.5) > 0.1 {
		t.Errorf("temperature = %v, want about 0.5", temp)
	}
	if st.KineticEnergy() <= 0 {
		t.Error("kinetic energy not positive after thermalize")
	}
}

func TestThermalizeZero(t *testing.T) {
	sys, err := topology.Build(topology.Nitrogen(), 1, 0)
	if err != nil {
		t.Fatalf("Build returned %v", err)
	}
	st := NewState(sys)
	st.Thermalize(0, rand.New(rand.NewSource(1)))
	if e := st.KineticEnergy(); e != 0 {
		t.Errorf("kinetic energy = %v at zero temperature", e)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	sys, err := topology.Build(topology.Water(), 1, 0)
	if err != nil {
		t.Fatalf("Build returned %v", err)
	}
	st := NewState(sys)
	st.Vel[0] = r3.Vec{X: 1}

	c := st.Clone()
	c.Pos[0] = r3.Vec{X: 99}
	c.Vel[0] = r3.Vec{}

	if st.Pos[0].X == 99 {
		t.Error("clone shares position storage")
	}
	if st.Vel[0].X != 1 {
		t.Error("clone shares velocity storage")
	}
}

func TestLennardJonesNewtonThirdLaw(t *testing.T) {
	sys, err := topology.Build(topology.Nitrogen(), 8, 3.0)
	if err != nil {
		t.Fatalf("Build returned %v", err)
	}
	st := NewState(sys)
	lj := LennardJones{Epsilon: 0.2, Sigma: 2.0, Cutoff: 5.0}

	f := make([]r3.Vec, st.NumAtoms())
	lj.Accumulate(st, f)

	var sum r3.Vec
	nonzero := false
	for _, fv := range f {
		sum = r3.Add(sum, fv)
		if r3.Norm(fv) > 0 {
			nonzero = true
		}
	}
	if !nonzero {
		t.Fatal("no forces accumulated")
	}
	if r3.Norm(sum) > 1e-10 {
		t.Errorf("forces do not sum to zero: %+v", sum)
	}
}

func TestLennardJonesSkipsIntramolecular(t *testing.T) {
	sys, err := topology.Build(topology.Water(), 1, 0)
	if err != nil {
		t.Fatalf("Build returned %v", err)
	}
	st := NewState(sys)
	lj := LennardJones{Epsilon: 1, Sigma: 1, Cutoff: 10}

	f := make([]r3.Vec, st.NumAtoms())
	if e := lj.Accumulate(st, f); e != 0 {
		t.Errorf("single molecule has interaction energy %v", e)
	}
	for i, fv := range f {
		if r3.Norm(fv) != 0 {
			t.Errorf("atom %d feels intramolecular force %+v", i, fv)
		}
	}
}
