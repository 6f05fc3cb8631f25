package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ornlund/mdshake/internal/md"
)

// MomentumDrift tracks the largest deviation of total momentum from its
// value at the first observation. Constraint corrections are internal
// forces, so any growth here points at a solver defect.
type MomentumDrift struct {
	name     string
	initial  r3.Vec
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(_ int, st *md.State, _ md.StepInfo) {
	p := st.Momentum()
	if m.samples == 0 {
		m.initial = p
	}
	m.samples++
	m.maxDrift = math.Max(m.maxDrift, r3.Norm(r3.Sub(p, m.initial)))
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = r3.Vec{}
	m.maxDrift = 0
	m.samples = 0
}
