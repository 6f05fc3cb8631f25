package metrics

import (
	"math"

	"github.com/ornlund/mdshake/internal/md"
	"github.com/ornlund/mdshake/internal/solve"
)

// BondError tracks the worst constrained-distance error seen over a run,
// as measured by the solver's read-only check.
type BondError struct {
	name     string
	solver   *solve.Solver
	maxError float64
}

func NewBondError(solver *solve.Solver) *BondError {
	return &BondError{name: "bond_error", solver: solver}
}

func (b *BondError) Name() string { return b.name }

func (b *BondError) Observe(_ int, st *md.State, _ md.StepInfo) {
	b.maxError = math.Max(b.maxError, b.solver.MaxPositionError(st.Pos))
}

func (b *BondError) Value() float64 { return b.maxError }

func (b *BondError) Reset() { b.maxError = 0 }
