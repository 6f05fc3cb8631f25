package metrics

import (
	"github.com/ornlund/mdshake/internal/md"
)

// SolverIterations reports the mean constraint passes per step, position
// and velocity sweeps combined. A creeping mean flags a timestep that is
// too aggressive for the tolerances.
type SolverIterations struct {
	name    string
	total   int
	samples int
}

func NewSolverIterations() *SolverIterations {
	return &SolverIterations{name: "solver_iterations"}
}

func (s *SolverIterations) Name() string { return s.name }

func (s *SolverIterations) Observe(_ int, _ *md.State, info md.StepInfo) {
	s.total += info.Positions.Iterations + info.Velocities.Iterations
	s.samples++
}

func (s *SolverIterations) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.total) / float64(s.samples)
}

func (s *SolverIterations) Reset() {
	s.total = 0
	s.samples = 0
}
