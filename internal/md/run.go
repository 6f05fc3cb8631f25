package md

import (
	"context"
	"math"
)

// Observer is notified after every completed step. Metrics implement it.
type Observer interface {
	Observe(step int, st *State, info StepInfo)
}

// RunStats aggregates solver work over a whole run.
type RunStats struct {
	Steps         int
	PosIterations int
	VelIterations int
	NonConverged  int
	MaxPosError   float64
	MaxVelError   float64
	Potential     float64
}

// Run advances the state the given number of steps, observing after each.
// The context is checked between steps; a constraint solve itself is never
// interrupted.
func Run(ctx context.Context, st *State, in *Integrator, steps int, obs ...Observer) (RunStats, error) {
	var rs RunStats
	for k := 0; k < steps; k++ {
		if err := ctx.Err(); err != nil {
			return rs, err
		}
		info, err := in.Step(st)
		if err != nil {
			return rs, err
		}
		rs.Steps++
		rs.PosIterations += info.Positions.Iterations
		rs.VelIterations += info.Velocities.Iterations
		if !info.Positions.Converged || !info.Velocities.Converged {
			rs.NonConverged++
		}
		rs.MaxPosError = math.Max(rs.MaxPosError, info.Positions.MaxError)
		rs.MaxVelError = math.Max(rs.MaxVelError, info.Velocities.MaxError)
		rs.Potential = info.Potential
		for _, o := range obs {
			o.Observe(k, st, info)
		}
	}
	return rs, nil
}
