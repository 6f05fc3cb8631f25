// Package metrics reduces a running simulation to scalar observables:
// constraint fidelity, kinetic energy, temperature, and momentum drift.
// Every metric implements md.Observer and can be attached to a run.
package metrics

import (
	"github.com/ornlund/mdshake/internal/md"
)

// Metric observes simulation states and reduces them to a single value.
type Metric interface {
	Name() string
	Observe(step int, st *md.State, info md.StepInfo)
	Value() float64
	Reset()
}
