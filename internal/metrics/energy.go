package metrics

import (
	"github.com/ornlund/mdshake/internal/md"
)

// KineticEnergy reports the mean kinetic energy over the observed steps.
type KineticEnergy struct {
	name    string
	total   float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(_ int, st *md.State, _ md.StepInfo) {
	e.total += st.KineticEnergy()
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *KineticEnergy) Reset() {
	e.total = 0
	e.samples = 0
}

// Temperature reports the mean instantaneous temperature.
type Temperature struct {
	name    string
	total   float64
	samples int
}

func NewTemperature() *Temperature {
	return &Temperature{name: "temperature"}
}

func (t *Temperature) Name() string { return t.name }

func (t *Temperature) Observe(_ int, st *md.State, _ md.StepInfo) {
	t.total += st.Temperature()
	t.samples++
}

func (t *Temperature) Value() float64 {
	if t.samples == 0 {
		return 0
	}
	return t.total / float64(t.samples)
}

func (t *Temperature) Reset() {
	t.total = 0
	t.samples = 0
}
