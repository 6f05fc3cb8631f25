package topology

import (
	"fmt"
	"sort"
)

// Built-in molecule templates, keyed by the names used in run configs.
// Constructors return fresh values so callers may modify their copy.
var builtins = map[string]func() Molecule{
	"water":     Water,
	"ammonia":   Ammonia,
	"nitrogen":  Nitrogen,
	"methylene": Methylene,
}

// Get returns a built-in molecule by name.
func Get(name string) (Molecule, error) {
	fn, ok := builtins[name]
	if !ok {
		return Molecule{}, fmt.Errorf("topology: unknown molecule %q", name)
	}
	return fn(), nil
}

// Names lists the built-in molecules, sorted.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Water is a rigid three-site water: both OH distances and the HH distance
// constrained, forming a fully rigid triangle.
func Water() Molecule {
	return Molecule{
		Name: "water",
		Atoms: []Atom{
			{Name: "O", Mass: 15.999, Pos: [3]float64{0, 0, 0}},
			{Name: "H1", Mass: 1.008, Pos: [3]float64{0.8165, 0.5774, 0}},
			{Name: "H2", Mass: 1.008, Pos: [3]float64{-0.8165, 0.5774, 0}},
		},
		Bonds: []Bond{
			{I: 0, J: 1, Length: 1.0},
			{I: 0, J: 2, Length: 1.0},
			{I: 1, J: 2, Length: 1.6330},
		},
	}
}

// Ammonia constrains the three NH bonds of a pyramidal NH3, leaving the
// umbrella angle free: a four-atom star.
func Ammonia() Molecule {
	return Molecule{
		Name: "ammonia",
		Atoms: []Atom{
			{Name: "N", Mass: 14.007, Pos: [3]float64{0, 0, 0}},
			{Name: "H1", Mass: 1.008, Pos: [3]float64{0.9376, 0, -0.3808}},
			{Name: "H2", Mass: 1.008, Pos: [3]float64{-0.4688, 0.8120, -0.3808}},
			{Name: "H3", Mass: 1.008, Pos: [3]float64{-0.4688, -0.8120, -0.3808}},
		},
		Bonds: []Bond{
			{I: 0, J: 1, Length: 1.012},
			{I: 0, J: 2, Length: 1.012},
			{I: 0, J: 3, Length: 1.012},
		},
	}
}

// Nitrogen is a rigid diatomic, the smallest constraint cluster.
func Nitrogen() Molecule {
	return Molecule{
		Name: "nitrogen",
		Atoms: []Atom{
			{Name: "N1", Mass: 14.007, Pos: [3]float64{0, 0, 0}},
			{Name: "N2", Mass: 14.007, Pos: [3]float64{1.098, 0, 0}},
		},
		Bonds: []Bond{
			{I: 0, J: 1, Length: 1.098},
		},
	}
}

// Methylene is a CH2 group with both CH bonds constrained and the HCH
// angle free: a three-atom star.
func Methylene() Molecule {
	return Molecule{
		Name: "methylene",
		Atoms: []Atom{
			{Name: "C", Mass: 12.011, Pos: [3]float64{0, 0, 0}},
			{Name: "H1", Mass: 1.008, Pos: [3]float64{0.8901, 0.6293, 0}},
			{Name: "H2", Mass: 1.008, Pos: [3]float64{-0.8901, 0.6293, 0}},
		},
		Bonds: []Bond{
			{I: 0, J: 1, Length: 1.09},
			{I: 0, J: 2, Length: 1.09},
		},
	}
}
