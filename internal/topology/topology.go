// Package topology turns molecule descriptions, built-in or loaded from
// yaml files, into the arrays a simulation starts from: masses, reference
// positions, the rigid-bond list, and a boundary sized for the system.
package topology

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/ornlund/mdshake/internal/constraint"
	"github.com/ornlund/mdshake/internal/geom"
)

// DefaultSpacing is the lattice constant used when replicating molecules
// and no spacing is given.
const DefaultSpacing = 4.0

var (
	ErrNoAtoms  = errors.New("topology: molecule has no atoms")
	ErrMass     = errors.New("topology: atom mass must be positive")
	ErrBond     = errors.New("topology: bond refers to a missing atom")
	ErrGeometry = errors.New("topology: reference geometry does not match bond length")
)

// Atom is one site of a molecule template.
type Atom struct {
	Name string     `yaml:"name"`
	Mass float64    `yaml:"mass"`
	Pos  [3]float64 `yaml:"pos"`
}

// Bond declares a rigid distance between two atoms of the template.
type Bond struct {
	I      int     `yaml:"i"`
	J      int     `yaml:"j"`
	Length float64 `yaml:"length"`
}

// Molecule is a rigid molecule template: reference geometry plus the bonds
// held fixed during simulation.
type Molecule struct {
	Name  string `yaml:"name"`
	Atoms []Atom `yaml:"atoms"`
	Bonds []Bond `yaml:"bonds"`
}

// Validate checks the template before it is replicated into a system.
// Geometry must start close to the declared bond lengths; a quarter-length
// deviation means the file is wrong, not merely unequilibrated.
func (m Molecule) Validate() error {
	if len(m.Atoms) == 0 {
		return fmt.Errorf("%w: %q", ErrNoAtoms, m.Name)
	}
	for i, a := range m.Atoms {
		if a.Mass <= 0 {
			return fmt.Errorf("%w: atom %d (%s) has mass %v", ErrMass, i, a.Name, a.Mass)
		}
	}
	for k, b := range m.Bonds {
		if b.I < 0 || b.I >= len(m.Atoms) || b.J < 0 || b.J >= len(m.Atoms) {
			return fmt.Errorf("%w: bond %d joins %d-%d, have %d atoms", ErrBond, k, b.I, b.J, len(m.Atoms))
		}
		if b.Length <= 0 {
			return fmt.Errorf("%w: bond %d has length %v", constraint.ErrBondLength, k, b.Length)
		}
		d := dist(m.Atoms[b.I].Pos, m.Atoms[b.J].Pos)
		if math.Abs(d-b.Length) > 0.25*b.Length {
			return fmt.Errorf("%w: bond %d is %v in the reference geometry, declared %v",
				ErrGeometry, k, d, b.Length)
		}
	}
	return nil
}

func dist(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Load reads a molecule template from a yaml file.
func Load(path string) (Molecule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Molecule{}, err
	}
	var m Molecule
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Molecule{}, fmt.Errorf("topology: parsing %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return Molecule{}, err
	}
	return m, nil
}

// Save writes a molecule template to a yaml file.
func Save(path string, m Molecule) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// System is a realized topology: n copies of a molecule on a cubic
// lattice, with the constraint list rebased per copy. A single molecule
// lives in open space; replicated systems get a periodic box sized to the
// lattice.
type System struct {
	Name     string
	InvMass  []float64
	Pos      []r3.Vec
	Cons     []constraint.Constraint
	Boundary geom.Boundary
	MolSize  int
}

// NumAtoms returns the total atom count.
func (s *System) NumAtoms() int { return len(s.InvMass) }

// Masses returns the atom masses (the inverse of InvMass, which the solver
// consumes directly).
func (s *System) Masses() []float64 {
	m := make([]float64, len(s.InvMass))
	for i, im := range s.InvMass {
		m[i] = 1 / im
	}
	return m
}

// Build replicates the molecule onto the smallest cubic lattice holding
// replicas copies. spacing <= 0 selects DefaultSpacing.
func Build(m Molecule, replicas int, spacing float64) (*System, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if replicas < 1 {
		return nil, fmt.Errorf("topology: replicas %d must be at least 1", replicas)
	}
	if spacing <= 0 {
		spacing = DefaultSpacing
	}

	sys := &System{
		Name:    m.Name,
		MolSize: len(m.Atoms),
	}

	if replicas == 1 {
		sys.Boundary = geom.Free{}
		place(sys, m, r3.Vec{})
		return sys, nil
	}

	side := int(math.Ceil(math.Cbrt(float64(replicas))))
	sys.Boundary = geom.NewCube(float64(side) * spacing)

	placed := 0
	for ix := 0; ix < side && placed < replicas; ix++ {
		for iy := 0; iy < side && placed < replicas; iy++ {
			for iz := 0; iz < side && placed < replicas; iz++ {
				origin := r3.Vec{
					X: (float64(ix) + 0.5) * spacing,
					Y: (float64(iy) + 0.5) * spacing,
					Z: (float64(iz) + 0.5) * spacing,
				}
				place(sys, m, origin)
				placed++
			}
		}
	}
	return sys, nil
}

func place(sys *System, m Molecule, origin r3.Vec) {
	base := len(sys.Pos)
	for _, a := range m.Atoms {
		sys.InvMass = append(sys.InvMass, 1/a.Mass)
		sys.Pos = append(sys.Pos, r3.Add(origin, r3.Vec{X: a.Pos[0], Y: a.Pos[1], Z: a.Pos[2]}))
	}
	for _, b := range m.Bonds {
		sys.Cons = append(sys.Cons, constraint.Constraint{
			I: base + b.I, J: base + b.J, Length: b.Length,
		})
	}
}
