// Package geom provides the spatial primitives shared by the constraint
// solver and the simulation harness: 3-vectors (gonum's r3.Vec) and the
// Boundary abstraction that hides whether a system lives in open space or
// in a periodic box.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Boundary resolves geometry questions that depend on the simulation domain.
// Constraint kernels only ever see bond vectors produced by Displacement, so
// a bond spanning a periodic wall looks identical to one in the interior.
type Boundary interface {
	// Displacement returns the vector from b to a under the boundary's
	// image convention (for periodic domains, the minimum image).
	Displacement(a, b r3.Vec) r3.Vec

	// Wrap maps a point into the primary domain. Open boundaries return
	// the point unchanged.
	Wrap(p r3.Vec) r3.Vec
}

// Free is open, unbounded space. Displacements are plain differences.
type Free struct{}

func (Free) Displacement(a, b r3.Vec) r3.Vec { return r3.Sub(a, b) }

func (Free) Wrap(p r3.Vec) r3.Vec { return p }

// Box is an orthorhombic periodic cell with edge lengths Lx, Ly, Lz and
// origin at zero. Displacement applies the minimum-image convention per
// axis, so the returned bond vector is always the shortest of all periodic
// images.
type Box struct {
	Lx, Ly, Lz float64
}

// NewCube returns a periodic box with equal edges.
func NewCube(l float64) Box { return Box{Lx: l, Ly: l, Lz: l} }

func (b Box) Displacement(a, c r3.Vec) r3.Vec {
	d := r3.Sub(a, c)
	d.X -= b.Lx * math.Round(d.X/b.Lx)
	d.Y -= b.Ly * math.Round(d.Y/b.Ly)
	d.Z -= b.Lz * math.Round(d.Z/b.Lz)
	return d
}

func (b Box) Wrap(p r3.Vec) r3.Vec {
	p.X -= b.Lx * math.Floor(p.X/b.Lx)
	p.Y -= b.Ly * math.Floor(p.Y/b.Ly)
	p.Z -= b.Lz * math.Floor(p.Z/b.Lz)
	return p
}

// Volume returns the cell volume.
func (b Box) Volume() float64 { return b.Lx * b.Ly * b.Lz }
