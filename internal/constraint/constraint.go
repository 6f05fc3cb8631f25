// Package constraint models rigid bond-length constraints between point
// masses and groups them into the small independent clusters the solver
// operates on. A cluster is a connected component of the constraint graph;
// the supported shapes are a single bond, a central atom with two or three
// satellites, and a closed triangle.
package constraint

// Constraint fixes the distance between two atoms. Atom indices refer to
// positions in the simulation state arrays; Length is the target distance.
type Constraint struct {
	I, J   int
	Length float64
}

// Kind identifies the shape of a cluster and selects its solve kernel.
type Kind int

const (
	// Pair is a single bond between two atoms.
	Pair Kind = iota
	// Star3 is a central atom bonded to two satellites.
	Star3
	// Star4 is a central atom bonded to three satellites.
	Star4
	// Triangle is three atoms mutually bonded, a fully rigid unit.
	Triangle
)

func (k Kind) String() string {
	switch k {
	case Pair:
		return "pair"
	case Star3:
		return "star3"
	case Star4:
		return "star4"
	case Triangle:
		return "triangle"
	default:
		return "unknown"
	}
}

// Cluster is one connected group of constraints, solved as a unit. Atoms
// holds the distinct atom indices (central atom first for star shapes).
// For star shapes every constraint is oriented so I is the central atom.
type Cluster struct {
	ID    int
	Kind  Kind
	Atoms []int
	Cons  []Constraint

	// couple[p][q] (p != q) records the atom shared by constraints p and q
	// and whether it plays the same endpoint role in both, so kernels can
	// assemble coupling coefficients without re-deriving the topology.
	couple [][]coupleEntry
}

type coupleEntry struct {
	atom int
	sign float64
}

// Coupling reports the atom shared by constraints p and q of the cluster
// and the role sign: +1 when the atom is the same endpoint (I/I or J/J) in
// both constraints, -1 otherwise.
func (c *Cluster) Coupling(p, q int) (atom int, sign float64) {
	e := c.couple[p][q]
	return e.atom, e.sign
}

// Central returns the hub atom of a star cluster. For other kinds it is
// simply the first atom.
func (c *Cluster) Central() int { return c.Atoms[0] }

// buildCouplings fills the shared-atom table. Every pair of constraints in
// a supported cluster shares exactly one atom.
func (c *Cluster) buildCouplings() {
	n := len(c.Cons)
	c.couple = make([][]coupleEntry, n)
	for p := range c.couple {
		c.couple[p] = make([]coupleEntry, n)
		for q := range c.couple[p] {
			c.couple[p][q] = coupleEntry{atom: -1}
		}
	}
	for p := 0; p < n; p++ {
		for q := p + 1; q < n; q++ {
			e := sharedAtom(c.Cons[p], c.Cons[q])
			c.couple[p][q] = e
			c.couple[q][p] = e
		}
	}
}

func sharedAtom(a, b Constraint) coupleEntry {
	switch {
	case a.I == b.I:
		return coupleEntry{atom: a.I, sign: 1}
	case a.J == b.J:
		return coupleEntry{atom: a.J, sign: 1}
	case a.I == b.J:
		return coupleEntry{atom: a.I, sign: -1}
	case a.J == b.I:
		return coupleEntry{atom: a.J, sign: -1}
	default:
		return coupleEntry{atom: -1}
	}
}
