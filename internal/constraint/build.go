package constraint

import (
	"errors"
	"fmt"
	"sort"
)

// Build-time validation failures. All of them indicate a bad topology file
// or caller bug, never a numerical condition.
var (
	ErrAtomIndex     = errors.New("constraint: atom index out of range")
	ErrSelfBond      = errors.New("constraint: bond joins an atom to itself")
	ErrDuplicateBond = errors.New("constraint: duplicate bond")
	ErrBondLength    = errors.New("constraint: bond length must be positive")
	ErrClusterSize   = errors.New("constraint: cluster exceeds four atoms")
	ErrTopology      = errors.New("constraint: unsupported cluster topology")
)

// BuildClusters validates the constraint set and partitions it into
// independent clusters. Every constraint lands in exactly one cluster and
// no two clusters share an atom, so clusters may be solved concurrently.
// numAtoms bounds the valid atom indices.
func BuildClusters(cons []Constraint, numAtoms int) ([]Cluster, error) {
	if err := validate(cons, numAtoms); err != nil {
		return nil, err
	}

	ds := newDisjointSet(numAtoms)
	for _, c := range cons {
		ds.union(c.I, c.J)
	}

	// Group constraint indices by component root, keeping first-seen order
	// so cluster IDs are stable across runs.
	groups := make(map[int][]int)
	var order []int
	for i, c := range cons {
		root := ds.find(c.I)
		if _, seen := groups[root]; !seen {
			order = append(order, root)
		}
		groups[root] = append(groups[root], i)
	}

	clusters := make([]Cluster, 0, len(order))
	for id, root := range order {
		cl, err := classify(id, groups[root], cons)
		if err != nil {
			return nil, err
		}
		clusters = append(clusters, cl)
	}
	return clusters, nil
}

func validate(cons []Constraint, numAtoms int) error {
	seen := make(map[[2]int]int, len(cons))
	for i, c := range cons {
		if c.I < 0 || c.I >= numAtoms || c.J < 0 || c.J >= numAtoms {
			return fmt.Errorf("%w: constraint %d joins atoms %d-%d, have %d atoms",
				ErrAtomIndex, i, c.I, c.J, numAtoms)
		}
		if c.I == c.J {
			return fmt.Errorf("%w: constraint %d on atom %d", ErrSelfBond, i, c.I)
		}
		if c.Length <= 0 {
			return fmt.Errorf("%w: constraint %d has length %v", ErrBondLength, i, c.Length)
		}
		key := [2]int{min(c.I, c.J), max(c.I, c.J)}
		if prev, dup := seen[key]; dup {
			return fmt.Errorf("%w: constraints %d and %d both join atoms %d-%d",
				ErrDuplicateBond, prev, i, key[0], key[1])
		}
		seen[key] = i
	}
	return nil
}

// classify turns one connected component into a typed cluster, normalising
// atom order and constraint orientation for star shapes.
func classify(id int, conIdx []int, all []Constraint) (Cluster, error) {
	cl := Cluster{ID: id, Cons: make([]Constraint, 0, len(conIdx))}
	degree := make(map[int]int)
	for _, ci := range conIdx {
		c := all[ci]
		cl.Cons = append(cl.Cons, c)
		for _, a := range []int{c.I, c.J} {
			if degree[a] == 0 {
				cl.Atoms = append(cl.Atoms, a)
			}
			degree[a]++
		}
	}

	na, nc := len(cl.Atoms), len(cl.Cons)
	switch {
	case na > 4:
		return Cluster{}, fmt.Errorf("%w: cluster %d spans %d atoms %v",
			ErrClusterSize, id, na, sortedCopy(cl.Atoms))
	case na == 2 && nc == 1:
		cl.Kind = Pair
	case na == 3 && nc == 2:
		cl.Kind = Star3
	case na == 3 && nc == 3:
		cl.Kind = Triangle
	case na == 4 && nc == 3:
		central, ok := hub(degree, nc)
		if !ok {
			return Cluster{}, fmt.Errorf("%w: cluster %d is a 4-atom chain, not a star",
				ErrTopology, id)
		}
		cl.Kind = Star4
		orientStar(&cl, central)
		cl.buildCouplings()
		return cl, nil
	default:
		return Cluster{}, fmt.Errorf("%w: cluster %d has %d atoms and %d bonds",
			ErrTopology, id, na, nc)
	}

	if cl.Kind == Star3 {
		central, _ := hub(degree, nc)
		orientStar(&cl, central)
	}
	cl.buildCouplings()
	return cl, nil
}

// hub finds the atom participating in every constraint of the component.
func hub(degree map[int]int, nc int) (int, bool) {
	for a, d := range degree {
		if d == nc {
			return a, true
		}
	}
	return 0, false
}

// orientStar moves the central atom to the front of the atom list and flips
// constraints so the central atom is always endpoint I. Orientation keeps
// all coupling signs positive for star kernels.
func orientStar(cl *Cluster, central int) {
	for k, a := range cl.Atoms {
		if a == central {
			copy(cl.Atoms[1:k+1], cl.Atoms[:k])
			cl.Atoms[0] = central
			break
		}
	}
	for k := range cl.Cons {
		if cl.Cons[k].J == central {
			cl.Cons[k].I, cl.Cons[k].J = cl.Cons[k].J, cl.Cons[k].I
		}
	}
}

func sortedCopy(a []int) []int {
	out := append([]int(nil), a...)
	sort.Ints(out)
	return out
}

// disjointSet is a union-find structure with path halving and union by
// rank, used to extract connected components of the constraint graph.
type disjointSet struct {
	parent []int
	rank   []int
}

func newDisjointSet(n int) *disjointSet {
	d := &disjointSet{parent: make([]int, n), rank: make([]int, n)}
	for i := range d.parent {
		d.parent[i] = i
	}
	return d
}

func (d *disjointSet) find(x int) int {
	for d.parent[x] != x {
		d.parent[x] = d.parent[d.parent[x]]
		x = d.parent[x]
	}
	return x
}

func (d *disjointSet) union(a, b int) {
	ra, rb := d.find(a), d.find(b)
	if ra == rb {
		return
	}
	if d.rank[ra] < d.rank[rb] {
		ra, rb = rb, ra
	}
	d.parent[rb] = ra
	if d.rank[ra] == d.rank[rb] {
		d.rank[ra]++
	}
}
