package solve

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ornlund/mdshake/internal/constraint"
)

// rattlePair removes the relative velocity along a single bond. The
// velocity constraint r·(v_i − v_j) = 0 is linear, so
//
//	λ = −(r·v_rel) / (M·|r|²)
//
// with M = 1/m_i + 1/m_j zeroes it exactly; the mass-weighted application
// leaves total momentum unchanged.
func (s *Solver) rattlePair(cl *constraint.Cluster, pos, vel []r3.Vec) error {
	con := cl.Cons[0]
	i, j := con.I, con.J
	imi, imj := s.invMass[i], s.invMass[j]

	rv := s.bnd.Displacement(pos[i], pos[j])
	vr := r3.Sub(vel[i], vel[j])

	denom := (imi + imj) * r3.Norm2(rv)
	if denom == 0 {
		return clusterErr(cl, fmt.Errorf("%w: zero bond vector", ErrSingular))
	}
	lam := -r3.Dot(rv, vr) / denom

	vel[i] = r3.Add(vel[i], r3.Scale(lam*imi, rv))
	vel[j] = r3.Sub(vel[j], r3.Scale(lam*imj, rv))
	return nil
}

// rattleCoupled solves the velocity system for a star or triangle cluster.
// The matrix has the same coupling structure as the position solve but is
// built purely from current bond vectors: A[p][q] = c_pq·(r_p·r_q), RHS
// −(r_p·v_rel_p). The system is linear, so a single solve is exact up to
// round-off.
func (s *Solver) rattleCoupled(cl *constraint.Cluster, pos, vel []r3.Vec) error {
	var (
		rv [3]r3.Vec
		a  [3][3]float64
		c  [3]float64
	)
	n := len(cl.Cons)

	for p := 0; p < n; p++ {
		con := cl.Cons[p]
		rv[p] = s.bnd.Displacement(pos[con.I], pos[con.J])
		c[p] = -r3.Dot(rv[p], r3.Sub(vel[con.I], vel[con.J]))
	}
	for p := 0; p < n; p++ {
		for q := p; q < n; q++ {
			v := s.coupling(cl, p, q) * r3.Dot(rv[p], rv[q])
			a[p][q] = v
			a[q][p] = v
		}
	}

	lam, err := s.solveCluster(cl, n, a, c)
	if err != nil {
		return err
	}

	for q := 0; q < n; q++ {
		con := cl.Cons[q]
		d := r3.Scale(lam[q], rv[q])
		vel[con.I] = r3.Add(vel[con.I], r3.Scale(s.invMass[con.I], d))
		vel[con.J] = r3.Sub(vel[con.J], r3.Scale(s.invMass[con.J], d))
	}
	return nil
}
