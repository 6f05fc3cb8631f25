package solve

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ornlund/mdshake/internal/constraint"
)

// shakePair corrects a single bond analytically. With r the bond vector
// before the unconstrained update, s the bond vector after it, and
// M = 1/m_i + 1/m_j, the constrained update |s + γM·r| = d expands to
//
//	(M²|r|²)γ² + (2M·r·s)γ + (|s|² − d²) = 0
//
// and the smaller-magnitude root is the minimal correction. Each atom then
// moves by ±γ/m along r.
func (s *Solver) shakePair(cl *constraint.Cluster, pos, prev []r3.Vec) error {
	con := cl.Cons[0]
	i, j := con.I, con.J
	imi, imj := s.invMass[i], s.invMass[j]
	m := imi + imj

	rv := s.bnd.Displacement(prev[i], prev[j])
	sv := s.bnd.Displacement(pos[i], pos[j])

	a := m * m * r3.Norm2(rv)
	if a == 0 {
		return clusterErr(cl, fmt.Errorf("%w: zero reference bond", ErrSingular))
	}
	b := 2 * m * r3.Dot(rv, sv)
	c := r3.Norm2(sv) - con.Length*con.Length

	disc := b*b - 4*a*c
	if disc < 0 {
		if s.cfg.Discriminant == DiscriminantFail {
			return clusterErr(cl, fmt.Errorf("%w: %g", ErrDiscriminant, disc))
		}
		s.log.Warn("clamping negative discriminant",
			zap.Int("cluster", cl.ID),
			zap.Float64("discriminant", disc))
		disc = 0
	}

	sq := math.Sqrt(disc)
	g1 := (-b + sq) / (2 * a)
	g2 := (-b - sq) / (2 * a)
	g := g1
	if math.Abs(g2) < math.Abs(g1) {
		g = g2
	}

	pos[i] = r3.Add(pos[i], r3.Scale(g*imi, rv))
	pos[j] = r3.Sub(pos[j], r3.Scale(g*imj, rv))
	return nil
}

// shakeCoupled applies one linearized correction to a star or triangle
// cluster. Row p of the system is the first-order expansion of constraint
// p's distance equation in the multipliers: A[p][q] = 2·c_pq·(s_p·r_q) with
// c_pp the summed inverse masses of p's endpoints and c_pq the signed
// inverse mass of the atom shared by p and q. The matrix uses post-update
// bond vectors, which the correction itself changes, so the caller
// re-derives geometry and calls again until the cluster is within
// tolerance.
func (s *Solver) shakeCoupled(cl *constraint.Cluster, pos, prev []r3.Vec) error {
	var (
		rv, sv [3]r3.Vec
		a      [3][3]float64
		c      [3]float64
	)
	n := len(cl.Cons)

	for p := 0; p < n; p++ {
		con := cl.Cons[p]
		rv[p] = s.bnd.Displacement(prev[con.I], prev[con.J])
		sv[p] = s.bnd.Displacement(pos[con.I], pos[con.J])
		c[p] = con.Length*con.Length - r3.Norm2(sv[p])
	}
	for p := 0; p < n; p++ {
		for q := 0; q < n; q++ {
			a[p][q] = 2 * s.coupling(cl, p, q) * r3.Dot(sv[p], rv[q])
		}
	}

	lam, err := s.solveCluster(cl, n, a, c)
	if err != nil {
		return err
	}

	for q := 0; q < n; q++ {
		con := cl.Cons[q]
		d := r3.Scale(lam[q], rv[q])
		pos[con.I] = r3.Add(pos[con.I], r3.Scale(s.invMass[con.I], d))
		pos[con.J] = r3.Sub(pos[con.J], r3.Scale(s.invMass[con.J], d))
	}
	return nil
}

// coupling returns c_pq, the inverse-mass factor tying constraints p and q.
func (s *Solver) coupling(cl *constraint.Cluster, p, q int) float64 {
	if p == q {
		con := cl.Cons[p]
		return s.invMass[con.I] + s.invMass[con.J]
	}
	atom, sign := cl.Coupling(p, q)
	return sign * s.invMass[atom]
}

// solveCluster dispatches to the closed-form solver matching the cluster's
// constraint count and tags failures with the cluster identity.
func (s *Solver) solveCluster(cl *constraint.Cluster, n int, a [3][3]float64, c [3]float64) ([3]float64, error) {
	if n == 2 {
		l2, err := solve2([2][2]float64{{a[0][0], a[0][1]}, {a[1][0], a[1][1]}}, [2]float64{c[0], c[1]})
		if err != nil {
			return [3]float64{}, clusterErr(cl, err)
		}
		return [3]float64{l2[0], l2[1], 0}, nil
	}
	l3, err := solve3(a, c)
	if err != nil {
		return [3]float64{}, clusterErr(cl, err)
	}
	return l3, nil
}
