package md

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Force accumulates forces into f (indexed like State.Pos) and returns the
// potential energy of the configuration.
type Force interface {
	Accumulate(st *State, f []r3.Vec) float64
}

// LennardJones is the classic 12-6 potential between atoms of different
// molecules, truncated at Cutoff. All pairs are visited directly; there is
// no neighbor list, which keeps the harness simple and caps it at modest
// system sizes.
type LennardJones struct {
	Epsilon float64
	Sigma   float64
	Cutoff  float64
}

func (lj LennardJones) Accumulate(st *State, f []r3.Vec) float64 {
	sig2 := lj.Sigma * lj.Sigma
	cut2 := lj.Cutoff * lj.Cutoff
	energy := 0.0

	n := st.NumAtoms()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			// Intramolecular geometry is rigid; only cross-molecule
			// pairs interact.
			if st.MolSize > 0 && i/st.MolSize == j/st.MolSize {
				continue
			}
			d := st.Boundary.Displacement(st.Pos[i], st.Pos[j])
			r2 := r3.Norm2(d)
			if r2 == 0 || r2 > cut2 {
				continue
			}
			sr2 := sig2 / r2
			sr6 := sr2 * sr2 * sr2
			sr12 := sr6 * sr6
			energy += 4 * lj.Epsilon * (sr12 - sr6)
			// |F| = 24ε(2(σ/r)¹² − (σ/r)⁶)/r, directed along d.
			fmag := 24 * lj.Epsilon * (2*sr12 - sr6) / r2
			fv := r3.Scale(fmag, d)
			f[i] = r3.Add(f[i], fv)
			f[j] = r3.Sub(f[j], fv)
		}
	}
	return energy
}
