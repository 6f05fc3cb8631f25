package md_test

import (
	"context"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ornlund/mdshake/internal/md"
	"github.com/ornlund/mdshake/internal/solve"
	"github.com/ornlund/mdshake/internal/topology"
)

var _ = Describe("constrained dynamics", func() {
	build := func(mol topology.Molecule, replicas int, temp float64, force md.Force) (*md.State, *solve.Solver, *md.Integrator) {
		sys, err := topology.Build(mol, replicas, 0)
		Expect(err).NotTo(HaveOccurred())

		st := md.NewState(sys)
		st.Thermalize(temp, rand.New(rand.NewSource(42)))

		solver, err := solve.New(sys.Cons, sys.InvMass, sys.Boundary, solve.Config{})
		Expect(err).NotTo(HaveOccurred())

		in, err := md.NewIntegrator(0.002, solver, force)
		Expect(err).NotTo(HaveOccurred())
		return st, solver, in
	}

	Describe("a single tumbling water", func() {
		It("keeps every bond rigid over many free steps", func() {
			st, solver, in := build(topology.Water(), 1, 0.5, nil)

			rs, err := md.Run(context.Background(), st, in, 500)
			Expect(err).NotTo(HaveOccurred())
			Expect(rs.Steps).To(Equal(500))
			Expect(rs.NonConverged).To(BeZero())
			Expect(solver.CheckPositions(st.Pos)).To(BeTrue(),
				"max bond error %v", solver.MaxPositionError(st.Pos))
			Expect(solver.CheckVelocities(st.Pos, st.Vel)).To(BeTrue(),
				"max velocity error %v", solver.MaxVelocityError(st.Pos, st.Vel))
		})

		It("conserves momentum", func() {
			st, _, in := build(topology.Water(), 1, 0.5, nil)
			before := st.Momentum()

			_, err := md.Run(context.Background(), st, in, 500)
			Expect(err).NotTo(HaveOccurred())
			Expect(r3.Norm(r3.Sub(st.Momentum(), before))).To(BeNumerically("<", 1e-9))
		})
	})

	Describe("a periodic box of waters under Lennard-Jones forces", func() {
		lj := md.LennardJones{Epsilon: 0.2, Sigma: 2.0, Cutoff: 5.0}

		It("keeps every bond rigid", func() {
			st, solver, in := build(topology.Water(), 27, 0.5, lj)

			rs, err := md.Run(context.Background(), st, in, 200)
			Expect(err).NotTo(HaveOccurred())
			Expect(rs.NonConverged).To(BeZero())
			Expect(solver.CheckPositions(st.Pos)).To(BeTrue(),
				"max bond error %v", solver.MaxPositionError(st.Pos))
		})

		It("conserves momentum and roughly conserves energy", func() {
			st, _, in := build(topology.Water(), 27, 0.5, lj)

			f := make([]r3.Vec, st.NumAtoms())
			e0 := st.KineticEnergy() + lj.Accumulate(st, f)

			rs, err := md.Run(context.Background(), st, in, 200)
			Expect(err).NotTo(HaveOccurred())

			clear(f)
			e1 := st.KineticEnergy() + lj.Accumulate(st, f)
			Expect(r3.Norm(st.Momentum())).To(BeNumerically("<", 1e-8))
			scale := st.KineticEnergy() + 1
			Expect(e1 - e0).To(BeNumerically("~", 0, 0.01*scale))
			Expect(rs.MaxPosError).To(BeNumerically("<=", 1e-8))
		})
	})

	Describe("cancellation", func() {
		It("stops between steps when the context ends", func() {
			st, _, in := build(topology.Water(), 1, 0.5, nil)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			rs, err := md.Run(ctx, st, in, 100)
			Expect(err).To(MatchError(context.Canceled))
			Expect(rs.Steps).To(BeZero())
		})
	})
})
