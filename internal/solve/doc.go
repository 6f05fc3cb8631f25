// Package solve enforces rigid bond-length constraints on molecular
// systems, the SHAKE and RATTLE algorithms in their cluster-analytic form.
//
// After an unconstrained integration step, ConstrainPositions nudges atom
// positions along the original bond directions until every constrained
// distance matches its target: single bonds are solved with one closed-form
// quadratic, and star or triangle clusters with a small linearized system
// that is re-derived and re-solved until the cluster converges.
// ConstrainVelocities then removes any relative velocity along the bonds,
// a linear problem solved exactly per cluster.
//
// Work is dispatched per cluster through a sweep.Runner; clusters never
// share atoms, so passes parallelize without locks. The active set shrinks
// as clusters converge, and the loop ends at tolerance or at the iteration
// cap, the latter with a logged warning rather than an error.
package solve
