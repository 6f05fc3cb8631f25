package solve

import (
	"errors"
	"fmt"

	"github.com/ornlund/mdshake/internal/constraint"
)

var (
	// ErrConfig marks invalid solver configuration (bad tolerance or
	// iteration cap), reported at construction.
	ErrConfig = errors.New("solve: invalid configuration")

	// ErrState marks position/velocity slices whose length does not match
	// the atom count the solver was built for.
	ErrState = errors.New("solve: state size mismatch")

	// ErrSingular marks a zero determinant in a cluster's linear system,
	// a degenerate geometry (for example collinear bonds). Continuing
	// would produce NaN corrections, so the solve call aborts.
	ErrSingular = errors.New("solve: singular constraint matrix")

	// ErrDiscriminant marks an unsatisfiable pair correction, usually a
	// timestep so large the quadratic has no real root.
	ErrDiscriminant = errors.New("solve: negative discriminant")
)

// ClusterError ties a numerical failure to the cluster that produced it.
type ClusterError struct {
	Cluster int
	Kind    constraint.Kind
	Err     error
}

func (e *ClusterError) Error() string {
	return fmt.Sprintf("cluster %d (%s): %v", e.Cluster, e.Kind, e.Err)
}

func (e *ClusterError) Unwrap() error { return e.Err }

func clusterErr(cl *constraint.Cluster, err error) error {
	return &ClusterError{Cluster: cl.ID, Kind: cl.Kind, Err: err}
}
