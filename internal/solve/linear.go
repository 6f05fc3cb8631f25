package solve

// Closed-form solves for the tiny linear systems produced by coupled
// clusters. Two or three unknowns make exact determinant/cofactor inversion
// cheaper and more predictable than a general decomposition, and the fixed
// array sizes keep every buffer on the stack.

// solve2 solves A·x = c for a 2x2 system.
func solve2(a [2][2]float64, c [2]float64) ([2]float64, error) {
	det := a[0][0]*a[1][1] - a[0][1]*a[1][0]
	if det == 0 {
		return [2]float64{}, ErrSingular
	}
	inv := 1 / det
	return [2]float64{
		(a[1][1]*c[0] - a[0][1]*c[1]) * inv,
		(a[0][0]*c[1] - a[1][0]*c[0]) * inv,
	}, nil
}

// solve3 solves A·x = c for a 3x3 system via the adjugate.
func solve3(a [3][3]float64, c [3]float64) ([3]float64, error) {
	adj00 := a[1][1]*a[2][2] - a[1][2]*a[2][1]
	adj10 := a[1][2]*a[2][0] - a[1][0]*a[2][2]
	adj20 := a[1][0]*a[2][1] - a[1][1]*a[2][0]

	det := a[0][0]*adj00 + a[0][1]*adj10 + a[0][2]*adj20
	if det == 0 {
		return [3]float64{}, ErrSingular
	}

	adj01 := a[0][2]*a[2][1] - a[0][1]*a[2][2]
	adj11 := a[0][0]*a[2][2] - a[0][2]*a[2][0]
	adj21 := a[0][1]*a[2][0] - a[0][0]*a[2][1]
	adj02 := a[0][1]*a[1][2] - a[0][2]*a[1][1]
	adj12 := a[0][2]*a[1][0] - a[0][0]*a[1][2]
	adj22 := a[0][0]*a[1][1] - a[0][1]*a[1][0]

	inv := 1 / det
	return [3]float64{
		(adj00*c[0] + adj01*c[1] + adj02*c[2]) * inv,
		(adj10*c[0] + adj11*c[1] + adj12*c[2]) * inv,
		(adj20*c[0] + adj21*c[1] + adj22*c[2]) * inv,
	}, nil
}
