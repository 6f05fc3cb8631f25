package solve

import (
	"errors"
	"math"
	"testing"
)

func TestSolve2(t *testing.T) {
	a := [2][2]float64{{3, 1}, {1, 2}}
	c := [2]float64{9, 8}

	x, err := solve2(a, c)
	if err != nil {
		t.Fatalf("solve2 returned %v", err)
	}
	want := [2]float64{2, 3}
	for i := range x {
		if math.Abs(x[i]-want[i]) > 1e-12 {
			t.Errorf("x[%d] = %v, want %v", i, x[i], want[i])
		}
	}
}

func TestSolve2Singular(t *testing.T) {
	a := [2][2]float64{{2, 4}, {1, 2}}
	if _, err := solve2(a, [2]float64{1, 1}); !errors.Is(err, ErrSingular) {
		t.Fatalf("solve2 error = %v, want ErrSingular", err)
	}
}

func TestSolve3(t *testing.T) {
	a := [3][3]float64{{2, 1, 0}, {1, 3, 1}, {0, 1, 2}}
	c := [3]float64{5, 10, 5}

	x, err := solve3(a, c)
	if err != nil {
		t.Fatalf("solve3 returned %v", err)
	}
	want := [3]float64{1.25, 2.5, 1.25}
	for i := range x {
		if math.Abs(x[i]-want[i]) > 1e-12 {
			t.Errorf("x[%d] = %v, want %v", i, x[i], want[i])
		}
	}

	// Residual check guards the cofactor bookkeeping independently of the
	// hand-computed solution.
	for i := 0; i < 3; i++ {
		sum := 0.0
		for j := 0; j < 3; j++ {
			sum += a[i][j] * x[j]
		}
		if math.Abs(sum-c[i]) > 1e-12 {
			t.Errorf("row %d residual = %v", i, sum-c[i])
		}
	}
}

func TestSolve3Singular(t *testing.T) {
	// Third row is the sum of the first two.
	a := [3][3]float64{{1, 2, 3}, {4, 5, 6}, {5, 7, 9}}
	if _, err := solve3(a, [3]float64{1, 1, 1}); !errors.Is(err, ErrSingular) {
		t.Fatalf("solve3 error = %v, want ErrSingular", err)
	}
}
