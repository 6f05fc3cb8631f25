package sweep

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
)

func runners() []Runner {
	return []Runner{
		Serial{},
		Chunked{Workers: 4},
		Batch{Workers: 4},
		Auto(4),
	}
}

func TestRunnersCoverEveryTask(t *testing.T) {
	const n = 137
	for _, r := range runners() {
		t.Run(r.Name(), func(t *testing.T) {
			hits := make([]int32, n)
			err := r.Run(context.Background(), n, func(k int) error {
				atomic.AddInt32(&hits[k], 1)
				return nil
			})
			if err != nil {
				t.Fatalf("Run returned %v", err)
			}
			for k, h := range hits {
				if h != 1 {
					t.Errorf("task %d ran %d times, want 1", k, h)
				}
			}
		})
	}
}

func TestRunnersPropagateTaskError(t *testing.T) {
	boom := errors.New("boom")
	for _, r := range runners() {
		t.Run(r.Name(), func(t *testing.T) {
			err := r.Run(context.Background(), 64, func(k int) error {
				if k == 37 {
					return fmt.Errorf("task 37: %w", boom)
				}
				return nil
			})
			if !errors.Is(err, boom) {
				t.Fatalf("Run error = %v, want wrapped boom", err)
			}
		})
	}
}

func TestRunnersEmptyPass(t *testing.T) {
	for _, r := range runners() {
		t.Run(r.Name(), func(t *testing.T) {
			if err := r.Run(context.Background(), 0, func(int) error {
				t.Fatal("task ran for empty pass")
				return nil
			}); err != nil {
				t.Fatalf("Run returned %v", err)
			}
		})
	}
}

func TestNewByName(t *testing.T) {
	for _, name := range Names() {
		r, err := New(name, 2)
		if err != nil {
			t.Fatalf("New(%q) returned %v", name, err)
		}
		if r.Name() != name {
			t.Errorf("New(%q).Name() = %q", name, r.Name())
		}
	}

	if _, err := New("gpu", 2); err == nil {
		t.Fatal("New accepted an unknown runner name")
	}
}
