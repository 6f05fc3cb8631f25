// Package sweep provides the execution runners that dispatch the
// independent per-cluster work units of a constraint solve. Clusters never
// share atoms, so a pass may run its tasks in any order and on any number
// of goroutines without changing the result; runners differ only in how
// they schedule the work.
package sweep

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Runner executes one pass of independent tasks. Run returns after every
// dispatched task has completed (the barrier between solver passes) and
// reports the first task error; once a task fails, remaining tasks may be
// skipped.
type Runner interface {
	Name() string
	Run(ctx context.Context, n int, task func(k int) error) error
}

// Serial runs tasks in order on the calling goroutine. Cheapest for small
// cluster counts, and the baseline the parallel runners are tested against.
type Serial struct{}

func (Serial) Name() string { return "serial" }

func (Serial) Run(_ context.Context, n int, task func(k int) error) error {
	for k := 0; k < n; k++ {
		if err := task(k); err != nil {
			return err
		}
	}
	return nil
}

// Chunked splits the index range into contiguous blocks, one per worker.
// Static partitioning suits passes where every task costs about the same.
type Chunked struct {
	Workers int
}

func (Chunked) Name() string { return "chunked" }

func (c Chunked) Run(ctx context.Context, n int, task func(k int) error) error {
	if n == 0 {
		return nil
	}
	w := workersOrDefault(c.Workers, n)
	g, ctx := errgroup.WithContext(ctx)
	chunk := (n + w - 1) / w
	for start := 0; start < n; start += chunk {
		start := start
		end := min(start+chunk, n)
		g.Go(func() error {
			for k := start; k < end; k++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := task(k); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// Batch feeds tasks to a set of workers one index at a time, the
// stream-of-uniform-work-units model. Dynamic dispatch keeps lanes busy
// when the active set shrinks unevenly between passes.
type Batch struct {
	Workers int
}

func (Batch) Name() string { return "batch" }

func (b Batch) Run(ctx context.Context, n int, task func(k int) error) error {
	if n == 0 {
		return nil
	}
	w := workersOrDefault(b.Workers, n)
	jobs := make(chan int)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w; i++ {
		g.Go(func() error {
			for k := range jobs {
				if err := task(k); err != nil {
					return err
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(jobs)
		for k := 0; k < n; k++ {
			select {
			case jobs <- k:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	return g.Wait()
}

// serialThreshold is the pass size below which goroutine dispatch costs
// more than it saves.
const serialThreshold = 16

// Auto selects Serial for small passes and Chunked otherwise.
func Auto(workers int) Runner { return auto{workers: workers} }

type auto struct {
	workers int
}

func (auto) Name() string { return "auto" }

func (a auto) Run(ctx context.Context, n int, task func(k int) error) error {
	if n < serialThreshold {
		return Serial{}.Run(ctx, n, task)
	}
	return Chunked{Workers: a.workers}.Run(ctx, n, task)
}

func workersOrDefault(w, n int) int {
	if w <= 0 {
		w = runtime.NumCPU()
	}
	if w > n {
		w = n
	}
	return w
}

var factories = map[string]func(workers int) Runner{
	"serial":  func(int) Runner { return Serial{} },
	"chunked": func(w int) Runner { return Chunked{Workers: w} },
	"batch":   func(w int) Runner { return Batch{Workers: w} },
	"auto":    func(w int) Runner { return Auto(w) },
}

// New builds a runner by its registry name. Unknown names list the valid
// choices in the error.
func New(name string, workers int) (Runner, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("sweep: unknown runner %q (have %s)", name, strings.Join(Names(), ", "))
	}
	return f(workers), nil
}

// Names returns the registered runner names, sorted.
func Names() []string {
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
