// Package engine implements the fork-join scheduling model of spec.md §5:
// one parallel region per primitive, whose unit of work is one block, with
// a global external/internal switch selecting whether the block loop or
// the dense GEMM underneath it is the multi-threaded layer.
package engine

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/aoleynichenko/EXP-T-sub003/config"
)

// Scheduler runs block-parallel regions under the algorithm and thread
// count fixed at startup (spec.md §5: "switching is global and set at
// startup").
type Scheduler struct {
	algorithm config.OpenMPAlgorithm
	nthreads  int
}

// New builds a Scheduler from the run's configuration.
func New(cfg config.Config) *Scheduler {
	n := cfg.NThreads
	if n <= 0 {
		n = 1
	}
	return &Scheduler{algorithm: cfg.OpenMPAlgorithm, nthreads: n}
}

// Workers returns how many goroutines ForEachBlock should use for the
// outer block loop: nthreads under external parallelism (the outer loop
// is the parallel layer), 1 under internal parallelism (the outer loop is
// serial and the dense GEMM beneath it is expected to thread itself).
func (s *Scheduler) Workers() int {
	if s.algorithm == config.Internal {
		return 1
	}
	if s.nthreads > 0 {
		return s.nthreads
	}
	return runtime.GOMAXPROCS(0)
}

// ForEachBlock runs fn(i) for i in [0,n) as the fork-join parallel region
// of spec.md §5: under external parallelism, up to Workers() goroutines
// process blocks concurrently; under internal parallelism, the loop is
// serial. The call is a barrier — it returns only once every block has
// been processed (spec.md §5 "workers synchronise at the barrier ending
// each primitive"). The first error from any worker is returned, after
// every in-flight worker has finished; per spec.md §5 there is no
// cancellation, so workers already dispatched always run to completion.
func (s *Scheduler) ForEachBlock(ctx context.Context, n int, fn func(i int) error) error {
	workers := s.Workers()
	if workers <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	g, _ := errgroup.WithContext(ctx)
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if start >= n {
			break
		}
		if end > n {
			end = n
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := fn(i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
