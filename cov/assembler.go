package cov

import (
	"sync"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/BStoelzner/OneCovariance/kernel"
	"github.com/BStoelzner/OneCovariance/levin"
	"github.com/BStoelzner/OneCovariance/progress"
)

// Assembler projects ell-space covariance tensors into COSEBI mode
// space. It owns the mode kernels, their well decompositions and the
// quadrature settings shared by the E-mode, Gaussian and four-point
// paths. Workers > 1 spreads the mode-pair loop across goroutines;
// every integration job is an immutable value, so workers never share
// quadrature state.
type Assembler struct {
	Kernels  *kernel.ModeSet
	Accuracy float64
	Nodes    int
	Workers  int
	Log      *zap.Logger
	Progress progress.Reporter

	wells [][]float64
}

func NewAssembler(kernels *kernel.ModeSet, accuracy float64, log *zap.Logger) *Assembler {
	return &Assembler{
		Kernels:  kernels,
		Accuracy: accuracy,
		Nodes:    levin.DefaultNodes,
		Workers:  1,
		Log:      log,
		Progress: progress.Nop(),
		wells:    kernels.AllWells(),
	}
}

// options derives the per-well quadrature settings. The tolerance is
// scaled down with the well count so the error accumulated across
// wells stays within the baseline accuracy.
func (a *Assembler) options() levin.Options {
	return levin.Options{
		Tolerance: levin.Tolerance(a.Accuracy, len(a.wells[0])-1),
		Nodes:     a.Nodes,
	}
}

func (a *Assembler) newJob(integrand *mat.Dense) (*levin.Job, error) {
	return levin.NewJob(a.Kernels.Grid(), integrand, a.Kernels.Values(), a.options())
}

// forPairs runs fn over every mode pair (m, n) with m <= n, spread
// over Workers goroutines. The tensor blocks touched by distinct pairs
// are disjoint, so fn may write results without locking. The first
// error wins and is returned after all workers drain.
func (a *Assembler) forPairs(fn func(m, n int) error) error {
	modes := a.Kernels.Modes()
	pairs := make(chan [2]int, modes)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for w := 0; w < a.workers(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range pairs {
				if err := fn(p[0], p[1]); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
				a.Progress.Step()
			}
		}()
	}
	for m := 0; m < modes; m++ {
		for n := m; n < modes; n++ {
			pairs <- [2]int{m, n}
		}
	}
	close(pairs)
	wg.Wait()
	return firstErr
}

// forModes runs fn over every mode index, spread over Workers
// goroutines.
func (a *Assembler) forModes(fn func(n int) error) error {
	modes := a.Kernels.Modes()
	idx := make(chan int, modes)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for w := 0; w < a.workers(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range idx {
				if err := fn(n); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
				a.Progress.Step()
			}
		}()
	}
	for n := 0; n < modes; n++ {
		idx <- n
	}
	close(idx)
	wg.Wait()
	return firstErr
}

func (a *Assembler) workers() int {
	if a.Workers < 1 {
		return 1
	}
	return a.Workers
}

func (a *Assembler) pairCount() int {
	modes := a.Kernels.Modes()
	return modes * (modes + 1) / 2
}
