// Package levin integrates smooth tensor-valued functions against
// highly oscillatory COSEBI mode kernels. Integrals are evaluated one
// well at a time, a well being the stretch between consecutive local
// minima of a kernel, with Gauss-Legendre collocation nodes placed
// inside each well and adaptive bisection down to a relative tolerance.
//
// An integration Job is an immutable value bound to one integrand
// family. Whenever the integrand changes, a new Job is built; two
// logically distinct integrands never share state.
package levin

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/mat"

	"github.com/BStoelzner/OneCovariance/utils"
)

var ErrNonFinite = errors.New("integrand is not finite")
var ErrShape = errors.New("integrand shape does not match the kernel grid")
var ErrBadWell = errors.New("well boundaries not strictly increasing")

const (
	DefaultNodes     = 16
	DefaultMaxDepth  = 8
	DefaultTolerance = 1e-6
)

// Options tune one integration Job.
type Options struct {
	// Target relative accuracy per well. See Tolerance for the
	// derivation from a baseline accuracy and a well count.
	Tolerance float64
	// Number of Gauss-Legendre collocation nodes per panel.
	Nodes int
	// Bisection depth limit per well.
	MaxDepth int
}

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.Nodes <= 0 {
		o.Nodes = DefaultNodes
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	return o
}

// Tolerance derives the per-well relative accuracy from a baseline
// accuracy, so the error accumulated over all wells stays bounded by
// the baseline.
func Tolerance(base float64, wells int) float64 {
	return base / math.Sqrt(float64(wells))
}

// Job is one integrand family bound to the shared multipole grid and
// the mode kernels sampled on it. The integrand is a (grid x flat)
// matrix; integration returns one value per flat column. Any
// multiplicative measure factor is folded into the integrand by the
// caller before the Job is built.
type Job struct {
	grid      []float64
	integrand *mat.Dense
	kernels   [][]float64
	flat      int
	opts      Options
}

// NewJob validates shapes and finiteness and binds the integrand.
// A non-finite integrand indicates corrupted upstream data and is
// rejected here rather than propagated as NaN.
func NewJob(grid []float64, integrand *mat.Dense, kernels [][]float64, opts Options) (*Job, error) {
	rows, flat := integrand.Dims()
	if rows != len(grid) {
		return nil, fmt.Errorf("%w: %d integrand rows for %d grid points", ErrShape, rows, len(grid))
	}
	for n, k := range kernels {
		if len(k) != len(grid) {
			return nil, fmt.Errorf("%w: mode %d kernel has %d samples for %d grid points",
				ErrShape, n+1, len(k), len(grid))
		}
	}
	if !utils.AllFinite(integrand.RawMatrix().Data) {
		return nil, ErrNonFinite
	}
	return &Job{
		grid:      grid,
		integrand: integrand,
		kernels:   kernels,
		flat:      flat,
		opts:      opts.withDefaults(),
	}, nil
}

func (j *Job) Flat() int {
	return j.flat
}

// IntegrateSingleWell evaluates the integral of f(l)*K_mode(l) over
// every well of limits and accumulates the results into one vector
// over the flat axes.
func (j *Job) IntegrateSingleWell(limits []float64, mode int) ([]float64, error) {
	return j.integrate(limits, func(x float64) float64 {
		return utils.Interp(x, j.grid, j.kernels[mode])
	})
}

// IntegrateDoubleWell evaluates the integral of f(l)*K_m(l)*K_n(l)
// over every well of limits, accumulated into one vector over the
// flat axes.
func (j *Job) IntegrateDoubleWell(limits []float64, m, n int) ([]float64, error) {
	return j.integrate(limits, func(x float64) float64 {
		return utils.Interp(x, j.grid, j.kernels[m]) * utils.Interp(x, j.grid, j.kernels[n])
	})
}

func (j *Job) integrate(limits []float64, weight func(float64) float64) ([]float64, error) {
	if len(limits) < 2 || !utils.StrictlyIncreasing(limits) {
		return nil, ErrBadWell
	}
	out := make([]float64, j.flat)
	for w := 0; w < len(limits)-1; w++ {
		coarse := j.panel(limits[w], limits[w+1], weight)
		j.refine(limits[w], limits[w+1], weight, coarse, j.opts.MaxDepth, out)
	}
	if !utils.AllFinite(out) {
		return nil, ErrNonFinite
	}
	return out, nil
}

// refine accepts the bisected estimate of a panel once it agrees with
// the parent estimate to within the relative tolerance, otherwise it
// splits again until the depth limit is exhausted.
func (j *Job) refine(a, b float64, weight func(float64) float64, parent []float64, depth int, out []float64) {
	mid := 0.5 * (a + b)
	fine := j.panel(a, mid, weight)
	right := j.panel(mid, b, weight)
	floats.Add(fine, right)
	if depth == 0 || converged(parent, fine, j.opts.Tolerance) {
		floats.Add(out, fine)
		return
	}
	left := j.panel(a, mid, weight)
	j.refine(a, mid, weight, left, depth-1, out)
	j.refine(mid, b, weight, right, depth-1, out)
}

func converged(parent, fine []float64, tol float64) bool {
	scale := math.Max(floats.Norm(fine, 2), math.SmallestNonzeroFloat64)
	return floats.Distance(parent, fine, 2) <= tol*scale
}

// panel evaluates the fixed-order Gauss-Legendre estimate of the
// integral over [a, b], interpolating both the integrand rows and the
// kernel weight onto the collocation nodes.
func (j *Job) panel(a, b float64, weight func(float64) float64) []float64 {
	nodes := make([]float64, j.opts.Nodes)
	weights := make([]float64, j.opts.Nodes)
	quad.Legendre{}.FixedLocations(nodes, weights, a, b)
	acc := make([]float64, j.flat)
	for i, x := range nodes {
		wk := weights[i] * weight(x)
		if wk == 0 {
			continue
		}
		cell, frac := utils.Bracket(x, j.grid)
		lo := j.integrand.RawRowView(cell)
		hi := j.integrand.RawRowView(cell + 1)
		for q := 0; q < j.flat; q++ {
			acc[q] += wk * ((1-frac)*lo[q] + frac*hi[q])
		}
	}
	return acc
}
