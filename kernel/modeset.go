// Package kernel holds the tabulated COSEBI weight functions: the
// oscillatory W_n kernels over multipole and the real-space T_n
// correlation kernels over angular separation. The kernels cannot be
// derived here, they must be supplied as external tables.
package kernel

import (
	"errors"
	"fmt"

	"github.com/BStoelzner/OneCovariance/utils"
)

var ErrMissingTable = errors.New("kernel table must be provided")
var ErrBadGrid = errors.New("kernel grid not strictly increasing")

// Every minimaStride-th local minimum of a mode kernel becomes a well
// boundary. Each well costs one quadrature evaluation, so the stride
// trades accuracy against run time.
const minimaStride = 20

// ModeSet is the set of oscillatory W_n kernels, all sampled on one
// shared multipole grid.
type ModeSet struct {
	ells   []float64
	values [][]float64
}

func NewModeSet(ells []float64, values [][]float64) (*ModeSet, error) {
	if len(ells) < 2 || len(values) == 0 {
		return nil, ErrMissingTable
	}
	if !utils.StrictlyIncreasing(ells) {
		return nil, ErrBadGrid
	}
	for n, vals := range values {
		if len(vals) != len(ells) {
			return nil, fmt.Errorf("mode %d: %d kernel samples for %d grid points",
				n+1, len(vals), len(ells))
		}
	}
	return &ModeSet{ells: ells, values: values}, nil
}

func (s *ModeSet) Modes() int {
	return len(s.values)
}

func (s *ModeSet) Grid() []float64 {
	return s.ells
}

func (s *ModeSet) Mode(n int) []float64 {
	return s.values[n]
}

func (s *ModeSet) Values() [][]float64 {
	return s.values
}

// Wells returns the integration sub-interval boundaries for mode n:
// every minimaStride-th interior local minimum of the kernel, bracketed
// by the first and last grid point. Fewer than minimaStride minima
// leave a single well spanning the whole grid.
func (s *ModeSet) Wells(n int) []float64 {
	minima := utils.LocalMinima(s.values[n])
	limits := make([]float64, 0, len(minima)/minimaStride+2)
	limits = append(limits, s.ells[0])
	for i := minimaStride - 1; i < len(minima); i += minimaStride {
		limits = append(limits, s.ells[minima[i]])
	}
	limits = append(limits, s.ells[len(s.ells)-1])
	return limits
}

// AllWells returns the well boundaries for every mode.
func (s *ModeSet) AllWells() [][]float64 {
	out := make([][]float64, s.Modes())
	for n := range out {
		out[n] = s.Wells(n)
	}
	return out
}
