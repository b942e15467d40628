package kernel

import (
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/interp"

	"github.com/BStoelzner/OneCovariance/utils"
)

// tnSpline interpolates one tabulated T_n component. Outside the
// tabulated range it extrapolates linearly from the outermost cell.
type tnSpline struct {
	spline interp.NaturalCubic
	theta  []float64
	values []float64
}

func newTnSpline(theta, values []float64) (*tnSpline, error) {
	s := &tnSpline{theta: theta, values: values}
	if err := s.spline.Fit(theta, values); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *tnSpline) at(x float64) float64 {
	last := len(s.theta) - 1
	switch {
	case x < s.theta[0]:
		slope := (s.values[1] - s.values[0]) / (s.theta[1] - s.theta[0])
		return s.values[0] + slope*(x-s.theta[0])
	case x > s.theta[last]:
		slope := (s.values[last] - s.values[last-1]) / (s.theta[last] - s.theta[last-1])
		return s.values[last] + slope*(x-s.theta[last])
	default:
		return s.spline.Predict(x)
	}
}

// CorrelationKernels holds the interpolated T_n plus/minus correlation
// kernels over angular separation, one pair per mode. Built once and
// reused for every shot-noise projection.
type CorrelationKernels struct {
	plus  []*tnSpline
	minus []*tnSpline
}

// NewCorrelationKernels fits splines to the tabulated T_n components.
// theta, thetaMin and thetaMax are in arcmin. A tabulation that does
// not cover [thetaMin, thetaMax] is extrapolated with a logged warning,
// it never blocks the computation.
func NewCorrelationKernels(theta []float64, plus, minus [][]float64,
	thetaMin, thetaMax float64, log *zap.Logger) (*CorrelationKernels, error) {
	if len(theta) < 2 || len(plus) == 0 || len(minus) == 0 {
		return nil, ErrMissingTable
	}
	if len(plus) != len(minus) {
		return nil, fmt.Errorf("%d plus components but %d minus components",
			len(plus), len(minus))
	}
	if !utils.StrictlyIncreasing(theta) {
		return nil, ErrBadGrid
	}
	if theta[0] > thetaMin || theta[len(theta)-1] < thetaMax {
		log.Warn("correlation kernel tabulation does not cover the angular range, extrapolating",
			zap.Float64("theta_min", thetaMin),
			zap.Float64("theta_max", thetaMax),
			zap.Float64("tabulated_min", theta[0]),
			zap.Float64("tabulated_max", theta[len(theta)-1]))
	}
	k := &CorrelationKernels{
		plus:  make([]*tnSpline, len(plus)),
		minus: make([]*tnSpline, len(minus)),
	}
	for n := range plus {
		var err error
		if k.plus[n], err = newTnSpline(theta, plus[n]); err != nil {
			return nil, fmt.Errorf("mode %d plus component: %w", n+1, err)
		}
		if k.minus[n], err = newTnSpline(theta, minus[n]); err != nil {
			return nil, fmt.Errorf("mode %d minus component: %w", n+1, err)
		}
	}
	return k, nil
}

func (k *CorrelationKernels) Modes() int {
	return len(k.plus)
}

// PairProduct evaluates Tm_plus*Tn_plus + Tm_minus*Tn_minus at every
// point of theta. This is the kernel product entering the shot-noise
// integrand, symmetric under swapping m and n.
func (k *CorrelationKernels) PairProduct(m, n int, theta []float64) []float64 {
	out := make([]float64, len(theta))
	for i, x := range theta {
		out[i] = k.plus[m].at(x)*k.plus[n].at(x) + k.minus[m].at(x)*k.minus[n].at(x)
	}
	return out
}
