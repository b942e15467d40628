// Package cov projects angular power-spectrum covariance tensors into
// COSEBI mode space: the E-mode estimators, the Gaussian sample-variance,
// mixed and shot-noise terms, and the connected non-Gaussian and
// super-sample terms.
package cov

import (
	"errors"
	"math"

	"github.com/BStoelzner/OneCovariance/tensor"
)

var ErrMissingInput = errors.New("required input tensor must be provided")
var ErrBadSurvey = errors.New("survey parameters incomplete")

// Unit conversions, deg^2 and arcmin^2 per steradian.
const (
	deg2ToRad2    = (180 / math.Pi) * (180 / math.Pi)
	arcmin2ToRad2 = (180 * 60 / math.Pi) * (180 * 60 / math.Pi)
)

const twoPi = 2 * math.Pi

// Combination names one tracer-pair combination of the covariance,
// g for galaxy clustering and m for cosmic shear.
type Combination int

const (
	GGGG Combination = iota
	GGGM
	GGMM
	GMGM
	MMGM
	MMMM
)

// Combinations lists all six tracer-pair combinations in output order.
var Combinations = [...]Combination{GGGG, GGGM, GGMM, GMGM, MMGM, MMMM}

func (c Combination) String() string {
	switch c {
	case GGGG:
		return "gggg"
	case GGGM:
		return "gggm"
	case GGMM:
		return "ggmm"
	case GMGM:
		return "gmgm"
	case MMGM:
		return "mmgm"
	case MMMM:
		return "mmmm"
	}
	return "unknown"
}

// Observables selects which tracers are evaluated. Disabled
// combinations yield zero tensors of the declared shape, never errors.
type Observables struct {
	Clustering bool // gg
	GGL        bool // gm
	Shear      bool // mm
	CrossTerms bool
}

func (o Observables) Enabled(c Combination) bool {
	switch c {
	case GGGG:
		return o.Clustering
	case GGGM:
		return o.Clustering && o.GGL && o.CrossTerms
	case GGMM:
		return o.Clustering && o.Shear && o.CrossTerms
	case GMGM:
		return o.GGL
	case MMGM:
		return o.GGL && o.Shear && o.CrossTerms
	case MMMM:
		return o.Shear
	}
	return false
}

// SurveyParams carries the survey-dependent normalization constants.
// Areas are in deg^2; the ellipticity dispersion is per lens
// tomographic bin.
type SurveyParams struct {
	AreaClust             float64
	AreaGGL               float64
	AreaLens              float64
	EllipticityDispersion []float64
}

// Area returns the survey footprint for a combination in deg^2, the
// maximum overlapping footprint when the tracer pairs differ.
func (s SurveyParams) Area(c Combination) float64 {
	switch c {
	case GGGG:
		return s.AreaClust
	case GGGM:
		return math.Max(s.AreaClust, s.AreaGGL)
	case GGMM:
		return math.Max(s.AreaClust, s.AreaLens)
	case GMGM:
		return s.AreaGGL
	case MMGM:
		return math.Max(s.AreaGGL, s.AreaLens)
	case MMMM:
		return s.AreaLens
	}
	return 0
}

func (s SurveyParams) areaSr(c Combination) float64 {
	return s.Area(c) / deg2ToRad2
}

// Dims fixes the axis lengths of all mode-space tensors for one run.
type Dims struct {
	Modes     int
	Sample    int
	TomoClust int
	TomoLens  int
}

// TomoShape returns the four tomographic axis lengths of a combination.
func (d Dims) TomoShape(c Combination) [4]int {
	g, m := d.TomoClust, d.TomoLens
	switch c {
	case GGGG:
		return [4]int{g, g, g, g}
	case GGGM:
		return [4]int{g, g, g, m}
	case GGMM:
		return [4]int{g, g, m, m}
	case GMGM:
		return [4]int{g, m, g, m}
	case MMGM:
		return [4]int{m, m, g, m}
	case MMMM:
		return [4]int{m, m, m, m}
	}
	return [4]int{}
}

// FlatLen is the length of the flattened trailing axes of a
// combination's mode-space tensor.
func (d Dims) FlatLen(c Combination) int {
	t := d.TomoShape(c)
	return d.Sample * d.Sample * t[0] * t[1] * t[2] * t[3]
}

// Zero8 allocates an all-zero mode-space tensor of the declared shape.
func (d Dims) Zero8(c Combination) *tensor.Tensor8 {
	return tensor.NewTensor8(d.Modes, d.Sample, d.TomoShape(c))
}
