package cov

import (
	"fmt"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"

	"github.com/BStoelzner/OneCovariance/kernel"
	"github.com/BStoelzner/OneCovariance/tensor"
	"github.com/BStoelzner/OneCovariance/utils"
)

// Number of points of the geometric theta integration grid.
const thetaSamples = 1000

// PairCounts tabulates the local pair-count density of one tracer pair
// over angular separation, per sample-bin pair. Theta is in arcmin;
// Counts has the theta grid on its rows and the flattened
// (sample, sample) axes on its columns.
type PairCounts struct {
	Theta  []float64
	Counts *mat.Dense
}

// ShotNoiseProjector computes the discrete-pair shot-noise term of the
// mode-space covariance directly in angular-separation space, without
// the oscillatory quadrature: a trapezoidal integral over theta of the
// T_m*T_n correlation-kernel product weighted by theta^2 over the
// pair-count density.
type ShotNoiseProjector struct {
	Kernels *kernel.CorrelationKernels
	Clust   *PairCounts // gg pairs
	GGL     *PairCounts // gm pairs
	Lens    *PairCounts // mm pairs

	// Angular range of the statistic in arcmin. When set, the pair
	// counts are resampled onto a geometric grid over the range;
	// otherwise the integral runs on the tabulated grid.
	ThetaMin float64
	ThetaMax float64
}

// Project returns the shot-noise tensor for one of the auto-tracer
// combinations gggg, gmgm or mmmm; any other combination has no
// discrete-pair term and yields a zero tensor. The per-sample scalar
// integral is embedded into the tomographic axes through
// Kronecker-delta masks over bin identity, with the permuted auto-pair
// masks for the four-point same-tracer combinations, and scaled by the
// squared ellipticity dispersion for shear tracers. The output is
// exactly symmetric under swapping the two mode indices.
func (p *ShotNoiseProjector) Project(c Combination, d Dims, survey SurveyParams) (*tensor.Tensor8, error) {
	out := d.Zero8(c)
	var pc *PairCounts
	switch c {
	case GGGG:
		pc = p.Clust
	case GMGM:
		pc = p.GGL
	case MMMM:
		pc = p.Lens
	default:
		return out, nil
	}
	if pc == nil {
		return nil, fmt.Errorf("shot noise %s pair counts: %w", c, ErrMissingInput)
	}
	rows, cols := pc.Counts.Dims()
	if rows != len(pc.Theta) || cols != d.Sample*d.Sample {
		return nil, fmt.Errorf("shot noise %s pair counts have shape (%d, %d), want (%d, %d): %w",
			c, rows, cols, len(pc.Theta), d.Sample*d.Sample, tensor.ErrShape)
	}
	if (c == GMGM || c == MMMM) && len(survey.EllipticityDispersion) != d.TomoLens {
		return nil, fmt.Errorf("%w: %d ellipticity dispersions for %d lens bins",
			ErrBadSurvey, len(survey.EllipticityDispersion), d.TomoLens)
	}

	grid := p.integrationGrid(pc)
	scratch := make([]float64, len(grid))
	for m := 0; m < d.Modes; m++ {
		for n := m; n < d.Modes; n++ {
			aux := p.pairIntegral(m, n, pc, d.Sample, grid, scratch)
			p.embed(out, c, d, survey, m, n, aux)
			p.embed(out, c, d, survey, n, m, aux)
		}
	}
	return out, nil
}

func (p *ShotNoiseProjector) integrationGrid(pc *PairCounts) []float64 {
	if p.ThetaMin > 0 && p.ThetaMax > p.ThetaMin {
		return utils.Geomspace(p.ThetaMin, p.ThetaMax, thetaSamples)
	}
	return pc.Theta
}

// pairIntegral integrates (Tm*Tn)(theta)*theta^2 over the pair-count
// density for every sample-bin pair, normalized by the squared
// arcmin-to-radian area conversion.
func (p *ShotNoiseProjector) pairIntegral(m, n int, pc *PairCounts, sample int,
	grid, scratch []float64) []float64 {
	prod := p.Kernels.PairProduct(m, n, grid)
	aux := make([]float64, sample*sample)
	col := make([]float64, len(pc.Theta))
	for ab := range aux {
		mat.Col(col, ab, pc.Counts)
		for t, theta := range grid {
			scratch[t] = prod[t] * theta * theta / utils.Interp(theta, pc.Theta, col)
		}
		aux[ab] = integrate.Trapezoidal(grid, scratch) / (arcmin2ToRad2 * arcmin2ToRad2)
	}
	return aux
}

func (p *ShotNoiseProjector) embed(out *tensor.Tensor8, c Combination, d Dims,
	survey SurveyParams, m, n int, aux []float64) {
	t := d.TomoShape(c)
	for a := 0; a < d.Sample; a++ {
		for b := 0; b < d.Sample; b++ {
			v := aux[a*d.Sample+b]
			for i := 0; i < t[0]; i++ {
				for j := 0; j < t[1]; j++ {
					for k := 0; k < t[2]; k++ {
						for l := 0; l < t[3]; l++ {
							var val float64
							switch c {
							case GGGG:
								val = v * pairMask(i, j, k, l) / 4
							case GMGM:
								if i == k && j == l {
									sigma := survey.EllipticityDispersion[j]
									val = v * sigma * sigma / 2
								}
							case MMMM:
								si := survey.EllipticityDispersion[i]
								sj := survey.EllipticityDispersion[j]
								val = v * pairMask(i, j, k, l) * si * si * sj * sj / 2
							}
							if val != 0 {
								out.Set(m, n, a, b, i, j, k, l, val)
							}
						}
					}
				}
			}
		}
	}
}

// pairMask is the symmetric Kronecker-delta mask of the four-point
// same-tracer combinations: delta_ik*delta_jl + delta_il*delta_jk.
func pairMask(i, j, k, l int) float64 {
	var mask float64
	if i == k && j == l {
		mask++
	}
	if i == l && j == k {
		mask++
	}
	return mask
}
