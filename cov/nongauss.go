package cov

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/BStoelzner/OneCovariance/tensor"
)

// NonGaussian projects the connected (trispectrum) ell-space
// covariance into mode space, including the survey footprint
// normalization of the connected term.
func (a *Assembler) NonGaussian(obs Observables, d Dims, survey SurveyParams,
	in map[Combination]*tensor.EllTensor) (map[Combination]*tensor.Tensor8, error) {
	return a.project4pt(obs, d, survey, in, true, "non-gaussian")
}

// SuperSample projects the super-sample ell-space covariance into mode
// space. The footprint normalization of the SSC term is folded in
// upstream and is not applied here.
func (a *Assembler) SuperSample(obs Observables, d Dims, survey SurveyParams,
	in map[Combination]*tensor.EllTensor) (map[Combination]*tensor.Tensor8, error) {
	return a.project4pt(obs, d, survey, in, false, "super-sample")
}

// project4pt is the nested double projection of a genuinely
// two-dimensional (l, l') tensor: for every outer multipole sample the
// inner axis is integrated against mode n into a per-l partial
// projection buffer, and that buffer, with the outer l measure
// broadcast on, is integrated against mode m. The buffer only depends
// on the inner mode, so it is built once per n and reused for every
// m <= n. Both triangles of the result carry the identical
// normalization.
func (a *Assembler) project4pt(obs Observables, d Dims, survey SurveyParams,
	in map[Combination]*tensor.EllTensor, connected bool, label string) (map[Combination]*tensor.Tensor8, error) {
	grid := a.Kernels.Grid()
	out := make(map[Combination]*tensor.Tensor8, len(Combinations))
	for _, c := range Combinations {
		out[c] = d.Zero8(c)
		if !obs.Enabled(c) {
			continue
		}
		t := in[c]
		if t == nil {
			return nil, fmt.Errorf("%s %s term: %w", label, c, ErrMissingInput)
		}
		if t.Ells() != len(grid) || t.Flat() != d.FlatLen(c) {
			return nil, fmt.Errorf("%s %s term has shape (%d, %d, %d), want (%d, %d, %d): %w",
				label, c, t.Ells(), t.Ells(), t.Flat(),
				len(grid), len(grid), d.FlatLen(c), tensor.ErrShape)
		}
		norm := 1 / (4 * math.Pi * math.Pi)
		if connected {
			norm /= survey.areaSr(c)
		}
		a.Progress.Start(label+" "+c.String(), a.Kernels.Modes())
		dst := out[c]
		err := a.forModes(func(n int) error {
			partial, err := a.innerProjection(t, n)
			if err != nil {
				return fmt.Errorf("%s %s inner projection at mode %d: %w", label, c, n+1, err)
			}
			outer, err := a.newJob(tensor.ScaleRows(partial, grid))
			if err != nil {
				return fmt.Errorf("%s %s outer integrand at mode %d: %w", label, c, n+1, err)
			}
			for m := 0; m <= n; m++ {
				res, err := outer.IntegrateSingleWell(a.wells[m], m)
				if err != nil {
					return fmt.Errorf("%s %s at modes (%d, %d): %w", label, c, m+1, n+1, err)
				}
				if err := dst.SetBlock(m, n, res, norm); err != nil {
					return err
				}
				dst.MirrorBlock(m, n)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// innerProjection fills the per-l partial projection buffer for mode
// n: row i holds the single-well integral over l' of T[l', l_i, :]*l'
// against the mode-n kernel.
func (a *Assembler) innerProjection(t *tensor.EllTensor, n int) (*mat.Dense, error) {
	grid := a.Kernels.Grid()
	partial := mat.NewDense(len(grid), t.Flat(), nil)
	for i := range grid {
		slice, err := t.OuterSlice(i, grid)
		if err != nil {
			return nil, err
		}
		job, err := a.newJob(slice)
		if err != nil {
			return nil, err
		}
		row, err := job.IntegrateSingleWell(a.wells[n], n)
		if err != nil {
			return nil, err
		}
		partial.SetRow(i, row)
	}
	return partial, nil
}
