package cov

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/BStoelzner/OneCovariance/tensor"
)

// EModes holds the observed E-mode estimators per tracer, each with
// axes (mode, sample, tomo i, tomo j).
type EModes struct {
	GG *tensor.Tensor4
	GM *tensor.Tensor4
	MM *tensor.Tensor4
}

// EModes projects the angular power spectra into the observed E-mode
// statistic per mode: 1/(2 pi) times the single-well integral of
// C(l)*l against the mode kernel. Each cl matrix has the multipole
// grid on its rows and the flattened (sample, tomo, tomo) axes on its
// columns. Tracers disabled by obs yield zero tensors of the declared
// shape.
func (a *Assembler) EModes(obs Observables, d Dims, clGG, clGM, clMM *mat.Dense) (*EModes, error) {
	out := &EModes{
		GG: tensor.NewTensor4(d.Modes, d.Sample, [2]int{d.TomoClust, d.TomoClust}),
		GM: tensor.NewTensor4(d.Modes, d.Sample, [2]int{d.TomoClust, d.TomoLens}),
		MM: tensor.NewTensor4(d.Modes, d.Sample, [2]int{d.TomoLens, d.TomoLens}),
	}
	if obs.Shear || obs.GGL {
		if err := a.emode(out.MM, clMM, "mm"); err != nil {
			return nil, err
		}
	}
	if obs.GGL || (obs.Clustering && obs.Shear && obs.CrossTerms) {
		if err := a.emode(out.GM, clGM, "gm"); err != nil {
			return nil, err
		}
	}
	if obs.Clustering || obs.GGL {
		if err := a.emode(out.GG, clGG, "gg"); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (a *Assembler) emode(dst *tensor.Tensor4, cl *mat.Dense, label string) error {
	if cl == nil {
		return fmt.Errorf("%s power spectrum: %w", label, ErrMissingInput)
	}
	rows, flat := cl.Dims()
	if rows != len(a.Kernels.Grid()) || flat != dst.FlatLen() {
		return fmt.Errorf("%s power spectrum has shape (%d, %d), want (%d, %d): %w",
			label, rows, flat, len(a.Kernels.Grid()), dst.FlatLen(), tensor.ErrShape)
	}
	job, err := a.newJob(tensor.ScaleRows(cl, a.Kernels.Grid()))
	if err != nil {
		return fmt.Errorf("%s E-mode integrand: %w", label, err)
	}
	a.Progress.Start("E-mode "+label, dst.Modes())
	for mode := 0; mode < dst.Modes(); mode++ {
		res, err := job.IntegrateSingleWell(a.wells[mode], mode)
		if err != nil {
			return fmt.Errorf("%s E-mode at mode %d: %w", label, mode+1, err)
		}
		if err := dst.SetBlock(mode, res, 1/twoPi); err != nil {
			return err
		}
		a.Progress.Step()
	}
	return nil
}
