package cov

import (
	"fmt"

	"github.com/BStoelzner/OneCovariance/levin"
	"github.com/BStoelzner/OneCovariance/tensor"
)

// GaussianInput holds the ell-space Gaussian covariance terms per
// combination, as supplied by the angular power-spectrum stage. The
// mixed term may be absent for combinations that have none (ggmm).
type GaussianInput struct {
	SVA map[Combination]*tensor.EllTensor
	Mix map[Combination]*tensor.EllTensor
}

// GaussianResult keeps the sample-variance, mixed and shot-noise terms
// additively separate so callers may recombine them as needed. Every
// combination is present; disabled ones hold zero tensors.
type GaussianResult struct {
	SVA       map[Combination]*tensor.Tensor8
	Mix       map[Combination]*tensor.Tensor8
	ShotNoise map[Combination]*tensor.Tensor8
}

// Combined returns sva+mix per combination, with the shot noise folded
// into the auto-tracer combinations that carry one.
func (r *GaussianResult) Combined() map[Combination]*tensor.Tensor8 {
	out := make(map[Combination]*tensor.Tensor8, len(Combinations))
	for _, c := range Combinations {
		sva := r.SVA[c]
		t := tensor.NewTensor8(sva.Modes(), sva.Sample(), sva.Tomo())
		dst := t.Data()
		copy(dst, sva.Data())
		for q, v := range r.Mix[c].Data() {
			dst[q] += v
		}
		for q, v := range r.ShotNoise[c].Data() {
			dst[q] += v
		}
		out[c] = t
	}
	return out
}

// Gaussian projects the disconnected ell-space covariance into mode
// space. The integrand of the double-well integral is the same-index
// (l, l') diagonal of the supplied tensor with the l measure
// broadcast on, normalized by 1/(2 pi) and by the overlapping survey
// footprint. Only the m <= n triangle is integrated; the lower
// triangle is mirrored. Shot noise is produced by shot and kept
// separate.
func (a *Assembler) Gaussian(obs Observables, d Dims, survey SurveyParams,
	in GaussianInput, shot *ShotNoiseProjector) (*GaussianResult, error) {
	out := &GaussianResult{
		SVA:       make(map[Combination]*tensor.Tensor8, len(Combinations)),
		Mix:       make(map[Combination]*tensor.Tensor8, len(Combinations)),
		ShotNoise: make(map[Combination]*tensor.Tensor8, len(Combinations)),
	}
	for _, c := range Combinations {
		out.SVA[c] = d.Zero8(c)
		out.Mix[c] = d.Zero8(c)
		out.ShotNoise[c] = d.Zero8(c)
		if !obs.Enabled(c) {
			continue
		}
		norm := 1 / twoPi / survey.areaSr(c)
		svaJob, err := a.gaussianJob(c, d, in.SVA[c], "sva")
		if err != nil {
			return nil, err
		}
		var mixJob *levin.Job
		if in.Mix[c] != nil {
			if mixJob, err = a.gaussianJob(c, d, in.Mix[c], "mix"); err != nil {
				return nil, err
			}
		}
		a.Progress.Start("gaussian "+c.String(), a.pairCount())
		svaT, mixT := out.SVA[c], out.Mix[c]
		err = a.forPairs(func(m, n int) error {
			res, err := svaJob.IntegrateDoubleWell(a.wells[m], m, n)
			if err != nil {
				return fmt.Errorf("gaussian %s sva at modes (%d, %d): %w", c, m+1, n+1, err)
			}
			if err := svaT.SetBlock(m, n, res, norm); err != nil {
				return err
			}
			svaT.MirrorBlock(m, n)
			if mixJob == nil {
				return nil
			}
			if res, err = mixJob.IntegrateDoubleWell(a.wells[m], m, n); err != nil {
				return fmt.Errorf("gaussian %s mix at modes (%d, %d): %w", c, m+1, n+1, err)
			}
			if err := mixT.SetBlock(m, n, res, norm); err != nil {
				return err
			}
			mixT.MirrorBlock(m, n)
			return nil
		})
		if err != nil {
			return nil, err
		}
		if shot != nil && (c == GGGG || c == GMGM || c == MMMM) {
			if out.ShotNoise[c], err = shot.Project(c, d, survey); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func (a *Assembler) gaussianJob(c Combination, d Dims, t *tensor.EllTensor, term string) (*levin.Job, error) {
	if t == nil {
		return nil, fmt.Errorf("gaussian %s %s term: %w", c, term, ErrMissingInput)
	}
	if t.Flat() != d.FlatLen(c) {
		return nil, fmt.Errorf("gaussian %s %s term has flat length %d, want %d: %w",
			c, term, t.Flat(), d.FlatLen(c), tensor.ErrShape)
	}
	diag, err := t.Diagonal(a.Kernels.Grid())
	if err != nil {
		return nil, fmt.Errorf("gaussian %s %s term: %w", c, term, err)
	}
	job, err := a.newJob(diag)
	if err != nil {
		return nil, fmt.Errorf("gaussian %s %s term: %w", c, term, err)
	}
	return job, nil
}
