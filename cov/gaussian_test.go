package cov

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BStoelzner/OneCovariance/tensor"
)

func TestGaussianShearOnlyAgainstTrapezoid(t *testing.T) {
	a := testAssembler(t, 2)
	grid := a.Kernels.Grid()
	d := Dims{Modes: 2, Sample: 1, TomoClust: 1, TomoLens: 1}
	obs := Observables{Shear: true}
	survey := SurveyParams{AreaLens: 100}

	const v = 3.0
	in := GaussianInput{
		SVA: map[Combination]*tensor.EllTensor{
			MMMM: constantEllTensor(t, len(grid), 1, v),
		},
	}
	out, err := a.Gaussian(obs, d, survey, in, nil)
	require.NoError(t, err)

	norm := 1 / twoPi / survey.areaSr(MMMM)
	for m := 0; m < d.Modes; m++ {
		for n := 0; n < d.Modes; n++ {
			fm, fn := float64(m+1), float64(n+1)
			want := norm * trapz(grid, func(x float64) float64 {
				return x * v * math.Cos(fm*x) * math.Cos(fn*x)
			})
			assert.InEpsilon(t, want, out.SVA[MMMM].At(m, n, 0, 0, 0, 0, 0, 0), 1e-3,
				"modes (%d, %d)", m, n)
		}
	}

	for _, c := range Combinations {
		if c == MMMM {
			continue
		}
		assertAllZero(t, out.SVA[c], d, c)
		assertAllZero(t, out.Mix[c], d, c)
	}
	// No projector supplied, the shot-noise term stays zero everywhere.
	for _, c := range Combinations {
		assertAllZero(t, out.ShotNoise[c], d, c)
	}
}

func TestGaussianModeSymmetry(t *testing.T) {
	a := testAssembler(t, 3)
	grid := a.Kernels.Grid()
	d := Dims{Modes: 3, Sample: 1, TomoClust: 1, TomoLens: 2}
	obs := Observables{Shear: true}
	survey := SurveyParams{AreaLens: 250}

	flat := d.FlatLen(MMMM)
	sva := constantEllTensor(t, len(grid), flat, 0)
	mix := constantEllTensor(t, len(grid), flat, 0)
	for i := 0; i < len(grid); i++ {
		for j := 0; j < len(grid); j++ {
			for q := 0; q < flat; q++ {
				sva.Set(i, j, q, float64(q+1))
				mix.Set(i, j, q, 0.1*float64(q+1))
			}
		}
	}
	in := GaussianInput{
		SVA: map[Combination]*tensor.EllTensor{MMMM: sva},
		Mix: map[Combination]*tensor.EllTensor{MMMM: mix},
	}
	out, err := a.Gaussian(obs, d, survey, in, nil)
	require.NoError(t, err)

	for _, tn := range []*tensor.Tensor8{out.SVA[MMMM], out.Mix[MMMM]} {
		for m := 0; m < d.Modes; m++ {
			for n := m + 1; n < d.Modes; n++ {
				require.Equal(t, tn.Block(m, n), tn.Block(n, m))
			}
		}
		assert.NotZero(t, tn.At(0, 1, 0, 0, 0, 0, 0, 0))
	}
}

func TestGaussianMissingSVA(t *testing.T) {
	a := testAssembler(t, 2)
	d := Dims{Modes: 2, Sample: 1, TomoClust: 1, TomoLens: 1}
	survey := SurveyParams{AreaLens: 100}

	_, err := a.Gaussian(Observables{Shear: true}, d, survey, GaussianInput{}, nil)
	require.ErrorIs(t, err, ErrMissingInput)

	in := GaussianInput{
		SVA: map[Combination]*tensor.EllTensor{
			MMMM: constantEllTensor(t, 10, 1, 1),
		},
	}
	_, err = a.Gaussian(Observables{Shear: true}, d, survey, in, nil)
	require.ErrorIs(t, err, tensor.ErrShape)
}

func TestGaussianCombined(t *testing.T) {
	d := Dims{Modes: 2, Sample: 1, TomoClust: 1, TomoLens: 1}
	r := &GaussianResult{
		SVA:       make(map[Combination]*tensor.Tensor8),
		Mix:       make(map[Combination]*tensor.Tensor8),
		ShotNoise: make(map[Combination]*tensor.Tensor8),
	}
	for _, c := range Combinations {
		r.SVA[c] = d.Zero8(c)
		r.Mix[c] = d.Zero8(c)
		r.ShotNoise[c] = d.Zero8(c)
	}
	r.SVA[MMMM].Set(0, 1, 0, 0, 0, 0, 0, 0, 1)
	r.Mix[MMMM].Set(0, 1, 0, 0, 0, 0, 0, 0, 2)
	r.ShotNoise[MMMM].Set(0, 1, 0, 0, 0, 0, 0, 0, 4)

	total := r.Combined()
	assert.Equal(t, 7.0, total[MMMM].At(0, 1, 0, 0, 0, 0, 0, 0))
	assert.Zero(t, total[MMMM].At(1, 0, 0, 0, 0, 0, 0, 0))
	assert.Zero(t, total[GGGG].At(0, 1, 0, 0, 0, 0, 0, 0))
}
