package cov

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BStoelzner/OneCovariance/kernel"
	"github.com/BStoelzner/OneCovariance/tensor"
	"github.com/BStoelzner/OneCovariance/utils"
)

// Test fixture: cos((n+1)*l) mode kernels on [0, 1.5 pi]. Each mode
// has only a handful of interior minima, so every mode decomposes into
// a single well and the quadrature stays cheap.
func testKernels(t *testing.T, modes, samples int) *kernel.ModeSet {
	t.Helper()
	grid := utils.Linspace(0, 1.5*math.Pi, samples)
	values := make([][]float64, modes)
	for n := range values {
		values[n] = make([]float64, samples)
		for i, x := range grid {
			values[n][i] = math.Cos(float64(n+1) * x)
		}
	}
	ks, err := kernel.NewModeSet(grid, values)
	require.NoError(t, err)
	return ks
}

func testAssembler(t *testing.T, modes int) *Assembler {
	t.Helper()
	return NewAssembler(testKernels(t, modes, 201), 1e-6, zap.NewNop())
}

// trapz is the plain trapezoidal reference used to cross-check the
// oscillatory quadrature on the shared grid.
func trapz(x []float64, f func(float64) float64) float64 {
	var sum float64
	for i := 1; i < len(x); i++ {
		sum += 0.5 * (x[i] - x[i-1]) * (f(x[i]) + f(x[i-1]))
	}
	return sum
}

// constantEllTensor builds an (nell, nell, flat) tensor with every
// entry equal to v.
func constantEllTensor(t *testing.T, nell, flat int, v float64) *tensor.EllTensor {
	t.Helper()
	data := make([]float64, nell*nell*flat)
	for i := range data {
		data[i] = v
	}
	et, err := tensor.NewEllTensor(nell, flat, data)
	require.NoError(t, err)
	return et
}

// assertAllZero checks a mode-space tensor of the declared shape is
// entirely zero.
func assertAllZero(t *testing.T, tn *tensor.Tensor8, d Dims, c Combination) {
	t.Helper()
	require.Equal(t, d.Modes, tn.Modes())
	require.Equal(t, d.TomoShape(c), tn.Tomo())
	require.Equal(t, d.FlatLen(c), tn.FlatLen())
	for _, v := range tn.Data() {
		require.Zero(t, v)
	}
}
