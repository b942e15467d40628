package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BStoelzner/OneCovariance/utils"
)

func linearTables(theta []float64, modes int) (plus, minus [][]float64) {
	plus = make([][]float64, modes)
	minus = make([][]float64, modes)
	for n := 0; n < modes; n++ {
		plus[n] = make([]float64, len(theta))
		minus[n] = make([]float64, len(theta))
		for i, x := range theta {
			plus[n][i] = float64(n+1) * x
			minus[n][i] = float64(n+1) * x / 2
		}
	}
	return plus, minus
}

func TestCorrelationKernelsCoverage(t *testing.T) {
	theta := utils.Geomspace(1, 100, 50)
	plus, minus := linearTables(theta, 2)

	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	// Tabulation covers the requested range, no warning.
	_, err := NewCorrelationKernels(theta, plus, minus, 2, 50, log)
	require.NoError(t, err)
	assert.Zero(t, logs.Len())

	// Requested range exceeds the tabulation on both sides: warn once
	// and proceed.
	k, err := NewCorrelationKernels(theta, plus, minus, 0.5, 200, log)
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "extrapolating")
	assert.Equal(t, 2, k.Modes())
}

func TestCorrelationKernelsValidation(t *testing.T) {
	theta := utils.Geomspace(1, 100, 50)
	plus, minus := linearTables(theta, 2)
	log := zap.NewNop()

	_, err := NewCorrelationKernels(nil, plus, minus, 1, 100, log)
	assert.ErrorIs(t, err, ErrMissingTable)

	_, err = NewCorrelationKernels(theta, plus, minus[:1], 1, 100, log)
	assert.Error(t, err)

	bad := append([]float64{5}, theta[1:]...)
	_, err = NewCorrelationKernels(bad, plus, minus, 1, 100, log)
	assert.ErrorIs(t, err, ErrBadGrid)
}

func TestPairProduct(t *testing.T) {
	theta := utils.Linspace(1, 10, 100)
	plus, minus := linearTables(theta, 2)
	k, err := NewCorrelationKernels(theta, plus, minus, 1, 10, zap.NewNop())
	require.NoError(t, err)

	at := []float64{1.5, 4, 9.5}
	// Tm_p*Tn_p + Tm_m*Tn_m with Tn_p = (n+1)x and Tn_m = (n+1)x/2.
	got := k.PairProduct(0, 1, at)
	for i, x := range at {
		want := 2*x*x + 0.5*x*x
		assert.InDelta(t, want, got[i], 1e-8*want)
	}

	// Symmetric under mode swap.
	assert.Equal(t, got, k.PairProduct(1, 0, at))
}

func TestPairProductExtrapolates(t *testing.T) {
	theta := utils.Linspace(1, 10, 100)
	plus, minus := linearTables(theta, 1)
	k, err := NewCorrelationKernels(theta, plus, minus, 0.5, 20, zap.NewNop())
	require.NoError(t, err)

	// Linear tables extrapolate exactly.
	got := k.PairProduct(0, 0, []float64{0.5, 15})
	assert.InDelta(t, 0.25+0.25/4, got[0], 1e-9)
	assert.InDelta(t, 225+225.0/4, got[1], 1e-6)
}
