package utils

import (
	"math"
	"sort"
)

// Geometrically spaced grid from lo to hi, inclusive.
func Geomspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := math.Log(hi/lo) / float64(n-1)
	for i := range out {
		out[i] = lo * math.Exp(float64(i)*step)
	}
	out[n-1] = hi
	return out
}

// Linearly spaced grid from lo to hi, inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// Indices of strict interior local minima of ys.
func LocalMinima(ys []float64) []int {
	var idx []int
	for i := 1; i < len(ys)-1; i++ {
		if ys[i] < ys[i-1] && ys[i] < ys[i+1] {
			idx = append(idx, i)
		}
	}
	return idx
}

// Linear interpolation of (xs, ys) at x, clamped to the endpoints.
// xs must be sorted in increasing order.
func Interp(x float64, xs, ys []float64) float64 {
	i, w := Bracket(x, xs)
	return (1-w)*ys[i] + w*ys[i+1]
}

// Bracket returns the index i such that xs[i] <= x <= xs[i+1] and the
// linear weight of x within that cell, clamped to the grid.
func Bracket(x float64, xs []float64) (int, float64) {
	if x <= xs[0] {
		return 0, 0.0
	}
	if x >= xs[len(xs)-1] {
		return len(xs) - 2, 1.0
	}
	nxt := sort.SearchFloat64s(xs, x)
	if xs[nxt] == x {
		if nxt == len(xs)-1 {
			return nxt - 1, 1.0
		}
		return nxt, 0.0
	}
	w := (x - xs[nxt-1]) / (xs[nxt] - xs[nxt-1])
	return nxt - 1, w
}

// StrictlyIncreasing reports whether xs is sorted in strictly
// increasing order.
func StrictlyIncreasing(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return false
		}
	}
	return true
}

// AllFinite reports whether every element of xs is finite.
func AllFinite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
