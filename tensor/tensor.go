// Package tensor provides the dense covariance tensors exchanged with
// the angular power-spectrum stage: the rank-8 mode-space output tensor
// and the (l, l', flat) input tensor it is projected from.
package tensor

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var ErrShape = errors.New("tensor shape does not match the supplied data")

// Tensor8 is a mode-space covariance tensor with axes
// (mode m, mode n, sample a, sample b, tomo i, tomo j, tomo k, tomo l).
// Only the m <= n half is computed by the assemblers; MirrorBlock fills
// the lower triangle.
type Tensor8 struct {
	modes  int
	sample int
	tomo   [4]int
	flat   int
	data   []float64
}

func NewTensor8(modes, sample int, tomo [4]int) *Tensor8 {
	flat := sample * sample * tomo[0] * tomo[1] * tomo[2] * tomo[3]
	return &Tensor8{
		modes:  modes,
		sample: sample,
		tomo:   tomo,
		flat:   flat,
		data:   make([]float64, modes*modes*flat),
	}
}

func (t *Tensor8) Modes() int      { return t.modes }
func (t *Tensor8) Sample() int     { return t.sample }
func (t *Tensor8) Tomo() [4]int    { return t.tomo }
func (t *Tensor8) FlatLen() int    { return t.flat }
func (t *Tensor8) Data() []float64 { return t.data }

func (t *Tensor8) flatIndex(a, b, i, j, k, l int) int {
	idx := a
	idx = idx*t.sample + b
	idx = idx*t.tomo[0] + i
	idx = idx*t.tomo[1] + j
	idx = idx*t.tomo[2] + k
	return idx*t.tomo[3] + l
}

func (t *Tensor8) At(m, n, a, b, i, j, k, l int) float64 {
	return t.data[(m*t.modes+n)*t.flat+t.flatIndex(a, b, i, j, k, l)]
}

func (t *Tensor8) Set(m, n, a, b, i, j, k, l int, v float64) {
	t.data[(m*t.modes+n)*t.flat+t.flatIndex(a, b, i, j, k, l)] = v
}

// Block returns the flattened trailing axes at mode pair (m, n). The
// returned slice aliases the tensor.
func (t *Tensor8) Block(m, n int) []float64 {
	off := (m*t.modes + n) * t.flat
	return t.data[off : off+t.flat]
}

// SetBlock writes flat scaled by scale into the (m, n) block.
func (t *Tensor8) SetBlock(m, n int, flat []float64, scale float64) error {
	if len(flat) != t.flat {
		return fmt.Errorf("%w: block has %d entries, want %d", ErrShape, len(flat), t.flat)
	}
	dst := t.Block(m, n)
	for q, v := range flat {
		dst[q] = scale * v
	}
	return nil
}

// MirrorBlock copies the (m, n) block to (n, m). The underlying
// physical covariance is symmetric under the combined mode and
// tomographic swap, which the diagonally-sliced projection preserves
// block-wise, so a plain copy restores the full tensor from its upper
// triangle.
func (t *Tensor8) MirrorBlock(m, n int) {
	if m == n {
		return
	}
	copy(t.Block(n, m), t.Block(m, n))
}

// Tensor4 holds one projected statistic per mode, with axes
// (mode, sample, tomo i, tomo j). Used for the E-mode estimators.
type Tensor4 struct {
	modes  int
	sample int
	tomo   [2]int
	flat   int
	data   []float64
}

func NewTensor4(modes, sample int, tomo [2]int) *Tensor4 {
	flat := sample * tomo[0] * tomo[1]
	return &Tensor4{
		modes:  modes,
		sample: sample,
		tomo:   tomo,
		flat:   flat,
		data:   make([]float64, modes*flat),
	}
}

func (t *Tensor4) Modes() int      { return t.modes }
func (t *Tensor4) FlatLen() int    { return t.flat }
func (t *Tensor4) Data() []float64 { return t.data }

func (t *Tensor4) At(m, a, i, j int) float64 {
	return t.data[((m*t.sample+a)*t.tomo[0]+i)*t.tomo[1]+j]
}

func (t *Tensor4) SetBlock(m int, flat []float64, scale float64) error {
	if len(flat) != t.flat {
		return fmt.Errorf("%w: block has %d entries, want %d", ErrShape, len(flat), t.flat)
	}
	off := m * t.flat
	for q, v := range flat {
		t.data[off+q] = scale * v
	}
	return nil
}

// EllTensor is an (l, l', flat) covariance tensor supplied by the
// angular power-spectrum stage, with the trailing sample and
// tomographic axes already flattened.
type EllTensor struct {
	nell int
	flat int
	data []float64
}

// NewEllTensor wraps data as an (nell, nell, flat) tensor. A length
// mismatch indicates corrupted upstream data and aborts the run.
func NewEllTensor(nell, flat int, data []float64) (*EllTensor, error) {
	if len(data) != nell*nell*flat {
		return nil, fmt.Errorf("%w: %d values for shape (%d, %d, %d)",
			ErrShape, len(data), nell, nell, flat)
	}
	return &EllTensor{nell: nell, flat: flat, data: data}, nil
}

func (t *EllTensor) Ells() int { return t.nell }
func (t *EllTensor) Flat() int { return t.flat }

func (t *EllTensor) At(i, j, q int) float64 {
	return t.data[(i*t.nell+j)*t.flat+q]
}

func (t *EllTensor) Set(i, j, q int, v float64) {
	t.data[(i*t.nell+j)*t.flat+q] = v
}

// Diagonal extracts the same-index (l, l) diagonal and broadcasts the
// l measure onto it: row i of the result is T[i, i, :]*ells[i]. The
// Gaussian projection integrates this diagonal slice, never the full
// two-dimensional tensor.
func (t *EllTensor) Diagonal(ells []float64) (*mat.Dense, error) {
	if len(ells) != t.nell {
		return nil, fmt.Errorf("%w: %d grid points for %d ell bins", ErrShape, len(ells), t.nell)
	}
	out := mat.NewDense(t.nell, t.flat, nil)
	for i := 0; i < t.nell; i++ {
		row := t.data[(i*t.nell+i)*t.flat : (i*t.nell+i+1)*t.flat]
		dst := out.RawRowView(i)
		for q, v := range row {
			dst[q] = ells[i] * v
		}
	}
	return out, nil
}

// OuterSlice fixes the second multipole axis at index j and broadcasts
// the l measure onto the first: row i of the result is T[i, j, :]*ells[i].
// This is the inner integrand of the nested non-separable projection.
func (t *EllTensor) OuterSlice(j int, ells []float64) (*mat.Dense, error) {
	if len(ells) != t.nell {
		return nil, fmt.Errorf("%w: %d grid points for %d ell bins", ErrShape, len(ells), t.nell)
	}
	out := mat.NewDense(t.nell, t.flat, nil)
	for i := 0; i < t.nell; i++ {
		row := t.data[(i*t.nell+j)*t.flat : (i*t.nell+j+1)*t.flat]
		dst := out.RawRowView(i)
		for q, v := range row {
			dst[q] = ells[i] * v
		}
	}
	return out, nil
}

// ScaleRows returns a copy of m with row i multiplied by ells[i], the
// l measure of the outer projection stage.
func ScaleRows(m *mat.Dense, ells []float64) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		src := m.RawRowView(i)
		dst := out.RawRowView(i)
		for q := 0; q < cols; q++ {
			dst[q] = ells[i] * src[q]
		}
	}
	return out
}
