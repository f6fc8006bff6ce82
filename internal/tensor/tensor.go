// Package tensor provides the dense 2-D tensor layer of the gradient engine.
//
// The heavy lifting (matrix products, element storage) is delegated to
// gonum's mat.Dense; this package adds the shape-validated constructors
// and the descriptive shape errors the engine's fail-fast contract
// requires, plus the small helpers (one-hot encoding, broadcast add,
// finite-value checks) the graph and loss layers are built on.
//
// All tensors are rectangular float64 matrices. There is no view or
// slicing machinery: every operation allocates its result.
package tensor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// New creates an r×c matrix from row-major data.
//
// Returns an error if the dimensions are not positive or data does not
// hold exactly r*c values. A nil data slice allocates a zero matrix.
func New(r, c int, data []float64) (*mat.Dense, error) {
	if r <= 0 || c <= 0 {
		return nil, fmt.Errorf("tensor: invalid shape %dx%d (dimensions must be > 0)", r, c)
	}
	if data != nil && len(data) != r*c {
		return nil, fmt.Errorf("tensor: data length %d does not match shape %dx%d", len(data), r, c)
	}
	return mat.NewDense(r, c, data), nil
}

// Zeros creates an r×c matrix filled with zeros.
// Panics on non-positive dimensions; use New for validated construction.
func Zeros(r, c int) *mat.Dense {
	return mat.NewDense(r, c, nil)
}

// ZerosLike creates a zero matrix with the same shape as m.
func ZerosLike(m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	return mat.NewDense(r, c, nil)
}

// FormatShape renders a matrix shape as "rxc" for error messages.
func FormatShape(m mat.Matrix) string {
	r, c := m.Dims()
	return fmt.Sprintf("%dx%d", r, c)
}

// SameShape reports whether a and b have identical dimensions.
func SameShape(a, b mat.Matrix) bool {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	return ar == br && ac == bc
}

// MatMul computes a @ b with an inner-dimension check.
//
// Returns a descriptive error instead of panicking when the shapes are
// incompatible, so a bad graph fails fast at forward-evaluation time.
func MatMul(a, b *mat.Dense) (*mat.Dense, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ac != br {
		return nil, fmt.Errorf("tensor: matmul shape mismatch %dx%d @ %dx%d", ar, ac, br, bc)
	}
	var out mat.Dense
	out.Mul(a, b)
	return &out, nil
}

// AddBroadcast computes x + b elementwise.
//
// b must either match x's shape exactly or be a 1×n row vector, in
// which case it is broadcast over every row of x. Any other shape
// combination is an error.
func AddBroadcast(x, b *mat.Dense) (*mat.Dense, error) {
	xr, xc := x.Dims()
	br, bc := b.Dims()

	switch {
	case xr == br && xc == bc:
		var out mat.Dense
		out.Add(x, b)
		return &out, nil

	case br == 1 && bc == xc:
		out := mat.NewDense(xr, xc, nil)
		row := b.RawRowView(0)
		for i := 0; i < xr; i++ {
			xRow := x.RawRowView(i)
			outRow := out.RawRowView(i)
			for j := 0; j < xc; j++ {
				outRow[j] = xRow[j] + row[j]
			}
		}
		return out, nil

	default:
		return nil, fmt.Errorf("tensor: add shape mismatch %dx%d + %dx%d (shapes must match, or the addend must be a 1x%d row)", xr, xc, br, bc, xc)
	}
}

// SumRows sums m over its rows, producing a 1×c matrix of column totals.
// This is the reduction that folds a broadcast batch gradient back onto
// a row-vector operand.
func SumRows(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(1, c, nil)
	totals := out.RawRowView(0)
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		for j := 0; j < c; j++ {
			totals[j] += row[j]
		}
	}
	return out
}

// OneHot encodes integer class labels as a len(labels)×classes matrix
// with exactly one 1 per row.
func OneHot(labels []int, classes int) (*mat.Dense, error) {
	if classes <= 0 {
		return nil, fmt.Errorf("tensor: one-hot needs classes > 0, got %d", classes)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("tensor: one-hot needs at least one label")
	}
	out := mat.NewDense(len(labels), classes, nil)
	for i, label := range labels {
		if label < 0 || label >= classes {
			return nil, fmt.Errorf("tensor: label %d at row %d out of range [0, %d)", label, i, classes)
		}
		out.Set(i, label, 1)
	}
	return out, nil
}

// AllFinite reports whether every element of m is finite (no NaN, no Inf).
// Gradient seeds divide by predicted probabilities, so a non-finite
// value here usually means a class probability underflowed to zero.
func AllFinite(m *mat.Dense) bool {
	r, _ := m.Dims()
	for i := 0; i < r; i++ {
		for _, v := range m.RawRowView(i) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
