package graph

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/mzwiesler/gradient/internal/tensor"
)

// softmaxOp normalizes each row into a probability distribution:
//
//	softmax(x)_j = exp(x_j - max(x)) / Σ_k exp(x_k - max(x))
//
// The max shift keeps exp from overflowing; the result is unchanged.
//
// Backward pass applies the per-row Jacobian
//
//	∂s_k/∂x_j = s_k * (δ_kj - s_j)
//
// to the incoming row gradient. This is O(batch · classes²) and is the
// asymptotic bottleneck of the engine when the class count grows.
type softmaxOp struct{}

// Softmax creates a node applying row-wise softmax.
func Softmax(label string, x *Node) *Node {
	return newOpNode(label, softmaxOp{}, x)
}

func (softmaxOp) Name() string { return "softmax" }

func (softmaxOp) Forward(inputs []*mat.Dense) (*mat.Dense, error) {
	x := inputs[0]
	r, c := x.Dims()
	out := mat.NewDense(r, c, nil)

	for i := 0; i < r; i++ {
		xRow := x.RawRowView(i)
		outRow := out.RawRowView(i)

		maxVal := xRow[0]
		for _, v := range xRow[1:] {
			if v > maxVal {
				maxVal = v
			}
		}

		sum := 0.0
		for j, v := range xRow {
			outRow[j] = math.Exp(v - maxVal)
			sum += outRow[j]
		}
		for j := range outRow {
			outRow[j] /= sum
		}
	}
	return out, nil
}

func (softmaxOp) Backward(grad *mat.Dense, _ []*mat.Dense, output *mat.Dense) ([]*mat.Dense, error) {
	if !tensor.SameShape(grad, output) {
		return nil, fmt.Errorf("softmax: gradient shape %s does not match output shape %s",
			tensor.FormatShape(grad), tensor.FormatShape(output))
	}

	r, c := output.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		s := output.RawRowView(i)
		gradRow := grad.RawRowView(i)
		outRow := out.RawRowView(i)

		// Row Jacobian applied to the row gradient:
		// out[k] = Σ_j grad[j] * s[k] * (δ_kj - s[j])
		for k := 0; k < c; k++ {
			acc := 0.0
			for j := 0; j < c; j++ {
				if j == k {
					acc += gradRow[j] * s[k] * (1 - s[j])
				} else {
					acc -= gradRow[j] * s[k] * s[j]
				}
			}
			outRow[k] = acc
		}
	}
	return []*mat.Dense{out}, nil
}
