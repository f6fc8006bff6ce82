package graph

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/mzwiesler/gradient/internal/tensor"
)

// reluOp is the rectified linear unit z = max(0, x).
//
// Backward pass: the incoming gradient is zeroed wherever the cached
// input was strictly negative. An input of exactly zero passes the
// gradient through unchanged; that boundary convention is pinned and
// tested, not incidental.
type reluOp struct{}

// ReLU creates a node computing max(0, x) elementwise.
func ReLU(label string, x *Node) *Node {
	return newOpNode(label, reluOp{}, x)
}

func (reluOp) Name() string { return "relu" }

func (reluOp) Forward(inputs []*mat.Dense) (*mat.Dense, error) {
	x := inputs[0]
	r, c := x.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		xRow := x.RawRowView(i)
		outRow := out.RawRowView(i)
		for j, v := range xRow {
			if v > 0 {
				outRow[j] = v
			}
		}
	}
	return out, nil
}

func (reluOp) Backward(grad *mat.Dense, inputs []*mat.Dense, _ *mat.Dense) ([]*mat.Dense, error) {
	x := inputs[0]
	if !tensor.SameShape(grad, x) {
		return nil, fmt.Errorf("relu: gradient shape %s does not match input shape %s",
			tensor.FormatShape(grad), tensor.FormatShape(x))
	}

	r, c := x.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		xRow := x.RawRowView(i)
		gradRow := grad.RawRowView(i)
		outRow := out.RawRowView(i)
		for j := range xRow {
			if xRow[j] >= 0 {
				outRow[j] = gradRow[j]
			}
		}
	}
	return []*mat.Dense{out}, nil
}
