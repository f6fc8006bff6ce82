package graph

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/mzwiesler/gradient/internal/tensor"
)

// addOp is elementwise addition z = x + b.
//
// b may be a 1×n row vector, broadcast over every row of x (the bias
// case). Backward pass: both operands receive the incoming gradient
// unchanged; when b was broadcast, its gradient is the column sum of
// the incoming gradient so it stays shape-matched to b.
type addOp struct{}

// Add creates a node computing x + b. b must match x's shape or be a
// broadcastable 1×n row.
func Add(label string, x, b *Node) *Node {
	return newOpNode(label, addOp{}, x, b)
}

func (addOp) Name() string { return "add" }

func (addOp) Forward(inputs []*mat.Dense) (*mat.Dense, error) {
	return tensor.AddBroadcast(inputs[0], inputs[1])
}

func (addOp) Backward(grad *mat.Dense, inputs []*mat.Dense, _ *mat.Dense) ([]*mat.Dense, error) {
	x, b := inputs[0], inputs[1]
	if !tensor.SameShape(grad, x) {
		return nil, fmt.Errorf("add: gradient shape %s does not match output shape %s",
			tensor.FormatShape(grad), tensor.FormatShape(x))
	}

	if tensor.SameShape(x, b) {
		return []*mat.Dense{grad, grad}, nil
	}
	return []*mat.Dense{grad, tensor.SumRows(grad)}, nil
}
