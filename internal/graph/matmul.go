package graph

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/mzwiesler/gradient/internal/tensor"
)

// matMulOp is the matrix product z = x @ w.
//
// Backward pass:
//   - dz/dx = grad @ w^T
//   - dz/dw = x^T @ grad
type matMulOp struct{}

// MatMul creates a node computing x @ w.
func MatMul(label string, x, w *Node) *Node {
	return newOpNode(label, matMulOp{}, x, w)
}

func (matMulOp) Name() string { return "matmul" }

func (matMulOp) Forward(inputs []*mat.Dense) (*mat.Dense, error) {
	return tensor.MatMul(inputs[0], inputs[1])
}

func (matMulOp) Backward(grad *mat.Dense, inputs []*mat.Dense, _ *mat.Dense) ([]*mat.Dense, error) {
	x, w := inputs[0], inputs[1]
	xr, _ := x.Dims()
	_, wc := w.Dims()
	gr, gc := grad.Dims()
	if gr != xr || gc != wc {
		return nil, fmt.Errorf("matmul: gradient shape %dx%d does not match output shape %dx%d", gr, gc, xr, wc)
	}

	var gradX, gradW mat.Dense
	gradX.Mul(grad, w.T())
	gradW.Mul(x.T(), grad)
	return []*mat.Dense{&gradX, &gradW}, nil
}
