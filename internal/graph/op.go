// Package graph implements the reverse-mode automatic differentiation
// engine: a computation DAG of Nodes built by applying operations to
// Parameters and prior Nodes.
//
// A forward pass evaluates the DAG once with memoization; a seed
// gradient injected at the output node then propagates backward through
// the chain rule, accumulating into each trainable Parameter's gradient
// buffer. The engine is single-threaded and built fresh for each
// forward/backward cycle; ZeroGrad must run between cycles.
//
// Usage:
//
//	w := graph.NewParameter("W", weights)
//	x := graph.NewInput("X", features)
//	out := graph.Softmax("P", graph.MatMul("Z", x.Node(), w.Node()))
//
//	probs, err := out.Forward()
//	// seed = dLoss/dP, computed externally
//	err = out.Backward(seed)
//	// w.Grad() now holds dLoss/dW
package graph

import "gonum.org/v1/gonum/mat"

// Op is one variant of the closed operation set. An Op carries no
// state: the Node owns the cached forward inputs and output, and hands
// them back for the backward rule.
type Op interface {
	// Name identifies the operation kind in error messages.
	Name() string

	// Forward computes the operation result from its parent values,
	// in parent order. Shape mismatches are reported as errors.
	Forward(inputs []*mat.Dense) (*mat.Dense, error)

	// Backward computes the local Jacobian-vector product: one
	// gradient per input, shape-matched to that input, given the
	// gradient of the loss with respect to the operation's output.
	// inputs and output are the values cached by the last Forward.
	Backward(grad *mat.Dense, inputs []*mat.Dense, output *mat.Dense) ([]*mat.Dense, error)
}
