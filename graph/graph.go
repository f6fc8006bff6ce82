// Package graph exposes the reverse-mode automatic differentiation
// engine: a computation DAG recorded as operations are applied, with
// memoized forward evaluation, chain-rule backward propagation that
// accumulates into parameter gradients, and a recorder that
// reconstructs the symbolic chain-rule expression for any parameter.
//
// Example:
//
//	w := graph.NewParameter("W", weights)          // trainable leaf
//	x := graph.NewInput("X", features)             // non-trainable leaf
//	out := graph.Softmax("P", graph.MatMul("Z", x.Node(), w.Node()))
//
//	probs, err := out.Forward()                    // memoized evaluation
//	err = out.Backward(seed)                       // seed = dLoss/dP
//	update(w.Data(), w.Grad())                     // optimizer's business
//
// The engine is single-threaded and single-pass: call ZeroGrad on the
// output node before each new forward/backward cycle.
package graph

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mzwiesler/gradient/internal/graph"
)

// Node is a vertex of the computation DAG: a leaf value or an
// operation with cached forward state.
type Node = graph.Node

// Parameter is a leaf owning mutable data and an accumulated gradient.
type Parameter = graph.Parameter

// Op is one variant of the closed operation set.
type Op = graph.Op

// Factor is one labeled partial derivative of a chain-rule product.
type Factor = graph.Factor

// NewParameter creates a trainable leaf parameter.
func NewParameter(name string, data *mat.Dense) *Parameter {
	return graph.NewParameter(name, data)
}

// NewInput creates a non-trainable leaf value (features, labels).
func NewInput(name string, data *mat.Dense) *Parameter {
	return graph.NewInput(name, data)
}

// MatMul creates a node computing x @ w.
func MatMul(label string, x, w *Node) *Node {
	return graph.MatMul(label, x, w)
}

// Add creates a node computing x + b, broadcasting a 1×n row b.
func Add(label string, x, b *Node) *Node {
	return graph.Add(label, x, b)
}

// ReLU creates a node computing max(0, x) elementwise.
func ReLU(label string, x *Node) *Node {
	return graph.ReLU(label, x)
}

// Softmax creates a node applying row-wise softmax.
func Softmax(label string, x *Node) *Node {
	return graph.Softmax(label, x)
}

// Chain reconstructs the ordered chain-rule factors from the output
// node down to the target parameter.
func Chain(output *Node, target *Parameter) ([]Factor, error) {
	return graph.Chain(output, target)
}

// FormatChain renders chain factors as a chain-rule product.
func FormatChain(factors []Factor) string {
	return graph.FormatChain(factors)
}
