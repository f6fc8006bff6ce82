// Package nn builds the two-layer feed-forward classifier on top of
// the graph engine and provides the negative-log-likelihood loss
// contract that seeds its backward pass.
package nn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/mzwiesler/gradient/internal/graph"
)

// Config describes the classifier dimensions.
type Config struct {
	Inputs  int   // feature columns
	Hidden  int   // hidden layer width
	Classes int   // output classes
	Seed    int64 // weight initialization seed
}

// Network is a two-layer feed-forward classifier:
//
//	P = Softmax(ReLU(X@W1 + b1) @ W2 + b2)
//
// The parameters persist across training steps; the computation graph
// is rebuilt per batch by Apply, which is what makes the engine a
// single-pass evaluator with no in-graph control flow.
type Network struct {
	W1 *graph.Parameter // Inputs×Hidden
	B1 *graph.Parameter // 1×Hidden
	W2 *graph.Parameter // Hidden×Classes
	B2 *graph.Parameter // 1×Classes
}

// New creates a network with Xavier-initialized weights and zero biases.
func New(cfg Config) (*Network, error) {
	if cfg.Inputs <= 0 || cfg.Hidden <= 0 || cfg.Classes <= 0 {
		return nil, fmt.Errorf("nn: invalid network config %d-%d-%d (all sizes must be > 0)",
			cfg.Inputs, cfg.Hidden, cfg.Classes)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	return &Network{
		W1: graph.NewParameter("W1", Xavier(rng, cfg.Inputs, cfg.Hidden, cfg.Inputs, cfg.Hidden)),
		B1: graph.NewParameter("b1", mat.NewDense(1, cfg.Hidden, nil)),
		W2: graph.NewParameter("W2", Xavier(rng, cfg.Hidden, cfg.Classes, cfg.Hidden, cfg.Classes)),
		B2: graph.NewParameter("b2", mat.NewDense(1, cfg.Classes, nil)),
	}, nil
}

// Parameters returns the trainable parameters in layer order.
func (n *Network) Parameters() []*graph.Parameter {
	return []*graph.Parameter{n.W1, n.B1, n.W2, n.B2}
}

// Apply constructs the labeled computation graph for one feature batch
// and returns its softmax output node. The graph is fresh; the weight
// and bias leaves are the persistent parameters.
func (n *Network) Apply(x *graph.Parameter) *graph.Node {
	z1 := graph.Add("Z1", graph.MatMul("XW1", x.Node(), n.W1.Node()), n.B1.Node())
	a1 := graph.ReLU("A1", z1)
	z2 := graph.Add("Z2", graph.MatMul("A1W2", a1, n.W2.Node()), n.B2.Node())
	return graph.Softmax("P", z2)
}

// StepResult reports one forward/backward cycle.
type StepResult struct {
	Loss   float64     // mean NLL over the batch
	Probs  *mat.Dense  // softmax output, rows sum to 1
	Output *graph.Node // the cycle's output node, for chain/render views
}

// Step runs one full training cycle for a batch: builds the graph,
// clears gradients and caches, evaluates forward, seeds the backward
// pass with the NLL gradient and propagates it into the parameters.
// The caller applies the optimizer update afterwards.
//
// The backward pass is finite-checked: an underflowed class
// probability surfaces as an error here rather than as NaN weights
// three epochs later.
func (n *Network) Step(features, targets *mat.Dense) (StepResult, error) {
	x := graph.NewInput("X", features)
	out := n.Apply(x)

	out.ZeroGrad()
	probs, err := out.Forward()
	if err != nil {
		return StepResult{}, err
	}

	loss, err := NLLLoss(targets, probs)
	if err != nil {
		return StepResult{}, err
	}

	seed, err := NLLGradient(targets, probs)
	if err != nil {
		return StepResult{}, err
	}
	if err := out.BackwardChecked(seed); err != nil {
		return StepResult{}, err
	}

	return StepResult{Loss: loss, Probs: probs, Output: out}, nil
}

// Predict evaluates the network on a feature batch without touching
// gradients and returns the class probabilities.
func (n *Network) Predict(features *mat.Dense) (*mat.Dense, error) {
	x := graph.NewInput("X", features)
	out := n.Apply(x)
	return out.Forward()
}
