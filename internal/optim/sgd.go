// Package optim applies parameter updates from accumulated gradients.
//
// The engine's contract with the optimizer is narrow: for every
// trainable parameter it exposes a data tensor and a gradient tensor
// of identical shape, and the optimizer mutates data in place.
package optim

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mzwiesler/gradient/internal/graph"
)

// SGD implements plain stochastic gradient descent:
//
//	param = param - lr * gradient
//
// Example:
//
//	opt := optim.NewSGD(net.Parameters(), optim.SGDConfig{LR: 0.1})
//	for epoch := range epochs {
//	    res, err := net.Step(features, targets)
//	    ...
//	    opt.Step()
//	}
type SGD struct {
	params []*graph.Parameter
	lr     float64
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR float64 // learning rate (default: 0.01)
}

// NewSGD creates an SGD optimizer over the given parameters.
func NewSGD(params []*graph.Parameter, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{params: params, lr: config.LR}
}

// Step applies the update rule to every parameter in place, using the
// gradients accumulated by the latest backward pass. Gradients are not
// cleared here; ZeroGrad on the graph owns that.
func (s *SGD) Step() {
	var scaled mat.Dense
	for _, p := range s.params {
		scaled.Scale(s.lr, p.Grad())
		p.Data().Sub(p.Data(), &scaled)
		scaled.Reset()
	}
}

// LR returns the current learning rate.
func (s *SGD) LR() float64 { return s.lr }

// SetLR updates the learning rate, for external schedules.
func (s *SGD) SetLR(lr float64) { s.lr = lr }
