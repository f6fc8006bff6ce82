package graph

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/mzwiesler/gradient/internal/tensor"
)

// Parameter is a leaf of the computation graph that owns a mutable
// value and an accumulated gradient buffer of the same shape.
//
// Trainable parameters (weights, biases) are created with NewParameter;
// graph inputs that participate in the forward pass but never receive
// gradients (feature batches, one-hot labels) are created with NewInput.
//
// The gradient buffer is allocated once, reset in place by ZeroGrad and
// summed into during backward passes. It is never replaced, so a
// Parameter feeding several operations in the same graph receives the
// sum of every incoming contribution.
type Parameter struct {
	name         string
	data         *mat.Dense
	grad         *mat.Dense
	requiresGrad bool
	node         *Node
}

// NewParameter creates a trainable parameter. The name doubles as the
// graph label of the parameter's leaf node.
func NewParameter(name string, data *mat.Dense) *Parameter {
	return newParameter(name, data, true)
}

// NewInput creates a non-trainable leaf value. Backward propagation
// stops at it without accumulating a gradient.
func NewInput(name string, data *mat.Dense) *Parameter {
	return newParameter(name, data, false)
}

func newParameter(name string, data *mat.Dense, requiresGrad bool) *Parameter {
	p := &Parameter{
		name:         name,
		data:         data,
		grad:         tensor.ZerosLike(data),
		requiresGrad: requiresGrad,
	}
	p.node = &Node{label: name, param: p, trainable: requiresGrad}
	return p
}

// Name returns the parameter's description, used as its graph label.
func (p *Parameter) Name() string { return p.name }

// Data returns the owned value. The optimizer mutates it in place.
func (p *Parameter) Data() *mat.Dense { return p.data }

// Grad returns the accumulated gradient buffer. It is mutated only by
// Backward (summation) and ZeroGrad (reset); callers must not replace it.
func (p *Parameter) Grad() *mat.Dense { return p.grad }

// RequiresGrad reports whether backward passes track this parameter.
func (p *Parameter) RequiresGrad() bool { return p.requiresGrad }

// Node returns the parameter's leaf node. Every call returns the same
// node, so reusing a parameter in several operations fans out through
// one vertex of the DAG.
func (p *Parameter) Node() *Node { return p.node }

// SetData replaces the owned value. The gradient buffer is reallocated
// if the shape changed. Used by callers that feed fresh batches through
// a persistent input parameter.
func (p *Parameter) SetData(data *mat.Dense) {
	p.data = data
	if !tensor.SameShape(p.grad, data) {
		p.grad = tensor.ZerosLike(data)
	}
	p.node.out = nil
	p.node.inputs = nil
}

// zeroGrad resets the gradient buffer in place.
func (p *Parameter) zeroGrad() {
	p.grad.Zero()
}

// accumulate sums an incoming gradient contribution into the buffer.
func (p *Parameter) accumulate(grad *mat.Dense, checkFinite bool) error {
	if !tensor.SameShape(grad, p.grad) {
		return fmt.Errorf("graph: gradient shape %s does not match parameter %q shape %s",
			tensor.FormatShape(grad), p.name, tensor.FormatShape(p.grad))
	}
	if checkFinite && !tensor.AllFinite(grad) {
		return fmt.Errorf("graph: non-finite gradient reached parameter %q", p.name)
	}
	p.grad.Add(p.grad, grad)
	return nil
}
