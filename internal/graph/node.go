package graph

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/mzwiesler/gradient/internal/tensor"
)

// Node is one vertex of the computation DAG: either a leaf value
// (backed by a Parameter) or an operation applied to earlier nodes.
//
// A node caches the result of its last forward evaluation together
// with the parent values that produced it; the backward rule consumes
// both. The caches are populated by Forward and cleared by ZeroGrad,
// and are either both set or both empty.
//
// Construction is append-only: an operation node can only reference
// nodes that already exist, which rules out cycles structurally.
type Node struct {
	label     string
	op        Op
	parents   []*Node
	param     *Parameter
	trainable bool

	out    *mat.Dense   // forward cache
	inputs []*mat.Dense // parent outputs consumed by the last Forward
}

// newOpNode creates an operation node over already-constructed parents.
// The trainable flag is the OR of the ancestry, so backward passes can
// skip whole subtrees that contain no trainable parameter.
func newOpNode(label string, op Op, parents ...*Node) *Node {
	trainable := false
	for _, p := range parents {
		trainable = trainable || p.trainable
	}
	return &Node{label: label, op: op, parents: parents, trainable: trainable}
}

// Label returns the node's display label.
func (n *Node) Label() string { return n.label }

// Parents returns the node's operands in order: empty for leaves, one
// for unary operations, two for binary operations.
func (n *Node) Parents() []*Node { return n.parents }

// Param returns the backing parameter for leaf nodes, nil otherwise.
func (n *Node) Param() *Parameter { return n.param }

// Output returns the cached forward result, or nil if the node has not
// been evaluated since the last ZeroGrad.
func (n *Node) Output() *mat.Dense { return n.out }

// Forward evaluates the subgraph rooted at n and returns its value.
//
// Parents are evaluated recursively in left-to-right order, with
// memoization: a node whose cache is already populated returns it
// without recomputation, which keeps DAGs with fan-out linear instead
// of exponential. A leaf's forward value is its parameter's data.
func (n *Node) Forward() (*mat.Dense, error) {
	if n.out != nil {
		return n.out, nil
	}

	if n.param != nil {
		n.inputs = []*mat.Dense{}
		n.out = n.param.data
		return n.out, nil
	}

	inputs := make([]*mat.Dense, len(n.parents))
	for i, p := range n.parents {
		out, err := p.Forward()
		if err != nil {
			return nil, err
		}
		inputs[i] = out
	}

	out, err := n.op.Forward(inputs)
	if err != nil {
		return nil, fmt.Errorf("graph: forward of %q: %w", n.label, err)
	}
	n.inputs = inputs
	n.out = out
	return out, nil
}

// ZeroGrad clears the forward and input caches across the whole
// reachable subgraph and resets every reachable trainable parameter's
// gradient buffer to zeros in place.
//
// It must be called before each new forward/backward cycle; skipping it
// makes gradients from successive steps sum together.
func (n *Node) ZeroGrad() {
	n.zeroGrad(make(map[*Node]bool))
}

func (n *Node) zeroGrad(seen map[*Node]bool) {
	if seen[n] {
		return
	}
	seen[n] = true

	n.out = nil
	n.inputs = nil
	if n.param != nil {
		n.param.zeroGrad()
		return
	}
	for _, p := range n.parents {
		p.zeroGrad(seen)
	}
}

// Backward propagates a seed gradient backward from this node,
// accumulating into every reachable trainable parameter's gradient
// buffer. The seed is the gradient of the loss with respect to this
// node's output, shape-matched to it, and is computed externally (see
// nn.NLLGradient).
//
// Forward must have been called since the last ZeroGrad, so the cached
// inputs each backward rule needs are present; otherwise an error is
// returned. Subtrees with no trainable parameter are skipped entirely.
//
// Fan-out note: a node consumed by several downstream operations has
// its backward rule invoked once per consumer path. Each rule is a
// Jacobian-vector product, linear in the incoming gradient, so the
// per-path contributions sum correctly at the parameters; the cost
// grows with the number of paths, not the number of nodes.
func (n *Node) Backward(seed *mat.Dense) error {
	return n.backward(seed, false)
}

// BackwardChecked is Backward with a finite-value check at every
// accumulation: a NaN or Inf gradient (typically a loss seed dividing
// by an underflowed probability) is reported instead of silently
// propagating into the parameters.
func (n *Node) BackwardChecked(seed *mat.Dense) error {
	return n.backward(seed, true)
}

func (n *Node) backward(grad *mat.Dense, checkFinite bool) error {
	if n.out == nil {
		return fmt.Errorf("graph: backward of %q before forward (caches are empty)", n.label)
	}

	if n.param != nil {
		if !n.param.requiresGrad {
			return nil
		}
		return n.param.accumulate(grad, checkFinite)
	}

	if !tensor.SameShape(grad, n.out) {
		return fmt.Errorf("graph: backward of %q: gradient shape %s does not match output shape %s",
			n.label, tensor.FormatShape(grad), tensor.FormatShape(n.out))
	}

	parentGrads, err := n.op.Backward(grad, n.inputs, n.out)
	if err != nil {
		return fmt.Errorf("graph: backward of %q: %w", n.label, err)
	}

	for i, p := range n.parents {
		if !p.trainable {
			continue
		}
		if err := p.backward(parentGrads[i], checkFinite); err != nil {
			return err
		}
	}
	return nil
}

// Nodes enumerates the reachable subgraph in depth-first parent order,
// starting at n. This is the view handed to rendering collaborators:
// each node exposes its label and parent list.
func (n *Node) Nodes() []*Node {
	var order []*Node
	seen := make(map[*Node]bool)
	var walk func(*Node)
	walk = func(cur *Node) {
		if seen[cur] {
			return
		}
		seen[cur] = true
		order = append(order, cur)
		for _, p := range cur.parents {
			walk(p)
		}
	}
	walk(n)
	return order
}

// Parameters collects the distinct trainable parameters reachable from
// n, in depth-first parent order.
func (n *Node) Parameters() []*Parameter {
	var params []*Parameter
	for _, node := range n.Nodes() {
		if node.param != nil && node.param.requiresGrad {
			params = append(params, node.param)
		}
	}
	return params
}
