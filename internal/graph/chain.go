package graph

import (
	"fmt"
	"strings"
)

// Factor is one labeled partial derivative in a chain-rule product:
// d(Numerator)/d(Denominator).
type Factor struct {
	Numerator   string
	Denominator string
}

// String renders the factor as "d(num)/d(den)".
func (f Factor) String() string {
	return fmt.Sprintf("d(%s)/d(%s)", f.Numerator, f.Denominator)
}

// Chain reconstructs the ordered chain-rule factors connecting the
// output node to the target parameter: the labels of consecutive nodes
// along a path from output down to the target's leaf.
//
// When the parameter is reachable through more than one path, the
// first path discovered in parent order is used, matching the order
// Backward visits parents. Chain performs no numeric computation; it
// is label bookkeeping for display and explanation.
func Chain(output *Node, target *Parameter) ([]Factor, error) {
	path := findPath(output, target.Node(), make(map[*Node]bool))
	if path == nil {
		return nil, fmt.Errorf("graph: parameter %q is not reachable from node %q", target.Name(), output.Label())
	}

	factors := make([]Factor, 0, len(path)-1)
	for i := 0; i+1 < len(path); i++ {
		factors = append(factors, Factor{
			Numerator:   path[i].label,
			Denominator: path[i+1].label,
		})
	}
	return factors, nil
}

// findPath returns the first depth-first path from n to target in
// parent order, or nil if target is unreachable.
func findPath(n, target *Node, seen map[*Node]bool) []*Node {
	if n == target {
		return []*Node{n}
	}
	if seen[n] {
		return nil
	}
	seen[n] = true

	for _, p := range n.parents {
		if sub := findPath(p, target, seen); sub != nil {
			return append([]*Node{n}, sub...)
		}
	}
	return nil
}

// FormatChain renders factors as a chain-rule product, for example
//
//	d(P)/d(Z2) * d(Z2)/d(A1) * d(A1)/d(W1)
func FormatChain(factors []Factor) string {
	parts := make([]string, len(factors))
	for i, f := range factors {
		parts[i] = f.String()
	}
	return strings.Join(parts, " * ")
}
