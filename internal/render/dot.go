// Package render serializes the computation graph's enumerable view
// for external visualization tools. It emits Graphviz DOT text; layout
// and image generation belong to the consumer.
package render

import (
	"fmt"
	"strings"

	"github.com/mzwiesler/gradient/internal/graph"
)

// DOT renders the forward graph reachable from the output node:
// one vertex per node labeled with the node's label, edges running
// from each operand to the operation consuming it.
func DOT(output *graph.Node) string {
	nodes := output.Nodes()
	ids := nodeIDs(nodes)

	var b strings.Builder
	b.WriteString("digraph forward {\n")
	b.WriteString("  rankdir=BT;\n")
	for _, n := range nodes {
		shape := "ellipse"
		if n.Param() != nil {
			shape = "box"
		}
		fmt.Fprintf(&b, "  %s [label=%q shape=%s];\n", ids[n], n.Label(), shape)
	}
	for _, n := range nodes {
		for _, p := range n.Parents() {
			fmt.Fprintf(&b, "  %s -> %s;\n", ids[p], ids[n])
		}
	}
	b.WriteString("}\n")
	return b.String()
}

// BackwardDOT renders the backward view: edges reversed, each labeled
// with the name of the quantity propagated along it, d(<child label>).
func BackwardDOT(output *graph.Node) string {
	nodes := output.Nodes()
	ids := nodeIDs(nodes)

	var b strings.Builder
	b.WriteString("digraph backward {\n")
	b.WriteString("  rankdir=TB;\n")
	for _, n := range nodes {
		shape := "ellipse"
		if n.Param() != nil {
			shape = "box"
		}
		fmt.Fprintf(&b, "  %s [label=%q shape=%s];\n", ids[n], n.Label(), shape)
	}
	for _, n := range nodes {
		for _, p := range n.Parents() {
			fmt.Fprintf(&b, "  %s -> %s [label=%q];\n", ids[n], ids[p], "d("+p.Label()+")")
		}
	}
	b.WriteString("}\n")
	return b.String()
}

// nodeIDs assigns stable DOT identifiers in discovery order. Labels
// alone would collide if two nodes share one.
func nodeIDs(nodes []*graph.Node) map[*graph.Node]string {
	ids := make(map[*graph.Node]string, len(nodes))
	for i, n := range nodes {
		ids[n] = fmt.Sprintf("n%d", i)
	}
	return ids
}
