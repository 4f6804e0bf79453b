package changegraph

import (
	"fmt"
	"strings"
)

// Dot renders the graph as graphviz dot text: nodes are change ids
// labeled with the payload kind, edges run child → parent. Output is
// deterministic: nodes appear in topological order and each node's
// parents are already sorted.
func (g *Graph) Dot() string {
	var b strings.Builder
	b.WriteString("digraph changegraph {\n")
	b.WriteString("  rankdir=BT;\n")

	order := g.TopologicalOrder()
	for _, ch := range order {
		fmt.Fprintf(&b, "  %q [label=\"%s\\n%s\"];\n", ch.ID.Short(), ch.Payload.Type(), ch.ID.Short())
	}
	for _, ch := range order {
		for _, p := range ch.Parents {
			fmt.Fprintf(&b, "  %q -> %q;\n", ch.ID.Short(), p.Short())
		}
	}
	b.WriteString("}\n")
	return b.String()
}
