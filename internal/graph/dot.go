package graph

import (
	"fmt"
	"strings"

	"github.com/veilwork/grimoire/internal/identity"
)

// Dot renders the graph in Graphviz DOT form. Nodes are written in index
// order, then edges in index order, so the output is byte-stable for a
// given graph. label maps an id to its display text; nil labels nodes with
// their decimal ids.
func (g *QueryGraph) Dot(label func(identity.NodeID) string) []byte {
	if label == nil {
		label = func(id identity.NodeID) string { return fmt.Sprintf("%d", id) }
	}

	var b strings.Builder
	b.WriteString("digraph {\n")
	for i, id := range g.ids {
		fmt.Fprintf(&b, "    %d [ label = %q ]\n", i, label(id))
	}
	for from, next := range g.out {
		for _, to := range next {
			fmt.Fprintf(&b, "    %d -> %d\n", from, to)
		}
	}
	b.WriteString("}\n")
	return []byte(b.String())
}
