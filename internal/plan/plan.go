// Package plan turns a query collection into the dependency graph a build
// would run against.
package plan

import (
	"fmt"
	"sort"

	"github.com/veilwork/grimoire/internal/graph"
	"github.com/veilwork/grimoire/internal/identity"
	"github.com/veilwork/grimoire/internal/registry"
)

// DependencyEdges derives build-order edges from a collection: one edge per
// (dependency, query) pair. Queries are visited in name order and each
// query's dependencies in their recorded order, so the edge list is
// deterministic for a given collection. Table entries contribute no edges.
func DependencyEdges(c *registry.Collection) []graph.Edge {
	var edges []graph.Edge
	for _, entry := range c.Entries() {
		q, ok := entry.(*registry.Query)
		if !ok {
			continue
		}
		for _, dep := range q.DependencyIDs() {
			edges = append(edges, graph.Edge{From: dep, To: q.ID()})
		}
	}
	return edges
}

// Plan binds a constructed dependency graph to the collection it came from,
// so graph nodes can be reported by name.
type Plan struct {
	Graph      *graph.QueryGraph
	Collection *registry.Collection

	// Isolated lists entries that ended up in no edge and were left out of
	// the graph, sorted by name. This happens when a replaced query strands
	// the placeholder tables only it referenced.
	Isolated []string
}

// BuildPlan validates the collection's dependency data and constructs the
// graph. Construction fails for the same reasons graph construction does:
// nothing connected, or a dependency cycle.
func BuildPlan(c *registry.Collection, opts ...graph.Option) (*Plan, error) {
	ids := make([]identity.NodeID, 0, c.Len())
	for _, entry := range c.Entries() {
		ids = append(ids, entry.ID())
	}

	data, err := graph.Validate(ids, DependencyEdges(c))
	if err != nil {
		return nil, err
	}
	g, err := graph.New(data, opts...)
	if err != nil {
		return nil, err
	}

	isolated := make([]string, 0, len(data.Dropped()))
	for _, id := range data.Dropped() {
		isolated = append(isolated, nameOf(c, id))
	}
	sort.Strings(isolated)
	return &Plan{Graph: g, Collection: c, Isolated: isolated}, nil
}

// RootNames returns the graph's root nodes as entry names. Roots come out
// in ascending id order, matching Graph.RootNodes.
func (p *Plan) RootNames() []string {
	return p.names(p.Graph.RootNodes())
}

// ExecutionOrder returns every entry name in a dependency-respecting order.
func (p *Plan) ExecutionOrder() []string {
	return p.names(p.Graph.TopoOrder())
}

// Dot renders the graph with entry names as node labels.
func (p *Plan) Dot() []byte {
	return p.Graph.Dot(func(id identity.NodeID) string {
		return nameOf(p.Collection, id)
	})
}

func (p *Plan) names(ids []identity.NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = nameOf(p.Collection, id)
	}
	return out
}

func nameOf(c *registry.Collection, id identity.NodeID) string {
	if name, ok := c.IDs().NameOf(id); ok {
		return name
	}
	return fmt.Sprintf("%d", id)
}
