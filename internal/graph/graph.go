package graph

import (
	"container/heap"
	"math"
	"sort"

	"github.com/veilwork/grimoire/internal/identity"
)

// NodeIndex addresses a node within one QueryGraph. Indexes are dense,
// 0-based, and assigned in ascending NodeID order, so index order and id
// order agree.
type NodeIndex uint32

// Option configures graph construction.
type Option func(*config)

type config struct {
	nodeLimit int
}

// WithNodeLimit caps the node count a graph will accept. The default is
// math.MaxUint32, the widest a NodeIndex can address.
func WithNodeLimit(n int) Option {
	return func(c *config) { c.nodeLimit = n }
}

// QueryGraph is the immutable dependency DAG. Construction rejects cycles,
// so every QueryGraph in existence is acyclic. Safe for concurrent reads.
type QueryGraph struct {
	ids   []identity.NodeID
	index map[identity.NodeID]NodeIndex
	out   [][]NodeIndex
	in    [][]NodeIndex
	edges int
}

// New builds a QueryGraph from validated data.
//
// Duplicate edges are inserted once; inserting an edge that is already
// present changes nothing. A cycle fails construction with a *CycleError
// holding a witness path, and no graph value escapes in that case.
func New(data *ValidData, opts ...Option) (*QueryGraph, error) {
	cfg := config{nodeLimit: math.MaxUint32}
	for _, opt := range opts {
		opt(&cfg)
	}

	if data.Len() > cfg.nodeLimit {
		return nil, &LimitError{Count: data.Len(), Limit: cfg.nodeLimit}
	}

	g := &QueryGraph{
		ids:   data.NodeIDs(),
		index: make(map[identity.NodeID]NodeIndex, data.Len()),
		out:   make([][]NodeIndex, data.Len()),
		in:    make([][]NodeIndex, data.Len()),
	}
	for i, id := range g.ids {
		g.index[id] = NodeIndex(i)
	}

	seen := make(map[uint64]bool)
	for _, e := range data.Edges() {
		fi := g.index[e.From]
		ti := g.index[e.To]
		key := uint64(fi)<<32 | uint64(ti)
		if seen[key] {
			continue
		}
		seen[key] = true
		g.out[fi] = append(g.out[fi], ti)
		g.in[ti] = append(g.in[ti], fi)
		g.edges++
	}
	for i := range g.out {
		sortIndexes(g.out[i])
		sortIndexes(g.in[i])
	}

	if path := g.findCycle(); path != nil {
		ids := make([]identity.NodeID, len(path))
		for i, ix := range path {
			ids[i] = g.ids[ix]
		}
		return nil, &CycleError{Path: ids}
	}
	return g, nil
}

// NewFromEdges validates edges (node set inferred from endpoints) and
// builds the graph in one step.
func NewFromEdges(edges []Edge, opts ...Option) (*QueryGraph, error) {
	data, err := ValidateEdges(edges)
	if err != nil {
		return nil, err
	}
	return New(data, opts...)
}

// NewFromIDsAndEdges validates an explicit node list against edges and
// builds the graph in one step.
func NewFromIDsAndEdges(ids []identity.NodeID, edges []Edge, opts ...Option) (*QueryGraph, error) {
	data, err := Validate(ids, edges)
	if err != nil {
		return nil, err
	}
	return New(data, opts...)
}

// Len returns the node count.
func (g *QueryGraph) Len() int { return len(g.ids) }

// EdgeCount returns the number of distinct edges.
func (g *QueryGraph) EdgeCount() int { return g.edges }

// Index returns the dense index of id.
func (g *QueryGraph) Index(id identity.NodeID) (NodeIndex, bool) {
	ix, ok := g.index[id]
	return ix, ok
}

// ID returns the id at a dense index.
func (g *QueryGraph) ID(ix NodeIndex) (identity.NodeID, bool) {
	if int(ix) >= len(g.ids) {
		return 0, false
	}
	return g.ids[ix], true
}

// NodeIDs returns all node ids in ascending order.
func (g *QueryGraph) NodeIDs() []identity.NodeID {
	out := make([]identity.NodeID, len(g.ids))
	copy(out, g.ids)
	return out
}

// RootNodes returns the nodes with no incoming edges, ascending by id.
// These are the entry points a build starts from. The result is the same
// for every call and every process given the same graph.
func (g *QueryGraph) RootNodes() []identity.NodeID {
	var roots []identity.NodeID
	for i := range g.ids {
		if len(g.in[i]) == 0 {
			roots = append(roots, g.ids[i])
		}
	}
	return roots
}

// DependenciesOf returns the ids that must build before id, ascending.
// Returns nil when id is not in the graph.
func (g *QueryGraph) DependenciesOf(id identity.NodeID) []identity.NodeID {
	ix, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.idsAt(g.in[ix])
}

// DependentsOf returns the ids that read id's output, ascending.
// Returns nil when id is not in the graph.
func (g *QueryGraph) DependentsOf(id identity.NodeID) []identity.NodeID {
	ix, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.idsAt(g.out[ix])
}

func (g *QueryGraph) idsAt(ixs []NodeIndex) []identity.NodeID {
	out := make([]identity.NodeID, len(ixs))
	for i, ix := range ixs {
		out[i] = g.ids[ix]
	}
	return out
}

// TopoOrder returns every node in a dependency-respecting order: each node
// appears after all of its dependencies. Ties break toward the smallest id,
// so the order is fully deterministic. The result always covers the whole
// graph since construction rejected cycles.
func (g *QueryGraph) TopoOrder() []identity.NodeID {
	indegree := make([]int, len(g.ids))
	for i := range g.in {
		indegree[i] = len(g.in[i])
	}

	h := &indexHeap{}
	heap.Init(h)
	for i := range g.ids {
		if indegree[i] == 0 {
			heap.Push(h, NodeIndex(i))
		}
	}

	order := make([]identity.NodeID, 0, len(g.ids))
	for h.Len() > 0 {
		ix := heap.Pop(h).(NodeIndex)
		order = append(order, g.ids[ix])
		for _, next := range g.out[ix] {
			indegree[next]--
			if indegree[next] == 0 {
				heap.Push(h, next)
			}
		}
	}
	return order
}

type indexHeap []NodeIndex

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(NodeIndex)) }
func (h *indexHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func sortIndexes(ixs []NodeIndex) {
	sort.Slice(ixs, func(i, j int) bool { return ixs[i] < ixs[j] })
}
