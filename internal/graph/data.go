package graph

import (
	"sort"

	"github.com/veilwork/grimoire/internal/identity"
)

// Edge is a build-order constraint: From must be built before To, because
// To's query reads From's output.
type Edge struct {
	From identity.NodeID
	To   identity.NodeID
}

// ValidData is graph data that passed validation. Its node list is sorted
// and deduplicated, every edge endpoint appears in it, every node appears in
// at least one edge, and it holds at least one node. Construct with Validate
// or ValidateEdges; the zero value is not usable.
type ValidData struct {
	nodes   []identity.NodeID
	edges   []Edge
	dropped []identity.NodeID
}

// Validate checks node ids against edges and produces ValidData.
//
// Failure modes:
//   - an edge endpoint missing from ids is fatal: *DataError wrapping
//     ErrDanglingEdges, listing every unknown endpoint
//   - no nodes surviving is fatal: ErrEmptyData
//
// Ids that appear in no edge are not fatal: they are dropped from the node
// list and reported via Dropped, so callers can surface them. Duplicate ids
// collapse. Edges pass through in input order, duplicates included; the
// graph builder ignores duplicate edges.
func Validate(ids []identity.NodeID, edges []Edge) (*ValidData, error) {
	known := make(map[identity.NodeID]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}

	referenced := make(map[identity.NodeID]bool, len(edges)*2)
	danglingSet := map[identity.NodeID]bool{}
	for _, e := range edges {
		referenced[e.From] = true
		referenced[e.To] = true
		if !known[e.From] {
			danglingSet[e.From] = true
		}
		if !known[e.To] {
			danglingSet[e.To] = true
		}
	}
	if len(danglingSet) > 0 {
		return nil, &DataError{Kind: ErrDanglingEdges, IDs: sortedIDs(danglingSet)}
	}

	var nodes, dropped []identity.NodeID
	for id := range known {
		if referenced[id] {
			nodes = append(nodes, id)
		} else {
			dropped = append(dropped, id)
		}
	}
	if len(nodes) == 0 {
		return nil, &DataError{Kind: ErrEmptyData}
	}
	sortIDs(nodes)
	sortIDs(dropped)

	out := make([]Edge, len(edges))
	copy(out, edges)
	return &ValidData{nodes: nodes, edges: out, dropped: dropped}, nil
}

// ValidateEdges derives the node list from the edge endpoints themselves.
// No dangling endpoints or unreferenced nodes are possible this way; the
// only failure is an empty edge list.
func ValidateEdges(edges []Edge) (*ValidData, error) {
	if len(edges) == 0 {
		return nil, &DataError{Kind: ErrEmptyData}
	}
	seen := make(map[identity.NodeID]bool, len(edges)*2)
	for _, e := range edges {
		seen[e.From] = true
		seen[e.To] = true
	}
	nodes := sortedIDs(seen)

	out := make([]Edge, len(edges))
	copy(out, edges)
	return &ValidData{nodes: nodes, edges: out}, nil
}

// NodeIDs returns the surviving node ids in ascending order.
func (d *ValidData) NodeIDs() []identity.NodeID {
	out := make([]identity.NodeID, len(d.nodes))
	copy(out, d.nodes)
	return out
}

// Edges returns the edges in their original input order.
func (d *ValidData) Edges() []Edge {
	out := make([]Edge, len(d.edges))
	copy(out, d.edges)
	return out
}

// Dropped returns the ids removed because no edge referenced them, in
// ascending order. Empty for ValidateEdges results.
func (d *ValidData) Dropped() []identity.NodeID {
	out := make([]identity.NodeID, len(d.dropped))
	copy(out, d.dropped)
	return out
}

// Len returns the surviving node count.
func (d *ValidData) Len() int { return len(d.nodes) }

func sortIDs(ids []identity.NodeID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

func sortedIDs(set map[identity.NodeID]bool) []identity.NodeID {
	out := make([]identity.NodeID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sortIDs(out)
	return out
}
