// Package graph validates dependency data and builds the immutable query
// DAG the rest of the system plans against.
//
// Construction is a two-step contract:
//
//	[]Edge (+ node ids) → Validate → *ValidData → New → *QueryGraph
//
// ValidData guarantees shape: a sorted, deduplicated node list, every edge
// endpoint present in that list, no unreferenced nodes, and at least one
// node. QueryGraph adds the structural guarantee: no cycles. A cycle fails
// construction outright with a witness path; no partially built graph ever
// escapes.
//
// Edges read as build order: Edge{From: a, To: b} means a must be built
// before b, because b's query reads a's output.
//
// QueryGraph is immutable after construction and safe for concurrent reads.
// Node ids are the stable 64-bit identities from the identity package;
// inside one graph each node also has a dense uint32 NodeIndex, assigned in
// ascending id order, so lookups are O(1) in both directions and every
// enumeration is deterministic.
package graph
