package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/veilwork/grimoire/internal/identity"
)

var (
	// ErrEmptyData reports that no connected nodes remain after validation.
	ErrEmptyData = errors.New("graph data has no connected nodes")

	// ErrDanglingEdges reports edges whose endpoints are not in the node list.
	ErrDanglingEdges = errors.New("edges reference unknown nodes")

	// ErrCycle reports that the edges do not form a DAG.
	ErrCycle = errors.New("dependency cycle")

	// ErrTooManyNodes reports that the node count exceeds the graph's limit.
	ErrTooManyNodes = errors.New("too many nodes")
)

// DataError is a validation failure carrying the offending node ids.
type DataError struct {
	Kind error
	IDs  []identity.NodeID
}

func (e *DataError) Error() string {
	if len(e.IDs) == 0 {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, formatIDs(e.IDs))
}

func (e *DataError) Unwrap() error { return e.Kind }

// CycleError is a failed construction carrying one witness cycle. Path
// starts and ends on the same node.
type CycleError struct {
	Path []identity.NodeID
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("%s: %s", ErrCycle, strings.Join(parts, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// LimitError is a failed construction over the configured node limit.
type LimitError struct {
	Count int
	Limit int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s: %d nodes, limit %d", ErrTooManyNodes, e.Count, e.Limit)
}

func (e *LimitError) Unwrap() error { return ErrTooManyNodes }

func formatIDs(ids []identity.NodeID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
