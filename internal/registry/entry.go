package registry

import (
	"github.com/veilwork/grimoire/internal/identity"
	"github.com/veilwork/grimoire/internal/pql"
)

// Entry is one named resource in a Collection: a registered query or a
// placeholder for an external source table.
//
// This is a sealed interface; only types in this package implement it, so
// consumers can type-switch exhaustively.
type Entry interface {
	entryNode()

	// ID is the stable identity derived from the entry's name.
	ID() identity.NodeID
	// Name is the resource name the entry was registered under.
	Name() string
}

// Query is a registered pipeline query.
type Query struct {
	id       identity.NodeID
	name     string
	resolved *pql.ResolvedQuery
	deps     []string
}

func newQuery(name string, id identity.NodeID, resolved *pql.ResolvedQuery) *Query {
	tables := resolved.ReferencedTables()
	seen := make(map[string]bool, len(tables))
	deps := make([]string, 0, len(tables))
	for _, t := range tables {
		if !seen[t] {
			seen[t] = true
			deps = append(deps, t)
		}
	}
	return &Query{id: id, name: name, resolved: resolved, deps: deps}
}

func (*Query) entryNode() {}

func (q *Query) ID() identity.NodeID { return q.id }

func (q *Query) Name() string { return q.name }

// Resolved returns the query's semantic form, ready for translation.
func (q *Query) Resolved() *pql.ResolvedQuery { return q.resolved }

// Dependencies returns the names of every relation the query reads, in
// first-reference order with duplicates removed.
func (q *Query) Dependencies() []string {
	out := make([]string, len(q.deps))
	copy(out, q.deps)
	return out
}

// DependencyIDs returns the dependency ids in the same order as
// Dependencies. Ids are name hashes, so this needs no registry lookup.
func (q *Query) DependencyIDs() []identity.NodeID {
	out := make([]identity.NodeID, len(q.deps))
	for i, name := range q.deps {
		out[i] = identity.HashName(name)
	}
	return out
}

// Table is a placeholder entry for a referenced name with no registered
// query: an external source table as far as this process knows. A later
// query registered under the same name upgrades the placeholder.
type Table struct {
	id   identity.NodeID
	name string
}

func (*Table) entryNode() {}

func (t *Table) ID() identity.NodeID { return t.id }

func (t *Table) Name() string { return t.name }
