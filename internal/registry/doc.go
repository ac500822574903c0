// Package registry accumulates the named queries of a project and the
// source tables they reference.
//
// Queries arrive as raw source text in batches. Registration parses and
// resolves each query, assigns it a stable id from its name, and records
// which relations it reads. Names a query references that have no
// registered query of their own get placeholder table entries, so after
// every Register call the collection is closed under dependencies: every
// dependency name resolves to an entry.
//
// Registration reports per-entry outcomes instead of dropping failures
// silently; a bad query never aborts the rest of its batch. Re-registering
// a name replaces the previous entry (last write wins). Entries are only
// ever added or replaced, never removed.
package registry
