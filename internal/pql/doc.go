// Package pql parses and resolves the pipeline query language models are
// written in.
//
// A query is a chain of transform stages applied to a starting relation:
//
//	from summonings
//	filter circle > 3
//	derive [ritual_cost = component_count + price]
//	join side:inner rituals [==source]
//	select [name, ritual_cost]
//	sort -ritual_cost
//	take 10
//
// Stages are separated by newlines or by "|". Newlines inside brackets and
// parentheses are insignificant, so multi-line lists read naturally. An
// optional "prql dialect:<name>" header pins the SQL dialect used when the
// query is translated.
//
// The package exposes two layers:
//
//	Parse    source text → *Pipeline (syntax only, positioned errors)
//	Resolve  *Pipeline → *ResolvedQuery (variables substituted, shape
//	         checked, referenced tables enumerated)
//
// Prepare composes both. Resolution never consults other queries: it reports
// every table the query reads (the from-table and each join-table), and the
// registry decides which of those are sibling queries and which are external
// sources.
//
// Stage and Expr are sealed interfaces using the marker method pattern, so
// consumers (the SQL translator in particular) can type-switch exhaustively.
package pql
