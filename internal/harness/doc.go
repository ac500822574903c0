// Package harness provides conformance testing for query registration
// and graph construction.
//
// The harness registers a scenario's queries into a fresh collection,
// builds the dependency graph, and validates the outcome against the
// scenario's expect clause or a golden snapshot.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario exercises"
//	vars:
//	  banned: hollow
//	queries:
//	  - name: warded_rituals
//	    text: |
//	      from rituals
//	      filter sigil != $banned
//	expect:
//	  entries: 2
//	  tables: [rituals]
//	  roots: [rituals]
//	  order: [rituals, warded_rituals]
//
// # Deterministic Runs
//
// Node ids are content hashes of names, so a scenario produces the
// same collection, the same graph, and the same execution order on
// every run. That is what makes golden snapshot comparison viable.
package harness
