// Package settings loads and validates project configuration.
//
// A workspace is described by a single YAML project file. LoadProject
// validates the raw document against an embedded CUE schema before
// decoding, so unknown keys, missing required fields, and type
// mismatches surface with file positions instead of leaking through as
// zero values. Property documents (schema files living next to the
// queries they describe) are decoded with strict YAML and checked by
// Validate, which collects every problem rather than stopping at the
// first.
package settings
