// Package identity derives stable 64-bit node identifiers from resource
// names and tracks the name/id correspondence.
//
// This package contains no domain knowledge. Every other internal package
// imports identity; identity imports nothing internal, which keeps it the
// foundational layer with no circular dependencies.
package identity
