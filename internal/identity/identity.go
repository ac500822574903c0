package identity

import (
	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/unicode/norm"
)

// NodeID is the stable identity of a named resource (query or source table).
// It is the xxhash64 digest of the NFC-normalized resource name, so the same
// name yields the same id across runs, processes, and machines.
type NodeID uint64

// HashName computes the NodeID for a resource name.
//
// Names are normalized to Unicode NFC before hashing so that visually
// identical names with different codepoint sequences collapse to one id.
// No other transformation is applied: hashing is case-sensitive and
// whitespace-sensitive, and the caller is responsible for trimming.
func HashName(name string) NodeID {
	return NodeID(xxhash.Sum64String(norm.NFC.String(name)))
}
