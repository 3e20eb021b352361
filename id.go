package hashseq

import (
	"bytes"
	"encoding/hex"

	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"
)

// IdSize is the width, in bytes, of every Id. Both supported hash
// algorithms (BLAKE3 and SHA3-256) produce exactly this many bytes, per
// spec §6 ("Id width is the hash output width (32 bytes for
// BLAKE3/SHA3-256)").
const IdSize = 32

// Id is an opaque, fixed-width content hash identifying a HashNode. It is
// totally ordered by lexicographic byte comparison; that order is the tie
// breaker used throughout the engine (sibling order, root order, fork
// order).
type Id [IdSize]byte

// ZeroId is the Id value with no bits set. It never identifies a real
// HashNode (every real Id is a hash output, and the probability of a hash
// colliding with zero is the same as any other collision), so it is safe
// to use as a "no anchor" / "not found" sentinel.
var ZeroId Id

// Less reports whether id sorts strictly before other in the ascending
// byte order used for sibling lists, root sets, and fork resolution.
func (id Id) Less(other Id) bool {
	return bytes.Compare(id[:], other[:]) < 0
}

// Compare returns -1, 0, or 1 as id is less than, equal to, or greater
// than other, matching the convention of bytes.Compare.
func (id Id) Compare(other Id) int {
	return bytes.Compare(id[:], other[:])
}

// IsZero reports whether id is the zero Id.
func (id Id) IsZero() bool {
	return id == ZeroId
}

// String renders id as lowercase hex, for logs and debug output.
func (id Id) String() string {
	return hex.EncodeToString(id[:])
}

// HashFunc names a supported content-addressing algorithm. Spec §6
// requires every participant to agree on one; it is an opaque parameter
// to the rest of the engine (spec §1, §4.1).
type HashFunc uint8

const (
	// BLAKE3 is the default hash algorithm. Grounded in the pack's own
	// dependency graph: lukechampine.com/blake3 is a real indirect
	// dependency of AKJUS-bsc-erigon.
	BLAKE3 HashFunc = iota
	// SHA3256 is the alternate algorithm named in spec §3/§6.
	SHA3256
)

// String returns the canonical name of f, or "unknown" for any other
// value.
func (f HashFunc) String() string {
	switch f {
	case BLAKE3:
		return "blake3"
	case SHA3256:
		return "sha3-256"
	default:
		return "unknown"
	}
}

// Hasher computes Ids from canonically-encoded bytes using a fixed
// algorithm. The zero value hashes with BLAKE3; use NewHasher to select
// another algorithm.
type Hasher struct {
	fn HashFunc
}

// NewHasher returns a Hasher for the named algorithm. Unknown values of fn
// fall back to BLAKE3.
func NewHasher(fn HashFunc) Hasher {
	if fn != BLAKE3 && fn != SHA3256 {
		fn = BLAKE3
	}
	return Hasher{fn: fn}
}

// Func reports which algorithm h computes.
func (h Hasher) Func() HashFunc {
	return h.fn
}

// Hash computes the Id of encoded, the canonical byte encoding of a
// HashNode's (extra_dependencies, op) pair (spec §3, §6).
func (h Hasher) Hash(encoded []byte) Id {
	switch h.fn {
	case SHA3256:
		return sha3.Sum256(encoded)
	default:
		return blake3.Sum256(encoded)
	}
}
