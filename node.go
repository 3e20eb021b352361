package hashseq

import (
	"encoding/binary"
	"io"
)

// HashNode is the unit of replication: an Op plus the extra causal
// dependencies the author observed beyond what the Op itself references
// (spec §3). Its Id is the hash of the canonical encoding of both fields,
// which is what makes the identifier bind the full observed context of
// the edit — a participant cannot replay an edit under a different
// context without changing its Id (spec §3, "critical for BFT").
//
// HashNode is immutable once constructed; the zero value is not a valid
// node (Id.IsZero() is true only for that invalid zero value).
type HashNode struct {
	id        Id
	extraDeps []Id
	op        Op
}

// NewHashNode builds a HashNode from op and extraDeps, computing its Id
// with hasher. extraDeps is normalized (sorted, deduplicated) before
// hashing, matching encodeCanonical's treatment, so callers may pass an
// unsorted slice (e.g. the live tip set) without affecting the Id.
func NewHashNode(hasher Hasher, extraDeps []Id, op Op) HashNode {
	encoded := encodeCanonical(extraDeps, op)
	return HashNode{
		id:        hasher.Hash(encoded),
		extraDeps: sortUniqueIds(extraDeps),
		op:        op,
	}
}

// Id returns the node's content hash.
func (n HashNode) Id() Id { return n.id }

// Op returns the node's edit descriptor.
func (n HashNode) Op() Op { return n.op }

// ExtraDependencies returns the sorted, deduplicated set of extra causal
// predecessors recorded at construction time.
func (n HashNode) ExtraDependencies() []Id {
	return n.extraDeps
}

// Anchor returns the Id the node's op is anchored to, and whether it has
// one (InsertRoot and Remove have none).
func (n HashNode) Anchor() (Id, bool) {
	switch n.op.Kind {
	case OpInsertAfter, OpInsertBefore:
		return n.op.Anchor, true
	default:
		return Id{}, false
	}
}

// Dependencies returns every Id this node's installation requires to be
// already present in the store: its anchor (if any), its Remove targets
// (if any), and its extra_dependencies (spec I2, dependency closure).
func (n HashNode) Dependencies() []Id {
	var deps []Id
	if anchor, ok := n.Anchor(); ok {
		deps = append(deps, anchor)
	}
	if n.op.Kind == OpRemove {
		deps = append(deps, n.op.Targets...)
	}
	deps = append(deps, n.extraDeps...)
	return deps
}

// encoded returns the canonical encoding this node's Id was computed
// from, recomputable at any time since HashNode is immutable.
func (n HashNode) encoded() []byte {
	return encodeCanonical(n.extraDeps, n.op)
}

// VerifyHash reports whether hasher recomputes n's Id from its own
// encoding — spec I1, "hash integrity". A node built by NewHashNode with
// the same hasher always verifies; this is the check the validator (C8)
// runs against nodes that arrive from an untrusted peer claiming an id
// that may not match.
func (n HashNode) VerifyHash(hasher Hasher) bool {
	return hasher.Hash(n.encoded()) == n.id
}

// EncodeNode writes a length-prefixed frame for n to w, per spec §6's
// wire/persistence format: a 4-byte little-endian frame length, the
// node's claimed 32-byte Id, then its canonical encoding. The claimed Id
// is carried on the wire (rather than left implicit) so a receiver can
// run the hash-integrity check in spec §4.8/§7 against whatever the
// sender asserts, instead of trivially recomputing its own.
func EncodeNode(w io.Writer, n HashNode) error {
	encoded := n.encoded()
	body := make([]byte, IdSize+len(encoded))
	copy(body, n.id[:])
	copy(body[IdSize:], encoded)

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(body)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// DecodeNode reads one length-prefixed frame from r and returns the
// HashNode it encodes, without verifying its hash — callers MUST run it
// through a Validator before treating it as trusted (spec §4.8). Returns
// io.EOF when r is exhausted between frames.
func DecodeNode(r io.Reader) (HashNode, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return HashNode{}, err
	}
	frameLen := binary.LittleEndian.Uint32(lenBuf[:])
	if frameLen < IdSize {
		return HashNode{}, rejectf(ErrMalformedOp, "frame too short: %d bytes", frameLen)
	}

	body := make([]byte, frameLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return HashNode{}, err
	}

	var claimed Id
	copy(claimed[:], body[:IdSize])

	extraDeps, op, err := decodeCanonical(body[IdSize:])
	if err != nil {
		return HashNode{}, err
	}

	return HashNode{id: claimed, extraDeps: extraDeps, op: op}, nil
}
