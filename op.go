package hashseq

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"
)

// OpKind discriminates the closed set of Op variants (spec §3). Op is
// intentionally a tagged struct rather than an interface: the variant set
// is fixed and will never grow, so a closed tag plus per-variant fields is
// simpler than an interface with an unexported marker method, and it is
// what the canonical wire encoding (spec §6) already looks like byte for
// byte.
type OpKind uint8

const (
	// OpInsertRoot is the first element of a sequence (wire tag 0x00).
	OpInsertRoot OpKind = iota
	// OpInsertAfter constrains the new node to appear after Anchor (0x01).
	OpInsertAfter
	// OpInsertBefore constrains the new node to appear before Anchor (0x02).
	OpInsertBefore
	// OpRemove tombstones every Id in Targets (0x03).
	OpRemove
)

// String names kind for logs and error messages.
func (k OpKind) String() string {
	switch k {
	case OpInsertRoot:
		return "InsertRoot"
	case OpInsertAfter:
		return "InsertAfter"
	case OpInsertBefore:
		return "InsertBefore"
	case OpRemove:
		return "Remove"
	default:
		return "Unknown"
	}
}

// Op is the algebraic edit descriptor carried by every HashNode (spec §3).
// Only the fields relevant to Kind are meaningful:
//
//	OpInsertRoot:    Char
//	OpInsertAfter:   Anchor, Char
//	OpInsertBefore:  Anchor, Char
//	OpRemove:        Targets
type Op struct {
	Kind    OpKind
	Anchor  Id
	Char    rune
	Targets []Id
}

// InsertRoot builds the first-element op. It is only valid when the
// author has observed no prior root in their causal view (spec §3); the
// engine does not reject concurrent roots (spec I5), this constructor just
// builds the op itself.
func InsertRoot(ch rune) Op {
	return Op{Kind: OpInsertRoot, Char: ch}
}

// InsertAfter builds an op constraining the new node to appear after
// anchor.
func InsertAfter(anchor Id, ch rune) Op {
	return Op{Kind: OpInsertAfter, Anchor: anchor, Char: ch}
}

// InsertBefore builds an op constraining the new node to appear before
// anchor.
func InsertBefore(anchor Id, ch rune) Op {
	return Op{Kind: OpInsertBefore, Anchor: anchor, Char: ch}
}

// Remove builds a tombstone op over targets. targets is copied, deduped,
// and sorted ascending to match the "sorted set of Id" representation
// spec §3 requires of Remove.
func Remove(targets []Id) Op {
	return Op{Kind: OpRemove, Targets: sortUniqueIds(targets)}
}

// IsInsert reports whether op inserts a character (as opposed to removing
// one). Used by the validator (spec §4.8's "Remove targets ... not an
// insertion op" rule) and by C5/C6 to decide visibility.
func (op Op) IsInsert() bool {
	switch op.Kind {
	case OpInsertRoot, OpInsertAfter, OpInsertBefore:
		return true
	default:
		return false
	}
}

// sortUniqueIds returns a sorted, deduplicated copy of ids.
func sortUniqueIds(ids []Id) []Id {
	if len(ids) == 0 {
		return nil
	}
	out := make([]Id, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	n := 0
	for i, id := range out {
		if i == 0 || id != out[n-1] {
			out[n] = id
			n++
		}
	}
	return out[:n]
}

// encodeCanonical produces the bit-exact byte encoding spec §6 requires
// for hashing and wire transfer of (extraDeps, op):
//
//  1. one op-tag byte
//  2. variant-specific fields (fixed-width, little-endian)
//  3. a 4-byte count of extraDeps, then that many 32-byte Ids ascending
//
// extraDeps is sorted and deduplicated before encoding so that two
// authors who observed the same dependency set in different orders
// produce byte-identical encodings (and therefore the same Id).
func encodeCanonical(extraDeps []Id, op Op) []byte {
	var buf bytes.Buffer

	switch op.Kind {
	case OpInsertRoot:
		buf.WriteByte(byte(OpInsertRoot))
		writeScalar(&buf, op.Char)
	case OpInsertAfter:
		buf.WriteByte(byte(OpInsertAfter))
		buf.Write(op.Anchor[:])
		writeScalar(&buf, op.Char)
	case OpInsertBefore:
		buf.WriteByte(byte(OpInsertBefore))
		buf.Write(op.Anchor[:])
		writeScalar(&buf, op.Char)
	case OpRemove:
		buf.WriteByte(byte(OpRemove))
		targets := sortUniqueIds(op.Targets)
		writeCount(&buf, len(targets))
		for _, id := range targets {
			buf.Write(id[:])
		}
	}

	deps := sortUniqueIds(extraDeps)
	writeCount(&buf, len(deps))
	for _, id := range deps {
		buf.Write(id[:])
	}

	return buf.Bytes()
}

func writeScalar(buf *bytes.Buffer, ch rune) {
	var scalar [4]byte
	binary.LittleEndian.PutUint32(scalar[:], uint32(ch))
	buf.Write(scalar[:])
}

func writeCount(buf *bytes.Buffer, n int) {
	var count [4]byte
	binary.LittleEndian.PutUint32(count[:], uint32(n))
	buf.Write(count[:])
}

// decodeCanonical parses the byte encoding produced by encodeCanonical
// back into (extraDeps, op). It is the inverse used by round-trip tests
// and by wire decoding (spec §6's "encode then decode is identity").
func decodeCanonical(data []byte) (extraDeps []Id, op Op, err error) {
	r := bytes.NewReader(data)

	tagByte, err := r.ReadByte()
	if err != nil {
		return nil, Op{}, rejectf(ErrMalformedOp, "reading op tag: %v", err)
	}
	kind := OpKind(tagByte)

	switch kind {
	case OpInsertRoot:
		ch, err := readScalar(r)
		if err != nil {
			return nil, Op{}, rejectf(ErrMalformedOp, "reading InsertRoot scalar: %v", err)
		}
		op = InsertRoot(ch)
	case OpInsertAfter, OpInsertBefore:
		anchor, err := readId(r)
		if err != nil {
			return nil, Op{}, rejectf(ErrMalformedOp, "reading anchor: %v", err)
		}
		ch, err := readScalar(r)
		if err != nil {
			return nil, Op{}, rejectf(ErrMalformedOp, "reading scalar: %v", err)
		}
		if kind == OpInsertAfter {
			op = InsertAfter(anchor, ch)
		} else {
			op = InsertBefore(anchor, ch)
		}
	case OpRemove:
		n, err := readCount(r)
		if err != nil {
			return nil, Op{}, rejectf(ErrMalformedOp, "reading remove count: %v", err)
		}
		targets := make([]Id, n)
		for i := range targets {
			id, err := readId(r)
			if err != nil {
				return nil, Op{}, rejectf(ErrMalformedOp, "reading remove target %d: %v", i, err)
			}
			targets[i] = id
		}
		if n == 0 {
			return nil, Op{}, ErrEmptyRemove
		}
		op = Remove(targets)
	default:
		return nil, Op{}, rejectf(ErrMalformedOp, "unknown op tag %d", tagByte)
	}

	n, err := readCount(r)
	if err != nil {
		return nil, Op{}, rejectf(ErrMalformedOp, "reading extra_dependencies count: %v", err)
	}
	deps := make([]Id, n)
	for i := range deps {
		id, err := readId(r)
		if err != nil {
			return nil, Op{}, rejectf(ErrMalformedOp, "reading extra_dependency %d: %v", i, err)
		}
		deps[i] = id
	}

	return deps, op, nil
}

func readScalar(r *bytes.Reader) (rune, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return rune(binary.LittleEndian.Uint32(buf[:])), nil
}

func readCount(r *bytes.Reader) (int, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int(binary.LittleEndian.Uint32(buf[:])), nil
}

func readId(r *bytes.Reader) (Id, error) {
	var id Id
	if _, err := io.ReadFull(r, id[:]); err != nil {
		return Id{}, err
	}
	return id, nil
}
