package hashseq

import (
	"errors"
	"io"
)

// EncodeStream writes every node in nodes to w as a sequence of
// length-prefixed canonical frames (spec §6: "a stream of length-prefixed
// canonically-encoded HashNodes. Order is irrelevant."). It is the
// persistence/interop surface spec §1 calls out of scope for the core but
// required for interop — this package implements only the documented
// framing, not any actual transport or file format.
func EncodeStream(w io.Writer, nodes []HashNode) error {
	for _, n := range nodes {
		if err := EncodeNode(w, n); err != nil {
			return err
		}
	}
	return nil
}

// DecodeStream reads frames from r until io.EOF, returning every HashNode
// decoded. As with DecodeNode, returned nodes are unverified; callers must
// run each through a Validator (or Replica.Apply/ApplyBatch, which do so
// internally) before trusting it.
func DecodeStream(r io.Reader) ([]HashNode, error) {
	var nodes []HashNode
	for {
		n, err := DecodeNode(r)
		if errors.Is(err, io.EOF) {
			return nodes, nil
		}
		if err != nil {
			return nodes, err
		}
		nodes = append(nodes, n)
	}
}
