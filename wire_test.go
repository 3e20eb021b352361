package hashseq

import (
	"bytes"
	"io"
	"testing"
)

func TestEncodeDecodeNode_RoundTrip(t *testing.T) {
	hasher := NewHasher(BLAKE3)
	n := NewHashNode(hasher, nil, InsertRoot('a'))

	var buf bytes.Buffer
	if err := EncodeNode(&buf, n); err != nil {
		t.Fatalf("EncodeNode: %v", err)
	}

	got, err := DecodeNode(&buf)
	if err != nil {
		t.Fatalf("DecodeNode: %v", err)
	}
	if got.Id() != n.Id() {
		t.Errorf("decoded Id mismatch: got %s want %s", got.Id(), n.Id())
	}
	if !got.VerifyHash(hasher) {
		t.Error("decoded node failed hash verification")
	}
}

func TestEncodeDecodeStream_RoundTrip(t *testing.T) {
	hasher := NewHasher(BLAKE3)
	root := NewHashNode(hasher, nil, InsertRoot('h'))
	second := NewHashNode(hasher, nil, InsertAfter(root.Id(), 'i'))
	nodes := []HashNode{root, second}

	var buf bytes.Buffer
	if err := EncodeStream(&buf, nodes); err != nil {
		t.Fatalf("EncodeStream: %v", err)
	}

	got, err := DecodeStream(&buf)
	if err != nil {
		t.Fatalf("DecodeStream: %v", err)
	}
	if len(got) != len(nodes) {
		t.Fatalf("expected %d nodes, got %d", len(nodes), len(got))
	}
	for i, n := range nodes {
		if got[i].Id() != n.Id() {
			t.Errorf("node %d: got %s want %s", i, got[i].Id(), n.Id())
		}
	}
}

func TestDecodeNode_EOFOnEmptyReader(t *testing.T) {
	_, err := DecodeNode(bytes.NewReader(nil))
	if err != io.EOF {
		t.Errorf("expected io.EOF on empty input, got %v", err)
	}
}

func TestDecodeNode_RejectsTruncatedFrame(t *testing.T) {
	hasher := NewHasher(BLAKE3)
	n := NewHashNode(hasher, nil, InsertRoot('a'))

	var buf bytes.Buffer
	if err := EncodeNode(&buf, n); err != nil {
		t.Fatalf("EncodeNode: %v", err)
	}
	truncated := buf.Bytes()[:buf.Len()-3]

	if _, err := DecodeNode(bytes.NewReader(truncated)); err == nil {
		t.Error("expected an error decoding a truncated frame")
	}
}
