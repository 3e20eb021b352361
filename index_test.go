package hashseq

import (
	"testing"

	"github.com/google/btree"
)

func idsOf(p *positionIndex) []Id {
	out := make([]Id, p.Len())
	for i := range out {
		id, _ := p.IdAt(i)
		out[i] = id
	}
	return out
}

func TestPositionIndex_InsertAtAndIdAt(t *testing.T) {
	idx := newPositionIndex()
	hasher := NewHasher(BLAKE3)
	a := hasher.Hash([]byte("a"))
	b := hasher.Hash([]byte("b"))
	c := hasher.Hash([]byte("c"))

	idx.InsertAt(0, a)
	idx.InsertAt(1, b) // a, b
	idx.InsertAt(1, c) // a, c, b

	got := idsOf(idx)
	want := []Id{a, c, b}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestPositionIndex_PosOf(t *testing.T) {
	idx := newPositionIndex()
	hasher := NewHasher(BLAKE3)
	ids := make([]Id, 5)
	for i := range ids {
		ids[i] = hasher.Hash([]byte{byte(i)})
		idx.InsertAt(i, ids[i])
	}
	for want, id := range ids {
		got, ok := idx.PosOf(id)
		if !ok || got != want {
			t.Errorf("PosOf(%s) = (%d, %v), want (%d, true)", id, got, ok, want)
		}
	}
	if _, ok := idx.PosOf(Id{0xff}); ok {
		t.Error("PosOf should report false for an Id never inserted")
	}
}

func TestPositionIndex_RemoveIdIsIdempotent(t *testing.T) {
	idx := newPositionIndex()
	hasher := NewHasher(BLAKE3)
	a := hasher.Hash([]byte("a"))
	b := hasher.Hash([]byte("b"))
	idx.InsertAt(0, a)
	idx.InsertAt(1, b)

	idx.RemoveId(a)
	if idx.Len() != 1 {
		t.Fatalf("expected length 1 after removal, got %d", idx.Len())
	}
	if got, _ := idx.IdAt(0); got != b {
		t.Errorf("expected sole remaining element to be b, got %s", got)
	}

	idx.RemoveId(a) // idempotent no-op
	if idx.Len() != 1 {
		t.Errorf("re-removing an absent Id changed the index length to %d", idx.Len())
	}
}

func TestPositionIndex_RebuildMatchesInput(t *testing.T) {
	hasher := NewHasher(BLAKE3)
	visible := make([]Id, 6)
	for i := range visible {
		visible[i] = hasher.Hash([]byte{byte(i)})
	}

	idx := newPositionIndex()
	idx.Rebuild(visible)

	if idx.Len() != len(visible) {
		t.Fatalf("expected length %d, got %d", len(visible), idx.Len())
	}
	for i, want := range visible {
		got, ok := idx.IdAt(i)
		if !ok || got != want {
			t.Errorf("position %d: got %s want %s", i, got, want)
		}
		pos, ok := idx.PosOf(want)
		if !ok || pos != i {
			t.Errorf("PosOf(%s) = (%d, %v), want (%d, true)", want, pos, ok, i)
		}
	}
}

func TestPositionIndex_SizeBookkeepingAfterMixedOps(t *testing.T) {
	idx := newPositionIndex()
	hasher := NewHasher(BLAKE3)
	var ids []Id
	for i := 0; i < 20; i++ {
		id := hasher.Hash([]byte{byte(i), byte(i >> 8)})
		ids = append(ids, id)
		idx.InsertAt(idx.Len(), id)
	}
	for i := 0; i < 10; i++ {
		idx.RemoveId(ids[i*2])
	}
	if idx.Len() != 10 {
		t.Fatalf("expected 10 remaining elements, got %d", idx.Len())
	}
	// Every remaining element's PosOf must round-trip through IdAt.
	for i := 0; i < idx.Len(); i++ {
		id, ok := idx.IdAt(i)
		if !ok {
			t.Fatalf("IdAt(%d) missing", i)
		}
		pos, ok := idx.PosOf(id)
		if !ok || pos != i {
			t.Errorf("round trip broke at position %d: PosOf = (%d, %v)", i, pos, ok)
		}
	}
}

// sanity check that google/btree's ordering function agrees with Id.Less,
// since store.go relies on exactly this comparator.
func TestIdSetOrderingMatchesBtreeContract(t *testing.T) {
	less := func(a, b Id) bool { return a.Less(b) }
	tr := btree.NewG(2, less)
	hasher := NewHasher(BLAKE3)
	x := hasher.Hash([]byte("x"))
	y := hasher.Hash([]byte("y"))
	tr.ReplaceOrInsert(x)
	tr.ReplaceOrInsert(y)
	if tr.Len() != 2 {
		t.Fatalf("expected 2 elements, got %d", tr.Len())
	}
	first := x
	if y.Less(x) {
		first = y
	}
	if got, _ := tr.Min(); got != first {
		t.Errorf("btree minimum %s does not match the Id.Less minimum %s", got, first)
	}
}
