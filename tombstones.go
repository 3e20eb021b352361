package hashseq

import "github.com/RoaringBitmap/roaring/v2"

// tombstoneSet is the removal tombstone set (C5): the set of Ids marked
// removed (spec §4.5). It is backed by a compressed bitmap over the
// store's dense Id↔ordinal interning table rather than a map[Id]struct{},
// since the set only ever grows and is checked far more often than it is
// mutated — exactly the access pattern a Roaring bitmap compresses well.
//
// tombstoneSet never removes an Id once added (spec: "Tombstones are
// append-only"; "Removing a tombstoned Id again is idempotent").
type tombstoneSet struct {
	bitmap *roaring.Bitmap
}

func newTombstoneSet() *tombstoneSet {
	return &tombstoneSet{bitmap: roaring.New()}
}

// Add marks ord as removed. Idempotent.
func (t *tombstoneSet) Add(ord uint32) {
	t.bitmap.Add(ord)
}

// Contains reports whether ord has been tombstoned.
func (t *tombstoneSet) Contains(ord uint32) bool {
	return t.bitmap.Contains(ord)
}

// Len returns the number of tombstoned ordinals.
func (t *tombstoneSet) Len() int {
	return int(t.bitmap.GetCardinality())
}
