package hashseq

// cursor implements the C6 contract of building the correct Op for a
// position-addressed edit (spec §4.6): InsertRoot when the sequence is
// empty, InsertBefore a successor whenever one exists, and
// InsertAfter(predecessor) only when inserting past the last visible
// element (no successor to anchor to).
//
// Spec §4.6's literal "Else: InsertAfter(id_at(pos-1))" default and its
// own scenario 8.4 ("typo fix mid-run... MUST be hello, never hlloe")
// are in tension: once a predecessor already has one right child (as it
// does after any prior append), anchoring a new mid-run insert to that
// predecessor puts its placement at the mercy of a hash comparison
// against the existing child — exactly the "hlloe" outcome scenario 8.4
// forbids. Anchoring to the successor with InsertBefore instead is
// unconditional: a node with no InsertBefore siblings always lands
// immediately before that successor regardless of any other sibling's
// hash. See DESIGN.md's Open Question decision.
type cursor struct {
	idx    *positionIndex
	hasher Hasher
}

// BuildInsert constructs the HashNode for inserting ch at pos against the
// cursor's current view, using extraDeps as the node's
// extra_dependencies. It does not mutate the index; the caller installs
// the resulting node and then updates the index.
func (c *cursor) BuildInsert(pos int, ch rune, extraDeps []Id) (HashNode, error) {
	n := c.idx.Len()
	if pos < 0 || pos > n {
		return HashNode{}, rejectf(ErrPositionOutOfRange, "insert at %d, len %d", pos, n)
	}

	var op Op
	switch {
	case n == 0:
		op = InsertRoot(ch)
	case pos < n:
		successor, _ := c.idx.IdAt(pos)
		op = InsertBefore(successor, ch)
	default: // pos == n: appending past the last visible element
		predecessor, _ := c.idx.IdAt(pos - 1)
		op = InsertAfter(predecessor, ch)
	}
	return NewHashNode(c.hasher, extraDeps, op), nil
}

// BuildRemove constructs the HashNode tombstoning the visible character
// at pos.
func (c *cursor) BuildRemove(pos int, extraDeps []Id) (HashNode, error) {
	n := c.idx.Len()
	if pos < 0 || pos >= n {
		return HashNode{}, rejectf(ErrPositionOutOfRange, "remove at %d, len %d", pos, n)
	}
	target, _ := c.idx.IdAt(pos)
	return NewHashNode(c.hasher, extraDeps, Remove([]Id{target})), nil
}
