package hashseq

import "github.com/google/btree"

// idSet is an ascending ordered set of Ids backed by google/btree's
// generic B-tree (grounded: AKJUS-bsc-erigon/go.mod requires
// github.com/google/btree). It replaces a manually sorted slice for the
// causal tree's per-anchor lefts/rights sibling sets and the top-level
// roots set (spec §4.3: "Ordering of siblings is maintained by sorted
// insertion on Id"), giving O(log n) insertion instead of an O(n)
// slice-shift for anchors with many concurrent children.
type idSet struct {
	tree *btree.BTreeG[Id]
}

func newIdSet() *idSet {
	return &idSet{tree: btree.NewG(32, func(a, b Id) bool { return a.Less(b) })}
}

func (s *idSet) insert(id Id) {
	s.tree.ReplaceOrInsert(id)
}

func (s *idSet) len() int {
	return s.tree.Len()
}

// ascending returns every member in ascending Id order.
func (s *idSet) ascending() []Id {
	out := make([]Id, 0, s.tree.Len())
	s.tree.Ascend(func(id Id) bool {
		out = append(out, id)
		return true
	})
	return out
}

// childSet partitions a node's children into the two ordered sets spec §3
// defines: lefts (InsertBefore children) and rights (InsertAfter
// children).
type childSet struct {
	lefts  *idSet
	rights *idSet
}

// store is the causal tree store (C3): the mapping Id → HashNode, the set
// of roots, sibling adjacency, and dependency-closure buffering for nodes
// that arrive before their causal predecessors (spec §4.3).
type store struct {
	nodes    map[Id]HashNode
	children map[Id]*childSet
	roots    *idSet // spec I5: multiple roots ordered ascending, all visible

	pending      map[Id]HashNode
	reverseWaits map[Id][]Id // depId -> ids in pending blocked on depId

	// ordinals interns every installed Id to a dense uint32, letting C5's
	// tombstone set use a compact bitmap instead of a map[Id]struct{},
	// since the set only ever grows and is checked far more often than it
	// is mutated. Assignment is append-only, matching spec §5's "memory
	// grows monotonically".
	ordinals    map[Id]uint32
	byOrdinal   []Id
	nextOrdinal uint32
}

func newStore() *store {
	return &store{
		nodes:        make(map[Id]HashNode),
		children:     make(map[Id]*childSet),
		roots:        newIdSet(),
		pending:      make(map[Id]HashNode),
		reverseWaits: make(map[Id][]Id),
		ordinals:     make(map[Id]uint32),
	}
}

// Contains reports whether id has been installed (not merely pending).
func (s *store) Contains(id Id) bool {
	_, ok := s.nodes[id]
	return ok
}

// IsPending reports whether id is buffered awaiting dependencies.
func (s *store) IsPending(id Id) bool {
	_, ok := s.pending[id]
	return ok
}

// Get returns the installed node for id, if any.
func (s *store) Get(id Id) (HashNode, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// ChildrenOf returns the ascending-sorted lefts/rights sibling sets for id
// (spec §4.3). Callers must not mutate the returned slices.
func (s *store) ChildrenOf(id Id) (lefts, rights []Id) {
	cs, ok := s.children[id]
	if !ok {
		return nil, nil
	}
	return cs.lefts.ascending(), cs.rights.ascending()
}

// Roots returns the ascending-sorted set of InsertRoot Ids (spec I5:
// multiple roots may coexist, all visible, ordered by Id).
func (s *store) Roots() []Id {
	return s.roots.ascending()
}

// Ordinal returns the dense integer id interned is installed under, and
// whether id has been installed at all.
func (s *store) Ordinal(id Id) (uint32, bool) {
	ord, ok := s.ordinals[id]
	return ord, ok
}

// IdAtOrdinal is the inverse of Ordinal.
func (s *store) IdAtOrdinal(ord uint32) (Id, bool) {
	if int(ord) >= len(s.byOrdinal) {
		return Id{}, false
	}
	return s.byOrdinal[ord], true
}

// Install attempts to install node into the causal tree. If node is
// already installed, Install is a no-op and returns nil (spec: "Idempotent:
// installing an existing Id is a no-op"). If any of node's dependencies
// (anchor, Remove targets, extra_dependencies — spec I2) are not yet
// installed, node is buffered in pending and Install returns nil: this is
// not an error (spec §7, PendingDependency "is invisible to the caller").
//
// Installing node may transitively unblock nodes already in pending.
// Install returns every node that became installed as a result of this
// call, in dependency order (node itself first, if it was installed
// immediately), so the caller (Replica) can drive C5/C6 updates for each.
func (s *store) Install(node HashNode) []HashNode {
	if s.Contains(node.Id()) {
		return nil
	}

	if !s.dependenciesSatisfied(node) {
		s.buffer(node)
		return nil
	}

	var installed []HashNode
	s.insertInstalled(node)
	installed = append(installed, node)
	installed = append(installed, s.flush(node.Id())...)
	return installed
}

func (s *store) dependenciesSatisfied(node HashNode) bool {
	for _, dep := range node.Dependencies() {
		if !s.Contains(dep) {
			return false
		}
	}
	return true
}

func (s *store) buffer(node HashNode) {
	s.pending[node.Id()] = node
	for _, dep := range node.Dependencies() {
		if !s.Contains(dep) {
			s.reverseWaits[dep] = append(s.reverseWaits[dep], node.Id())
		}
	}
}

// flush re-checks every pending node waiting on justInstalled and installs
// whichever now has every dependency satisfied, recursively.
func (s *store) flush(justInstalled Id) []HashNode {
	waiters := s.reverseWaits[justInstalled]
	delete(s.reverseWaits, justInstalled)

	var installed []HashNode
	for _, waiterId := range waiters {
		node, ok := s.pending[waiterId]
		if !ok {
			continue // already installed via another dependency path
		}
		if !s.dependenciesSatisfied(node) {
			continue
		}
		delete(s.pending, waiterId)
		s.insertInstalled(node)
		installed = append(installed, node)
		installed = append(installed, s.flush(waiterId)...)
	}
	return installed
}

func (s *store) insertInstalled(node HashNode) {
	s.nodes[node.Id()] = node
	s.intern(node.Id())

	if anchor, ok := node.Anchor(); ok {
		cs, ok := s.children[anchor]
		if !ok {
			cs = &childSet{lefts: newIdSet(), rights: newIdSet()}
			s.children[anchor] = cs
		}
		switch node.Op().Kind {
		case OpInsertBefore:
			cs.lefts.insert(node.Id())
		case OpInsertAfter:
			cs.rights.insert(node.Id())
		}
		return
	}

	if node.Op().Kind == OpInsertRoot {
		s.roots.insert(node.Id())
	}
}

func (s *store) intern(id Id) uint32 {
	if ord, ok := s.ordinals[id]; ok {
		return ord
	}
	ord := s.nextOrdinal
	s.nextOrdinal++
	s.ordinals[id] = ord
	s.byOrdinal = append(s.byOrdinal, id)
	return ord
}

// Tips returns every installed node with no children — the default
// extra_dependencies set for new edits (spec §4.2, §4.7). A node with an
// empty or absent childSet entry is a tip.
func (s *store) Tips() []Id {
	var tips []Id
	for id := range s.nodes {
		cs, ok := s.children[id]
		if !ok || (cs.lefts.len() == 0 && cs.rights.len() == 0) {
			tips = append(tips, id)
		}
	}
	return tips
}
