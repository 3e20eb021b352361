package hashseq

import (
	"context"
	"iter"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Option configures a Replica at construction time. HashSeq has no file-
// or environment-based configuration (spec §6: no CLI, no env vars, no
// file formats beyond the wire encoding) — every knob is a functional
// option, generalizing the teacher's single-argument NewRGA(nodeID)/
// NewGCounter(nodeID) constructors to HashSeq's larger construction
// surface (hash algorithm choice, logging).
type Option func(*Replica)

// WithHashFunc selects the content-hash algorithm a Replica uses for
// every Id it computes locally (spec §4.1, §6: BLAKE3 or SHA3-256).
// Replicas that must interoperate MUST agree on this choice.
func WithHashFunc(fn HashFunc) Option {
	return func(r *Replica) { r.hasher = NewHasher(fn) }
}

// WithLogger attaches a zap logger for structured diagnostics around
// validation rejections, pending-dependency buffering, and local
// inserts/removes. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Replica) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Replica is the public surface of HashSeq (C7, spec §4.7): a
// single-owner, single-threaded logical sequence. Concurrent mutation of
// one Replica is not supported (spec §5); callers must serialize access,
// same as the teacher's RGA requires synchronized access to its own
// linked-list state. The embedded sync.RWMutex gives Iter() the
// borrow-and-invalidate guarantee spec §5 asks for ("exposed iterators
// borrow immutably and are invalidated by the next mutation") the same
// way the teacher's RGA.Value()/GCounter.Value() take an RLock against
// concurrent Insert/Delete/Increment — not a multi-writer guarantee,
// just safe concurrent reads.
type Replica struct {
	mu sync.RWMutex

	hasher     Hasher
	store      *store
	tombstones *tombstoneSet
	posIdx     *positionIndex
	posDirty   bool
	validator  *Validator
	logger     *zap.Logger
}

// NewReplica constructs an empty Replica. With no options it hashes with
// BLAKE3 and logs nowhere.
func NewReplica(opts ...Option) *Replica {
	r := &Replica{
		hasher: NewHasher(BLAKE3),
		logger: newNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.store = newStore()
	r.tombstones = newTombstoneSet()
	r.posIdx = newPositionIndex()
	r.validator = newValidator(r.hasher, r.store, r.logger)
	return r
}

// ensureIndex rebuilds the position index from a fresh linearization if a
// prior install could not be incrementally applied. Callers must hold at
// least a read lock; rebuilding mutates posIdx/posDirty so any caller that
// finds posDirty true must actually hold the write lock (Len/Get/Iter/
// Insert/Remove all upgrade via this rule — see callers).
func (r *Replica) ensureIndex() {
	if !r.posDirty {
		return
	}
	visible := make([]Id, 0, len(r.store.nodes))
	for _, id := range r.store.Linearize() {
		node, ok := r.store.Get(id)
		if !ok || !node.Op().IsInsert() {
			continue
		}
		ord, _ := r.store.Ordinal(id)
		if r.tombstones.Contains(ord) {
			continue
		}
		visible = append(visible, id)
	}
	r.posIdx.Rebuild(visible)
	r.posDirty = false
}

// withIndex runs fn with the position index guaranteed current, taking
// whichever lock that requires.
func (r *Replica) withIndex(fn func()) {
	r.mu.RLock()
	if !r.posDirty {
		fn()
		r.mu.RUnlock()
		return
	}
	r.mu.RUnlock()

	r.mu.Lock()
	r.ensureIndex()
	fn()
	r.mu.Unlock()
}

// Len returns the number of visible characters.
func (r *Replica) Len() int {
	var n int
	r.withIndex(func() { n = r.posIdx.Len() })
	return n
}

// Get returns the visible character at pos, or (0, false) if pos is out
// of range.
func (r *Replica) Get(pos int) (rune, bool) {
	var ch rune
	var ok bool
	r.withIndex(func() {
		var id Id
		id, ok = r.posIdx.IdAt(pos)
		if !ok {
			return
		}
		node, found := r.store.Get(id)
		ok = found
		if found {
			ch = node.Op().Char
		}
	})
	return ch, ok
}

// Iter returns a restartable, lazy sequence of the replica's visible
// characters in canonical order (spec §4.7). Each call takes a fresh read
// lock for its own traversal; the iterator must be fully drained or
// abandoned before the next mutation, per spec §5's borrow-and-invalidate
// rule.
func (r *Replica) Iter() iter.Seq[rune] {
	return func(yield func(rune) bool) {
		r.withIndex(func() {
			n := r.posIdx.Len()
			for i := 0; i < n; i++ {
				id, ok := r.posIdx.IdAt(i)
				if !ok {
					return
				}
				node, ok := r.store.Get(id)
				if !ok {
					return
				}
				if !yield(node.Op().Char) {
					return
				}
			}
		})
	}
}

// String renders the replica's full visible sequence. Convenience for
// logging and tests; equivalent to draining Iter into a strings.Builder.
func (r *Replica) String() string {
	var sb strings.Builder
	for ch := range r.Iter() {
		sb.WriteRune(ch)
	}
	return sb.String()
}

// Tips returns every Id with no children — the conservative, always-safe
// extra_dependencies set for a new local edit (spec §4.2, §4.7).
func (r *Replica) Tips() []Id {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.Tips()
}

// Insert builds the HashNode for inserting ch at pos against this
// replica's current view (spec §4.6's Cursor.insert), installs it
// locally, and returns it so the caller can broadcast it to peers. Spec
// §7: pos > Len() is a recoverable PositionOutOfRange error that does not
// mutate state.
func (r *Replica) Insert(pos int, ch rune) (HashNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureIndex()

	cur := &cursor{idx: r.posIdx, hasher: r.hasher}
	node, err := cur.BuildInsert(pos, ch, r.store.Tips())
	if err != nil {
		return HashNode{}, err
	}

	anchor, hasAnchor := node.Anchor()
	fastPath := true
	if hasAnchor {
		lefts, rights := r.store.ChildrenOf(anchor)
		if node.Op().Kind == OpInsertBefore {
			fastPath = len(lefts) == 0
		} else {
			fastPath = len(rights) == 0
		}
	} else {
		fastPath = len(r.store.Roots()) == 0
	}

	installed := r.store.Install(node)
	r.integrate(installed, fastPath)
	r.logger.Debug("local insert", zap.Int("pos", pos), zap.Stringer("id", node.Id()))
	return node, nil
}

// Remove builds the HashNode tombstoning the visible character at pos,
// installs it locally, and returns it for broadcast.
func (r *Replica) Remove(pos int) (HashNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureIndex()

	cur := &cursor{idx: r.posIdx, hasher: r.hasher}
	node, err := cur.BuildRemove(pos, r.store.Tips())
	if err != nil {
		return HashNode{}, err
	}

	installed := r.store.Install(node)
	r.integrate(installed, true)
	r.logger.Debug("local remove", zap.Int("pos", pos), zap.Stringer("id", node.Id()))
	return node, nil
}

// Apply validates and installs a HashNode received from a peer (spec
// §4.7). If node's dependencies are not yet present, it is buffered
// silently (spec §7: PendingDependency "is invisible to the caller") and
// Apply returns nil. A non-nil error means node was a permanent,
// fatal rejection (spec §7) and was not installed.
func (r *Replica) Apply(node HashNode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.validator.Validate(node); err != nil {
		r.logger.Warn("rejected node", zap.Stringer("id", node.Id()), zap.Error(err))
		return err
	}

	installed := r.store.Install(node)
	if len(installed) == 0 && !r.store.Contains(node.Id()) {
		r.logger.Debug("buffered pending node", zap.Stringer("id", node.Id()))
	}
	r.integrate(installed, false)
	return nil
}

// ApplyBatch validates and installs every node in nodes, in order. Hash
// integrity (the one check independent of install order) is checked
// concurrently via errgroup before any node is installed; installation
// itself remains sequential so dependency-closure buffering (spec §4.3)
// stays deterministic. The first permanently-rejected node aborts the
// batch; nodes already installed before that point remain installed
// (Install is idempotent, so retrying the same batch is always safe).
func (r *Replica) ApplyBatch(ctx context.Context, nodes []HashNode) error {
	if len(nodes) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	hashOk, err := r.validator.PrecheckHashes(ctx, nodes)
	if err != nil {
		return err
	}
	for i, node := range nodes {
		if !hashOk[i] {
			return rejectf(ErrHashMismatch, "batch index %d, node %s", i, node.Id())
		}
	}

	for _, node := range nodes {
		if err := r.validator.Validate(node); err != nil {
			r.logger.Warn("rejected node in batch", zap.Stringer("id", node.Id()), zap.Error(err))
			return err
		}
		installed := r.store.Install(node)
		r.integrate(installed, false)
	}
	return nil
}

// integrate applies C5/C6 side effects for every node that Install just
// installed. fastPathHint is only honored for a single directly-applied
// insertion (len(installed) == 1 and it is the caller's own node): every
// other case — cascading pending-flush installs, or any installation with
// pre-existing siblings — conservatively marks the index dirty rather
// than risk placing a node at the wrong rank relative to concurrent
// siblings it cannot resolve without a full linearization.
func (r *Replica) integrate(installed []HashNode, fastPathHint bool) {
	for i, node := range installed {
		switch node.Op().Kind {
		case OpRemove:
			for _, target := range node.Op().Targets {
				if ord, ok := r.store.Ordinal(target); ok {
					r.tombstones.Add(ord)
				}
				if !r.posDirty {
					r.posIdx.RemoveId(target)
				}
			}
		default:
			useFastPath := fastPathHint && i == 0 && len(installed) == 1 && !r.posDirty
			if !useFastPath {
				r.posDirty = true
				continue
			}
			r.placeFastPath(node)
		}
	}
}

// placeFastPath splices a freshly-installed insertion node directly into
// the position index, valid only when its anchor had no other children
// on the relevant side prior to this install (checked by the caller).
func (r *Replica) placeFastPath(node HashNode) {
	switch node.Op().Kind {
	case OpInsertRoot:
		r.posIdx.InsertAt(0, node.Id())
	case OpInsertBefore:
		pos, ok := r.posIdx.PosOf(node.Op().Anchor)
		if !ok {
			r.posDirty = true
			return
		}
		r.posIdx.InsertAt(pos, node.Id())
	case OpInsertAfter:
		pos, ok := r.posIdx.PosOf(node.Op().Anchor)
		if !ok {
			r.posDirty = true
			return
		}
		r.posIdx.InsertAt(pos+1, node.Id())
	}
}
