package hashseq

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Validator checks incoming HashNodes for hash integrity, op
// well-formedness, and the InsertRoot heuristic (spec §4.8). It does not
// check dependency closure: a node whose anchor/targets/extra_dependencies
// are not yet installed is neither valid nor invalid here — the store
// buffers it in pending (spec §4.8: "in which case the node is buffered,
// not rejected").
type Validator struct {
	hasher Hasher
	store  *store
	logger *zap.Logger
}

func newValidator(hasher Hasher, s *store, logger *zap.Logger) *Validator {
	return &Validator{hasher: hasher, store: s, logger: logger}
}

// Validate runs every permanent-rejection check from spec §4.8 against
// node. A non-nil error means node must never be installed or re-queued
// (spec §7: "Validation failure is a fatal, permanent rejection").
func (v *Validator) Validate(node HashNode) error {
	if !node.VerifyHash(v.hasher) {
		return rejectf(ErrHashMismatch, "node %s", node.Id())
	}

	switch node.Op().Kind {
	case OpRemove:
		if len(node.Op().Targets) == 0 {
			return rejectf(ErrEmptyRemove, "node %s", node.Id())
		}
		for _, target := range node.Op().Targets {
			if existing, ok := v.store.Get(target); ok && !existing.Op().IsInsert() {
				return rejectf(ErrMalformedOp, "node %s: remove target %s is not an insertion", node.Id(), target)
			}
		}
	case OpInsertRoot:
		// Heuristic only — spec §4.8 is explicit that concurrent roots
		// are legal and handled by the linearizer; this never rejects.
		if v.dependsOnAnotherRoot(node) {
			v.logger.Warn("insert-root depends on another observed root",
				zap.Stringer("id", node.Id()))
		}
	}

	return nil
}

func (v *Validator) dependsOnAnotherRoot(node HashNode) bool {
	for _, dep := range node.ExtraDependencies() {
		if n, ok := v.store.Get(dep); ok && n.Op().Kind == OpInsertRoot {
			return true
		}
	}
	return false
}

// PrecheckHashes verifies the hash integrity of every node in nodes
// concurrently, returning a parallel slice of results. It is the
// embarrassingly-parallel part of batch validation ApplyBatch uses before
// installing nodes sequentially in their given order (spec §4.3's
// sequential install contract is otherwise unaffected — this only
// front-loads the one check that doesn't depend on install order).
func (v *Validator) PrecheckHashes(ctx context.Context, nodes []HashNode) ([]bool, error) {
	results := make([]bool, len(nodes))
	g, _ := errgroup.WithContext(ctx)
	for i := range nodes {
		i := i
		g.Go(func() error {
			results[i] = nodes[i].VerifyHash(v.hasher)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
