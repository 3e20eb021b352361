package hashseq

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestReplica_InsertRemoveGetLen(t *testing.T) {
	r := NewReplica()

	for i, ch := range "abc" {
		_, err := r.Insert(i, ch)
		require.NoError(t, err)
	}
	require.Equal(t, 3, r.Len())

	ch, ok := r.Get(1)
	require.True(t, ok)
	require.Equal(t, 'b', ch)

	_, err := r.Remove(1)
	require.NoError(t, err)
	require.Equal(t, 2, r.Len())
	require.Equal(t, "ac", r.String())
}

func TestReplica_InsertRejectsOutOfRangePosition(t *testing.T) {
	r := NewReplica()
	_, err := r.Insert(1, 'x')
	require.ErrorIs(t, err, ErrPositionOutOfRange)
}

func TestReplica_RemoveRejectsOutOfRangePosition(t *testing.T) {
	r := NewReplica()
	mustInsert(t, r, 0, 'x')
	_, err := r.Remove(5)
	require.ErrorIs(t, err, ErrPositionOutOfRange)
}

func TestReplica_ApplyBuffersPendingSilently(t *testing.T) {
	r := NewReplica()
	hasher := r.hasher
	orphanAnchor := hasher.Hash([]byte("never installed"))
	orphan := NewHashNode(hasher, nil, InsertAfter(orphanAnchor, 'z'))

	err := r.Apply(orphan)
	require.NoError(t, err)
	require.Equal(t, 0, r.Len())
}

func TestReplica_ApplyRejectsForgedHash(t *testing.T) {
	r := NewReplica()
	good := NewHashNode(r.hasher, nil, InsertRoot('a'))
	forged := HashNode{id: good.Id(), op: InsertRoot('b')}

	err := r.Apply(forged)
	require.ErrorIs(t, err, ErrHashMismatch)
	require.Equal(t, 0, r.Len())
}

func TestReplica_IterIsRestartable(t *testing.T) {
	r := NewReplica()
	for i, ch := range "xyz" {
		mustInsert(t, r, i, ch)
	}

	var first, second []rune
	for ch := range r.Iter() {
		first = append(first, ch)
	}
	for ch := range r.Iter() {
		second = append(second, ch)
	}
	require.Equal(t, first, second)
	require.Equal(t, "xyz", string(first))
}

func TestReplica_WithLoggerOption(t *testing.T) {
	logger := zaptest.NewLogger(t)
	r := NewReplica(WithLogger(logger))
	_, err := r.Insert(0, 'a')
	require.NoError(t, err)
}

func TestReplica_WithHashFuncOption(t *testing.T) {
	r := NewReplica(WithHashFunc(SHA3256))
	require.Equal(t, SHA3256, r.hasher.Func())
}

func TestReplica_TipsTracksFrontier(t *testing.T) {
	r := NewReplica()
	n1 := mustInsert(t, r, 0, 'a')
	tips := r.Tips()
	require.Equal(t, []Id{n1.Id()}, tips)

	n2 := mustInsert(t, r, 1, 'b')
	tips = r.Tips()
	require.Equal(t, []Id{n2.Id()}, tips)
}

func TestReplica_MixedLocalAndRemoteEditsConverge(t *testing.T) {
	a := NewReplica()
	b := NewReplica()

	mustInsert(t, a, 0, 'h')
	mustInsert(t, a, 1, 'i')
	applyAll(t, b, allNodes(a))

	// b inserts mid-run, exercising the dirty-rebuild path when a's own
	// concurrent edit lands on the same anchor.
	mustInsert(t, a, 1, 'X')
	mustInsert(t, b, 1, 'Y')

	applyAll(t, a, allNodes(b))
	applyAll(t, b, allNodes(a))

	require.Equal(t, a.String(), b.String())
	require.Equal(t, 4, a.Len())
}
