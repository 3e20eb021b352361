package hashseq

import (
	"github.com/pkg/errors"
)

// Sentinel errors making up the typed taxonomy from spec §7. Callers
// should compare against these with errors.Is; HashMismatch, MalformedOp
// and EmptyRemove are permanent, never re-queued, rejections.
// PositionOutOfRange is a caller error that never mutates replica state.
var (
	// ErrHashMismatch is returned when a HashNode's claimed Id does not
	// equal the hash of its canonical encoding (hash forgery).
	ErrHashMismatch = errors.New("hashseq: hash mismatch")

	// ErrMalformedOp is returned for a structurally invalid op: a Remove
	// targeting a non-insertion node, or similar well-formedness failures.
	ErrMalformedOp = errors.New("hashseq: malformed op")

	// ErrEmptyRemove is returned for a Remove op with no targets.
	ErrEmptyRemove = errors.New("hashseq: empty remove")

	// ErrPositionOutOfRange is returned when a caller requests an
	// insert/remove at a position beyond the visible sequence. Get does
	// not return it; it reports an out-of-range position as (0, false).
	ErrPositionOutOfRange = errors.New("hashseq: position out of range")

	// ErrUnknownId names a lookup of an Id the store has never seen (and
	// is not currently buffering as pending). No function in this package
	// returns it: store lookups report a missing Id with a false boolean.
	ErrUnknownId = errors.New("hashseq: unknown id")
)

// rejectf wraps one of the sentinel errors above with contextual detail
// while preserving errors.Is matching against the sentinel via pkg/errors'
// Cause chain.
func rejectf(sentinel error, format string, args ...any) error {
	return errors.Wrapf(sentinel, format, args...)
}
