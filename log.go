package hashseq

import "go.uber.org/zap"

// newNopLogger returns the default logger for a freshly constructed
// Replica: a no-op sink. HashSeq is a library with no process lifecycle
// of its own, so it never owns a real log sink unless the caller supplies
// one via WithLogger.
func newNopLogger() *zap.Logger {
	return zap.NewNop()
}
