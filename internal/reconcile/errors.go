package reconcile

import "errors"

// Domain errors for the reconcile package.
// Use errors.Is() to check for these in calling code.
var (
	// ErrInvalidSnapshot is returned when a pass is handed a nil snapshot
	// or one without a unit list. This is the only condition that fails a
	// whole pass; per-category failures are contained and logged.
	ErrInvalidSnapshot = errors.New("reconcile: invalid snapshot")
)
