package model

import "errors"

// Fatal index errors. Only filesystem/config-level problems abort a run;
// anything file-scoped is recorded in IndexTrouble instead.
var (
	ErrRootNotFound     = errors.New("source root not found")
	ErrPermissionDenied = errors.New("source root permission denied")
)

// CancelledError is returned when a run is cancelled cooperatively. It
// carries whatever units finished before the cancellation for diagnostics;
// callers must not treat the partial set as a valid analysis result.
type CancelledError struct {
	Partial []Unit
}

func (e *CancelledError) Error() string {
	return "analysis cancelled"
}

// Is lets errors.Is match any CancelledError against a bare *CancelledError
func (e *CancelledError) Is(target error) bool {
	_, ok := target.(*CancelledError)
	return ok
}
