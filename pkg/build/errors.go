package build

import (
	"errors"
	"fmt"
)

// ErrCancelled reports an explicit abort of a running build.
var ErrCancelled = errors.New("build cancelled")

// ErrTimeout reports a build aborted by a timeout watch. It matches
// ErrCancelled with errors.Is.
var ErrTimeout = fmt.Errorf("build timed out: %w", ErrCancelled)

// DispatchError reports that a build could not be handed to a background
// worker.
type DispatchError struct {
	Reason string
	Err    error
}

func (e *DispatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dispatch failed: %s: %v", e.Reason, e.Err)
	}
	return "dispatch failed: " + e.Reason
}

func (e *DispatchError) Unwrap() error { return e.Err }
