package cmd

import (
	"errors"
	"fmt"

	"github.com/chazu/kerf/pkg/build"
	"github.com/chazu/kerf/pkg/engine"
)

// Exit codes.
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitScriptError  = 2
	ExitBuildError   = 3
	ExitConfigError  = 4
)

// ExitError carries the process exit code for an error.
type ExitError struct {
	Code int
	Err  error
	// Printed is set when the command already reported the error.
	Printed bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// classify maps an error to an ExitError.
func classify(err error) *ExitError {
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee
	}
	var se *engine.ScriptError
	var pe *engine.ParamError
	if errors.As(err, &se) || errors.As(err, &pe) {
		return &ExitError{Code: ExitScriptError, Err: err}
	}
	var ev *engine.EvaluationError
	var de *build.DispatchError
	if errors.As(err, &ev) || errors.As(err, &de) || errors.Is(err, build.ErrCancelled) {
		return &ExitError{Code: ExitBuildError, Err: err}
	}
	return &ExitError{Code: ExitGeneralError, Err: err}
}
