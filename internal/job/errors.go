package job

import (
	"context"
	"errors"
	"fmt"
)

// Error is a classified harness failure. Every failure that crosses the
// orchestration boundary is wrapped in one of these; raw engine errors never
// surface to the caller or the event stream.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// InvalidInput reports bad or missing input: nonexistent paths, empty
// directories after filtering, non-positive timeouts, inverted page ranges.
func InvalidInput(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// OutputUnwritable reports an output location that cannot be created or
// probed, or a manifest that could not be persisted.
func OutputUnwritable(message string, err error) *Error {
	return &Error{Code: CodeOutputUnwritable, Message: message, Err: err}
}

// EngineFailed wraps any engine-side failure without a more specific cause.
func EngineFailed(err error) *Error {
	return &Error{Code: CodeEngineFailed, Message: "engine failed", Err: err}
}

// TimeoutExceeded reports that the deadline elapsed before the isolated
// worker finished.
func TimeoutExceeded(message string) *Error {
	return &Error{Code: CodeTimeout, Message: message}
}

// Classify maps an error from the running phase to its terminal status and
// error code. A nil error is the success case. Context cancellation (the
// signal bridge path) takes precedence over wrapped classifications.
func Classify(err error) (Status, *Code) {
	if err == nil {
		return StatusSucceeded, nil
	}
	if errors.Is(err, context.Canceled) {
		return StatusCancelled, codePtr(CodeCancelled)
	}
	var cerr *Error
	if errors.As(err, &cerr) {
		switch cerr.Code {
		case CodeTimeout:
			return StatusTimeout, codePtr(CodeTimeout)
		case CodeInvalidInput, CodeOutputUnwritable, CodeEngineFailed:
			return StatusFailed, codePtr(cerr.Code)
		}
	}
	return StatusFailed, codePtr(CodeEngineFailed)
}

func codePtr(c Code) *Code { return &c }
