package job

// Status is the terminal classification of a run.
type Status string

// Stable values (these exact strings appear in the manifest).
const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusTimeout   Status = "timeout"
)

// Code identifies one of the five contract error classes.
type Code string

const (
	CodeInvalidInput     Code = "E_INVALID_INPUT"
	CodeEngineFailed     Code = "E_ENGINE_FAILED"
	CodeCancelled        Code = "E_CANCELLED"
	CodeTimeout          Code = "E_TIMEOUT"
	CodeOutputUnwritable Code = "E_OUTPUT_UNWRITABLE"
)

// Process exit codes, one per terminal outcome.
const (
	ExitSucceeded        = 0
	ExitFailed           = 1
	ExitInvalidInput     = 2
	ExitOutputUnwritable = 3
	ExitCancelled        = 4
	ExitTimeout          = 5
)

// ExitCode maps a terminal status and error code to the process exit code.
// It is a pure function of the final outcome.
func ExitCode(status Status, code *Code) int {
	switch status {
	case StatusSucceeded:
		return ExitSucceeded
	case StatusCancelled:
		return ExitCancelled
	case StatusTimeout:
		return ExitTimeout
	}
	if code != nil {
		switch *code {
		case CodeInvalidInput:
			return ExitInvalidInput
		case CodeOutputUnwritable:
			return ExitOutputUnwritable
		}
	}
	return ExitFailed
}
