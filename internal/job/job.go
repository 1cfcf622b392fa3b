// Package job defines the data model for a single conversion run: the
// immutable Job input, the terminal Result, the status and error taxonomy,
// and the exit-code mapping.
package job

import "time"

// Job is the complete, immutable input to one run. It is constructed once at
// invocation start and never mutated.
type Job struct {
	ID        string
	InputPath string
	OutputDir string

	Backend  string
	Method   string
	Language string

	// StartPage is inclusive and zero-based. EndPage is inclusive when set;
	// nil means "to the last page".
	StartPage int
	EndPage   *int

	FormulaEnabled bool
	TableEnabled   bool

	// Runtime overrides. Empty/nil values fall back to configuration.
	Device      string
	VirtualVRAM *int
	ModelSource string

	// ServerURL is required by *-client backends and ignored otherwise.
	ServerURL string

	// Timeout selects isolated execution when set. nil means direct
	// execution with no deadline. A set but non-positive value is rejected
	// before the engine starts.
	Timeout *time.Duration

	// EmitEvents enables the JSONL lifecycle event stream.
	EmitEvents bool
}
