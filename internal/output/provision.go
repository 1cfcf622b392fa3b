// Package output provisions the output directory before a run starts.
package output

import (
	"os"
	"path/filepath"

	"github.com/pagelift-ai/pagelift/internal/job"
)

// probeName is the throwaway file used to prove writability.
const probeName = ".pagelift-write-test"

// Provision creates dir (and parents) if absent and proves it is writable by
// writing and removing a small probe file. Any failure maps to
// OutputUnwritable. This runs once, before the engine, independent of the
// later manifest write.
func Provision(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return job.OutputUnwritable("output dir cannot be created: "+dir, err)
	}
	probe := filepath.Join(dir, probeName)
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return job.OutputUnwritable("output dir is not writable: "+dir, err)
	}
	if err := os.Remove(probe); err != nil {
		return job.OutputUnwritable("output dir probe cleanup failed: "+dir, err)
	}
	return nil
}
