// Package manifest persists the final job result as result.json in the
// output directory.
package manifest

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pagelift-ai/pagelift/internal/job"
)

// Filename is the fixed manifest name inside the output directory.
const Filename = "result.json"

// Path returns where the manifest for outputDir lives.
func Path(outputDir string) string {
	return filepath.Join(outputDir, Filename)
}

// Write serializes result to result.json inside outputDir, creating the
// directory if needed. It reports success as a boolean rather than an error:
// the caller reacts to failure by downgrading the job outcome, not by
// unwinding, so nothing is raised and any I/O failure is swallowed.
func Write(outputDir string, result *job.Result) bool {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return false
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return false
	}

	return os.WriteFile(Path(outputDir), buf.Bytes(), 0o644) == nil
}
