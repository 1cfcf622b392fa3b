// Package input validates and expands the input path into the concrete list
// of documents a run will convert.
package input

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pagelift-ai/pagelift/internal/job"
)

// Resolve expands path into the list of eligible document paths.
//
// A nonexistent path is invalid input. A single file is returned as-is with
// no suffix check: an explicitly named file is trusted. A directory
// contributes its immediate entries with supported suffixes, sorted for
// reproducibility; subdirectories are not descended into, and an empty
// filtered result is invalid input.
func Resolve(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, job.InvalidInput("input does not exist: %s", path)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, job.InvalidInput("cannot list input directory %s: %v", path, err)
	}

	var result []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if Supported(entry.Name()) {
			result = append(result, filepath.Join(path, entry.Name()))
		}
	}
	if len(result) == 0 {
		return nil, job.InvalidInput("no supported files found under: %s", path)
	}
	sort.Strings(result)
	return result, nil
}
