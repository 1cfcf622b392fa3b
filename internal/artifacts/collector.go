// Package artifacts classifies the files a completed conversion wrote into
// the four manifest categories.
package artifacts

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pagelift-ai/pagelift/internal/job"
)

// Filename markers for the non-markdown categories.
const (
	contentListSuffix = "_content_list.json"
	middleJSONSuffix  = "_middle.json"
	modelJSONSuffix   = "_model.json"
)

// Collect recursively scans outputDir and returns the produced files grouped
// by role, each category as lexicographically sorted absolute paths. A
// missing or non-directory outputDir yields an all-empty set without error.
// The result is deterministic for a fixed filesystem state.
func Collect(outputDir string) job.ArtifactSet {
	set := job.EmptyArtifactSet()

	info, err := os.Stat(outputDir)
	if err != nil || !info.IsDir() {
		return set
	}

	_ = filepath.WalkDir(outputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		abs, absErr := filepath.Abs(path)
		if absErr != nil {
			abs = path
		}
		name := d.Name()
		switch {
		case strings.HasSuffix(name, contentListSuffix):
			set.ContentList = append(set.ContentList, abs)
		case strings.HasSuffix(name, middleJSONSuffix):
			set.MiddleJSON = append(set.MiddleJSON, abs)
		case strings.HasSuffix(name, modelJSONSuffix):
			set.ModelJSON = append(set.ModelJSON, abs)
		case strings.HasSuffix(name, ".md"):
			set.Markdown = append(set.Markdown, abs)
		}
		return nil
	})

	sort.Strings(set.Markdown)
	sort.Strings(set.ContentList)
	sort.Strings(set.MiddleJSON)
	sort.Strings(set.ModelJSON)
	return set
}
