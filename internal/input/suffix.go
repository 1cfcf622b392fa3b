package input

import (
	"path/filepath"
	"strings"
)

// DocumentSuffixes holds the supported document extensions.
var DocumentSuffixes = map[string]struct{}{
	".pdf": {},
}

// ImageSuffixes holds the supported image extensions.
var ImageSuffixes = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".webp": {},
	".gif":  {},
	".bmp":  {},
}

// Supported reports whether path carries a document or image suffix.
// Classification is by extension only; file contents are the engine's
// concern.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := DocumentSuffixes[ext]; ok {
		return true
	}
	_, ok := ImageSuffixes[ext]
	return ok
}
