// Package engine defines the conversion-engine abstraction the harness
// supervises, plus the default implementation that drives an external
// converter binary. The engine is opaque: possibly long-running, possibly
// not cooperatively interruptible, and its internals are never inspected.
package engine

import (
	"context"
	"strings"
)

// Supported backend selectors.
var Backends = []string{
	"pipeline",
	"vlm-http-client",
	"hybrid-http-client",
	"vlm-auto-engine",
	"hybrid-auto-engine",
}

// Supported parsing methods.
var Methods = []string{"auto", "txt", "ocr"}

// Supported model sources.
var ModelSources = []string{"huggingface", "modelscope", "local"}

// Supported document languages.
var Languages = []string{
	"ch", "ch_server", "ch_lite", "en", "korean", "japan", "chinese_cht",
	"ta", "te", "ka", "th", "el", "latin", "arabic", "east_slavic",
	"cyrillic", "devanagari",
}

// Runtime is the immutable device/model configuration threaded into the
// engine call. It is resolved once per run; the harness never mutates
// process-wide environment to communicate it.
type Runtime struct {
	Device      string
	VirtualVRAM int
	ModelSource string
}

// Request carries one conversion batch: the documents to convert and the
// full parsing configuration.
type Request struct {
	Documents []string
	OutputDir string

	Backend  string
	Method   string
	Language string

	StartPage int
	EndPage   *int

	FormulaEnabled bool
	TableEnabled   bool

	Runtime   Runtime
	ServerURL string
}

// Engine is the single call the harness wraps. Convert performs the
// extraction, writing artifact files into the output directory as a side
// effect, and returns an error on any engine-side failure. Version reports
// the engine version for the manifest, best-effort.
type Engine interface {
	Convert(ctx context.Context, req Request) error
	Version(ctx context.Context) string
}

// ClientBackend reports whether backend delegates conversion to a remote
// server. Client backends carry their own runtime on the server side, so
// local runtime resolution is skipped for them.
func ClientBackend(backend string) bool {
	return strings.HasSuffix(backend, "-client")
}

// ValidBackend reports whether backend is a known selector.
func ValidBackend(backend string) bool { return contains(Backends, backend) }

// ValidMethod reports whether method is a known parsing method.
func ValidMethod(method string) bool { return contains(Methods, method) }

// ValidModelSource reports whether source is a known model source.
func ValidModelSource(source string) bool { return contains(ModelSources, source) }

// ValidLanguage reports whether lang is a supported language.
func ValidLanguage(lang string) bool { return contains(Languages, lang) }

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
