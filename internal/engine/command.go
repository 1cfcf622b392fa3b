package engine

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// versionProbeTimeout bounds the best-effort --version probe.
const versionProbeTimeout = 10 * time.Second

// CommandEngine drives an external converter binary. Context cancellation
// kills the child process outright, which is what gives the supervisor its
// forced-termination lever: the binary is not expected to honor polite
// requests mid-inference.
type CommandEngine struct {
	binary string
	logger zerolog.Logger

	versionOnce sync.Once
	version     string
}

// NewCommandEngine returns an engine invoking binary for each conversion.
func NewCommandEngine(binary string, logger zerolog.Logger) *CommandEngine {
	return &CommandEngine{binary: binary, logger: logger}
}

// Convert runs one conversion batch to completion. The child's stdout and
// stderr are captured for diagnostics only; the engine communicates results
// through the filesystem and its exit status.
func (e *CommandEngine) Convert(ctx context.Context, req Request) error {
	args := buildArgs(req)

	cmd := exec.CommandContext(ctx, e.binary, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	cmd.WaitDelay = 5 * time.Second

	start := time.Now()
	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		e.logger.Error().
			Str("binary", e.binary).
			Int64("duration_ms", dur.Milliseconds()).
			Str("stderr", truncate(errb.String(), 8<<10)).
			Err(err).
			Msg("converter failed")
		return fmt.Errorf("converter %s: %w", e.binary, err)
	}

	e.logger.Debug().
		Str("binary", e.binary).
		Int("documents", len(req.Documents)).
		Int64("duration_ms", dur.Milliseconds()).
		Msg("converter finished")
	return nil
}

// Version probes the binary once with --version and caches the first output
// line. Probe failures yield "unknown"; the manifest field is best-effort.
func (e *CommandEngine) Version(ctx context.Context) string {
	e.versionOnce.Do(func() {
		e.version = "unknown"

		probeCtx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
		defer cancel()

		out, err := exec.CommandContext(probeCtx, e.binary, "--version").Output()
		if err != nil {
			e.logger.Debug().Str("binary", e.binary).Err(err).Msg("version probe failed")
			return
		}
		if line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n"); line != "" {
			e.version = line
		}
	})
	return e.version
}

// buildArgs maps a Request onto the converter's command line. One --input
// flag per document; runtime flags are omitted for client backends, whose
// zero Runtime carries nothing.
func buildArgs(req Request) []string {
	args := make([]string, 0, 2*len(req.Documents)+24)
	for _, doc := range req.Documents {
		args = append(args, "--input", doc)
	}
	args = append(args,
		"--output", req.OutputDir,
		"--backend", req.Backend,
		"--method", req.Method,
		"--lang", req.Language,
		"--start", strconv.Itoa(req.StartPage),
		"--formula", strconv.FormatBool(req.FormulaEnabled),
		"--table", strconv.FormatBool(req.TableEnabled),
	)
	if req.EndPage != nil {
		args = append(args, "--end", strconv.Itoa(*req.EndPage))
	}
	if req.Runtime.Device != "" {
		args = append(args, "--device", req.Runtime.Device)
	}
	if req.Runtime.VirtualVRAM > 0 {
		args = append(args, "--vram", strconv.Itoa(req.Runtime.VirtualVRAM))
	}
	if req.Runtime.ModelSource != "" {
		args = append(args, "--source", req.Runtime.ModelSource)
	}
	if req.ServerURL != "" {
		args = append(args, "--url", req.ServerURL)
	}
	return args
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
