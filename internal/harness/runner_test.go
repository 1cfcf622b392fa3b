package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelift-ai/pagelift/internal/engine"
	"github.com/pagelift-ai/pagelift/internal/events"
	"github.com/pagelift-ai/pagelift/internal/job"
	"github.com/pagelift-ai/pagelift/internal/manifest"
)

type stubEngine struct {
	convert func(ctx context.Context, req engine.Request) error
	calls   atomic.Int32
}

func (s *stubEngine) Convert(ctx context.Context, req engine.Request) error {
	s.calls.Add(1)
	if s.convert == nil {
		return nil
	}
	return s.convert(ctx, req)
}

func (s *stubEngine) Version(ctx context.Context) string { return "stub 1.0.0" }

type runOutcome struct {
	exitCode int
	events   []map[string]any
	manifest map[string]any
	dir      string
}

func run(t *testing.T, eng *stubEngine, mutate func(*job.Job)) runOutcome {
	t.Helper()

	dir := t.TempDir()
	inputDir := filepath.Join(dir, "in")
	outputDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(inputDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "doc.pdf"), []byte("%PDF"), 0o644))

	j := job.Job{
		ID:         "test-job",
		InputPath:  inputDir,
		OutputDir:  outputDir,
		Backend:    "pipeline",
		Method:     "auto",
		Language:   "en",
		EmitEvents: true,
	}
	if mutate != nil {
		mutate(&j)
	}

	var stream bytes.Buffer
	runner := &Runner{
		Engine:           eng,
		Emitter:          events.NewEmitter(j.EmitEvents, &stream),
		Logger:           zerolog.Nop(),
		TerminationGrace: time.Second,
	}

	code := runner.Run(context.Background(), j)

	outcome := runOutcome{exitCode: code, dir: outputDir}
	for _, line := range strings.Split(strings.TrimSpace(stream.String()), "\n") {
		if line == "" {
			continue
		}
		var evt map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &evt))
		outcome.events = append(outcome.events, evt)
	}
	if data, err := os.ReadFile(manifest.Path(outputDir)); err == nil {
		require.NoError(t, json.Unmarshal(data, &outcome.manifest))
	}
	return outcome
}

func terminalEvents(events []map[string]any) []map[string]any {
	var out []map[string]any
	for _, evt := range events {
		switch evt["type"] {
		case "job.succeeded", "job.failed", "job.cancelled":
			out = append(out, evt)
		}
	}
	return out
}

func TestRun_Succeeded(t *testing.T) {
	eng := &stubEngine{convert: func(_ context.Context, req engine.Request) error {
		return os.WriteFile(filepath.Join(req.OutputDir, "doc.md"), []byte("# out"), 0o644)
	}}

	got := run(t, eng, nil)

	assert.Equal(t, job.ExitSucceeded, got.exitCode)
	assert.Equal(t, int32(1), eng.calls.Load())

	require.NotNil(t, got.manifest)
	assert.Equal(t, "succeeded", got.manifest["status"])
	assert.Nil(t, got.manifest["errorCode"])
	assert.Equal(t, "stub 1.0.0", got.manifest["engineVersion"])
	artifacts := got.manifest["artifacts"].(map[string]any)
	assert.Len(t, artifacts["markdown"], 1)

	terminals := terminalEvents(got.events)
	require.Len(t, terminals, 1)
	assert.Equal(t, "job.succeeded", terminals[0]["type"])
	assert.Equal(t, manifest.Path(got.dir), terminals[0]["payload"].(map[string]any)["resultPath"])

	assert.Equal(t, "job.started", got.events[0]["type"])
	assert.Equal(t, "job.progress", got.events[1]["type"])
}

func TestRun_EngineFailure(t *testing.T) {
	eng := &stubEngine{convert: func(context.Context, engine.Request) error {
		return fmt.Errorf("layout model crashed")
	}}

	got := run(t, eng, nil)

	assert.Equal(t, job.ExitFailed, got.exitCode)
	assert.Equal(t, "failed", got.manifest["status"])
	assert.Equal(t, "E_ENGINE_FAILED", got.manifest["errorCode"])
	// Artifacts are reported only for succeeded runs.
	artifacts := got.manifest["artifacts"].(map[string]any)
	assert.Empty(t, artifacts["markdown"])

	terminals := terminalEvents(got.events)
	require.Len(t, terminals, 1)
	assert.Equal(t, "job.failed", terminals[0]["type"])
	assert.Equal(t, "E_ENGINE_FAILED", terminals[0]["errorCode"])
}

func TestRun_EmptyInputDirectory(t *testing.T) {
	eng := &stubEngine{}

	got := run(t, eng, func(j *job.Job) {
		empty := filepath.Join(t.TempDir(), "empty")
		require.NoError(t, os.MkdirAll(empty, 0o755))
		j.InputPath = empty
	})

	assert.Equal(t, job.ExitInvalidInput, got.exitCode)
	assert.Zero(t, eng.calls.Load(), "engine must not start on invalid input")
	assert.Equal(t, "failed", got.manifest["status"])
	assert.Equal(t, "E_INVALID_INPUT", got.manifest["errorCode"])
}

func TestRun_NonPositiveTimeout(t *testing.T) {
	eng := &stubEngine{}

	got := run(t, eng, func(j *job.Job) {
		zero := time.Duration(0)
		j.Timeout = &zero
	})

	assert.Equal(t, job.ExitInvalidInput, got.exitCode)
	assert.Zero(t, eng.calls.Load())
	assert.Equal(t, "E_INVALID_INPUT", got.manifest["errorCode"])
}

func TestRun_InvertedPageRange(t *testing.T) {
	eng := &stubEngine{}

	got := run(t, eng, func(j *job.Job) {
		end := 2
		j.StartPage = 5
		j.EndPage = &end
	})

	assert.Equal(t, job.ExitInvalidInput, got.exitCode)
	assert.Zero(t, eng.calls.Load())
}

func TestRun_OutputUnwritable(t *testing.T) {
	eng := &stubEngine{}

	got := run(t, eng, func(j *job.Job) {
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
		j.OutputDir = filepath.Join(blocker, "out")
	})

	assert.Equal(t, job.ExitOutputUnwritable, got.exitCode)
	assert.Zero(t, eng.calls.Load(), "provisioning failure precedes the engine")
	// The manifest itself cannot land either; only the terminal event
	// reports the outcome.
	assert.Nil(t, got.manifest)
	terminals := terminalEvents(got.events)
	require.Len(t, terminals, 1)
	assert.Equal(t, "job.failed", terminals[0]["type"])
	assert.Equal(t, "E_OUTPUT_UNWRITABLE", terminals[0]["errorCode"])
	assert.Nil(t, terminals[0]["payload"].(map[string]any)["resultPath"])
}

func TestRun_TimeoutEnforced(t *testing.T) {
	eng := &stubEngine{convert: func(ctx context.Context, _ engine.Request) error {
		<-ctx.Done()
		return ctx.Err()
	}}

	start := time.Now()
	got := run(t, eng, func(j *job.Job) {
		timeout := 100 * time.Millisecond
		j.Timeout = &timeout
	})

	assert.Equal(t, job.ExitTimeout, got.exitCode)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, "timeout", got.manifest["status"])
	assert.Equal(t, "E_TIMEOUT", got.manifest["errorCode"])

	terminals := terminalEvents(got.events)
	require.Len(t, terminals, 1)
	// Timeout shares the failed event type but keeps its own code.
	assert.Equal(t, "job.failed", terminals[0]["type"])
	assert.Equal(t, "E_TIMEOUT", terminals[0]["errorCode"])
}

func TestRun_SignalCancels(t *testing.T) {
	eng := &stubEngine{convert: func(ctx context.Context, _ engine.Request) error {
		// Simulates an operator terminating the run mid-conversion.
		if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
			return err
		}
		<-ctx.Done()
		return ctx.Err()
	}}

	got := run(t, eng, nil)

	assert.Equal(t, job.ExitCancelled, got.exitCode)
	assert.Equal(t, "cancelled", got.manifest["status"])
	assert.Equal(t, "E_CANCELLED", got.manifest["errorCode"])

	terminals := terminalEvents(got.events)
	require.Len(t, terminals, 1)
	assert.Equal(t, "job.cancelled", terminals[0]["type"])
}

func TestRun_ManifestFailureDowngrades(t *testing.T) {
	eng := &stubEngine{convert: func(_ context.Context, req engine.Request) error {
		// Engine "succeeds" but leaves the output dir replaced by a file,
		// so the manifest write cannot land.
		if err := os.RemoveAll(req.OutputDir); err != nil {
			return err
		}
		return os.WriteFile(req.OutputDir, []byte("not a dir"), 0o644)
	}}

	got := run(t, eng, nil)

	assert.Equal(t, job.ExitOutputUnwritable, got.exitCode)
	terminals := terminalEvents(got.events)
	require.Len(t, terminals, 1)
	assert.Equal(t, "job.failed", terminals[0]["type"])
	assert.Equal(t, "E_OUTPUT_UNWRITABLE", terminals[0]["errorCode"])
}

func TestRun_EventsDisabled(t *testing.T) {
	eng := &stubEngine{}

	got := run(t, eng, func(j *job.Job) { j.EmitEvents = false })

	assert.Equal(t, job.ExitSucceeded, got.exitCode)
	assert.Empty(t, got.events)
	// The manifest is written regardless of the event stream.
	assert.Equal(t, "succeeded", got.manifest["status"])
}
