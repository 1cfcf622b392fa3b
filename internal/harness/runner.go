// Package harness orchestrates one conversion job from validated input to
// terminal event and exit code. It is the only place failures are classified
// into the contract taxonomy.
package harness

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/pagelift-ai/pagelift/internal/artifacts"
	"github.com/pagelift-ai/pagelift/internal/engine"
	"github.com/pagelift-ai/pagelift/internal/events"
	"github.com/pagelift-ai/pagelift/internal/input"
	"github.com/pagelift-ai/pagelift/internal/job"
	"github.com/pagelift-ai/pagelift/internal/journal"
	"github.com/pagelift-ai/pagelift/internal/manifest"
	"github.com/pagelift-ai/pagelift/internal/output"
	"github.com/pagelift-ai/pagelift/internal/signals"
	"github.com/pagelift-ai/pagelift/internal/supervise"
)

// Runner executes exactly one job per invocation. No state is shared across
// runs; a Runner is built, used once, and discarded with the process.
type Runner struct {
	Engine           engine.Engine
	Emitter          *events.Emitter
	Journal          *journal.Store // nil disables journaling
	Logger           zerolog.Logger
	RuntimeDefaults  engine.Runtime
	TerminationGrace time.Duration

	now func() time.Time
}

// Run drives the job state machine (starting → running → terminal) and
// returns the process exit code. A result manifest is always attempted,
// whatever the outcome; if that write itself fails, the outcome is
// downgraded to output-unwritable regardless of what happened before.
func (r *Runner) Run(ctx context.Context, j job.Job) int {
	if r.now == nil {
		r.now = time.Now
	}
	startedAt := r.now()

	inputPath := absolute(j.InputPath)
	outputDir := absolute(j.OutputDir)

	// starting: signal bridge up, started event out. The release is
	// deferred so the previous handler is restored on every exit path, and
	// called again explicitly before the tail work below.
	runCtx, release := signals.Bind(ctx)
	defer release()

	r.Emitter.Emit(events.TypeStarted, j.ID, "starting", 0, "Engine process started",
		nil, map[string]any{"backend": j.Backend, "method": j.Method})

	runErr := r.running(runCtx, j, inputPath, outputDir)

	status, errorCode := job.Classify(runErr)
	release()

	if runErr != nil {
		r.Logger.Error().
			Str("job_id", j.ID).
			Str("status", string(status)).
			Err(runErr).
			Msg("job did not succeed")
	}

	// Artifact collection only ever sees a finished engine, and only a
	// successful run reports artifacts.
	artifactSet := job.EmptyArtifactSet()
	if status == job.StatusSucceeded {
		artifactSet = artifacts.Collect(outputDir)
	}

	endedAt := r.now()
	result := &job.Result{
		Status:        status,
		ErrorCode:     errorCode,
		OutputDir:     outputDir,
		Artifacts:     artifactSet,
		EngineVersion: r.Engine.Version(context.Background()),
		Backend:       j.Backend,
		Method:        j.Method,
		Timings: job.Timings{
			StartedAt:  job.Stamp(startedAt),
			EndedAt:    job.Stamp(endedAt),
			DurationMs: endedAt.Sub(startedAt).Milliseconds(),
		},
	}

	written := manifest.Write(outputDir, result)
	if !written {
		status = job.StatusFailed
		code := job.CodeOutputUnwritable
		errorCode = &code
		result.Status = status
		result.ErrorCode = errorCode
	}

	r.journalRun(j.ID, result)
	r.emitTerminal(j.ID, status, errorCode, outputDir, written)

	exitCode := job.ExitCode(status, errorCode)
	r.Logger.Info().
		Str("job_id", j.ID).
		Str("status", string(status)).
		Int("exit_code", exitCode).
		Int64("duration_ms", result.Timings.DurationMs).
		Msg("job finished")
	return exitCode
}

// running is the fallible phase: precondition checks, input resolution,
// output provisioning, and the single supervised engine call. Every error it
// returns is classifiable.
func (r *Runner) running(ctx context.Context, j job.Job, inputPath, outputDir string) error {
	if j.Timeout != nil && *j.Timeout <= 0 {
		return job.InvalidInput("timeout must be greater than zero")
	}
	if j.EndPage != nil && j.StartPage > *j.EndPage {
		return job.InvalidInput("start page must not be after end page")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	documents, err := input.Resolve(inputPath)
	if err != nil {
		return err
	}
	if err := output.Provision(outputDir); err != nil {
		return err
	}

	r.Emitter.Emit(events.TypeProgress, j.ID, "running", 10, "Input validated",
		nil, map[string]any{"documents": len(documents)})

	if err := ctx.Err(); err != nil {
		return err
	}

	req := engine.Request{
		Documents:      documents,
		OutputDir:      outputDir,
		Backend:        j.Backend,
		Method:         j.Method,
		Language:       j.Language,
		StartPage:      j.StartPage,
		EndPage:        j.EndPage,
		FormulaEnabled: j.FormulaEnabled,
		TableEnabled:   j.TableEnabled,
		Runtime:        engine.ResolveRuntime(j.Backend, j.Device, j.VirtualVRAM, j.ModelSource, r.RuntimeDefaults),
		ServerURL:      j.ServerURL,
	}

	sup := supervise.For(j.Timeout, r.TerminationGrace)
	return sup.Execute(ctx, r.Engine, req)
}

// emitTerminal emits the single terminal event for the run. Timeout and
// generic failure share the job.failed event type on purpose; status, error
// code and exit code keep them distinct.
func (r *Runner) emitTerminal(jobID string, status job.Status, errorCode *job.Code, outputDir string, written bool) {
	payload := map[string]any{"resultPath": nil}
	if written {
		payload["resultPath"] = manifest.Path(outputDir)
	}

	switch status {
	case job.StatusSucceeded:
		r.Emitter.Emit(events.TypeSucceeded, jobID, "completed", 100, "Completed", nil, payload)
	case job.StatusCancelled:
		r.Emitter.Emit(events.TypeCancelled, jobID, "cancelled", 100, "Cancelled", errorCode, payload)
	default:
		r.Emitter.Emit(events.TypeFailed, jobID, "failed", 100, "Engine failed", errorCode, payload)
	}
}

// journalRun records the run locally, best-effort.
func (r *Runner) journalRun(jobID string, result *job.Result) {
	if r.Journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Journal.Record(ctx, jobID, result); err != nil {
		r.Logger.Warn().Str("job_id", jobID).Err(err).Msg("journal write failed")
	}
}

func absolute(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
