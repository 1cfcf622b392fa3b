// Package supervise runs the single engine call a job is allowed, either
// directly or on an isolated worker with a wall-clock deadline and forced
// termination. The engine is invoked exactly once per job; there are no
// retries.
package supervise

import (
	"context"
	"fmt"
	"time"

	"github.com/pagelift-ai/pagelift/internal/engine"
	"github.com/pagelift-ai/pagelift/internal/job"
)

// DefaultGrace bounds how long the supervisor waits for a terminated worker
// to drain its outcome before abandoning it.
const DefaultGrace = 5 * time.Second

// Supervisor executes one engine call and normalizes its outcome into the
// contract error taxonomy.
type Supervisor interface {
	Execute(ctx context.Context, eng engine.Engine, req engine.Request) error
}

// Direct invokes the engine inline with no isolation and no deadline. Used
// when the job carries no timeout.
type Direct struct{}

// Execute runs the engine call on the calling flow. Cancellation of ctx (the
// signal bridge) surfaces as the context error; anything else the engine
// raises is engine failure.
func (Direct) Execute(ctx context.Context, eng engine.Engine, req engine.Request) error {
	if err := eng.Convert(ctx, req); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return job.EngineFailed(err)
	}
	return nil
}

// Isolated runs the engine on a separately scheduled worker and enforces
// Timeout with forced termination. The worker and the supervisor communicate
// exactly once, through a one-shot outcome channel.
type Isolated struct {
	Timeout time.Duration
	// Grace bounds the post-termination drain; DefaultGrace when zero.
	Grace time.Duration
}

// Execute starts the worker, blocks up to the deadline for it to finish, and
// forcibly terminates it if the deadline elapses. A worker that dies without
// reporting an outcome counts as engine failure. The worker and its channel
// are released on every exit path.
func (s Isolated) Execute(ctx context.Context, eng engine.Engine, req engine.Request) error {
	if s.Timeout <= 0 {
		return job.InvalidInput("timeout must be greater than zero")
	}
	grace := s.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}

	// The worker context deliberately does not descend from ctx: once the
	// engine call has begun it is not cooperatively cancellable, and the
	// only paths that stop it are forced termination on deadline expiry or
	// the supervisor unwinding.
	workerCtx, terminate := context.WithCancel(context.Background())
	defer terminate()

	outcome := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				outcome <- job.EngineFailed(fmt.Errorf("worker crashed: %v", r))
			}
		}()
		outcome <- eng.Convert(workerCtx, req)
	}()

	deadline := time.NewTimer(s.Timeout)
	defer deadline.Stop()

	select {
	case err := <-outcome:
		if err != nil {
			return job.EngineFailed(err)
		}
		return nil
	case <-deadline.C:
		terminate()
		drain(outcome, grace)
		return job.TimeoutExceeded(fmt.Sprintf("engine did not finish within %s", s.Timeout))
	case <-ctx.Done():
		// The calling flow was cancelled (signal). Terminating the worker
		// is part of unwinding, not a cooperative cancellation of it.
		terminate()
		drain(outcome, grace)
		return ctx.Err()
	}
}

// drain waits up to grace for the terminated worker's one-shot report so the
// goroutine and channel can be collected, then abandons it.
func drain(outcome <-chan error, grace time.Duration) {
	select {
	case <-outcome:
	case <-time.After(grace):
	}
}

// For selects the supervisor for a job: Isolated when a timeout is
// configured, Direct otherwise.
func For(timeout *time.Duration, grace time.Duration) Supervisor {
	if timeout == nil {
		return Direct{}
	}
	return Isolated{Timeout: *timeout, Grace: grace}
}
