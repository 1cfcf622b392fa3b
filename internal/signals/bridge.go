// Package signals bridges external termination signals into cooperative
// context cancellation for the duration of a run.
package signals

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Bind installs a handler for SIGTERM and SIGINT that cancels the returned
// context. The returned release function stops delivery and restores the
// previous disposition; it must be called on every exit path, so callers
// defer it immediately. Calling release more than once is harmless.
func Bind(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, os.Interrupt)

	done := make(chan struct{})
	go func() {
		select {
		case <-ch:
			cancel()
		case <-done:
		}
	}()

	var released bool
	release := func() {
		if released {
			return
		}
		released = true
		signal.Stop(ch)
		close(done)
		cancel()
	}
	return ctx, release
}
