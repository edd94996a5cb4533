// Package lifecycle coordinates startup hooks, shutdown hooks and background
// tasks against one cancellable context.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ErrShutdownTimeout is returned when hooks or tasks outlive the shutdown
// deadline.
var ErrShutdownTimeout = errors.New("shutdown timed out")

// Coordinator owns the process context. Subsystems register hooks against
// it while the server is assembled; Shutdown cancels the context and waits
// for everything registered to return.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	startup  sync.WaitGroup
	shutdown sync.WaitGroup
	tasks    sync.WaitGroup

	ready atomic.Bool
}

// New derives the coordinator context from parent, or from
// context.Background when parent is nil.
func New(parent context.Context) *Coordinator {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Coordinator{ctx: ctx, cancel: cancel}
}

// Context is cancelled when Shutdown starts.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup runs fn now, in its own goroutine. WaitForStartup waits for it.
func (c *Coordinator) OnStartup(fn func()) {
	c.startup.Go(fn)
}

// OnShutdown runs fn now, in its own goroutine. Hooks block on
// <-Context().Done() before releasing their resources.
func (c *Coordinator) OnShutdown(fn func()) {
	c.shutdown.Go(fn)
}

// Every calls fn after initial, then interval after each call returns, so
// calls never overlap. It stops once the context is cancelled.
func (c *Coordinator) Every(initial, interval time.Duration, fn func(ctx context.Context)) {
	c.tasks.Go(func() {
		timer := time.NewTimer(initial)
		defer timer.Stop()

		for {
			select {
			case <-c.ctx.Done():
				return
			case <-timer.C:
			}
			fn(c.ctx)
			timer.Reset(interval)
		}
	})
}

// Go runs fn once in the background. Shutdown waits for it.
func (c *Coordinator) Go(fn func(ctx context.Context)) {
	c.tasks.Go(func() { fn(c.ctx) })
}

// Ready reports whether WaitForStartup has returned.
func (c *Coordinator) Ready() bool {
	return c.ready.Load()
}

func (c *Coordinator) WaitForStartup() {
	c.startup.Wait()
	c.ready.Store(true)
}

// Shutdown cancels the context, then waits up to timeout for background
// tasks and shutdown hooks. Calling it again only waits again.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()
	c.ready.Store(false)

	done := make(chan struct{})
	go func() {
		c.tasks.Wait()
		c.shutdown.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w after %v", ErrShutdownTimeout, timeout)
	}
}
