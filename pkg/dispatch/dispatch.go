// Package dispatch runs operations on the single thread a native toolkit
// allows its widgets to be touched from.
//
// Two strategies are provided. [MainQueue] targets platforms with a
// reentrant "run on main" facility: calls already on the main thread run
// inline, others are queued and the caller blocks until the main thread
// runs them. [Dedicated] targets toolkits that forbid any cross-thread call
// and can only be initialized once: every call is serialized onto one
// goroutine locked to its own OS thread.
//
// Thread identity travels in the context. Every task a [Thread] executes
// receives a context carrying that thread's [ThreadID]; [Current] reads it
// back. There is no cancellation: once dispatched, a task runs to
// completion.
package dispatch

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-drift/embedview/pkg/errors"
)

// ThreadID identifies a dispatch thread. Zero means "no dispatch thread".
type ThreadID uint64

var nextThreadID atomic.Uint64

func newThreadID() ThreadID {
	return ThreadID(nextThreadID.Add(1))
}

type threadKey struct{}

// WithThread returns a context marked as executing on thread id.
func WithThread(ctx context.Context, id ThreadID) context.Context {
	return context.WithValue(ctx, threadKey{}, id)
}

// Current returns the thread ctx is executing on, or 0.
func Current(ctx context.Context) ThreadID {
	if ctx == nil {
		return 0
	}
	id, _ := ctx.Value(threadKey{}).(ThreadID)
	return id
}

// Thread runs functions on one designated thread.
type Thread interface {
	// ID returns the thread's identity token.
	ID() ThreadID

	// Name returns a label for logs and metrics.
	Name() string

	// IsCurrent reports whether the caller is already on this thread.
	IsCurrent(ctx context.Context) bool

	// Run executes fn on the thread and blocks until it returns.
	// Calls made on the thread itself run inline.
	Run(ctx context.Context, fn func(ctx context.Context) error) error

	// Post schedules fn and returns without waiting. Posts from one
	// goroutine run in order.
	Post(ctx context.Context, fn func(ctx context.Context))

	// Pump runs queued work on the calling thread for strategies whose
	// host drives the event loop. It is a no-op elsewhere.
	Pump()
}

// Call runs fn on t and returns its value.
func Call[T any](ctx context.Context, t Thread, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := t.Run(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		out = v
		return err
	})
	return out, err
}

// execute runs fn with ctx marked for thread, converting a panic into an
// internal error and recording the duration.
func execute(ctx context.Context, id ThreadID, name string, m Metrics, fn func(ctx context.Context) error) (err error) {
	start := time.Now()
	completed := false
	defer func() {
		if !completed {
			m.RecordTaskPanic(name, err)
		}
		m.RecordTaskDuration(name, time.Since(start))
	}()
	defer errors.Recover("dispatch."+name, &err)

	err = fn(WithThread(ctx, id))
	completed = true
	return err
}

// postTask adapts a fire-and-forget function to the task signature.
func postTask(fn func(ctx context.Context)) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		fn(ctx)
		return nil
	}
}
