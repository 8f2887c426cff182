// Package task runs one unit of work off the calling goroutine and signals
// its completion exactly once.
//
// The CLI uses it to resolve a batch while a helper in the same group
// feeds the progress display.
package task

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Task is a running unit of work producing a T.
type Task[T any] struct {
	cancel context.CancelFunc
	done   chan struct{}
	value  T
	err    error
}

// Start runs fn in its own goroutine with a context derived from ctx.
//
// Each helper runs next to fn in the same errgroup, for side work such as
// driving a progress display. A helper's context is cancelled once fn
// returns, and it should then return nil. A helper error cancels fn and
// becomes the task's error unless fn failed first.
func Start[T any](ctx context.Context, fn func(ctx context.Context) (T, error), helpers ...func(ctx context.Context) error) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{cancel: cancel, done: make(chan struct{})}

	g, gctx := errgroup.WithContext(ctx)
	hctx, stopHelpers := context.WithCancel(gctx)
	g.Go(func() error {
		defer stopHelpers()
		v, err := fn(gctx)
		t.value = v
		return err
	})
	for _, h := range helpers {
		g.Go(func() error { return h(hctx) })
	}

	go func() {
		t.err = g.Wait()
		stopHelpers()
		cancel()
		close(t.done)
	}()
	return t
}

// Done is closed once fn has returned.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until fn returns and reports its result.
func (t *Task[T]) Wait() (T, error) {
	<-t.done
	return t.value, t.err
}

// Cancel cancels the task's context. fn decides how quickly to return.
func (t *Task[T]) Cancel() {
	t.cancel()
}
