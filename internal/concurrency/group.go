// File: internal/concurrency/group.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// WorkerGroup runs a fixed set of identified worker loops and collects the
// first failure. A failing or panicking worker cancels the group context.

package concurrency

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// LoopFunc is the body of a single worker. id is 1-based and stable for the
// worker's lifetime.
type LoopFunc func(ctx context.Context, id int) error

// PanicError wraps a value recovered from a worker loop.
type PanicError struct {
	Group  string
	Worker int
	Value  any
	Stack  string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s worker %d panicked: %v\n\n%s", e.Group, e.Worker, e.Value, e.Stack)
}

// WorkerGroup manages worker goroutines sharing one cancellable context.
type WorkerGroup struct {
	name string
	g    *errgroup.Group
	ctx  context.Context

	started  atomic.Int64
	running  atomic.Int64
	finished atomic.Int64
	nextID   atomic.Int64
}

// NewWorkerGroup creates an empty group derived from ctx.
func NewWorkerGroup(ctx context.Context, name string) *WorkerGroup {
	g, gctx := errgroup.WithContext(ctx)
	return &WorkerGroup{name: name, g: g, ctx: gctx}
}

// Go starts n workers running fn. Ids continue across calls.
func (w *WorkerGroup) Go(n int, fn LoopFunc) {
	for range n {
		id := int(w.nextID.Add(1))
		w.started.Add(1)
		w.running.Add(1)
		w.g.Go(func() error {
			defer func() {
				w.running.Add(-1)
				w.finished.Add(1)
			}()
			return w.run(id, fn)
		})
	}
}

// run executes fn, converting a panic into *PanicError.
func (w *WorkerGroup) run(id int, fn LoopFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 8192)
			n := runtime.Stack(buf, false)
			err = &PanicError{Group: w.name, Worker: id, Value: r, Stack: string(buf[:n])}
		}
	}()
	return fn(w.ctx, id)
}

// Wait blocks until every worker returned and reports the first error.
func (w *WorkerGroup) Wait() error {
	return w.g.Wait()
}

// Stats returns basic group counters.
func (w *WorkerGroup) Stats() map[string]int64 {
	return map[string]int64{
		"started":  w.started.Load(),
		"running":  w.running.Load(),
		"finished": w.finished.Load(),
	}
}
