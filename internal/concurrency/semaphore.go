// File: internal/concurrency/semaphore.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Counting semaphore tracking units of a resource (free slots, available items).

package concurrency

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrWaitAborted is returned by WaitOr when the abort channel closes first.
var ErrWaitAborted = errors.New("concurrency: wait aborted")

// Semaphore is a counting signal bounded by a fixed capacity.
// Wait decrements the count, blocking while it is zero; Signal increments it.
type Semaphore struct {
	tokens  chan struct{}
	waiting atomic.Int64
}

// NewSemaphore creates a semaphore holding initial units out of capacity.
// Panics if capacity <= 0 or initial is outside [0, capacity].
func NewSemaphore(capacity, initial int) *Semaphore {
	if capacity <= 0 {
		panic("concurrency: NewSemaphore requires capacity > 0")
	}
	if initial < 0 || initial > capacity {
		panic("concurrency: NewSemaphore initial count out of range")
	}
	s := &Semaphore{tokens: make(chan struct{}, capacity)}
	for range initial {
		s.tokens <- struct{}{}
	}
	return s
}

// Wait blocks until a unit is available or ctx is done.
func (s *Semaphore) Wait(ctx context.Context) error {
	return s.WaitOr(ctx, nil)
}

// WaitOr blocks until a unit is available, ctx is done, or abort is closed.
// A nil abort channel never fires.
func (s *Semaphore) WaitOr(ctx context.Context, abort <-chan struct{}) error {
	select {
	case <-s.tokens:
		return nil
	default:
	}

	s.waiting.Add(1)
	defer s.waiting.Add(-1)

	select {
	case <-s.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-abort:
		return ErrWaitAborted
	}
}

// TryWait takes a unit if one is available without blocking.
func (s *Semaphore) TryWait() bool {
	select {
	case <-s.tokens:
		return true
	default:
		return false
	}
}

// Signal returns one unit and wakes at most one waiter.
// Panics if the count would exceed capacity.
func (s *Semaphore) Signal() {
	select {
	case s.tokens <- struct{}{}:
	default:
		panic("concurrency: Semaphore.Signal exceeds capacity")
	}
}

// Count returns the number of available units.
// The value may be stale in concurrent contexts.
func (s *Semaphore) Count() int {
	return len(s.tokens)
}

// Cap returns the semaphore capacity.
func (s *Semaphore) Cap() int {
	return cap(s.tokens)
}

// Waiting returns the number of callers currently blocked in Wait.
func (s *Semaphore) Waiting() int64 {
	return s.waiting.Load()
}
