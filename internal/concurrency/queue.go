// File: internal/concurrency/queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// BoundedQueue is a fixed-capacity FIFO shared by many producers and many
// consumers. Two counting signals gate callers (free slots, available items);
// a separate mutex guards the buffer itself.

package concurrency

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
	"golang.org/x/sys/cpu"

	"github.com/momentics/orderline/api"
)

// Ensure compile-time interface compliance.
var _ api.Queue[any] = (*BoundedQueue[any])(nil)

// BoundedQueue is a blocking bounded FIFO (multi-producer, multi-consumer safe).
type BoundedQueue[T any] struct {
	mu       sync.Mutex
	buf      *queue.Queue
	capacity int
	closed   bool
	done     chan struct{}
	_        cpu.CacheLinePad // keep the lock away from the signals

	free  *Semaphore // units = empty slots
	avail *Semaphore // units = committed items not yet claimed
	_     cpu.CacheLinePad

	inserted atomic.Int64
	removed  atomic.Int64
}

// NewBoundedQueue allocates a queue holding at most capacity items.
// Panics if capacity <= 0.
func NewBoundedQueue[T any](capacity int) *BoundedQueue[T] {
	if capacity <= 0 {
		panic("concurrency: NewBoundedQueue requires capacity > 0")
	}
	return &BoundedQueue[T]{
		buf:      queue.New(),
		capacity: capacity,
		done:     make(chan struct{}),
		free:     NewSemaphore(capacity, capacity),
		avail:    NewSemaphore(capacity, 0),
	}
}

// Insert blocks until a slot is free, then appends item.
// Returns ctx.Err() if cancelled while waiting and api.ErrQueueClosed after Close.
func (q *BoundedQueue[T]) Insert(ctx context.Context, item T) error {
	if err := q.free.WaitOr(ctx, q.done); err != nil {
		if errors.Is(err, ErrWaitAborted) {
			return api.ErrQueueClosed
		}
		return err
	}
	return q.commit(item)
}

// TryInsert appends item if a slot is free right now.
func (q *BoundedQueue[T]) TryInsert(item T) bool {
	if !q.free.TryWait() {
		return false
	}
	return q.commit(item) == nil
}

// commit appends item into a slot the caller already holds.
// The available signal is posted before unlocking so Close observes every
// committed item through the signal count.
func (q *BoundedQueue[T]) commit(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.free.Signal()
		return api.ErrQueueClosed
	}
	q.buf.Add(item)
	if q.buf.Length() > q.capacity {
		panic("concurrency: BoundedQueue occupancy exceeds capacity")
	}
	q.inserted.Add(1)
	q.avail.Signal()
	return nil
}

// Remove blocks until an item is available, then pops the earliest one.
// After Close, Remove keeps returning buffered items and reports
// api.ErrQueueClosed once the queue is empty.
func (q *BoundedQueue[T]) Remove(ctx context.Context) (T, error) {
	if err := q.avail.WaitOr(ctx, q.done); err != nil {
		if errors.Is(err, ErrWaitAborted) {
			return q.drain()
		}
		var zero T
		return zero, err
	}
	return q.take(), nil
}

// TryRemove pops an item if one is available right now.
func (q *BoundedQueue[T]) TryRemove() (T, bool) {
	if !q.avail.TryWait() {
		var zero T
		return zero, false
	}
	return q.take(), true
}

// take pops an item the caller already claimed and frees its slot.
func (q *BoundedQueue[T]) take() T {
	item := q.pop()
	q.removed.Add(1)
	q.free.Signal()
	return item
}

func (q *BoundedQueue[T]) pop() T {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buf.Remove().(T)
}

// drain serves removers once the queue is closed.
func (q *BoundedQueue[T]) drain() (T, error) {
	item, ok := func() (T, bool) {
		q.mu.Lock()
		defer q.mu.Unlock()
		var zero T
		if !q.avail.TryWait() {
			return zero, false
		}
		return q.buf.Remove().(T), true
	}()
	if !ok {
		return item, api.ErrQueueClosed
	}
	q.removed.Add(1)
	q.free.Signal()
	return item, nil
}

// Close stops accepting inserts and wakes every blocked caller.
// Items already inserted remain removable. Close is idempotent.
func (q *BoundedQueue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

// Len returns number of items currently buffered.
func (q *BoundedQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buf.Length()
}

// Cap returns fixed queue capacity.
func (q *BoundedQueue[T]) Cap() int {
	return q.capacity
}

// Stats returns a point-in-time snapshot of queue activity.
func (q *BoundedQueue[T]) Stats() api.QueueStats {
	q.mu.Lock()
	n, closed := q.buf.Length(), q.closed
	q.mu.Unlock()
	return api.QueueStats{
		Len:           n,
		Cap:           q.capacity,
		Inserted:      q.inserted.Load(),
		Removed:       q.removed.Load(),
		WaitingInsert: q.free.Waiting(),
		WaitingRemove: q.avail.Waiting(),
		Closed:        closed,
	}
}
