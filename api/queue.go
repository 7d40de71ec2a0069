// Package api
// Author: momentics@gmail.com
//
// Blocking bounded queue contract shared by producer and consumer pools.

package api

import "context"

// Queue is a fixed-capacity FIFO with blocking insert and remove.
type Queue[T any] interface {
	// Insert blocks until a slot is free, then appends item.
	Insert(ctx context.Context, item T) error
	// Remove blocks until an item is available, then pops the earliest one.
	Remove(ctx context.Context) (T, error)
	// TryInsert appends item if a slot is free right now.
	TryInsert(item T) bool
	// TryRemove pops an item if one is available right now.
	TryRemove() (T, bool)
	// Len returns current number of items.
	Len() int
	// Cap returns buffer capacity.
	Cap() int
}
