// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Synchronization primitives for the orderline pipeline: a context-aware
// counting semaphore, a blocking bounded FIFO built from one mutex and two
// counting signals, and a worker group running identified loops.
//
// Lock discipline: the queue mutex is held only for the O(1) buffer mutation
// and is always released through defer. Waiting for capacity or for an item
// happens on the semaphores, never while the mutex is held.
package concurrency
