// File: internal/worker/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package worker holds the producer and consumer loops. Both are plain
// concurrency.LoopFunc bodies started N (or M) times by a WorkerGroup; workers
// never see each other, only the shared queue and the delivery channel.
package worker
