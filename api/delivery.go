// File: api/delivery.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// One-way delivery channel contracts: many writers, a single reader.

package api

import "context"

// Sender is a writer handle on the delivery channel. Each Send transmits
// one whole record; concurrent Sends never interleave.
type Sender interface {
	Send(ctx context.Context, item WorkItem) error
	// Close drops this handle. The channel's write end closes with the last handle.
	Close() error
}

// Receiver is the single read endpoint of the delivery channel.
type Receiver interface {
	// Receive blocks until a record is available. It returns ErrEndOfStream
	// once every writer handle has been closed and the stream is drained.
	Receive(ctx context.Context) (WorkItem, error)
	Close() error
}
