// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations.

package api

import "time"

// WorkItem is the unit flowing producer -> queue -> consumer -> channel -> courier.
// Number carries no identity; duplicates are expected. Ticket is unique per
// produced item and is what delivery audits key on.
type WorkItem struct {
	Number    int       `msgpack:"n"`
	Ticket    string    `msgpack:"t"`
	Producer  int       `msgpack:"p"`
	Consumer  int       `msgpack:"c,omitempty"`
	CreatedAt time.Time `msgpack:"at"`
}

// QueueStats is a point-in-time snapshot of a bounded queue.
type QueueStats struct {
	Len           int   // items currently buffered
	Cap           int   // fixed capacity
	Inserted      int64 // successful inserts since creation
	Removed       int64 // successful removes since creation
	WaitingInsert int64 // callers currently blocked on a free slot
	WaitingRemove int64 // callers currently blocked on an available item
	Closed        bool
}
