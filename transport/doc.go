// File: transport/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package transport implements the one-way delivery channel between the
// consumer pool and the courier process: an OS pipe carrying length-prefixed
// msgpack records.
//
// Record layout:
//
//	+----------------+-------------------------+
//	| uint32 BE size | msgpack(api.WorkItem)   |
//	+----------------+-------------------------+
//
// A record never exceeds MaxRecordSize (PIPE_BUF on Linux) and is emitted with
// a single write under the sender lock, so concurrent writers never interleave
// partial records. The read side reports api.ErrEndOfStream once every writer
// handle has been closed.
package transport
