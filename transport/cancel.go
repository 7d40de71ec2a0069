// File: transport/cancel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Context cancellation for blocking pipe I/O via deadlines.

package transport

import (
	"context"
	"time"
)

// interruptOnCancel arranges for set(now) to run once ctx is done, forcing a
// blocked read or write to return. The returned stop func must be called when
// the I/O call returns; it clears the deadline if it was applied. Files that
// do not support deadlines simply stay blocking.
func interruptOnCancel(ctx context.Context, set func(time.Time) error) (stop func()) {
	if set == nil || ctx.Done() == nil {
		return func() {}
	}
	fired := make(chan struct{})
	stopAfter := context.AfterFunc(ctx, func() {
		_ = set(time.Now())
		close(fired)
	})
	return func() {
		if !stopAfter() {
			<-fired
			_ = set(time.Time{})
		}
	}
}
