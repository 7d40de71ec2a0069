// File: internal/worker/delay.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package worker

import (
	"context"
	"math/rand/v2"
	"time"
)

// Delay is a uniform latency range used to simulate work.
type Delay struct {
	Min time.Duration
	Max time.Duration
}

// Next draws a duration in [Min, Max].
func (d Delay) Next() time.Duration {
	if d.Max <= d.Min {
		return d.Min
	}
	return d.Min + rand.N(d.Max-d.Min+1)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Generator produces the numeric part of a work item.
type Generator func() int

// Uniform returns a generator drawing from [lo, hi].
func Uniform(lo, hi int) Generator {
	return func() int { return lo + rand.IntN(hi-lo+1) }
}
