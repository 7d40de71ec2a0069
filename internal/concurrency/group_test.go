// Copyright 2025 momentics@gmail.com
// License: Apache 2.0

// group_test.go: WorkerGroup ids, failure propagation and panic capture.
package concurrency

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerGroup_AssignsStableIDs(t *testing.T) {
	g := NewWorkerGroup(context.Background(), "test")
	var mu sync.Mutex
	var ids []int
	record := func(_ context.Context, id int) error {
		mu.Lock()
		ids = append(ids, id)
		mu.Unlock()
		return nil
	}
	g.Go(2, record)
	g.Go(1, record)
	require.NoError(t, g.Wait())

	sort.Ints(ids)
	assert.Equal(t, []int{1, 2, 3}, ids)
	stats := g.Stats()
	assert.Equal(t, int64(3), stats["started"])
	assert.Equal(t, int64(0), stats["running"])
	assert.Equal(t, int64(3), stats["finished"])
}

func TestWorkerGroup_FailureCancelsSiblings(t *testing.T) {
	g := NewWorkerGroup(context.Background(), "test")
	boom := errors.New("boom")
	g.Go(3, func(ctx context.Context, id int) error {
		if id == 2 {
			return boom
		}
		<-ctx.Done()
		return ctx.Err()
	})
	require.ErrorIs(t, g.Wait(), boom)
}

func TestWorkerGroup_PanicBecomesError(t *testing.T) {
	g := NewWorkerGroup(context.Background(), "cooks")
	g.Go(1, func(context.Context, int) error { panic("burnt") })
	err := g.Wait()
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "cooks", pe.Group)
	assert.Equal(t, 1, pe.Worker)
	assert.Equal(t, "burnt", pe.Value)
	assert.Contains(t, pe.Error(), "cooks worker 1 panicked")
}
