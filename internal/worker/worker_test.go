// Copyright 2025 momentics@gmail.com
// License: Apache 2.0

// worker_test.go: producer and consumer loops against a real queue.
package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/momentics/orderline/api"
	"github.com/momentics/orderline/control"
	"github.com/momentics/orderline/internal/concurrency"
)

type recordingSender struct {
	mu     sync.Mutex
	items  []api.WorkItem
	err    error
	closed bool
}

func (s *recordingSender) Send(_ context.Context, item api.WorkItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.items = append(s.items, item)
	return nil
}

func (s *recordingSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func TestDelay_Range(t *testing.T) {
	d := Delay{Min: time.Millisecond, Max: 3 * time.Millisecond}
	for i := 0; i < 200; i++ {
		v := d.Next()
		require.GreaterOrEqual(t, v, d.Min)
		require.LessOrEqual(t, v, d.Max)
	}
	assert.Equal(t, 5*time.Millisecond, Delay{Min: 5 * time.Millisecond}.Next())
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}

func TestUniform_Bounds(t *testing.T) {
	gen := Uniform(1, 100)
	for i := 0; i < 1000; i++ {
		v := gen()
		require.True(t, v >= 1 && v <= 100, "value %d out of range", v)
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("DROP")
	require.NoError(t, err)
	assert.Equal(t, PolicyDrop, p)
	_, err = ParsePolicy("retry")
	require.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestProducer_InsertsAndLogs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	q := concurrency.NewBoundedQueue[api.WorkItem](10)
	m := control.NewMetrics(nil)
	p := &Producer{Queue: q, Metrics: m, Logger: zap.New(core), MaxItems: 4}

	require.NoError(t, p.Run(context.Background(), 2))

	require.Equal(t, 4, q.Len())
	tickets := map[string]bool{}
	for i := 0; i < 4; i++ {
		item, ok := q.TryRemove()
		require.True(t, ok)
		assert.True(t, item.Number >= 1 && item.Number <= 100)
		assert.Equal(t, 2, item.Producer)
		assert.False(t, item.CreatedAt.IsZero())
		tickets[item.Ticket] = true
	}
	assert.Len(t, tickets, 4, "tickets must be unique")
	assert.Equal(t, float64(4), testutil.ToFloat64(m.Produced.WithLabelValues("2")))
	assert.Equal(t, 4, logs.FilterMessage("item enqueued").Len())
}

func TestProducer_StopsOnCancelWhileBlocked(t *testing.T) {
	q := concurrency.NewBoundedQueue[api.WorkItem](1)
	p := &Producer{Queue: q, Metrics: control.NewMetrics(nil), Logger: zap.NewNop(), Generate: func() int { return 7 }}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, 1) }()

	require.Eventually(t, func() bool { return q.Stats().WaitingInsert == 1 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("producer did not stop")
	}
	assert.Equal(t, 1, q.Len())
}

func TestConsumer_ForwardsAndClosesHandle(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	q := concurrency.NewBoundedQueue[api.WorkItem](5)
	tx := &recordingSender{}
	m := control.NewMetrics(nil)
	c := &Consumer{Queue: q, Policy: PolicyFatal, Metrics: m, Logger: zap.New(core)}
	require.NoError(t, c.Attach(1, func() (api.Sender, error) { return tx, nil }))

	for _, n := range []int{10, 20, 30} {
		require.True(t, q.TryInsert(api.WorkItem{Number: n}))
	}
	q.Close()

	require.NoError(t, c.Run(context.Background(), 1))
	require.Len(t, tx.items, 3)
	for i, want := range []int{10, 20, 30} {
		assert.Equal(t, want, tx.items[i].Number)
		assert.Equal(t, 1, tx.items[i].Consumer)
	}
	assert.True(t, tx.closed)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.Sent))
	assert.Equal(t, 3, logs.FilterMessage("item dequeued").Len())
	assert.Equal(t, 3, logs.FilterMessage("item sent").Len())
}

func TestConsumer_CountsItemsLostMidProcessing(t *testing.T) {
	q := concurrency.NewBoundedQueue[api.WorkItem](5)
	tx := &recordingSender{}
	m := control.NewMetrics(nil)
	c := &Consumer{
		Queue:   q,
		Delay:   Delay{Min: time.Hour, Max: time.Hour},
		Policy:  PolicyFatal,
		Metrics: m,
		Logger:  zap.NewNop(),
	}
	require.NoError(t, c.Attach(1, func() (api.Sender, error) { return tx, nil }))
	require.True(t, q.TryInsert(api.WorkItem{Number: 7}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, 1) }()
	require.Eventually(t, func() bool { return q.Len() == 0 }, 2*time.Second, time.Millisecond)
	cancel()

	require.NoError(t, <-done)
	assert.Empty(t, tx.items)
	assert.Equal(t, int64(1), c.Abandoned())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Abandoned))
}

func TestConsumer_WriteFailurePolicies(t *testing.T) {
	writeErr := api.Wrap(api.ErrCodeChannelWrite, "delivery write failed", errors.New("broken pipe"))

	t.Run("fatal", func(t *testing.T) {
		q := concurrency.NewBoundedQueue[api.WorkItem](2)
		c := &Consumer{Queue: q, Policy: PolicyFatal, Metrics: control.NewMetrics(nil), Logger: zap.NewNop()}
		require.NoError(t, c.Attach(1, func() (api.Sender, error) { return &recordingSender{err: writeErr}, nil }))
		require.True(t, q.TryInsert(api.WorkItem{Number: 1}))

		err := c.Run(context.Background(), 1)
		require.Error(t, err)
		assert.Equal(t, api.ErrCodeChannelWrite, api.CodeOf(err))
	})

	t.Run("drop", func(t *testing.T) {
		q := concurrency.NewBoundedQueue[api.WorkItem](2)
		m := control.NewMetrics(nil)
		c := &Consumer{Queue: q, Policy: PolicyDrop, Metrics: m, Logger: zap.NewNop()}
		require.NoError(t, c.Attach(1, func() (api.Sender, error) { return &recordingSender{err: writeErr}, nil }))
		require.True(t, q.TryInsert(api.WorkItem{Number: 1}))
		require.True(t, q.TryInsert(api.WorkItem{Number: 2}))
		q.Close()

		require.NoError(t, c.Run(context.Background(), 1))
		assert.Equal(t, float64(2), testutil.ToFloat64(m.Dropped))
	})
}

func TestConsumer_AttachFailureReleasesHandles(t *testing.T) {
	first := &recordingSender{}
	calls := 0
	c := &Consumer{}
	err := c.Attach(2, func() (api.Sender, error) {
		calls++
		if calls == 2 {
			return nil, api.ErrSenderClosed
		}
		return first, nil
	})
	require.ErrorIs(t, err, api.ErrSenderClosed)
	assert.True(t, first.closed)
}
