// File: transport/sender.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Multi-writer side of the delivery channel. Writer handles share one
// underlying endpoint, which is closed when the last handle is closed.

package transport

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/orderline/api"
	"github.com/momentics/orderline/pool"
)

// Ensure compile-time interface compliance.
var _ api.Sender = (*Sender)(nil)

var recordBuffers = pool.NewBufferPool(256)

// SenderStats is a snapshot of traffic through a sender.
type SenderStats struct {
	Records int64
	Bytes   int64
	Handles int
}

type senderCore struct {
	mu     sync.Mutex
	w      io.WriteCloser
	refs   int
	closed bool
	broken error // set after a torn write; the stream cannot be resynchronized

	records atomic.Int64
	bytes   atomic.Int64
}

// Sender is one writer handle on the delivery channel.
type Sender struct {
	core   *senderCore
	closed atomic.Bool
}

// NewSender takes ownership of w and returns its first writer handle.
func NewSender(w io.WriteCloser) *Sender {
	return &Sender{core: &senderCore{w: w, refs: 1}}
}

// Handle opens another writer handle on the same endpoint.
func (s *Sender) Handle() (*Sender, error) {
	c := s.core
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || s.closed.Load() {
		return nil, api.ErrSenderClosed
	}
	c.refs++
	return &Sender{core: c}, nil
}

// Send writes item as one atomic record. It blocks while the pipe is full;
// cancelling ctx interrupts the wait.
func (s *Sender) Send(ctx context.Context, item api.WorkItem) error {
	if s.closed.Load() {
		return api.ErrSenderClosed
	}
	buf := recordBuffers.Get()
	defer recordBuffers.Put(buf)
	if err := EncodeRecord(buf, item); err != nil {
		return err
	}
	return s.core.write(ctx, buf.Bytes())
}

func (c *senderCore) write(ctx context.Context, rec []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return api.ErrSenderClosed
	}
	if c.broken != nil {
		return c.broken
	}

	var setDeadline func(time.Time) error
	if d, ok := c.w.(interface{ SetWriteDeadline(time.Time) error }); ok {
		setDeadline = d.SetWriteDeadline
	}
	stop := interruptOnCancel(ctx, setDeadline)
	n, err := c.w.Write(rec)
	stop()

	if err != nil {
		if n > 0 && n < len(rec) {
			c.broken = api.Wrap(api.ErrCodeChannelWrite, "torn record on delivery channel", err).
				WithContext("written", n)
			return c.broken
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return api.Wrap(api.ErrCodeChannelWrite, "delivery write failed", err)
	}
	c.records.Add(1)
	c.bytes.Add(int64(n))
	return nil
}

// Close drops this handle. The endpoint itself is closed with the last handle,
// which lets the reader observe end-of-stream. Close is idempotent per handle.
func (s *Sender) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	c := s.core
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refs--
	if c.refs > 0 || c.closed {
		return nil
	}
	c.closed = true
	return c.w.Close()
}

// Stats returns traffic counters shared by all handles.
func (s *Sender) Stats() SenderStats {
	c := s.core
	c.mu.Lock()
	refs := c.refs
	c.mu.Unlock()
	return SenderStats{
		Records: c.records.Load(),
		Bytes:   c.bytes.Load(),
		Handles: refs,
	}
}
