// File: transport/receiver.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Single-reader side of the delivery channel.

package transport

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/momentics/orderline/api"
)

// Ensure compile-time interface compliance.
var _ api.Receiver = (*Receiver)(nil)

// Receiver reassembles records from the read end of the delivery channel.
// Partial input survives an interrupted Receive, so a cancelled call never
// desynchronizes the stream. Receiver is not safe for concurrent use.
type Receiver struct {
	rc    io.ReadCloser
	buf   []byte
	chunk []byte
	eof   bool
}

// NewReceiver takes ownership of rc.
func NewReceiver(rc io.ReadCloser) *Receiver {
	return &Receiver{
		rc:    rc,
		buf:   make([]byte, 0, MaxRecordSize),
		chunk: make([]byte, MaxRecordSize),
	}
}

// Receive blocks until a whole record is available and returns its item.
// It returns api.ErrEndOfStream after the last writer closed and every
// record was consumed, and ctx.Err() if cancelled while waiting.
func (r *Receiver) Receive(ctx context.Context) (api.WorkItem, error) {
	for {
		body, n, err := splitRecord(r.buf)
		if err != nil {
			return api.WorkItem{}, err
		}
		if n > 0 {
			item, err := decodeBody(body)
			r.buf = append(r.buf[:0], r.buf[n:]...)
			if err != nil {
				return api.WorkItem{}, err
			}
			return item, nil
		}
		if r.eof {
			if len(r.buf) == 0 {
				return api.WorkItem{}, api.ErrEndOfStream
			}
			return api.WorkItem{}, api.Wrap(api.ErrCodeChannelRead, "truncated record", io.ErrUnexpectedEOF).
				WithContext("pending", len(r.buf))
		}
		if err := r.fill(ctx); err != nil {
			return api.WorkItem{}, err
		}
	}
}

func (r *Receiver) fill(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var setDeadline func(time.Time) error
	if d, ok := r.rc.(interface{ SetReadDeadline(time.Time) error }); ok {
		setDeadline = d.SetReadDeadline
	}
	stop := interruptOnCancel(ctx, setDeadline)
	n, err := r.rc.Read(r.chunk)
	stop()

	r.buf = append(r.buf, r.chunk[:n]...)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		r.eof = true
		return nil
	case errors.Is(err, os.ErrDeadlineExceeded) && ctx.Err() != nil:
		return ctx.Err()
	default:
		return api.Wrap(api.ErrCodeChannelRead, "delivery read failed", err)
	}
}

// Close closes the read end.
func (r *Receiver) Close() error {
	return r.rc.Close()
}
