// File: internal/courier/launcher.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Launchers start a courier on the read end of the delivery pipe in an
// isolated execution context.

package courier

import (
	"context"
	"os"

	"github.com/momentics/orderline/transport"
)

// Handle tracks a running courier.
type Handle interface {
	// Pid is the courier's process id; inline couriers report the host pid.
	Pid() int
	// Wait blocks until the courier has observed end-of-stream and exited.
	Wait() error
}

// Launcher starts a courier that owns r. After Launch returns, the caller
// must not use r.
type Launcher interface {
	Launch(ctx context.Context, r *os.File) (Handle, error)
}

// InlineLauncher runs the courier on a goroutine. It still talks to the
// pipeline only through the pipe, which makes it suitable for tests and
// single-process deployments.
type InlineLauncher struct {
	Courier Courier
}

type inlineHandle struct {
	done chan struct{}
	err  error
}

func (h *inlineHandle) Pid() int { return os.Getpid() }

func (h *inlineHandle) Wait() error {
	<-h.done
	return h.err
}

// Launch starts the courier loop reading from r.
func (l *InlineLauncher) Launch(ctx context.Context, r *os.File) (Handle, error) {
	c := l.Courier
	rx := transport.NewReceiver(r)
	c.Receiver = rx
	h := &inlineHandle{done: make(chan struct{})}
	go func() {
		defer close(h.done)
		defer rx.Close()
		h.err = c.Run(ctx)
	}()
	return h, nil
}
