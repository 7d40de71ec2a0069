// File: transport/pipe.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"errors"
	"os"

	"github.com/momentics/orderline/api"
)

// Pipe is a unidirectional byte stream with two endpoints. The write end
// belongs to the consumer side, the read end to the courier.
type Pipe struct {
	R *os.File
	W *os.File
}

// NewPipe creates the delivery pipe. Both descriptors are close-on-exec, so a
// spawned courier only inherits the end that is passed to it explicitly.
func NewPipe() (*Pipe, error) {
	r, w, err := newPipe()
	if err != nil {
		return nil, api.Wrap(api.ErrCodeResourceCreation, "create delivery pipe", err)
	}
	return &Pipe{R: r, W: w}, nil
}

// Close closes both endpoints. Already-closed ends are ignored.
func (p *Pipe) Close() error {
	return errors.Join(closeFile(p.R), closeFile(p.W))
}

func closeFile(f *os.File) error {
	if f == nil {
		return nil
	}
	if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}

// PipeCapacity reports the kernel buffer size of a pipe endpoint in bytes,
// or -1 when the platform cannot tell.
func PipeCapacity(f *os.File) int {
	return pipeCapacity(f)
}

// OpenInherited wraps a descriptor inherited from the parent process.
// The descriptor is switched to non-blocking mode so cancellation can
// interrupt reads.
func OpenInherited(fd uintptr, name string) (*os.File, error) {
	f, err := openInherited(fd, name)
	if err != nil {
		return nil, api.Wrap(api.ErrCodeResourceCreation, "open inherited descriptor", err).
			WithContext("fd", fd)
	}
	return f, nil
}
