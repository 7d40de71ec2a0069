//go:build linux
// +build linux

// File: transport/pipe_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux pipe creation via pipe2(2), pollable from the Go runtime.

package transport

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func newPipe() (*os.File, *os.File, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return nil, nil, fmt.Errorf("pipe2: %w", err)
	}
	return os.NewFile(uintptr(fds[0]), "delivery|0"), os.NewFile(uintptr(fds[1]), "delivery|1"), nil
}

func openInherited(fd uintptr, name string) (*os.File, error) {
	if err := unix.SetNonblock(int(fd), true); err != nil {
		return nil, fmt.Errorf("set nonblock: %w", err)
	}
	f := os.NewFile(fd, name)
	if f == nil {
		return nil, fmt.Errorf("invalid descriptor %d", fd)
	}
	return f, nil
}

func pipeCapacity(f *os.File) int {
	rc, err := f.SyscallConn()
	if err != nil {
		return -1
	}
	size := -1
	_ = rc.Control(func(fd uintptr) {
		if n, err := unix.FcntlInt(fd, unix.F_GETPIPE_SZ, 0); err == nil {
			size = n
		}
	})
	return size
}
