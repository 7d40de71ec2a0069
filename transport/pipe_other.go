//go:build !linux
// +build !linux

// File: transport/pipe_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Portable fallback using os.Pipe.

package transport

import (
	"fmt"
	"os"
)

func newPipe() (*os.File, *os.File, error) {
	return os.Pipe()
}

func openInherited(fd uintptr, name string) (*os.File, error) {
	f := os.NewFile(fd, name)
	if f == nil {
		return nil, fmt.Errorf("invalid descriptor %d", fd)
	}
	return f, nil
}

func pipeCapacity(*os.File) int {
	return -1
}
