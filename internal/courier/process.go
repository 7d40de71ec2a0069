// File: internal/courier/process.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ProcessLauncher re-executes a binary as a separate courier process that
// inherits only the read end of the delivery pipe.

package courier

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/momentics/orderline/api"
)

// InheritedFD is the descriptor number the courier process finds the pipe on.
// ExtraFiles entry i becomes descriptor 3+i.
const InheritedFD = 3

// ProcessLauncher spawns the courier as a child process.
type ProcessLauncher struct {
	Path   string   // executable; empty means the running binary
	Args   []string // arguments; empty means "courier --fd 3"
	Env    []string // nil inherits the parent environment
	Stdout io.Writer
	Stderr io.Writer
}

type processHandle struct {
	cmd *exec.Cmd
}

func (h *processHandle) Pid() int { return h.cmd.Process.Pid }

func (h *processHandle) Wait() error {
	if err := h.cmd.Wait(); err != nil {
		return fmt.Errorf("courier process %d: %w", h.cmd.Process.Pid, err)
	}
	return nil
}

// Launch starts the child with r as descriptor 3 and closes the parent's copy
// of r, so the parent keeps only the write end.
func (l *ProcessLauncher) Launch(_ context.Context, r *os.File) (Handle, error) {
	defer r.Close()

	path := l.Path
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, api.Wrap(api.ErrCodeResourceCreation, "locate courier executable", err)
		}
		path = exe
	}
	args := l.Args
	if len(args) == 0 {
		args = []string{"courier", "--fd", strconv.Itoa(InheritedFD)}
	}

	cmd := exec.Command(path, args...)
	cmd.Env = l.Env
	cmd.Stdout = orDefault(l.Stdout, os.Stdout)
	cmd.Stderr = orDefault(l.Stderr, os.Stderr)
	cmd.ExtraFiles = []*os.File{r}
	if err := cmd.Start(); err != nil {
		return nil, api.Wrap(api.ErrCodeResourceCreation, "spawn courier process", err).
			WithContext("path", path)
	}
	return &processHandle{cmd: cmd}, nil
}

func orDefault(w, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}
