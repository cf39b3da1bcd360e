package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Runner starts a command and reports its exit code. An error means the
// command could not be started.
type Runner interface {
	Run(ctx context.Context, command []string) (int, error)
}

// ExecRunner runs commands as child processes sharing the given stdio
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner returns a runner wired to the current process's stdio
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run starts command and waits for it
func (r *ExecRunner) Run(ctx context.Context, command []string) (int, error) {
	if len(command) == 0 {
		return 1, errors.New("empty command")
	}
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = r.Stdin, r.Stdout, r.Stderr

	if err := cmd.Start(); err != nil {
		return 1, fmt.Errorf("start %s: %w", command[0], err)
	}
	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		// killed by a signal
		return 1, nil
	}
	return 1, fmt.Errorf("wait %s: %w", command[0], err)
}
