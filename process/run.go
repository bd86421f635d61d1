package process

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// defaultGracePeriod is how long a tool gets between SIGTERM and SIGKILL
// when Command.GracePeriod is zero. Compilers and linters flush output on
// SIGTERM; five seconds is enough for the tools driven here.
const defaultGracePeriod = 5 * time.Second

// Run invokes an external tool and waits for it to finish, capturing
// stdout and stderr. Cancelling the context sends SIGTERM to the tool's
// process group, then SIGKILL once the grace period expires. A non-nil
// Result is returned whenever the tool actually ran, even on failure, so
// callers can report its output.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("process: binary is required")
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // invoking configured tools is this package's purpose
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	if cmd.Stdin != nil {
		c.Stdin = cmd.Stdin
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	// Node-based tools spawn children; a process group lets one signal
	// reach the whole tree.
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = cmd.GracePeriod
	if c.WaitDelay == 0 {
		c.WaitDelay = defaultGracePeriod
	}

	start := time.Now()
	runErr := c.Run()

	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: -1,
		Duration: time.Since(start),
	}
	if c.ProcessState != nil {
		res.ExitCode = c.ProcessState.ExitCode()
	}

	switch {
	case runErr == nil:
		return res, nil
	case ctx.Err() != nil:
		// Cancellation is the normal way a watch session stops a tool.
		return res, fmt.Errorf("process: killed by context: %w", ctx.Err())
	case c.ProcessState == nil:
		return nil, fmt.Errorf("process: start %s: %w", cmd.Binary, runErr)
	default:
		return res, fmt.Errorf("process: exit code %d: %w", res.ExitCode, runErr)
	}
}
