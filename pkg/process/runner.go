//go:generate mockgen -destination=./mocks/runner.go -package=mocks . Runner

// Package process runs external commands with captured output and deadlines.
package process

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/cperrin88/agdaup/pkg/errutils"
)

// waitDelay bounds how long Run waits for output pipes held open by
// grandchildren after the command itself was killed.
const waitDelay = 500 * time.Millisecond

// Options control a single command invocation.
type Options struct {
	Dir     string            // working directory; empty means the current one
	Env     map[string]string // overrides on top of the current environment
	Timeout time.Duration     // zero means no deadline beyond ctx
	Stdout  io.Writer         // optional tee of standard output
	Stderr  io.Writer         // optional tee of standard error
}

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner executes external commands.
type Runner interface {
	Run(ctx context.Context, command string, args []string, opts Options) (Result, error)
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct {
	// DefaultTimeout applies when Options.Timeout is zero.
	DefaultTimeout time.Duration
}

// Run starts command and waits for it. A non-zero exit, a spawn failure and
// an expired deadline all yield *errutils.ProcessError; the captured output is
// returned in every case.
func (r ExecRunner) Run(ctx context.Context, command string, args []string, opts Options) (Result, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = r.DefaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.WaitDelay = waitDelay
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Env) > 0 {
		env := os.Environ()
		for k, v := range opts.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = tee(&stdoutBuf, opts.Stdout)
	cmd.Stderr = tee(&stderrBuf, opts.Stderr)

	err := cmd.Run()
	res := Result{Stdout: stdoutBuf.Bytes(), Stderr: stderrBuf.Bytes()}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	if err == nil {
		return res, nil
	}

	perr := &errutils.ProcessError{
		Command:  command,
		Args:     args,
		ExitCode: res.ExitCode,
		Stderr:   stderrBuf.String(),
		Cause:    err,
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		perr.TimedOut = true
	}
	return res, perr
}

func tee(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}

// Output runs command and returns its trimmed standard output.
func Output(ctx context.Context, r Runner, command string, args ...string) (string, error) {
	res, err := r.Run(ctx, command, args, Options{})
	if err != nil {
		return "", err
	}
	return string(bytes.TrimSpace(res.Stdout)), nil
}

var _ Runner = ExecRunner{}
