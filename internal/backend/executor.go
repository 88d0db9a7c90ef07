package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// CommandRunner runs a program to completion.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string, stdin io.Reader) (stdout, stderr []byte, err error)
}

// ExecCommandRunner runs programs with os/exec.
type ExecCommandRunner struct{}

// Run implements CommandRunner.
func (ExecCommandRunner) Run(ctx context.Context, name string, args []string, stdin io.Reader) (stdout, stderr []byte, err error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err = cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// CommandResult is the output of a successful run.
type CommandResult struct {
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// CommandError is returned when a program exits unsuccessfully. Its message
// includes the program's stderr, which is where CLI synthesizers report why
// a voice or text was rejected.
type CommandError struct {
	Binary   string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Binary)
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" with exit code %d", e.ExitCode)
	}
	if e.Stderr != "" {
		return msg + ": " + e.Stderr
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Executor runs a single program, optionally bounded by a timeout.
type Executor struct {
	runner  CommandRunner
	binPath string
	timeout time.Duration
}

// NewExecutor creates an executor for binPath. A timeout of zero or less
// lets each run last as long as ctx allows.
func NewExecutor(binPath string, timeout time.Duration) (*Executor, error) {
	if _, err := os.Stat(binPath); err != nil {
		return nil, fmt.Errorf("binary not found: %w", err)
	}

	return NewExecutorWithRunner(binPath, timeout, ExecCommandRunner{}), nil
}

// NewExecutorWithRunner creates an executor that delegates to runner.
func NewExecutorWithRunner(binPath string, timeout time.Duration, runner CommandRunner) *Executor {
	return &Executor{
		runner:  runner,
		binPath: binPath,
		timeout: timeout,
	}
}

// Execute runs the program with args, feeding it stdin.
func (e *Executor) Execute(ctx context.Context, args []string, stdin io.Reader) (*CommandResult, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	stdout, stderr, err := e.runner.Run(ctx, e.binPath, args, stdin)
	if err != nil {
		cmdErr := &CommandError{
			Binary: filepath.Base(e.binPath),
			Stderr: strings.TrimSpace(string(stderr)),
			Err:    err,
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			cmdErr.Err = fmt.Errorf("%w: %w", ctxErr, err)
		}

		return nil, cmdErr
	}

	return &CommandResult{
		Stdout:   stdout,
		Stderr:   stderr,
		Duration: time.Since(start),
	}, nil
}
