package backend

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	err         error
	name        string
	stdin       string
	stderr      string
	args        []string
	hadDeadline bool
}

func (r *recordingRunner) Run(ctx context.Context, name string, args []string, stdin io.Reader) ([]byte, []byte, error) {
	r.name = name
	r.args = args
	if stdin != nil {
		b, _ := io.ReadAll(stdin)
		r.stdin = string(b)
	}
	_, r.hadDeadline = ctx.Deadline()

	stderr := r.stderr
	if stderr == "" {
		stderr = "err"
	}
	return []byte("out"), []byte(stderr), r.err
}

func TestExecutor_Execute(t *testing.T) {
	runner := &recordingRunner{}
	exec := NewExecutorWithRunner("/usr/bin/piper", time.Minute, runner)

	res, err := exec.Execute(context.Background(), []string{"--model", "m.onnx"}, strings.NewReader("hello"))
	require.NoError(t, err)

	assert.Equal(t, "out", string(res.Stdout))
	assert.Equal(t, "err", string(res.Stderr))
	assert.Equal(t, "/usr/bin/piper", runner.name)
	assert.Equal(t, []string{"--model", "m.onnx"}, runner.args)
	assert.Equal(t, "hello", runner.stdin)
	assert.True(t, runner.hadDeadline)
}

func TestExecutor_NoTimeout(t *testing.T) {
	runner := &recordingRunner{}
	exec := NewExecutorWithRunner("/usr/bin/piper", 0, runner)

	_, err := exec.Execute(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.False(t, runner.hadDeadline)
}

func TestExecutor_CommandError(t *testing.T) {
	cause := errors.New("exit status 1")
	runner := &recordingRunner{err: cause, stderr: "  unknown voice  \n"}
	exec := NewExecutorWithRunner("/usr/bin/piper", 0, runner)

	_, err := exec.Execute(context.Background(), nil, nil)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "piper", cmdErr.Binary)
	assert.Equal(t, "unknown voice", cmdErr.Stderr)
	assert.Equal(t, "piper failed: unknown voice", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestNewExecutor_MissingBinary(t *testing.T) {
	_, err := NewExecutor("/definitely/not/here", time.Second)
	assert.ErrorContains(t, err, "binary not found")
}
