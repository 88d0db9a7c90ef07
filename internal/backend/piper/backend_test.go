package piper

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/paravox/internal/audio"
	"github.com/ekisa-team/paravox/internal/backend"
)

// fakePiper writes a WAV file to the --output_file argument.
type fakePiper struct {
	t     *testing.T
	args  []string
	stdin string
	fail  bool
}

func (f *fakePiper) Run(_ context.Context, _ string, args []string, stdin io.Reader) ([]byte, []byte, error) {
	f.args = args
	b, _ := io.ReadAll(stdin)
	f.stdin = string(b)

	if f.fail {
		return nil, []byte("voice missing"), errors.New("exit status 1")
	}

	var out string
	for i, a := range args {
		if a == "--output_file" {
			out = args[i+1]
		}
	}

	data, err := audio.NewWAVEncoder(f.t.TempDir()).Encode([]float32{0.25, -0.25}, 22050)
	if err != nil {
		return nil, nil, err
	}
	return nil, nil, os.WriteFile(out, data, 0o644)
}

func TestBackend_Infer(t *testing.T) {
	tempDir := t.TempDir()
	runner := &fakePiper{t: t}
	b := NewBackendWithExecutor(backend.NewExecutorWithRunner("piper", 0, runner), tempDir)

	resp, err := b.Infer(context.Background(), &backend.Request{
		ModelPath:  "/voices/en.onnx",
		Text:       "Hello from piper.",
		Parameters: map[string]any{"length_scale": 1.2, "speaker_id": 3},
	})
	require.NoError(t, err)

	assert.Equal(t, 22050, resp.SampleRate)
	require.Len(t, resp.Samples, 2)
	assert.InDelta(t, 0.25, resp.Samples[0], 1e-3)
	assert.Equal(t, "Hello from piper.", runner.stdin)
	assert.Contains(t, runner.args, "--length_scale")
	assert.Contains(t, runner.args, "1.20")
	assert.Contains(t, runner.args, "--speaker")

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "output temp file must be removed")
}

func TestBackend_InferFailureCleansUp(t *testing.T) {
	tempDir := t.TempDir()
	b := NewBackendWithExecutor(backend.NewExecutorWithRunner("piper", 0, &fakePiper{t: t, fail: true}), tempDir)

	_, err := b.Infer(context.Background(), &backend.Request{Text: "Hello."})
	assert.ErrorContains(t, err, "voice missing")

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBackend_InferRejectsVoiceReference(t *testing.T) {
	b := NewBackendWithExecutor(backend.NewExecutorWithRunner("piper", 0, &fakePiper{t: t}), t.TempDir())

	_, err := b.Infer(context.Background(), &backend.Request{Text: "Hi", VoiceReference: []byte("ref")})
	assert.ErrorIs(t, err, backend.ErrVoiceReferenceNotSupported)
}

func TestBackend_BuildArgsDefaults(t *testing.T) {
	b := &Backend{}

	args := b.buildArgs(&backend.Request{ModelPath: "m.onnx"}, "out.wav")
	assert.Equal(t, []string{"--model", "m.onnx", "--output_file", "out.wav"}, args)
}

func TestBackend_ResolveModelPath(t *testing.T) {
	dir := t.TempDir()
	voice := filepath.Join(dir, "en_US", "voice.onnx")
	require.NoError(t, os.MkdirAll(filepath.Dir(voice), 0o755))
	require.NoError(t, os.WriteFile(voice+".json", []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(voice, []byte("onnx"), 0o644))

	b := &Backend{}

	got, err := b.ResolveModelPath(dir)
	require.NoError(t, err)
	assert.Equal(t, voice, got)

	got, err = b.ResolveModelPath(voice)
	require.NoError(t, err)
	assert.Equal(t, voice, got)

	_, err = b.ResolveModelPath(t.TempDir())
	assert.ErrorContains(t, err, "no .onnx voice")
}
