package piper

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ekisa-team/paravox/internal/audio"
	"github.com/ekisa-team/paravox/internal/backend"
	"github.com/ekisa-team/paravox/internal/mapsafe"
	"github.com/ekisa-team/paravox/internal/xfs"
)

const BackendName = backend.BackendProviderPiper

// Backend implements backend.Backend for Piper TTS.
type Backend struct {
	executor *backend.Executor
	tempDir  string
}

// NewBackend creates a new Piper backend. A zero timeout lets a synthesis
// run as long as it needs.
func NewBackend(binPath, tempDir string, timeout time.Duration) (*Backend, error) {
	executor, err := backend.NewExecutor(binPath, timeout)
	if err != nil {
		return nil, err
	}

	return NewBackendWithExecutor(executor, tempDir), nil
}

// NewBackendWithExecutor creates a Piper backend around an existing executor.
func NewBackendWithExecutor(executor *backend.Executor, tempDir string) *Backend {
	return &Backend{
		executor: executor,
		tempDir:  tempDir,
	}
}

// Provider returns the backend identifier.
func (b *Backend) Provider() backend.BackendProvider {
	return BackendName
}

// ResolveModelPath implements backend.ModelLocator. Piper wants the .onnx
// voice file, which sits next to its .onnx.json config.
func (b *Backend) ResolveModelPath(basePath string) (string, error) {
	info, err := os.Stat(basePath)
	if err != nil {
		return "", fmt.Errorf("model path: %w", err)
	}
	if !info.IsDir() {
		return basePath, nil
	}

	var found string
	err = filepath.WalkDir(basePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".onnx") {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("search model directory: %w", err)
	}
	if found == "" {
		return "", fmt.Errorf("no .onnx voice found in %s", basePath)
	}

	return found, nil
}

// Warm implements backend.Warmer. Piper loads the voice on every call, so
// this only checks the voice file is there.
func (b *Backend) Warm(_ context.Context, modelPath string, _ map[string]any) error {
	if _, err := os.Stat(modelPath); err != nil {
		return fmt.Errorf("piper voice not available: %w", err)
	}

	return nil
}

// Infer synthesizes speech from text.
// Piper writes its output to a file, so a temp file is used and read back.
func (b *Backend) Infer(ctx context.Context, req *backend.Request) (*backend.Response, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, backend.ErrEmptyText
	}
	if len(req.VoiceReference) > 0 {
		return nil, backend.ErrVoiceReferenceNotSupported
	}

	var (
		wavData []byte
		result  *backend.CommandResult
		args    []string
	)
	err := xfs.WithTempFile(b.tempDir, "piper-*.wav", func(f *os.File) error {
		args = b.buildArgs(req, f.Name())

		var err error
		// Piper reads text from stdin
		result, err = b.executor.Execute(ctx, args, strings.NewReader(req.Text))
		if err != nil {
			return err
		}

		// Piper replaces the file, so reopen by name rather than reading f.
		out, err := os.Open(f.Name())
		if err != nil {
			return fmt.Errorf("failed to open audio file: %w", err)
		}
		defer out.Close()

		wavData, err = io.ReadAll(out)
		if err != nil {
			return fmt.Errorf("failed to read audio file: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	samples, sampleRate, err := audio.DecodeWAV(wavData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode piper output: %w", err)
	}

	return &backend.Response{
		Samples:    samples,
		SampleRate: sampleRate,
		Metadata: &backend.ResponseMetadata{
			Provider:        b.Provider(),
			Model:           req.ModelPath,
			Timestamp:       time.Now(),
			DurationSeconds: result.Duration.Seconds(),
			BackendSpecific: map[string]any{
				"stderr": string(result.Stderr),
				"args":   args,
			},
		},
	}, nil
}

// buildArgs builds Piper command-line arguments.
func (b *Backend) buildArgs(req *backend.Request, outputFile string) []string {
	args := []string{
		"--model", req.ModelPath,
		"--output_file", outputFile,
	}

	p := req.Parameters

	if v := mapsafe.Get(p, "speaker_id", -1); v >= 0 {
		args = append(args, "--speaker", fmt.Sprintf("%d", v))
	}

	if v := mapsafe.Get(p, "length_scale", 0.0); v > 0 {
		args = append(args, "--length_scale", fmt.Sprintf("%.2f", v))
	}

	if v := mapsafe.Get(p, "noise_scale", 0.0); v > 0 {
		args = append(args, "--noise_scale", fmt.Sprintf("%.2f", v))
	}

	if v := mapsafe.Get(p, "noise_w", 0.0); v > 0 {
		args = append(args, "--noise_w", fmt.Sprintf("%.2f", v))
	}

	if v := mapsafe.Get(p, "sentence_silence", 0.0); v > 0 {
		args = append(args, "--sentence_silence", fmt.Sprintf("%.2f", v))
	}

	return args
}

// Close cleans up resources. Piper does not have any resources to clean up.
func (b *Backend) Close() error {
	return nil
}
