package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/paravox/internal/config"
)

func hfModel(repo, revision string) *config.ModelConfig {
	m := &config.ModelConfig{Type: "tts", Backend: "chatterbox"}
	m.SetHuggingFaceSource(config.HuggingFaceSource{Repo: repo, Revision: revision})
	return m
}

func TestHuggingFaceDownloader_Download(t *testing.T) {
	dir := t.TempDir()

	var calls [][]string
	d := &HuggingFaceDownloader{
		maxRetries: 3,
		run: func(_ context.Context, name string, args ...string) ([]byte, error) {
			calls = append(calls, append([]string{name}, args...))
			return nil, nil
		},
	}

	path, cached, err := d.Download(context.Background(), hfModel("ResembleAI/chatterbox", "main"), dir)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, filepath.Join(dir, "ResembleAI/chatterbox"), path)
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"hf", "download", "ResembleAI/chatterbox", "--local-dir", path, "--revision", "main"}, calls[0])

	// Second call hits the marker.
	path2, cached, err := d.Download(context.Background(), hfModel("ResembleAI/chatterbox", "main"), dir)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, path, path2)
	assert.Len(t, calls, 1)

	// Changed revision downloads again.
	_, cached, err = d.Download(context.Background(), hfModel("ResembleAI/chatterbox", "v2"), dir)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Len(t, calls, 2)
}

func TestHuggingFaceDownloader_Retries(t *testing.T) {
	attempts := 0
	d := &HuggingFaceDownloader{
		maxRetries: 3,
		run: func(context.Context, string, ...string) ([]byte, error) {
			attempts++
			return []byte("network down"), errors.New("exit status 1")
		},
	}

	_, _, err := d.Download(context.Background(), hfModel("a/b", ""), t.TempDir())
	assert.ErrorContains(t, err, "exit status 1")
	assert.Equal(t, 3, attempts)
}

func TestHuggingFaceDownloader_InvalidRepo(t *testing.T) {
	d := NewHuggingFaceDownloader()

	_, _, err := d.Download(context.Background(), hfModel("  ", ""), t.TempDir())
	assert.ErrorContains(t, err, "invalid repo name")
}

func TestLocalDownloader(t *testing.T) {
	dir := t.TempDir()
	m := &config.ModelConfig{}
	m.SetLocalSource(config.LocalSource{Path: dir})

	path, cached, err := (&LocalDownloader{}).Download(context.Background(), m, "")
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, dir, path)

	m.SetLocalSource(config.LocalSource{Path: filepath.Join(dir, "missing")})
	_, _, err = (&LocalDownloader{}).Download(context.Background(), m, "")
	assert.ErrorContains(t, err, "local model not found")
}

func TestGetDownloader(t *testing.T) {
	d, err := GetDownloader(context.Background(), config.SourceTypeHuggingFace)
	require.NoError(t, err)
	assert.IsType(t, &HuggingFaceDownloader{}, d)

	d, err = GetDownloader(context.Background(), config.SourceTypeLocal)
	require.NoError(t, err)
	assert.IsType(t, &LocalDownloader{}, d)

	_, err = GetDownloader(context.Background(), "s3")
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestEnsureModelsDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureModelsDirectory(dir))
	require.NoError(t, EnsureModelsDirectory(dir))

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.Error(t, EnsureModelsDirectory(file))
}
