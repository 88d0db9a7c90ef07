package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/paravox/internal/segment"
)

func TestSegmentCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "article.txt")
	require.NoError(t, os.WriteFile(path, []byte("First paragraph.\n\nSecond paragraph.\n\n\n"), 0o644))

	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"segment", "--input", path, "--json"})
	require.NoError(t, cmd.Execute())

	var preview segment.Preview
	require.NoError(t, json.Unmarshal(out.Bytes(), &preview))
	assert.Equal(t, []string{"First paragraph.", "Second paragraph."}, preview.Paragraphs)
}

func TestSegmentCmd_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "article.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\nc"), 0o644))

	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"segment", "-i", path})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "5 characters, 3 paragraphs")
}

func TestSynthesizeCmd_MissingConfig(t *testing.T) {
	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"synthesize", "--config", filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, cmd.Execute())
}
