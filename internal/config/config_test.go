package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/paravox/internal/envvar"
)

const validConfig = `
version: "1"
server:
  http_port: 8181
backends:
  chatterbox:
    bin_path: /opt/chatterbox/serve
    port: 8091
models:
  chatterbox:
    type: tts
    backend: chatterbox
    source:
      huggingface:
        repo: ResembleAI/chatterbox
    parameters:
      default_voice: /voices/dave.mp3
  amy:
    type: tts
    backend: piper
    source:
      local:
        path: /voices/en_US-amy-medium
services:
  tts:
    models: [chatterbox, amy]
generation:
  exaggeration: 0.7
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAndValidate(t *testing.T) {
	cfg, err := LoadAndValidate(writeConfig(t, validConfig), "")
	require.NoError(t, err)

	assert.Equal(t, "1", cfg.Version)
	assert.Equal(t, 8181, cfg.Server.HTTPPort)
	assert.Equal(t, DefaultGRPCPort(), cfg.Server.GRPCPort)
	assert.Equal(t, DefaultHost, cfg.Server.Host)
	assert.Equal(t, 0.7, cfg.Generation.Exaggeration)
	assert.Equal(t, DefaultCFGWeight, cfg.Generation.CFGWeight)
	assert.Equal(t, int64(DefaultMaxUploadBytes), cfg.Generation.MaxUploadBytes)
	assert.Equal(t, DefaultMaxSessions, cfg.Sessions.MaxSessions)

	primary, ok := cfg.PrimaryTTSModel()
	assert.True(t, ok)
	assert.Equal(t, "chatterbox", primary)

	cb := cfg.Models["chatterbox"]
	src, err := cb.GetSource()
	require.NoError(t, err)
	assert.Equal(t, SourceTypeHuggingFace, src.Type())
	assert.Equal(t, "/voices/dave.mp3", cb.Parameters["default_voice"])

	amy := cfg.Models["amy"]
	src, err = amy.GetSource()
	require.NoError(t, err)
	assert.Equal(t, LocalSource{Path: "/voices/en_US-amy-medium"}, src)
}

func TestLoadAndValidate_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "missing services",
			content: "version: \"1\"\nmodels: {}\n",
		},
		{
			name: "exaggeration out of range",
			content: `version: "1"
models: {}
services: {tts: {models: []}}
generation: {exaggeration: 1.5}
`,
		},
		{
			name: "unknown backend",
			content: `version: "1"
models:
  x: {type: tts, backend: espeak, source: {local: {path: /x}}}
services: {tts: {models: [x]}}
`,
		},
		{
			name: "two sources",
			content: `version: "1"
models:
  x: {type: tts, backend: piper, source: {local: {path: /x}, huggingface: {repo: a/b}}}
services: {tts: {models: [x]}}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadAndValidate(writeConfig(t, tt.content), "")
			assert.ErrorContains(t, err, "validation failed")
		})
	}
}

func TestLoadAndValidate_InvalidYAML(t *testing.T) {
	_, err := LoadAndValidate(writeConfig(t, "version: [unclosed"), "")
	assert.ErrorContains(t, err, "invalid YAML")
}

func TestLoadAndValidate_MissingFile(t *testing.T) {
	_, err := LoadAndValidate(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.ErrorContains(t, err, "failed to read config")
}

func TestLoadAndValidate_ExternalSchema(t *testing.T) {
	schemaPath := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(schemaPath, DefaultSchema(), 0o644))

	_, err := LoadAndValidate(writeConfig(t, validConfig), schemaPath)
	assert.NoError(t, err)
}

func TestLoadAndValidate_EnvOverrides(t *testing.T) {
	t.Setenv(envvar.ParavoxServerHTTPPort, "9999")
	t.Setenv(envvar.ParavoxServerGRPCPort, "not-a-port")

	cfg, err := LoadAndValidate(writeConfig(t, validConfig), "")
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.HTTPPort)
	assert.Equal(t, DefaultGRPCPort(), cfg.Server.GRPCPort)
}

func TestModelConfig_GetSource(t *testing.T) {
	var m ModelConfig
	_, err := m.GetSource()
	assert.Error(t, err)

	m.SetHuggingFaceSource(HuggingFaceSource{Repo: "a/b"})
	src, err := m.GetSource()
	require.NoError(t, err)
	assert.Equal(t, SourceTypeHuggingFace, src.Type())

	m.SetLocalSource(LocalSource{Path: "/x"})
	src, err = m.GetSource()
	require.NoError(t, err)
	assert.Equal(t, SourceTypeLocal, src.Type())
	assert.Nil(t, m.Source.HuggingFace)
}

func TestWatcher_Reload(t *testing.T) {
	path := writeConfig(t, validConfig)

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, "", func(cfg *Config, err error) {
		if err != nil {
			return
		}
		select {
		case reloaded <- cfg:
		default:
		}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	assert.Equal(t, 8181, w.Snapshot().Server.HTTPPort)

	updated := []byte(validConfig + "sessions:\n  max_sessions: 3\n")
	require.NoError(t, os.WriteFile(path, updated, 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 3, cfg.Sessions.MaxSessions)
		assert.Equal(t, 3, w.Snapshot().Sessions.MaxSessions)
		assert.GreaterOrEqual(t, w.ReloadCount(), uint32(1))
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}

func TestExampleConfigIsValid(t *testing.T) {
	cfg, err := LoadAndValidate(filepath.Join("..", "..", "config.example.yaml"), "")
	require.NoError(t, err)

	primary, ok := cfg.PrimaryTTSModel()
	require.True(t, ok)
	assert.Equal(t, "chatterbox", primary)
}
