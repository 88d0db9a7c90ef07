package config

import (
	"errors"
	"time"
)

// SourceType represents the type of model source.
type SourceType string

const (
	// SourceTypeHuggingFace represents a Hugging Face model repository source.
	SourceTypeHuggingFace SourceType = "huggingface"

	// SourceTypeLocal represents a model already present on disk.
	SourceTypeLocal SourceType = "local"
)

// Config holds the main configuration for the application.
type Config struct {
	Version    string                 `json:"version"              yaml:"version"`
	Server     ServerConfig           `json:"server,omitempty"     yaml:"server,omitempty"`
	Storage    StorageConfig          `json:"storage,omitempty"    yaml:"storage,omitempty"`
	Backends   BackendsConfig         `json:"backends,omitempty"   yaml:"backends,omitempty"`
	Models     map[string]ModelConfig `json:"models"               yaml:"models"`
	Services   ServicesConfig         `json:"services"             yaml:"services"`
	Generation GenerationConfig       `json:"generation,omitempty" yaml:"generation,omitempty"`
	Sessions   SessionsConfig         `json:"sessions,omitempty"   yaml:"sessions,omitempty"`
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	Host     string `json:"host,omitempty"      yaml:"host,omitempty"`
	HTTPPort int    `json:"http_port,omitempty" yaml:"http_port,omitempty"`
	GRPCPort int    `json:"grpc_port,omitempty" yaml:"grpc_port,omitempty"`
}

// StorageConfig holds configuration for model caching and scratch files.
type StorageConfig struct {
	ModelsDir string `json:"models_dir,omitempty" yaml:"models_dir,omitempty"`
	TempDir   string `json:"temp_dir,omitempty"   yaml:"temp_dir,omitempty"`
}

// BackendsConfig holds per-backend process settings.
type BackendsConfig struct {
	Chatterbox ChatterboxBackendConfig `json:"chatterbox,omitempty" yaml:"chatterbox,omitempty"`
	Piper      PiperBackendConfig      `json:"piper,omitempty"      yaml:"piper,omitempty"`
}

// ChatterboxBackendConfig configures the Chatterbox inference server.
type ChatterboxBackendConfig struct {
	BinPath             string `json:"bin_path,omitempty"              yaml:"bin_path,omitempty"`
	BaseURL             string `json:"base_url,omitempty"              yaml:"base_url,omitempty"`
	Device              string `json:"device,omitempty"                yaml:"device,omitempty"`
	Port                int    `json:"port,omitempty"                  yaml:"port,omitempty"`
	ReadyTimeoutSeconds int    `json:"ready_timeout_seconds,omitempty" yaml:"ready_timeout_seconds,omitempty"`
}

// ReadyTimeout returns the server start-up timeout.
func (c ChatterboxBackendConfig) ReadyTimeout() time.Duration {
	return time.Duration(c.ReadyTimeoutSeconds) * time.Second
}

// PiperBackendConfig configures the Piper CLI.
type PiperBackendConfig struct {
	BinPath        string `json:"bin_path,omitempty"        yaml:"bin_path,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

// Timeout returns the per-call timeout; zero means none.
func (c PiperBackendConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ModelConfig holds configuration for a specific model.
type ModelConfig struct {
	Source     SourceConfig   `json:"source"               yaml:"source"`
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Type       string         `json:"type"                 yaml:"type"`
	Backend    string         `json:"backend"              yaml:"backend"`
	Tags       []string       `json:"tags,omitempty"       yaml:"tags,omitempty"`
	Order      int            `json:"order,omitempty"      yaml:"order,omitempty"`
}

// SourceConfig wraps optional sources (only one should be set).
type SourceConfig struct {
	HuggingFace *HuggingFaceSource `json:"huggingface,omitempty" yaml:"huggingface,omitempty"`
	Local       *LocalSource       `json:"local,omitempty"       yaml:"local,omitempty"`
}

// ServicesConfig holds configuration for all services.
type ServicesConfig struct {
	TTS ServicesConfigAssignment `json:"tts" yaml:"tts"`
}

// ServicesConfigAssignment holds model assignments for a service.
type ServicesConfigAssignment struct {
	Models []string `json:"models" yaml:"models"` // List of model IDs, first is primary
}

// GenerationConfig holds the defaults offered by the input form.
type GenerationConfig struct {
	Exaggeration   float64 `json:"exaggeration,omitempty"     yaml:"exaggeration,omitempty"`
	CFGWeight      float64 `json:"cfg_weight,omitempty"       yaml:"cfg_weight,omitempty"`
	MaxUploadBytes int64   `json:"max_upload_bytes,omitempty" yaml:"max_upload_bytes,omitempty"`
}

// SessionsConfig bounds the in-memory session store.
type SessionsConfig struct {
	MaxSessions int `json:"max_sessions,omitempty" yaml:"max_sessions,omitempty"`
}

// -------------------------
// Source definitions
// -------------------------

// ModelSource represents a source for a model.
type ModelSource interface {
	Type() SourceType
}

// HuggingFaceSource represents a Hugging Face model repository source.
type HuggingFaceSource struct {
	Repo          string   `json:"repo"                     yaml:"repo"`
	Revision      string   `json:"revision,omitempty"       yaml:"revision,omitempty"`
	RepoType      string   `json:"repo_type,omitempty"      yaml:"repo_type,omitempty"`
	Token         string   `json:"token,omitempty"          yaml:"token,omitempty"`
	Include       []string `json:"include,omitempty"        yaml:"include,omitempty"`
	Exclude       []string `json:"exclude,omitempty"        yaml:"exclude,omitempty"`
	MaxWorkers    int      `json:"max_workers,omitempty"    yaml:"max_workers,omitempty"`
	ForceDownload bool     `json:"force_download,omitempty" yaml:"force_download,omitempty"`
}

// Type returns the Hugging Face source type.
func (h HuggingFaceSource) Type() SourceType {
	return SourceTypeHuggingFace
}

// LocalSource points at a model directory or file on disk.
type LocalSource struct {
	Path string `json:"path" yaml:"path"`
}

// Type returns the local source type.
func (l LocalSource) Type() SourceType {
	return SourceTypeLocal
}

// GetSource returns the active source for the model.
func (m *ModelConfig) GetSource() (ModelSource, error) {
	switch {
	case m.Source.HuggingFace != nil && m.Source.Local != nil:
		return nil, errors.New("model declares more than one source")
	case m.Source.HuggingFace != nil:
		return *m.Source.HuggingFace, nil
	case m.Source.Local != nil:
		return *m.Source.Local, nil
	}

	return nil, errors.New("no source configured for model")
}

// SetHuggingFaceSource sets the Hugging Face source.
func (m *ModelConfig) SetHuggingFaceSource(source HuggingFaceSource) {
	m.Source.HuggingFace = &source
	m.Source.Local = nil
}

// SetLocalSource sets the local source.
func (m *ModelConfig) SetLocalSource(source LocalSource) {
	m.Source.Local = &source
	m.Source.HuggingFace = nil
}

// PrimaryTTSModel returns the first TTS model assigned in services.
func (c *Config) PrimaryTTSModel() (string, bool) {
	if len(c.Services.TTS.Models) == 0 {
		return "", false
	}

	return c.Services.TTS.Models[0], true
}
