package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/ekisa-team/paravox/internal/backend"
	"github.com/ekisa-team/paravox/internal/config"
	"github.com/ekisa-team/paravox/internal/config/source"
	"github.com/ekisa-team/paravox/internal/envvar"
	"github.com/ekisa-team/paravox/internal/xfs"
)

// DownloaderFunc returns the downloader for a source type.
type DownloaderFunc func(ctx context.Context, sourceType config.SourceType) (source.Downloader, error)

// Option configures a Manager.
type Option func(*Manager)

// WithDownloaderFunc overrides how downloaders are obtained.
func WithDownloaderFunc(fn DownloaderFunc) Option {
	return func(m *Manager) {
		m.getDownloader = fn
	}
}

// Manager orchestrates model lifecycle: download, locate and warm up.
type Manager struct {
	registry      *Registry
	backends      *backend.Registry
	getDownloader DownloaderFunc
	primary       string
	listeners     []func()
	loadMu        sync.Mutex
	mu            sync.RWMutex
}

// NewManager creates a new Manager that loads models onto backends.
func NewManager(backends *backend.Registry, opts ...Option) *Manager {
	m := &Manager{
		registry:      NewRegistry(),
		backends:      backends,
		getDownloader: source.GetDownloader,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Registry returns the model registry.
func (m *Manager) Registry() *Registry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.registry
}

// Primary returns the primary TTS model instance.
func (m *Manager) Primary() (*Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.primary == "" {
		return nil, fmt.Errorf("%w: no tts model assigned", ErrNotFound)
	}

	instance, ok := m.registry.Get(m.primary)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, m.primary)
	}

	return instance, nil
}

// OnChange registers fn to run after every load attempt.
func (m *Manager) OnChange(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listeners = append(m.listeners, fn)
}

// LoadModelsFromConfig downloads, locates and warms every TTS model the
// config assigns, then swaps the registry in one step. A model that fails
// stays in the registry with status failed; the returned error joins all
// failures.
func (m *Manager) LoadModelsFromConfig(ctx context.Context, cfg *config.Config) error {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	registry := NewRegistry()
	primary, _ := cfg.PrimaryTTSModel()

	modelsPath := resolveModelsPath(cfg)
	if err := source.EnsureModelsDirectory(modelsPath); err != nil {
		return fmt.Errorf("failed to prepare models directory %s: %w", modelsPath, err)
	}

	var errs []error
	for _, modelID := range cfg.Services.TTS.Models {
		if _, seen := registry.Get(modelID); seen {
			continue
		}

		modelConfig, ok := cfg.Models[modelID]
		if !ok {
			err := fmt.Errorf("model %s is assigned to tts but not defined", modelID)
			instance := NewInstance(&config.ModelConfig{}, modelID, "")
			instance.SetError(err)
			registry.Set(instance)
			errs = append(errs, err)
			slog.Warn("Model not found in config", "model_id", modelID)
			continue
		}

		instance := NewInstance(&modelConfig, modelID, "")
		instance.SetStatus(ModelStatusLoading)
		registry.Set(instance)

		if err := m.load(ctx, instance, modelsPath); err != nil {
			instance.SetError(err)
			errs = append(errs, fmt.Errorf("model %s: %w", modelID, err))
			slog.Error("Failed to load model", "model_id", modelID, "error", err)
			continue
		}

		instance.SetStatus(ModelStatusLoaded)
		slog.Info("Model loaded", "model_id", modelID, "backend", modelConfig.Backend, "path", instance.Path)
	}

	m.mu.Lock()
	m.registry = registry
	m.primary = primary
	listeners := append([]func(){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}

	return errors.Join(errs...)
}

// load fetches the model files and prepares the backend.
func (m *Manager) load(ctx context.Context, instance *Instance, modelsPath string) error {
	modelSource, err := instance.Config.GetSource()
	if err != nil {
		return fmt.Errorf("failed to get model source: %w", err)
	}

	downloader, err := m.getDownloader(ctx, modelSource.Type())
	if err != nil {
		return fmt.Errorf("failed to get downloader: %w", err)
	}

	downloadPath, cached, err := downloader.Download(ctx, instance.Config, modelsPath)
	if err != nil {
		return fmt.Errorf("failed to download into %s: %w", modelsPath, err)
	}

	b, ok := m.backends.Get(backend.BackendProvider(instance.Config.Backend))
	if !ok {
		return fmt.Errorf("%w: %s", backend.ErrNotFound, instance.Config.Backend)
	}

	modelPath := downloadPath
	if locator, ok := b.(backend.ModelLocator); ok {
		modelPath, err = locator.ResolveModelPath(downloadPath)
		if err != nil {
			return fmt.Errorf("failed to locate model file: %w", err)
		}
	}
	instance.Path = modelPath

	if warmer, ok := b.(backend.Warmer); ok {
		if err := warmer.Warm(ctx, modelPath, instance.Config.Parameters); err != nil {
			return fmt.Errorf("failed to warm up: %w", err)
		}
	}

	slog.Debug("Model files ready", "model_id", instance.ID, "path", modelPath, "cached", cached)
	return nil
}

// resolveModelsPath returns the path to the models directory.
// Precedence:
// 1. PARAVOX_MODELS_PATH environment variable.
// 2. ModelsDir field in the config.
// 3. Default models path.
func resolveModelsPath(cfg *config.Config) string {
	if p := os.Getenv(envvar.ParavoxModelsPath); p != "" {
		return xfs.ExpandTilde(p)
	}
	if cfg.Storage.ModelsDir != "" {
		return xfs.ExpandTilde(cfg.Storage.ModelsDir)
	}
	return xfs.ExpandTilde(config.DefaultModelsPath())
}
