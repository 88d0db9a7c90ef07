package main

import (
	"fmt"
	"log/slog"

	"github.com/ekisa-team/paravox/internal/audio"
	"github.com/ekisa-team/paravox/internal/backend"
	"github.com/ekisa-team/paravox/internal/backend/chatterbox"
	"github.com/ekisa-team/paravox/internal/backend/piper"
	"github.com/ekisa-team/paravox/internal/config"
	"github.com/ekisa-team/paravox/internal/model"
	"github.com/ekisa-team/paravox/internal/service"
	"github.com/ekisa-team/paravox/internal/xfs"
)

// runtime is the wired set of backends, models and the TTS service.
type runtime struct {
	backends *backend.Registry
	servers  *backend.ServerManager
	models   *model.Manager
	tts      *service.TTS
}

func newRuntime(cfg *config.Config) (*runtime, error) {
	servers := backend.NewServerManager()
	backends := backend.NewRegistry()

	tempDir := xfs.ExpandTilde(cfg.Storage.TempDir)

	if err := backends.Register(chatterbox.NewBackend(chatterbox.Config{
		BinPath:      xfs.ExpandTilde(cfg.Backends.Chatterbox.BinPath),
		BaseURL:      cfg.Backends.Chatterbox.BaseURL,
		Port:         cfg.Backends.Chatterbox.Port,
		Device:       cfg.Backends.Chatterbox.Device,
		ReadyTimeout: cfg.Backends.Chatterbox.ReadyTimeout(),
	}, servers)); err != nil {
		return nil, fmt.Errorf("failed to register chatterbox backend: %w", err)
	}

	if bin := cfg.Backends.Piper.BinPath; bin != "" {
		p, err := piper.NewBackend(xfs.ExpandTilde(bin), tempDir, cfg.Backends.Piper.Timeout())
		if err != nil {
			return nil, fmt.Errorf("failed to create piper backend: %w", err)
		}
		if err := backends.Register(p); err != nil {
			return nil, fmt.Errorf("failed to register piper backend: %w", err)
		}
	}

	slog.Debug("Backends registered", "providers", backends.Providers())

	models := model.NewManager(backends)

	return &runtime{
		backends: backends,
		servers:  servers,
		models:   models,
		tts:      service.NewTTS(backends, models, audio.NewWAVEncoder(tempDir)),
	}, nil
}

// Close stops backend processes.
func (r *runtime) Close() error {
	err := r.backends.Close()
	r.servers.StopAll()
	return err
}
