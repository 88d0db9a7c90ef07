// Package service wires models, backends and sessions into user operations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ekisa-team/paravox/internal/backend"
	"github.com/ekisa-team/paravox/internal/batch"
	"github.com/ekisa-team/paravox/internal/mapsafe"
	"github.com/ekisa-team/paravox/internal/model"
	"github.com/ekisa-team/paravox/internal/segment"
	"github.com/ekisa-team/paravox/internal/session"
)

// ModelSource yields the primary TTS model.
type ModelSource interface {
	Primary() (*model.Instance, error)
}

// TTS is a service abstraction for text-to-speech.
type TTS struct {
	backends *backend.Registry
	models   ModelSource
	encoder  batch.Encoder

	// inferMu keeps a single model call in flight across all sessions.
	inferMu sync.Mutex
}

// NewTTS creates a new TTS service.
func NewTTS(backends *backend.Registry, models ModelSource, encoder batch.Encoder) *TTS {
	return &TTS{
		backends: backends,
		models:   models,
		encoder:  encoder,
	}
}

// Available returns nil when the primary model is ready for inference.
func (s *TTS) Available() error {
	_, err := s.speaker()
	return err
}

// Generate segments req.Text, synthesizes every paragraph and replaces the
// session's run state with the results. Empty text yields an empty run.
// When the model is unavailable the session is left untouched.
func (s *TTS) Generate(ctx context.Context, sess *session.Session, req batch.GenerationRequest) (session.RunState, error) {
	if err := sess.Begin(); err != nil {
		return session.RunState{}, err
	}
	defer sess.End()

	req = req.Normalized()
	preview := segment.NewPreview(req.Text)
	paragraphs := preview.Paragraphs

	run := session.RunState{
		VoiceReferenceName: req.VoiceReferenceName,
		Exaggeration:       req.Exaggeration,
		CFGWeight:          req.CFGWeight,
		Characters:         preview.Characters,
	}

	if len(paragraphs) == 0 {
		sess.Replace(run)
		return sess.Run(), nil
	}

	speaker, err := s.speaker()
	if err != nil {
		return session.RunState{}, err
	}

	slog.Info("Generating speech",
		"session_id", sess.ID,
		"paragraphs", len(paragraphs),
		"model_id", speaker.instance.ID,
		"voice_reference", req.VoiceReferenceName != "",
	)

	run.Results = batch.NewSynthesizer(speaker, s.encoder).SynthesizeAll(ctx, paragraphs, req)
	sess.Replace(run)

	return sess.Run(), nil
}

// speaker resolves the primary model to a ready backend.
func (s *TTS) speaker() (*modelSpeaker, error) {
	instance, err := s.models.Primary()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", batch.ErrModelUnavailable, err)
	}

	if !instance.Ready() {
		info := instance.Info()
		if info.Error != "" {
			return nil, fmt.Errorf("%w: model %s %s: %s", batch.ErrModelUnavailable, info.ID, info.Status, info.Error)
		}
		return nil, fmt.Errorf("%w: model %s is %s", batch.ErrModelUnavailable, info.ID, info.Status)
	}

	b, ok := s.backends.Get(backend.BackendProvider(instance.Config.Backend))
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", batch.ErrModelUnavailable, backend.ErrNotFound, instance.Config.Backend)
	}

	return &modelSpeaker{svc: s, backend: b, instance: instance}, nil
}

// modelSpeaker adapts a loaded model and its backend to batch.Speaker.
type modelSpeaker struct {
	svc      *TTS
	backend  backend.Backend
	instance *model.Instance
}

func (m *modelSpeaker) Speak(ctx context.Context, text string, req batch.GenerationRequest) ([]float32, int, error) {
	m.svc.inferMu.Lock()
	defer m.svc.inferMu.Unlock()

	start := time.Now()
	resp, err := m.backend.Infer(ctx, &backend.Request{
		ModelPath:          m.instance.Path,
		Text:               text,
		VoiceReference:     req.VoiceReference,
		VoiceReferenceName: req.VoiceReferenceName,
		Exaggeration:       req.Exaggeration,
		CFGWeight:          req.CFGWeight,
		Parameters:         mapsafe.Merge(m.instance.Config.Parameters, req.Parameters),
	})
	if err != nil {
		return nil, 0, err
	}

	slog.Debug("Inference finished",
		"model_id", m.instance.ID,
		"characters", len(text),
		"duration", time.Since(start),
	)

	return resp.Samples, resp.SampleRate, nil
}
