// Package chatterbox talks to a Chatterbox TTS inference server.
//
// The server is a small sidecar wrapping the pretrained model. It exposes
// GET /health and POST /synthesize (multipart: text, exaggeration,
// cfg_weight, optional audio_prompt file) and answers with little-endian
// float32 mono PCM and the sample rate in the X-Sample-Rate header.
package chatterbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ekisa-team/paravox/internal/audio"
	"github.com/ekisa-team/paravox/internal/backend"
	"github.com/ekisa-team/paravox/internal/mapsafe"
)

const (
	BackendName = backend.BackendProviderChatterbox
	DefaultPort = 8091

	sampleRateHeader = "X-Sample-Rate"
	healthPath       = "/health"
	synthesizePath   = "/synthesize"
)

// Config configures the Chatterbox backend.
type Config struct {
	// BinPath is the inference server executable. Leave empty together with
	// BaseURL to use a server managed outside paravox.
	BinPath string

	// BaseURL points at an already running server. When set, no process is
	// started.
	BaseURL string

	Host         string
	Port         int
	Device       string
	ReadyTimeout time.Duration
}

// Backend implements backend.Backend for Chatterbox.
type Backend struct {
	cfg           Config
	serverManager *backend.ServerManager
	client        *http.Client
	baseURL       string
}

// NewBackend creates a new Chatterbox backend.
func NewBackend(cfg Config, serverManager *backend.ServerManager) *Backend {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)
	}

	return &Backend{
		cfg:           cfg,
		serverManager: serverManager,
		// Synthesis of a long paragraph can take minutes; no client timeout.
		client:  &http.Client{},
		baseURL: baseURL,
	}
}

// Provider implements backend.Backend.
func (b *Backend) Provider() backend.BackendProvider {
	return BackendName
}

// Warm implements backend.Warmer. It starts the inference server for
// modelPath, or checks that an external server is healthy.
func (b *Backend) Warm(ctx context.Context, modelPath string, parameters map[string]any) error {
	if b.cfg.BaseURL != "" || b.cfg.BinPath == "" {
		return b.ping(ctx)
	}

	args := []string{
		"--model-dir", modelPath,
		"--host", b.cfg.Host,
		"--port", strconv.Itoa(b.cfg.Port),
	}

	if b.cfg.Device != "" {
		args = append(args, "--device", b.cfg.Device)
	}

	if v := mapsafe.Get(parameters, "default_voice", ""); v != "" {
		args = append(args, "--default-voice", v)
	}

	if err := b.serverManager.StartServer(ctx, backend.ServerConfig{
		Name:         string(BackendName),
		BinPath:      b.cfg.BinPath,
		Host:         b.cfg.Host,
		Args:         args,
		Port:         b.cfg.Port,
		HealthPath:   healthPath,
		ReadyTimeout: b.cfg.ReadyTimeout,
	}); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Infer implements backend.Backend.
func (b *Backend) Infer(ctx context.Context, req *backend.Request) (*backend.Response, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, backend.ErrEmptyText
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := b.writeFields(writer, req); err != nil {
		return nil, fmt.Errorf("failed to add parameters: %w", err)
	}

	if len(req.VoiceReference) > 0 {
		name := req.VoiceReferenceName
		if name == "" {
			name = "reference.wav"
		}

		part, err := writer.CreateFormFile("audio_prompt", filepath.Base(name))
		if err != nil {
			return nil, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := part.Write(req.VoiceReference); err != nil {
			return nil, fmt.Errorf("failed to write voice reference: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+synthesizePath, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	elapsed := time.Since(start).Seconds()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status code %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	sampleRate, err := strconv.Atoi(resp.Header.Get(sampleRateHeader))
	if err != nil || sampleRate <= 0 {
		return nil, fmt.Errorf("missing or invalid %s header %q", sampleRateHeader, resp.Header.Get(sampleRateHeader))
	}

	samples, err := audio.DecodeFloat32LE(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode samples: %w", err)
	}

	slog.Debug("Chatterbox synthesis finished", "chars", len(req.Text), "samples", len(samples), "seconds", elapsed)

	return &backend.Response{
		Samples:    samples,
		SampleRate: sampleRate,
		Metadata: &backend.ResponseMetadata{
			Provider:        b.Provider(),
			Model:           req.ModelPath,
			Timestamp:       time.Now(),
			DurationSeconds: elapsed,
			BackendSpecific: map[string]any{
				"voice_reference": len(req.VoiceReference) > 0,
			},
		},
	}, nil
}

// writeFields adds the text and tuning parameters to the form.
func (b *Backend) writeFields(w *multipart.Writer, req *backend.Request) error {
	fields := map[string]string{
		"text":         req.Text,
		"exaggeration": strconv.FormatFloat(req.Exaggeration, 'f', 2, 64),
		"cfg_weight":   strconv.FormatFloat(req.CFGWeight, 'f', 2, 64),
	}

	if v := mapsafe.Get(req.Parameters, "temperature", 0.0); v > 0 {
		fields["temperature"] = strconv.FormatFloat(v, 'f', 2, 64)
	}

	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			return fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}

	return nil
}

// ping checks the server health endpoint once.
func (b *Backend) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+healthPath, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("chatterbox server unreachable at %s: %w", b.baseURL, err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chatterbox server unhealthy: status %d", resp.StatusCode)
	}

	return nil
}

// Close implements backend.Backend.
func (b *Backend) Close() error {
	if b.serverManager == nil || !b.serverManager.Running(string(BackendName), b.cfg.Port) {
		return nil
	}

	return b.serverManager.StopServer(string(BackendName), b.cfg.Port)
}
