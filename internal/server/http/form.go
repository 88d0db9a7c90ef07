package http

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ekisa-team/paravox/internal/batch"
	"github.com/ekisa-team/paravox/internal/config"
)

// voiceReferenceExtensions are the reference audio formats accepted.
var voiceReferenceExtensions = []string{".wav", ".mp3", ".mp4", ".m4a", ".flac"}

// GenerateForm is the multipart form shared by the API and the page.
type GenerateForm struct {
	Text           string        `form:"text"`
	VoiceReference huma.FormFile `form:"voice_reference" contentType:"audio/*,video/mp4,application/octet-stream"`
	Exaggeration   string        `form:"exaggeration"`
	CFGWeight      string        `form:"cfg_weight"`
}

// toRequest converts the form, filling empty controls from defaults.
func (f GenerateForm) toRequest(defaults config.GenerationConfig) (batch.GenerationRequest, error) {
	req := batch.GenerationRequest{Text: f.Text}

	var err error
	if req.Exaggeration, err = parseControl(f.Exaggeration, defaults.Exaggeration); err != nil {
		return req, fmt.Errorf("invalid exaggeration: %w", err)
	}
	if req.CFGWeight, err = parseControl(f.CFGWeight, defaults.CFGWeight); err != nil {
		return req, fmt.Errorf("invalid cfg_weight: %w", err)
	}

	if f.VoiceReference.IsSet && f.VoiceReference.Size > 0 {
		ext := strings.ToLower(filepath.Ext(f.VoiceReference.Filename))
		if !slices.Contains(voiceReferenceExtensions, ext) {
			return req, fmt.Errorf("unsupported voice reference format %q", ext)
		}

		data, err := io.ReadAll(f.VoiceReference)
		if err != nil {
			return req, fmt.Errorf("failed to read voice reference: %w", err)
		}

		req.VoiceReference = data
		req.VoiceReferenceName = filepath.Base(f.VoiceReference.Filename)
	}

	return req, nil
}

func parseControl(raw string, fallback float64) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}

	return strconv.ParseFloat(raw, 64)
}
