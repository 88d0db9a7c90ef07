// Package batch turns a list of paragraphs into per-paragraph WAV audio.
package batch

import (
	"context"
	"log/slog"
	"time"
)

// Speaker produces raw samples for a single piece of text.
type Speaker interface {
	Speak(ctx context.Context, text string, req GenerationRequest) (samples []float32, sampleRate int, err error)
}

// Encoder converts raw samples to WAV bytes.
type Encoder interface {
	Encode(samples []float32, sampleRate int) ([]byte, error)
}

// Synthesizer runs paragraphs through a Speaker and an Encoder one at a time.
type Synthesizer struct {
	speaker Speaker
	encoder Encoder
}

// NewSynthesizer creates a new Synthesizer.
func NewSynthesizer(speaker Speaker, encoder Encoder) *Synthesizer {
	return &Synthesizer{
		speaker: speaker,
		encoder: encoder,
	}
}

// SynthesizeAll processes paragraphs in order and returns one result per
// paragraph. A failing paragraph is recorded and the batch moves on.
// Cancellation of ctx does not stop the batch.
func (s *Synthesizer) SynthesizeAll(ctx context.Context, paragraphs []string, req GenerationRequest) []ParagraphResult {
	ctx = context.WithoutCancel(ctx)
	results := make([]ParagraphResult, 0, len(paragraphs))

	start := time.Now()
	failed := 0
	for i, text := range paragraphs {
		result := s.synthesizeOne(ctx, i+1, text, req)
		if result.Error != "" {
			failed++
		}
		results = append(results, result)
	}

	slog.Info("Batch complete",
		"paragraphs", len(paragraphs),
		"failed", failed,
		"duration", time.Since(start),
	)

	return results
}

func (s *Synthesizer) synthesizeOne(ctx context.Context, index int, text string, req GenerationRequest) ParagraphResult {
	result := ParagraphResult{Index: index, SourceText: text}

	samples, sampleRate, err := s.speaker.Speak(ctx, text, req)
	if err != nil {
		failure := &SynthesisError{Index: index, Err: err}
		slog.Error("Paragraph synthesis failed", "paragraph", index, "error", err)
		result.Error = failure.Error()
		return result
	}

	wav, err := s.encoder.Encode(samples, sampleRate)
	if err != nil {
		failure := &EncodingError{Index: index, Err: err}
		slog.Error("Paragraph encoding failed", "paragraph", index, "error", err)
		result.Error = failure.Error()
		return result
	}

	slog.Debug("Paragraph synthesized", "paragraph", index, "samples", len(samples), "sample_rate", sampleRate)
	result.Audio = wav
	return result
}
