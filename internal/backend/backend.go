package backend

import (
	"context"
	"time"
)

// BackendProvider is a string identifier for a backend provider.
type BackendProvider string

const (
	BackendProviderChatterbox BackendProvider = "chatterbox"
	BackendProviderPiper      BackendProvider = "piper"
)

// Backend defines the core interface for all speech synthesis backends.
type Backend interface {
	// Provider returns the backend identifier.
	Provider() BackendProvider

	// Infer synthesizes speech for a single piece of text.
	Infer(ctx context.Context, req *Request) (*Response, error)

	// Close cleans up resources.
	Close() error
}

// Request encapsulates all parameters for one synthesis call.
type Request struct {
	// ModelPath is the path to the model directory or file.
	ModelPath string

	// Text is the text to speak.
	Text string

	// VoiceReference is optional audio used to condition the voice.
	// It is passed through unchanged.
	VoiceReference []byte

	// VoiceReferenceName is the original file name of VoiceReference, used
	// to keep its extension when the audio has to touch disk.
	VoiceReferenceName string

	// Exaggeration and CFGWeight are forwarded to models that understand them.
	Exaggeration float64
	CFGWeight    float64

	// Parameters contains backend-specific inference parameters.
	Parameters map[string]any
}

// Response contains raw synthesized audio.
type Response struct {
	// Samples are mono samples in the range [-1, 1].
	Samples []float32

	// SampleRate is the sample rate of Samples in Hz.
	SampleRate int

	// Metadata contains backend-specific information.
	Metadata *ResponseMetadata
}

// ResponseMetadata contains metadata about the response.
type ResponseMetadata struct {
	Provider        BackendProvider `json:"provider"`
	Model           string          `json:"model"`
	Timestamp       time.Time       `json:"timestamp"`
	DurationSeconds float64         `json:"inference_time_seconds"`
	BackendSpecific map[string]any  `json:"backend_specific,omitempty"`
}
