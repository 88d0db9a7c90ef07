package batch

import "math"

const (
	// MinParam and MaxParam bound the exaggeration and CFG weight controls.
	MinParam = 0.1
	MaxParam = 1.0

	// ParamStep is the granularity of the controls.
	ParamStep = 0.1

	// DefaultParam is used when a control value is not a number.
	DefaultParam = 0.5
)

// GenerationRequest is one user submission.
type GenerationRequest struct {
	// Text is the raw article text.
	Text string

	// VoiceReference is optional audio that conditions the voice. It is
	// passed unchanged to the model for every paragraph.
	VoiceReference []byte

	// VoiceReferenceName is the uploaded file name, if any.
	VoiceReferenceName string

	Exaggeration float64
	CFGWeight    float64

	// Parameters are extra backend parameters layered over the model's.
	Parameters map[string]any
}

// Normalized returns a copy with both controls clamped to [MinParam, MaxParam]
// and snapped to ParamStep.
func (r GenerationRequest) Normalized() GenerationRequest {
	r.Exaggeration = ClampParam(r.Exaggeration)
	r.CFGWeight = ClampParam(r.CFGWeight)
	return r
}

// ClampParam clamps v to [MinParam, MaxParam] and rounds it to one decimal.
func ClampParam(v float64) float64 {
	if math.IsNaN(v) {
		return DefaultParam
	}
	v = math.Max(MinParam, math.Min(MaxParam, v))
	return math.Round(v/ParamStep) * ParamStep
}

// ParagraphResult is the outcome for one paragraph. Exactly one of Audio
// and Error is set.
type ParagraphResult struct {
	// Index is the 1-based position of the paragraph in the input.
	Index      int    `json:"index"`
	SourceText string `json:"source_text"`
	Audio      []byte `json:"-"`
	Error      string `json:"error,omitempty"`
}

// OK reports whether the paragraph produced audio.
func (r ParagraphResult) OK() bool {
	return r.Error == "" && len(r.Audio) > 0
}
