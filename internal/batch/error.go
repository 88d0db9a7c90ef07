package batch

import (
	"errors"
	"fmt"
)

// ErrModelUnavailable is returned when the speech model could not be
// initialised. A batch never starts in that state.
var ErrModelUnavailable = errors.New("speech model is unavailable")

// SynthesisError records a failed model call for one paragraph.
type SynthesisError struct {
	Index int
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed for paragraph %d: %v", e.Index, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// EncodingError records a failed WAV conversion for one paragraph.
type EncodingError struct {
	Index int
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding failed for paragraph %d: %v", e.Index, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }
