// Package audio converts between raw sample buffers and WAV bytes.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ekisa-team/paravox/internal/xfs"
)

const (
	bitDepth        = 16
	numChannels     = 1
	pcmAudioFormat  = 1
	maxInt16        = math.MaxInt16
	float32Bytes    = 4
	tempFilePattern = "paravox-wav-*.wav"
)

// Error definitions for the audio package.
var (
	ErrEmptySamples      = errors.New("no samples to encode")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrInvalidWAV        = errors.New("input is not a valid WAV file")
	ErrMisalignedPCM     = errors.New("raw PCM length is not a multiple of 4 bytes")
)

// Encoder turns mono float samples into WAV file bytes.
type Encoder interface {
	Encode(samples []float32, sampleRate int) ([]byte, error)
}

// WAVEncoder writes 16-bit mono PCM WAV. The underlying encoder needs a
// seekable writer, so each call goes through a temp file that is removed
// before returning.
type WAVEncoder struct {
	tempDir string
}

// NewWAVEncoder creates a WAV encoder using tempDir for scratch files.
// An empty tempDir means os.TempDir().
func NewWAVEncoder(tempDir string) *WAVEncoder {
	return &WAVEncoder{tempDir: tempDir}
}

// Encode implements Encoder.
func (e *WAVEncoder) Encode(samples []float32, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, ErrEmptySamples
	}
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}

	buf := &goaudio.IntBuffer{
		Data:           toInt16Range(samples),
		Format:         &goaudio.Format{SampleRate: sampleRate, NumChannels: numChannels},
		SourceBitDepth: bitDepth,
	}

	var out []byte
	err := xfs.WithTempFile(e.tempDir, tempFilePattern, func(f *os.File) error {
		enc := wav.NewEncoder(f, sampleRate, bitDepth, numChannels, pcmAudioFormat)
		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("write samples: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("finalize wav header: %w", err)
		}

		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind wav file: %w", err)
		}

		data, err := io.ReadAll(f)
		if err != nil {
			return fmt.Errorf("read wav file: %w", err)
		}
		out = data
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// DecodeWAV reads a WAV file and returns its samples downmixed to mono in
// the range [-1, 1] together with the sample rate.
func DecodeWAV(data []byte) ([]float32, int, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, 0, ErrInvalidWAV
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode pcm: %w", err)
	}

	channels := int(dec.NumChans)
	if channels < 1 {
		channels = 1
	}

	scale := float32(int64(1) << (dec.BitDepth - 1))
	frames := len(buf.Data) / channels
	samples := make([]float32, frames)
	for i := range frames {
		var sum float32
		for c := range channels {
			sum += float32(buf.Data[i*channels+c])
		}
		samples[i] = sum / float32(channels) / scale
	}

	return samples, int(dec.SampleRate), nil
}

// DecodeFloat32LE decodes little-endian IEEE-754 float32 PCM.
func DecodeFloat32LE(data []byte) ([]float32, error) {
	if len(data)%float32Bytes != 0 {
		return nil, ErrMisalignedPCM
	}

	samples := make([]float32, len(data)/float32Bytes)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(data[i*float32Bytes:])
		samples[i] = math.Float32frombits(bits)
	}

	return samples, nil
}

// toInt16Range scales [-1, 1] floats to 16-bit integers, clipping outliers.
func toInt16Range(samples []float32) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		switch {
		case s > 1:
			s = 1
		case s < -1:
			s = -1
		}
		out[i] = int(s * maxInt16)
	}

	return out
}
