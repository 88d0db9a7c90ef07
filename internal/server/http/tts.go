package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ekisa-team/paravox/internal/batch"
	"github.com/ekisa-team/paravox/internal/config"
	"github.com/ekisa-team/paravox/internal/segment"
	"github.com/ekisa-team/paravox/internal/service"
	"github.com/ekisa-team/paravox/internal/session"
)

// previewLength is how much paragraph text the listings show.
const previewLength = 100

type (
	// SegmentRequestDTO is the request body for the Segment operation.
	SegmentRequestDTO struct {
		Text string `json:"text"`
	}

	// SegmentResponseDTO is the response body for the Segment operation.
	SegmentResponseDTO struct {
		Paragraphs []string `json:"paragraphs"`
		Characters int      `json:"characters"`
		Count      int      `json:"count"`
	}

	// SessionDTO describes a session and its latest run.
	SessionDTO struct {
		CompletedAt    *time.Time     `json:"completed_at,omitempty"`
		ID             string         `json:"id"`
		VoiceReference string         `json:"voice_reference,omitempty"`
		Paragraphs     []ParagraphDTO `json:"paragraphs"`
		Exaggeration   float64        `json:"exaggeration"`
		CFGWeight      float64        `json:"cfg_weight"`
		Characters     int            `json:"characters"`
		Busy           bool           `json:"busy"`
	}

	// ParagraphDTO describes one paragraph result without its audio.
	ParagraphDTO struct {
		Text       string `json:"text"`
		Preview    string `json:"preview"`
		Error      string `json:"error,omitempty"`
		AudioURL   string `json:"audio_url,omitempty"`
		Index      int    `json:"index"`
		AudioBytes int    `json:"audio_bytes"`
	}
)

type (
	// SegmentInput is the huma input for the Segment operation.
	SegmentInput struct {
		Body SegmentRequestDTO
	}

	// SegmentOutput is the huma output for the Segment operation.
	SegmentOutput struct {
		Body SegmentResponseDTO
	}

	// SessionInput addresses a session.
	SessionInput struct {
		ID string `path:"id"`
	}

	// SessionOutput returns a session.
	SessionOutput struct {
		Body SessionDTO
	}

	// GenerateInput is the huma input for the Generate operation.
	GenerateInput struct {
		ID      string `path:"id"`
		RawBody huma.MultipartFormFiles[GenerateForm]
	}

	// AudioInput addresses one paragraph's audio.
	AudioInput struct {
		ID    string `path:"id"`
		Index int    `path:"index" minimum:"1"`
	}

	// AudioOutput is a WAV download.
	AudioOutput struct {
		ContentType        string `header:"Content-Type"`
		ContentDisposition string `header:"Content-Disposition"`
		Body               []byte
	}
)

// TTSHandler handles HTTP requests for TTS.
type TTSHandler struct {
	service  *service.TTS
	sessions *session.Store
	defaults config.GenerationConfig
}

// NewTTSHandler creates a new TTSHandler instance.
func NewTTSHandler(api huma.API, svc *service.TTS, sessions *session.Store, defaults config.GenerationConfig) *TTSHandler {
	h := &TTSHandler{service: svc, sessions: sessions, defaults: defaults}

	huma.Register(api, huma.Operation{
		OperationID:   "segment",
		Method:        http.MethodPost,
		Path:          "/segment",
		Summary:       "Preview how text splits into paragraphs",
		Tags:          []string{"tts"},
		DefaultStatus: http.StatusOK,
	}, h.handleSegment)

	huma.Register(api, huma.Operation{
		OperationID:   "create-session",
		Method:        http.MethodPost,
		Path:          "/sessions",
		Summary:       "Start a session",
		Tags:          []string{"sessions"},
		DefaultStatus: http.StatusCreated,
	}, h.handleCreateSession)

	huma.Register(api, huma.Operation{
		OperationID:   "get-session",
		Method:        http.MethodGet,
		Path:          "/sessions/{id}",
		Summary:       "Get a session's latest results",
		Tags:          []string{"sessions"},
		DefaultStatus: http.StatusOK,
	}, h.handleGetSession)

	huma.Register(api, huma.Operation{
		OperationID:   "generate",
		Method:        http.MethodPost,
		Path:          "/sessions/{id}/generate",
		Summary:       "Synthesize every paragraph of a text",
		Tags:          []string{"tts"},
		DefaultStatus: http.StatusOK,
		MaxBodyBytes:  defaults.MaxUploadBytes,
	}, h.handleGenerate)

	huma.Register(api, huma.Operation{
		OperationID:   "reset-session",
		Method:        http.MethodPost,
		Path:          "/sessions/{id}/reset",
		Summary:       "Clear a session's results",
		Tags:          []string{"sessions"},
		DefaultStatus: http.StatusOK,
	}, h.handleReset)

	huma.Register(api, huma.Operation{
		OperationID:   "paragraph-audio",
		Method:        http.MethodGet,
		Path:          "/sessions/{id}/paragraphs/{index}/audio",
		Summary:       "Download one paragraph as WAV",
		Tags:          []string{"tts"},
		DefaultStatus: http.StatusOK,
	}, h.handleAudio)

	return h
}

// handleSegment handles the segment operation.
func (h *TTSHandler) handleSegment(_ context.Context, input *SegmentInput) (*SegmentOutput, error) {
	preview := segment.NewPreview(input.Body.Text)

	return &SegmentOutput{
		Body: SegmentResponseDTO{
			Paragraphs: preview.Paragraphs,
			Characters: preview.Characters,
			Count:      len(preview.Paragraphs),
		},
	}, nil
}

func (h *TTSHandler) handleCreateSession(_ context.Context, _ *struct{}) (*SessionOutput, error) {
	sess := h.sessions.Create()
	return &SessionOutput{Body: newSessionDTO(sess)}, nil
}

func (h *TTSHandler) handleGetSession(_ context.Context, input *SessionInput) (*SessionOutput, error) {
	sess, err := h.sessions.Get(input.ID)
	if err != nil {
		return nil, toHTTPError("failed to get session", err)
	}

	return &SessionOutput{Body: newSessionDTO(sess)}, nil
}

// handleGenerate handles the generate operation.
func (h *TTSHandler) handleGenerate(ctx context.Context, input *GenerateInput) (*SessionOutput, error) {
	sess, err := h.sessions.Get(input.ID)
	if err != nil {
		return nil, toHTTPError("failed to get session", err)
	}

	req, err := input.RawBody.Data().toRequest(h.defaults)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid form", err)
	}

	if _, err := h.service.Generate(ctx, sess, req); err != nil {
		return nil, toHTTPError("failed to generate speech", err)
	}

	return &SessionOutput{Body: newSessionDTO(sess)}, nil
}

func (h *TTSHandler) handleReset(_ context.Context, input *SessionInput) (*SessionOutput, error) {
	sess, err := h.sessions.Get(input.ID)
	if err != nil {
		return nil, toHTTPError("failed to get session", err)
	}

	if sess.Busy() {
		return nil, toHTTPError("failed to reset session", session.ErrBusy)
	}
	sess.Reset()

	return &SessionOutput{Body: newSessionDTO(sess)}, nil
}

func (h *TTSHandler) handleAudio(_ context.Context, input *AudioInput) (*AudioOutput, error) {
	sess, err := h.sessions.Get(input.ID)
	if err != nil {
		return nil, toHTTPError("failed to get session", err)
	}

	result, ok := sess.Result(input.Index)
	if !ok {
		return nil, huma.Error404NotFound(fmt.Sprintf("paragraph %d not found", input.Index))
	}
	if !result.OK() {
		return nil, huma.Error409Conflict(fmt.Sprintf("paragraph %d has no audio: %s", input.Index, result.Error))
	}

	return &AudioOutput{
		ContentType:        "audio/wav",
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", audioFileName(result.Index, sess.ID)),
		Body:               result.Audio,
	}, nil
}

func audioFileName(index int, sessionID string) string {
	return fmt.Sprintf("paragraph_%d_%s.wav", index, sessionID)
}

func audioURL(sessionID string, index int) string {
	return fmt.Sprintf("/sessions/%s/paragraphs/%d/audio", sessionID, index)
}

func newSessionDTO(sess *session.Session) SessionDTO {
	run := sess.Run()

	dto := SessionDTO{
		ID:             sess.ID,
		CompletedAt:    run.CompletedAt,
		VoiceReference: run.VoiceReferenceName,
		Exaggeration:   run.Exaggeration,
		CFGWeight:      run.CFGWeight,
		Characters:     run.Characters,
		Busy:           sess.Busy(),
		Paragraphs:     make([]ParagraphDTO, 0, len(run.Results)),
	}

	for _, r := range run.Results {
		dto.Paragraphs = append(dto.Paragraphs, newParagraphDTO(sess.ID, r))
	}

	return dto
}

func newParagraphDTO(sessionID string, r batch.ParagraphResult) ParagraphDTO {
	p := ParagraphDTO{
		Index:      r.Index,
		Text:       r.SourceText,
		Preview:    segment.Truncate(r.SourceText, previewLength),
		Error:      r.Error,
		AudioBytes: len(r.Audio),
	}
	if r.OK() {
		p.AudioURL = audioURL(sessionID, r.Index)
	}

	return p
}
