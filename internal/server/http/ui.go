package http

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ekisa-team/paravox/internal/batch"
	"github.com/ekisa-team/paravox/internal/config"
	"github.com/ekisa-team/paravox/internal/service"
	"github.com/ekisa-team/paravox/internal/session"
)

// sessionCookie carries the page's session ID.
const sessionCookie = "paravox_session"

//go:embed templates/index.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

type (
	// PageInput is the huma input for the page.
	PageInput struct {
		SessionID string `cookie:"paravox_session"`
		Error     string `query:"error"`
	}

	// PageOutput is a rendered HTML page.
	PageOutput struct {
		SetCookie   http.Cookie `header:"Set-Cookie"`
		ContentType string      `header:"Content-Type"`
		Body        []byte
	}

	// UIGenerateInput is the page's generate form.
	UIGenerateInput struct {
		SessionID string `cookie:"paravox_session"`
		RawBody   huma.MultipartFormFiles[GenerateForm]
	}

	// UIResetInput is the page's reset form.
	UIResetInput struct {
		SessionID string `cookie:"paravox_session"`
	}

	// RedirectOutput sends the browser back to the page.
	RedirectOutput struct {
		SetCookie http.Cookie `header:"Set-Cookie"`
		Location  string      `header:"Location"`
	}
)

type pageData struct {
	Run          SessionDTO
	Error        string
	Min          float64
	Max          float64
	Step         float64
	Exaggeration float64
	CFGWeight    float64
}

// UIHandler serves the HTML page. The session lives in a cookie.
type UIHandler struct {
	service  *service.TTS
	sessions *session.Store
	defaults config.GenerationConfig
}

// NewUIHandler creates a new UIHandler instance.
func NewUIHandler(api huma.API, svc *service.TTS, sessions *session.Store, defaults config.GenerationConfig) *UIHandler {
	h := &UIHandler{service: svc, sessions: sessions, defaults: defaults}

	huma.Register(api, huma.Operation{
		OperationID:   "page",
		Method:        http.MethodGet,
		Path:          "/",
		Summary:       "Render the page",
		Tags:          []string{"ui"},
		Hidden:        true,
		DefaultStatus: http.StatusOK,
	}, h.handlePage)

	huma.Register(api, huma.Operation{
		OperationID:   "page-generate",
		Method:        http.MethodPost,
		Path:          "/ui/generate",
		Summary:       "Generate from the page form",
		Tags:          []string{"ui"},
		Hidden:        true,
		DefaultStatus: http.StatusSeeOther,
		MaxBodyBytes:  defaults.MaxUploadBytes,
	}, h.handleGenerate)

	huma.Register(api, huma.Operation{
		OperationID:   "page-reset",
		Method:        http.MethodPost,
		Path:          "/ui/reset",
		Summary:       "Reset from the page",
		Tags:          []string{"ui"},
		Hidden:        true,
		DefaultStatus: http.StatusSeeOther,
	}, h.handleReset)

	return h
}

func (h *UIHandler) handlePage(_ context.Context, input *PageInput) (*PageOutput, error) {
	sess := h.sessions.GetOrCreate(input.SessionID)
	run := newSessionDTO(sess)

	data := pageData{
		Run:          run,
		Error:        input.Error,
		Min:          batch.MinParam,
		Max:          batch.MaxParam,
		Step:         batch.ParamStep,
		Exaggeration: batch.ClampParam(h.defaults.Exaggeration),
		CFGWeight:    batch.ClampParam(h.defaults.CFGWeight),
	}
	if len(run.Paragraphs) > 0 {
		data.Exaggeration = run.Exaggeration
		data.CFGWeight = run.CFGWeight
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, huma.Error500InternalServerError("failed to render page", err)
	}

	return &PageOutput{
		SetCookie:   newSessionCookie(sess.ID),
		ContentType: "text/html; charset=utf-8",
		Body:        buf.Bytes(),
	}, nil
}

func (h *UIHandler) handleGenerate(ctx context.Context, input *UIGenerateInput) (*RedirectOutput, error) {
	sess := h.sessions.GetOrCreate(input.SessionID)

	req, err := input.RawBody.Data().toRequest(h.defaults)
	if err != nil {
		return redirect(sess.ID, err.Error()), nil
	}

	if _, err := h.service.Generate(ctx, sess, req); err != nil {
		slog.Warn("Generation refused", "session_id", sess.ID, "error", err)
		return redirect(sess.ID, pageMessage(err)), nil
	}

	return redirect(sess.ID, ""), nil
}

func (h *UIHandler) handleReset(_ context.Context, input *UIResetInput) (*RedirectOutput, error) {
	sess := h.sessions.GetOrCreate(input.SessionID)

	if sess.Busy() {
		return redirect(sess.ID, pageMessage(session.ErrBusy)), nil
	}
	sess.Reset()

	return redirect(sess.ID, ""), nil
}

func pageMessage(err error) string {
	switch {
	case errors.Is(err, batch.ErrModelUnavailable):
		return "The speech model failed to load. Check the server logs and try again later."
	case errors.Is(err, session.ErrBusy):
		return "A generation is already running for this page."
	}
	return err.Error()
}

func redirect(sessionID, message string) *RedirectOutput {
	location := "/"
	if message != "" {
		location += "?" + url.Values{"error": {message}}.Encode()
	}

	return &RedirectOutput{
		SetCookie: newSessionCookie(sessionID),
		Location:  location,
	}
}

func newSessionCookie(id string) http.Cookie {
	return http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
