package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/paravox/internal/backend"
	"github.com/ekisa-team/paravox/internal/config"
	"github.com/ekisa-team/paravox/internal/model"
	"github.com/ekisa-team/paravox/internal/service"
	"github.com/ekisa-team/paravox/internal/session"
)

// fakeBackend fails on any paragraph containing "FAIL" and records voice references.
type fakeBackend struct {
	references [][]byte
}

func (f *fakeBackend) Provider() backend.BackendProvider { return backend.BackendProviderChatterbox }
func (f *fakeBackend) Close() error                      { return nil }

func (f *fakeBackend) Infer(_ context.Context, req *backend.Request) (*backend.Response, error) {
	f.references = append(f.references, req.VoiceReference)
	if strings.Contains(req.Text, "FAIL") {
		return nil, errors.New("model rejected text")
	}
	return &backend.Response{Samples: make([]float32, len(req.Text)), SampleRate: 22050}, nil
}

type fakeModels struct {
	instance *model.Instance
	registry *model.Registry
}

func newFakeModels(ready bool) *fakeModels {
	inst := model.NewInstance(&config.ModelConfig{Backend: "chatterbox"}, "chatterbox", "/models/chatterbox")
	if ready {
		inst.SetStatus(model.ModelStatusLoaded)
	} else {
		inst.SetError(errors.New("weights missing"))
	}

	reg := model.NewRegistry()
	reg.Set(inst)
	return &fakeModels{instance: inst, registry: reg}
}

func (f *fakeModels) Primary() (*model.Instance, error) { return f.instance, nil }
func (f *fakeModels) Registry() *model.Registry        { return f.registry }

type wavStub struct{}

func (wavStub) Encode(samples []float32, _ int) ([]byte, error) {
	return append([]byte("RIFF"), make([]byte, len(samples))...), nil
}

type testEnv struct {
	api      humatest.TestAPI
	sessions *session.Store
	backend  *fakeBackend
}

func newTestEnv(t *testing.T, ready bool) *testEnv {
	t.Helper()

	_, api := humatest.New(t)

	b := &fakeBackend{}
	backends := backend.NewRegistry()
	require.NoError(t, backends.Register(b))

	models := newFakeModels(ready)
	svc := service.NewTTS(backends, models, wavStub{})

	sessions, err := session.NewStore(8)
	require.NoError(t, err)

	defaults := config.GenerationConfig{Exaggeration: 0.5, CFGWeight: 0.5, MaxUploadBytes: 1 << 20}
	NewHealthHandler(api, models, svc)
	NewTTSHandler(api, svc, sessions, defaults)
	NewUIHandler(api, svc, sessions, defaults)

	return &testEnv{api: api, sessions: sessions, backend: b}
}

func multipartBody(t *testing.T, fields map[string]string, fileName string, file []byte) (string, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := w.CreateFormFile("voice_reference", fileName)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return "Content-Type: " + w.FormDataContentType(), &buf
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out), resp.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, true)
	resp := env.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	body := decode[HealthResponseDTO](t, resp)
	assert.Equal(t, "ok", body.Status)
	require.Len(t, body.Models, 1)
	assert.Equal(t, model.ModelStatusLoaded, body.Models[0].Status)

	down := newTestEnv(t, false)
	body = decode[HealthResponseDTO](t, down.api.Get("/health"))
	assert.Equal(t, "unavailable", body.Status)
	assert.Contains(t, body.Error, "weights missing")
}

func TestSegment(t *testing.T) {
	env := newTestEnv(t, true)

	resp := env.api.Post("/segment", map[string]any{"text": "A\n\nB\n\n\n"})
	require.Equal(t, http.StatusOK, resp.Code)

	body := decode[SegmentResponseDTO](t, resp)
	assert.Equal(t, []string{"A", "B"}, body.Paragraphs)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, 7, body.Characters)
}

func TestGenerateFlow(t *testing.T) {
	env := newTestEnv(t, true)

	created := env.api.Post("/sessions")
	require.Equal(t, http.StatusCreated, created.Code)
	sess := decode[SessionDTO](t, created)
	assert.Empty(t, sess.Paragraphs)

	ct, body := multipartBody(t, map[string]string{
		"text":         "Hello there.\n\nThis one will FAIL.\n\nGoodbye.",
		"exaggeration": "0.84",
	}, "voice.wav", []byte("RIFFvoice"))

	resp := env.api.Post("/sessions/"+sess.ID+"/generate", ct, body)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	run := decode[SessionDTO](t, resp)
	require.Len(t, run.Paragraphs, 3)
	assert.InDelta(t, 0.8, run.Exaggeration, 1e-9)
	assert.InDelta(t, 0.5, run.CFGWeight, 1e-9)
	assert.Equal(t, "voice.wav", run.VoiceReference)

	assert.NotEmpty(t, run.Paragraphs[0].AudioURL)
	assert.Empty(t, run.Paragraphs[1].AudioURL)
	assert.Contains(t, run.Paragraphs[1].Error, "model rejected text")
	assert.NotEmpty(t, run.Paragraphs[2].AudioURL)

	for _, ref := range env.backend.references {
		assert.Equal(t, []byte("RIFFvoice"), ref)
	}

	audio := env.api.Get(run.Paragraphs[0].AudioURL)
	require.Equal(t, http.StatusOK, audio.Code)
	assert.Equal(t, "audio/wav", audio.Header().Get("Content-Type"))
	assert.Contains(t, audio.Header().Get("Content-Disposition"), fmt.Sprintf("paragraph_1_%s.wav", sess.ID))
	assert.True(t, bytes.HasPrefix(audio.Body.Bytes(), []byte("RIFF")))

	failed := env.api.Get(fmt.Sprintf("/sessions/%s/paragraphs/2/audio", sess.ID))
	assert.Equal(t, http.StatusConflict, failed.Code)

	missing := env.api.Get(fmt.Sprintf("/sessions/%s/paragraphs/9/audio", sess.ID))
	assert.Equal(t, http.StatusNotFound, missing.Code)

	got := decode[SessionDTO](t, env.api.Get("/sessions/"+sess.ID))
	assert.Len(t, got.Paragraphs, 3)

	reset := env.api.Post("/sessions/" + sess.ID + "/reset")
	require.Equal(t, http.StatusOK, reset.Code)
	assert.Empty(t, decode[SessionDTO](t, reset).Paragraphs)
}

func TestGenerate_Errors(t *testing.T) {
	t.Run("unknown session", func(t *testing.T) {
		env := newTestEnv(t, true)
		ct, body := multipartBody(t, map[string]string{"text": "hi"}, "", nil)
		resp := env.api.Post("/sessions/00000000-0000-0000-0000-000000000000/generate", ct, body)
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("model unavailable", func(t *testing.T) {
		env := newTestEnv(t, false)
		sess := env.sessions.Create()
		ct, body := multipartBody(t, map[string]string{"text": "hi"}, "", nil)
		resp := env.api.Post("/sessions/"+sess.ID+"/generate", ct, body)
		assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	})

	t.Run("bad slider value", func(t *testing.T) {
		env := newTestEnv(t, true)
		sess := env.sessions.Create()
		ct, body := multipartBody(t, map[string]string{"text": "hi", "cfg_weight": "lots"}, "", nil)
		resp := env.api.Post("/sessions/"+sess.ID+"/generate", ct, body)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("unsupported reference", func(t *testing.T) {
		env := newTestEnv(t, true)
		sess := env.sessions.Create()
		ct, body := multipartBody(t, map[string]string{"text": "hi"}, "voice.ogg", []byte("OggS"))
		resp := env.api.Post("/sessions/"+sess.ID+"/generate", ct, body)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("empty text", func(t *testing.T) {
		env := newTestEnv(t, false)
		sess := env.sessions.Create()
		ct, body := multipartBody(t, map[string]string{"text": "   "}, "", nil)
		resp := env.api.Post("/sessions/"+sess.ID+"/generate", ct, body)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Empty(t, decode[SessionDTO](t, resp).Paragraphs)
	})
}

func TestPage(t *testing.T) {
	env := newTestEnv(t, true)

	resp := env.api.Get("/")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, resp.Body.String(), `action="/ui/generate"`)

	cookie := resp.Result().Cookies()
	require.NotEmpty(t, cookie)
	assert.Equal(t, sessionCookie, cookie[0].Name)
	sessionID := cookie[0].Value

	ct, body := multipartBody(t, map[string]string{"text": strings.Repeat("word ", 40) + "\n\nsecond"}, "", nil)
	gen := env.api.Post("/ui/generate", ct, "Cookie: "+sessionCookie+"="+sessionID, body)
	require.Equal(t, http.StatusSeeOther, gen.Code)
	assert.Equal(t, "/", gen.Header().Get("Location"))

	page := env.api.Get("/", "Cookie: "+sessionCookie+"="+sessionID)
	require.Equal(t, http.StatusOK, page.Code)
	html := page.Body.String()
	assert.Contains(t, html, "<audio")
	assert.Contains(t, html, fmt.Sprintf("/sessions/%s/paragraphs/2/audio", sessionID))
	assert.Contains(t, html, strings.Repeat("word ", 20)+"...")

	reset := env.api.Post("/ui/reset", "Cookie: "+sessionCookie+"="+sessionID)
	require.Equal(t, http.StatusSeeOther, reset.Code)

	sess, err := env.sessions.Get(sessionID)
	require.NoError(t, err)
	assert.Empty(t, sess.Run().Results)
}

func TestPage_ModelUnavailableMessage(t *testing.T) {
	env := newTestEnv(t, false)

	ct, body := multipartBody(t, map[string]string{"text": "hello"}, "", nil)
	gen := env.api.Post("/ui/generate", ct, body)
	require.Equal(t, http.StatusSeeOther, gen.Code)

	location, err := url.Parse(gen.Header().Get("Location"))
	require.NoError(t, err)
	assert.Contains(t, location.Query().Get("error"), "speech model failed to load")

	page := env.api.Get(location.String())
	assert.Contains(t, page.Body.String(), "speech model failed to load")
}
