// Package http exposes paravox over a huma REST API and a small HTML page.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/ekisa-team/paravox/internal/batch"
	"github.com/ekisa-team/paravox/internal/session"
)

// Version is reported in the OpenAPI document.
var Version = "dev"

// NewAPI creates a huma API on mux.
func NewAPI(mux *http.ServeMux) huma.API {
	cfg := huma.DefaultConfig("paravox", Version)
	cfg.Info.Description = "Paragraph-by-paragraph text-to-speech."

	return humago.New(mux, cfg)
}

// Server wraps the HTTP listener.
type Server struct {
	srv *http.Server
}

// NewServer creates a server for handler on host:port.
func NewServer(host string, port int, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.srv.Addr
}

// ListenAndServe blocks until the server stops. A graceful shutdown is not
// reported as an error.
func (s *Server) ListenAndServe() error {
	slog.Info("HTTP server listening", "addr", s.srv.Addr)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}

	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// toHTTPError maps domain errors to API errors.
func toHTTPError(msg string, err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return huma.Error404NotFound("session not found", err)
	case errors.Is(err, session.ErrBusy):
		return huma.Error409Conflict("generation already running", err)
	case errors.Is(err, batch.ErrModelUnavailable):
		return huma.Error503ServiceUnavailable("speech model is unavailable", err)
	}

	return huma.Error500InternalServerError(msg, err)
}
