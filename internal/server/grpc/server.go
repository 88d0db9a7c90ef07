// Package grpc serves the standard gRPC health service so orchestrators can
// tell whether speech generation is available.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name for speech generation.
const ServiceName = "paravox.tts"

// Server is a gRPC server exposing health and reflection.
type Server struct {
	srv    *grpc.Server
	health *health.Server
	addr   string
}

// NewServer creates a server for host:port. Speech starts as NOT_SERVING.
func NewServer(host string, port int) *Server {
	srv := grpc.NewServer()
	hs := health.NewServer()

	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Server{
		srv:    srv,
		health: hs,
		addr:   net.JoinHostPort(host, strconv.Itoa(port)),
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Update sets the speech service status from an availability check.
func (s *Server) Update(availability error) {
	status := healthpb.HealthCheckResponse_SERVING
	if availability != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	s.health.SetServingStatus(ServiceName, status)
	slog.Debug("gRPC health updated", "service", ServiceName, "status", status.String())
}

// ListenAndServe listens on the configured address and serves until stopped.
func (s *Server) ListenAndServe() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	return s.Serve(lis)
}

// Serve serves on lis until stopped.
func (s *Server) Serve(lis net.Listener) error {
	slog.Info("gRPC server listening", "addr", lis.Addr().String())

	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc server: %w", err)
	}

	return nil
}

// Shutdown stops the server gracefully, or forcibly once ctx is done.
func (s *Server) Shutdown(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.srv.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.srv.Stop()
		<-done
	}
}
