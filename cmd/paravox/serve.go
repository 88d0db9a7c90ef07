package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ekisa-team/paravox/internal/config"
	grpcserver "github.com/ekisa-team/paravox/internal/server/grpc"
	httpserver "github.com/ekisa-team/paravox/internal/server/http"
	"github.com/ekisa-team/paravox/internal/session"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var httpPort, grpcPort int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), httpPort, grpcPort)
		},
	}

	cmd.Flags().IntVar(&httpPort, "http-port", 0, "HTTP port to listen on (overrides config)")
	cmd.Flags().IntVar(&grpcPort, "grpc-port", 0, "gRPC port to listen on (overrides config)")

	return cmd
}

func runServe(ctx context.Context, httpPort, grpcPort int) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAndValidate(flagConfigPath, flagSchemaPath)
	if err != nil {
		return err
	}
	if httpPort != 0 {
		cfg.Server.HTTPPort = httpPort
	}
	if grpcPort != 0 {
		cfg.Server.GRPCPort = grpcPort
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			slog.Error("Failed to close backends", "error", err)
		}
	}()

	grpcSrv := grpcserver.NewServer(cfg.Server.Host, cfg.Server.GRPCPort)
	rt.models.OnChange(func() {
		grpcSrv.Update(rt.tts.Available())
	})

	// A model that fails to load leaves the server up and reporting unavailable.
	if err := rt.models.LoadModelsFromConfig(ctx, cfg); err != nil {
		slog.Error("Failed to load models from config", "error", err)
	}

	watcher, err := config.NewWatcher(flagConfigPath, flagSchemaPath, func(next *config.Config, err error) {
		if err != nil {
			slog.Error("Failed to reload config", "error", err)
			return
		}

		if err := rt.models.LoadModelsFromConfig(context.Background(), next); err != nil {
			slog.Error("Failed to load models from config", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	sessions, err := session.NewStore(cfg.Sessions.MaxSessions)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	api := httpserver.NewAPI(mux)
	httpserver.NewHealthHandler(api, rt.models, rt.tts)
	httpserver.NewTTSHandler(api, rt.tts, sessions, cfg.Generation)
	httpserver.NewUIHandler(api, rt.tts, sessions, cfg.Generation)

	httpSrv := httpserver.NewServer(cfg.Server.Host, cfg.Server.HTTPPort, mux)

	errCh := make(chan error, 2)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	go func() { errCh <- grpcSrv.ListenAndServe() }()

	slog.Info("Config loaded successfully", "config", flagConfigPath, "schema", flagSchemaPath)

	var serveErr error
	select {
	case <-ctx.Done():
		slog.Info("Shutting down")
	case serveErr = <-errCh:
		slog.Error("Server stopped", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	grpcSrv.Shutdown(shutdownCtx)
	if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		serveErr = errors.Join(serveErr, err)
	}

	return serveErr
}
