package backend

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"sync"
	"time"
)

const (
	defaultHealthPath   = "/health"
	defaultReadyTimeout = 10 * time.Second
	healthPollInterval  = 500 * time.Millisecond
)

// ServerManager manages inference server processes.
type ServerManager struct {
	servers map[string]*ServerProcess
	client  *http.Client
	mu      sync.RWMutex
}

// ServerProcess represents a server running process.
type ServerProcess struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	args   []string
}

// ServerConfig defines how to start and check a backend server.
type ServerConfig struct {
	Env          map[string]string
	Name         string
	BinPath      string
	Host         string
	HealthPath   string
	Args         []string
	Port         int
	ReadyTimeout time.Duration
}

// NewServerManager initializes a ServerManager.
func NewServerManager() *ServerManager {
	return &ServerManager{
		servers: map[string]*ServerProcess{},
		client:  &http.Client{Timeout: 1 * time.Second},
	}
}

func serverKey(name string, port int) string {
	return fmt.Sprintf("%s-%d", name, port)
}

// StartServer starts a backend server and waits for its health endpoint.
// If a server with the same name and port is already running with the same
// arguments it is reused; different arguments restart it.
func (sm *ServerManager) StartServer(ctx context.Context, cfg ServerConfig) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	key := serverKey(cfg.Name, cfg.Port)
	if srv, exists := sm.servers[key]; exists {
		if sameArgs(srv.args, cfg.Args) {
			return nil
		}
		slog.Info("Restarting server with new arguments", "name", cfg.Name, "port", cfg.Port)
		sm.stop(key, srv)
	}

	info, err := os.Stat(cfg.BinPath)
	if err != nil {
		return fmt.Errorf("manager: failed to start %s server: %w", cfg.Name, err)
	}
	if info.IsDir() {
		return fmt.Errorf("manager: failed to start %s server: %s is a directory", cfg.Name, cfg.BinPath)
	}

	procCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(procCtx, cfg.BinPath, cfg.Args...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if len(cfg.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range cfg.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("manager: failed to start %s server: %w", cfg.Name, err)
	}

	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}

	healthPath := cfg.HealthPath
	if healthPath == "" {
		healthPath = defaultHealthPath
	}

	timeout := cfg.ReadyTimeout
	if timeout <= 0 {
		timeout = defaultReadyTimeout
	}

	url := fmt.Sprintf("http://%s:%d%s", host, cfg.Port, healthPath)
	if err := sm.waitForServer(ctx, url, timeout); err != nil {
		cancel()
		if err := cmd.Process.Kill(); err != nil {
			slog.Error("Failed to kill server process", "error", err)
		}
		_ = cmd.Wait()
		return fmt.Errorf("manager: %s server did not become ready: %w", cfg.Name, err)
	}

	sm.servers[key] = &ServerProcess{
		cmd:    cmd,
		cancel: cancel,
		args:   append([]string(nil), cfg.Args...),
	}

	slog.Info("Server started", "name", cfg.Name, "port", cfg.Port)
	return nil
}

// Running reports whether a server with the given name and port is managed.
func (sm *ServerManager) Running(name string, port int) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	_, ok := sm.servers[serverKey(name, port)]
	return ok
}

// StopServer terminates a backend server.
func (sm *ServerManager) StopServer(name string, port int) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	key := serverKey(name, port)
	srv, exists := sm.servers[key]
	if !exists {
		return fmt.Errorf("server %s not found", key)
	}

	sm.stop(key, srv)
	slog.Info("Server stopped", "name", name, "port", port)
	return nil
}

// StopAll terminates all running servers.
func (sm *ServerManager) StopAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for key, srv := range sm.servers {
		sm.stop(key, srv)
	}

	slog.Info("All servers stopped")
}

// stop kills srv and forgets it. Callers hold sm.mu.
func (sm *ServerManager) stop(key string, srv *ServerProcess) {
	srv.cancel()
	if err := srv.cmd.Process.Kill(); err != nil {
		slog.Debug("Server process already gone", "server", key, "error", err)
	}
	_ = srv.cmd.Wait()

	delete(sm.servers, key)
}

// waitForServer polls url until it answers 200 or timeout elapses.
func (sm *ServerManager) waitForServer(ctx context.Context, url string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := sm.client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(healthPollInterval):
		}
	}

	return fmt.Errorf("manager: server failed to respond at %s within %v", url, timeout)
}

func sameArgs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
