package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Default values applied by ApplyDefaults.
const (
	DefaultExaggeration   = 0.5
	DefaultCFGWeight      = 0.5
	DefaultMaxUploadBytes = 32 << 20
	DefaultMaxSessions    = 256
	DefaultHost           = "127.0.0.1"
)

// DefaultHTTPPort returns the default HTTP port.
func DefaultHTTPPort() int {
	return 8080
}

// DefaultGRPCPort returns the default gRPC port.
func DefaultGRPCPort() int {
	return 9090
}

// DefaultConfigPath returns the default path for the paravox config directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "paravox", "config")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "paravox")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "paravox")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "paravox")
		}
		return filepath.Join(home, ".config", "paravox")
	}
}

// DefaultModelsPath returns the default path for the paravox models directory.
func DefaultModelsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "paravox", "models")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", "paravox", "models")
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "paravox", "models")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "paravox", "models")
		}
		return filepath.Join(home, ".cache", "paravox", "models")
	}
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = DefaultHTTPPort()
	}
	if c.Server.GRPCPort == 0 {
		c.Server.GRPCPort = DefaultGRPCPort()
	}
	if c.Generation.Exaggeration == 0 {
		c.Generation.Exaggeration = DefaultExaggeration
	}
	if c.Generation.CFGWeight == 0 {
		c.Generation.CFGWeight = DefaultCFGWeight
	}
	if c.Generation.MaxUploadBytes == 0 {
		c.Generation.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.Sessions.MaxSessions == 0 {
		c.Sessions.MaxSessions = DefaultMaxSessions
	}
	if c.Models == nil {
		c.Models = map[string]ModelConfig{}
	}
}
