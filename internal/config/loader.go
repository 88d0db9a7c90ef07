package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.yaml.in/yaml/v3"

	"github.com/ekisa-team/paravox/internal/envvar"
)

const embeddedSchemaURL = "paravox.v1.schema.json"

//go:embed schema/paravox.v1.schema.json
var defaultSchema []byte

// DefaultSchema returns the schema bundled with the binary.
func DefaultSchema() []byte {
	return defaultSchema
}

// LoadAndValidate loads and validates the configuration. An empty
// schemaPath validates against the bundled schema.
func LoadAndValidate(path, schemaPath string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read config: %w", err)
	}

	return Parse(data, schemaPath)
}

// Parse validates YAML config bytes and decodes them into a Config with
// defaults and environment overrides applied.
func Parse(data []byte, schemaPath string) (*Config, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	// The validator expects JSON-shaped values, so normalise through JSON.
	doc, err := toJSONValue(raw)
	if err != nil {
		return nil, fmt.Errorf("config: failed to normalise YAML: %w", err)
	}

	schema, err := compileSchema(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("config: failed to compile schema: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal into Config struct: %w", err)
	}

	config.ApplyDefaults()
	applyEnv(&config)

	return &config, nil
}

func compileSchema(schemaPath string) (*jsonschema.Schema, error) {
	if schemaPath != "" {
		return jsonschema.Compile(schemaPath)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(embeddedSchemaURL, bytes.NewReader(defaultSchema)); err != nil {
		return nil, err
	}

	return c.Compile(embeddedSchemaURL)
}

func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// applyEnv overrides listener ports from the environment.
func applyEnv(c *Config) {
	if port, ok := envPort(envvar.ParavoxServerHTTPPort); ok {
		c.Server.HTTPPort = port
	}
	if port, ok := envPort(envvar.ParavoxServerGRPCPort); ok {
		c.Server.GRPCPort = port
	}
}

func envPort(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}

	port, err := strconv.Atoi(v)
	if err != nil || port <= 0 || port > 65535 {
		slog.Warn("Ignoring invalid port from environment", "variable", name, "value", v)
		return 0, false
	}

	return port, true
}
