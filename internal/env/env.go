// Package env identifies the deployment environment.
package env

import (
	"os"
	"strings"

	"github.com/ekisa-team/paravox/internal/envvar"
)

// Environment is the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// FromEnv reads PARAVOX_ENV. Anything other than production is development.
func FromEnv() Environment {
	return Parse(os.Getenv(envvar.ParavoxEnv))
}

// Parse maps a string to an Environment.
func Parse(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prod", "production":
		return Production
	default:
		return Development
	}
}

// IsProduction reports whether e is Production.
func (e Environment) IsProduction() bool {
	return e == Production
}
