// Package logger builds the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ekisa-team/paravox/internal/env"
	"github.com/ekisa-team/paravox/internal/envvar"
)

const (
	maxFileSizeMB  = 20
	maxFileBackups = 5
	maxFileAgeDays = 14
)

type options struct {
	console   io.Writer
	level     *slog.Level
	logFile   string
	logToFile bool
}

// Option configures New.
type Option func(*options)

// WithLogToFile enables rotated file output next to the console.
func WithLogToFile(enabled bool) Option {
	return func(o *options) { o.logToFile = enabled }
}

// WithLogFile sets the rotated log file path.
func WithLogFile(path string) Option {
	return func(o *options) { o.logFile = path }
}

// WithLevel sets the minimum level, overriding PARAVOX_LOG_LEVEL.
func WithLevel(level slog.Level) Option {
	return func(o *options) { o.level = &level }
}

// WithWriter replaces stderr as the console output.
func WithWriter(w io.Writer) Option {
	return func(o *options) { o.console = w }
}

// New returns a logger for e: colored text in development, JSON in
// production, plus a JSON file when enabled.
func New(e env.Environment, opts ...Option) *slog.Logger {
	o := options{
		console: os.Stderr,
		logFile: "logs/paravox.log",
	}
	for _, opt := range opts {
		opt(&o)
	}

	level := resolveLevel(e, o.level)

	var console slog.Handler
	if e.IsProduction() {
		console = slog.NewJSONHandler(o.console, &slog.HandlerOptions{Level: level})
	} else {
		console = tint.NewHandler(o.console, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	}

	if !o.logToFile {
		return slog.New(console)
	}

	file := slog.NewJSONHandler(&lumberjack.Logger{
		Filename:   o.logFile,
		MaxSize:    maxFileSizeMB,
		MaxBackups: maxFileBackups,
		MaxAge:     maxFileAgeDays,
		Compress:   true,
	}, &slog.HandlerOptions{Level: level})

	return slog.New(newMultiHandler(console, file))
}

func resolveLevel(e env.Environment, override *slog.Level) slog.Level {
	if override != nil {
		return *override
	}

	if raw := os.Getenv(envvar.ParavoxLogLevel); raw != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(raw)); err == nil {
			return level
		}
	}

	if e.IsProduction() {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}
