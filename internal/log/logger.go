// Package log configures the process-wide zerolog logger.
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config captures options for configuring the global logger.
type Config struct {
	Level   string    // optional log level ("debug", "info", etc.)
	Output  io.Writer // optional writer (defaults to os.Stderr)
	Service string    // optional service name attached to every log entry
}

var (
	once sync.Once
	base zerolog.Logger
)

// Configure initialises the global logger. Only the first call has effect.
func Configure(cfg Config) {
	once.Do(func() {
		level := zerolog.InfoLevel
		if cfg.Level != "" {
			if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
				level = parsed
			}
		}
		zerolog.SetGlobalLevel(level)
		zerolog.TimeFieldFormat = time.RFC3339

		writer := cfg.Output
		if writer == nil {
			writer = os.Stderr
		}
		service := cfg.Service
		if service == "" {
			service = "vidstate"
		}

		base = zerolog.New(writer).With().
			Timestamp().
			Str("service", service).
			Logger()
	})
}

// Base returns the configured logger, configuring defaults on first use.
func Base() zerolog.Logger {
	Configure(Config{})
	return base
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str(FieldComponent, component).Logger()
}

// Canonical field names.
const (
	FieldComponent = "component"
	FieldConvID    = "conv_id"
	FieldUserID    = "user_id"
	FieldEventID   = "event_id"
	FieldState     = "state"
	FieldCode      = "code"
)
