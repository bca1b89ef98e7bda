// Package logger provides the zerolog setup shared by embedders of the
// client library.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Console returns a human-readable logger for interactive use.
func Console(level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// Discard returns a logger that drops everything; the default for tests and
// for embedders that wire their own.
func Discard() zerolog.Logger {
	return zerolog.New(io.Discard)
}
