// Package logging builds the zerolog loggers used by nhsmongifyer.
// Loggers are constructed once by the application and passed down
// explicitly or through a context; there is no package-level default
// to mutate.
//
// Example usage:
//
//	log := logging.NewLoggerFromConfig(logging.DefaultConfig())
//	ctx := logging.WithLogger(context.Background(), &log)
//	ctx = logging.WithPartition(ctx, "07", "03", 2025)
//	logging.FromContext(ctx).Info().Int("page", 1).Msg("Saved page")
package logging

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Nop is a logger that discards everything.
var Nop = zerolog.Nop()

// New creates a JSON logger writing to w at the given level.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// NewConsole creates a human-readable logger writing to stderr.
func NewConsole(level zerolog.Level) zerolog.Logger {
	writer := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
		NoColor:    os.Getenv("NO_COLOR") != "",
	}
	return New(writer, level)
}

// OrNop returns logger, or a discarding logger when it is nil.
func OrNop(logger *zerolog.Logger) *zerolog.Logger {
	if logger == nil {
		l := Nop
		return &l
	}
	return logger
}

// isTerminal checks if f is attached to a terminal.
func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
