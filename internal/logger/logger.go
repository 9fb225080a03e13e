package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide logger. Init must be called before use.
var Logger zerolog.Logger

// Init configures the global logger. When console is true (interactive
// one-shot/verbose runs) output is pretty-printed; otherwise JSON lines go
// to stderr for whatever supervises the scheduled run.
func Init(level string, console bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if console {
		out = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}

	Logger = zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

// WithComponent returns a logger tagged with a component field.
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}
