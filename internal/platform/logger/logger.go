package logger

import (
	"log/slog"
	"os"
)

// New returns a structured text logger on stdout. Hosts that need JSON or a
// different sink can pass their own slog.Logger to the engine options.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
