package logger

import (
	"io"
	"log/slog"
)

// NewTestHandler discards all output. It takes a level so it fits the
// same factory shape New expects.
func NewTestHandler(level slog.Level) slog.Handler {
	return slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level})
}
