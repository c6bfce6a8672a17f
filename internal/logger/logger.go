package logger

import (
	"io"
	"log/slog"
)

// InitJSONLogger configures and sets the default slog logger to use JSON format.
// The interactive menu owns stdout, so callers normally pass os.Stderr.
func InitJSONLogger(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
