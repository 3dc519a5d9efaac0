package logging

import (
	"log/slog"
	"os"
)

// Setup initializes the global slog logger with JSON output to stdout.
func Setup() {
	slog.SetDefault(slog.New(NewFanoutHandler(StdoutHandler())))
}

func StdoutHandler() slog.Handler {
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
}

// WithSink routes ERROR+ records to sink as well as stdout. Both outputs
// receive scrubbed attributes.
func WithSink(sink slog.Handler) {
	slog.SetDefault(slog.New(NewFanoutHandler(StdoutHandler(), sink)))
}
