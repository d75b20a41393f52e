package common

import (
	"log/slog"
	"os"
)

// LoggingOpts configures the process-wide logger.
type LoggingOpts struct {
	// Debug enables debug-level logging.
	Debug bool

	// JSON switches from text to JSON output.
	JSON bool

	// Service is added as a 'service' tag to all log messages.
	Service string

	// Version is added as a 'version' tag to all log messages.
	Version string
}

// SetupLogger creates a structured logger according to opts.
func SetupLogger(opts *LoggingOpts) *slog.Logger {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	log := slog.New(handler)
	if opts.Service != "" {
		log = log.With("service", opts.Service)
	}
	if opts.Version != "" {
		log = log.With("version", opts.Version)
	}
	return log
}
