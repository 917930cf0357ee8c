// Package common holds shared service plumbing: logger setup and version.
package common

import (
	"log/slog"
	"os"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// LoggingOpts configures the service logger.
type LoggingOpts struct {
	// Debug enables debug-level messages.
	Debug bool

	// JSON switches the handler to JSON output.
	JSON bool

	// Service is added as a tag to all log messages.
	Service string

	// Version is added as a tag to all log messages.
	Version string
}

// SetupLogger creates the service logger and installs it as the slog
// default.
func SetupLogger(opts *LoggingOpts) *slog.Logger {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	if opts.Service != "" {
		logger = logger.With("service", opts.Service)
	}
	if opts.Version != "" {
		logger = logger.With("version", opts.Version)
	}

	slog.SetDefault(logger)
	return logger
}
