// Package logging builds the zap loggers used by the command-line tool, the
// HTTP service and the viewer.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps "debug", "info", "warn" and "error" to a zap level.
// Anything else is info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New creates a logger.
// format "console" gives the human-readable development encoder, anything
// else JSON with an ISO-8601 "timestamp" key. Output goes to the given paths,
// stdout when none are given. The service name and host name are attached to
// every entry.
func New(level, format, service string, outputs ...string) (*zap.Logger, error) {
	zapLevel := ParseLevel(level)
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	var config zap.Config
	if format == "console" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.OutputPaths = outputs
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}

	if service != "" {
		logger = logger.With(zap.String("service_name", service))
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		logger = logger.With(zap.String("hostname", hostname))
	}

	return logger, nil
}

// Must is like New but falls back to a no-op logger on error.
func Must(level, format, service string, outputs ...string) *zap.Logger {
	logger, err := New(level, format, service, outputs...)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
