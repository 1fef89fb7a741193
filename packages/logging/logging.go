// Package logging builds the zap loggers used across branchspec.
//
// Logs always go to a diagnostic stream (stderr by default) so report
// output on stdout stays machine-readable.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level enumerates supported logging granularities.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format enumerates supported logger output encodings.
type Format string

const (
	FormatStructured Format = "structured"
	FormatConsole    Format = "console"
)

var levelMapping = map[Level]zapcore.Level{
	LevelDebug: zapcore.DebugLevel,
	LevelInfo:  zapcore.InfoLevel,
	LevelWarn:  zapcore.WarnLevel,
	LevelError: zapcore.ErrorLevel,
}

// LoggerFactory builds zap.Logger instances with consistent configuration.
type LoggerFactory struct {
	writer io.Writer
}

type FactoryOption func(*LoggerFactory)

// WithWriter redirects log output, mainly for tests.
func WithWriter(w io.Writer) FactoryOption {
	return func(f *LoggerFactory) {
		f.writer = w
	}
}

func NewLoggerFactory(opts ...FactoryOption) *LoggerFactory {
	f := &LoggerFactory{writer: os.Stderr}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateLogger produces a zap.Logger honoring the requested level and format.
// Both are matched case-insensitively.
func (f *LoggerFactory) CreateLogger(level Level, format Format) (*zap.Logger, error) {
	zapLevel, ok := levelMapping[Level(strings.ToLower(string(level)))]
	if !ok {
		return nil, fmt.Errorf("unsupported log level: %s", level)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch Format(strings.ToLower(string(format))) {
	case FormatStructured:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case FormatConsole:
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(f.writer), zap.NewAtomicLevelAt(zapLevel))
	return zap.New(core), nil
}
