// Package observability holds the zap logger and the request logging middleware.
package observability

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig selects the level and output of the process logger.
type LogConfig struct {
	Level string
	// Console switches to a human readable encoder for local runs.
	Console     bool
	Service     string
	Environment string
}

type loggerKey struct{}

var nop = zap.NewNop()

// NewLogger builds the process logger. JSON output uses the severity/message/timestamp
// keys expected by Cloud Logging. Unknown or empty levels mean info.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if name := strings.ToLower(strings.TrimSpace(cfg.Level)); name != "" {
		var l zapcore.Level
		if err := l.UnmarshalText([]byte(name)); err == nil {
			level.SetLevel(l)
		}
	}

	enc := zapcore.EncoderConfig{
		MessageKey:     "message",
		TimeKey:        "timestamp",
		LevelKey:       "severity",
		NameKey:        "logger",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	encoding := "json"
	if cfg.Console {
		encoding = "console"
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	}

	initial := map[string]any{}
	if cfg.Service != "" {
		initial["service"] = cfg.Service
	}
	if cfg.Environment != "" {
		initial["env"] = cfg.Environment
	}

	return zap.Config{
		Level:             level,
		Encoding:          encoding,
		EncoderConfig:     enc,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: !cfg.Console,
		InitialFields:     initial,
	}.Build()
}

// WithLogger returns ctx carrying logger.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if logger == nil {
		logger = nop
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the request logger, or a no-op logger outside a request.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
			return logger
		}
	}
	return nop
}
