package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a JSON zap logger. debug lowers the level to debug and
// disables sampling; LOG_LEVEL overrides the level either way.
func NewLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
		cfg.Sampling = nil
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		parsed, err := zapcore.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("parsing LOG_LEVEL: %w", err)
		}
		level = parsed
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return logger, nil
}
