package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the development logger at level. Output goes to stderr.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	loggerConfig := zap.NewDevelopmentConfig()
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	loggerConfig.Level = zap.NewAtomicLevelAt(lvl)
	if lvl > zapcore.DebugLevel {
		loggerConfig.DisableStacktrace = true
	}

	logger, err := loggerConfig.Build()
	if nil != err {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger, nil
}
