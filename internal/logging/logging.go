// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the zap logger used by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/pubmed-harvest/pkg/types"
)

// Rotation settings for file output.
const (
	maxSizeMB  = 10
	maxBackups = 7
	maxAgeDays = 28
)

// New returns a logger for cfg. Without a file, human-readable logs go to
// stderr. With a file, JSON logs go to a rotated file. The returned
// function flushes buffered entries and closes the file.
func New(cfg types.LogConfig) (*zap.Logger, func(), error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	if cfg.File == "" {
		return build(zapcore.NewConsoleEncoder(consoleEncoderConfig()), zapcore.Lock(os.Stderr), level, nil)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	logFile := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
	return build(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(logFile), level, logFile)
}

// NewWriter returns a console logger writing to w. Used by tests and by
// commands that log to an explicit stream.
func NewWriter(w io.Writer, level zapcore.Level) *zap.Logger {
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig()), zapcore.AddSync(w), level)
	return zap.New(core)
}

func build(enc zapcore.Encoder, ws zapcore.WriteSyncer, level zapcore.Level, closer io.Closer) (*zap.Logger, func(), error) {
	logger := zap.New(zapcore.NewCore(enc, ws, level))
	cleanup := func() {
		_ = logger.Sync()
		if closer != nil {
			_ = closer.Close()
		}
	}
	return logger, cleanup, nil
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

// ParseLevel accepts debug, info, warn, warning and error, in any case.
// Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}
