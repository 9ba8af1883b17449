// Package logging builds the zap loggers used across the installer.
package logging

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger writing each level at or above the configured minimum
// to its own rotated file, and optionally to stdout. The returned close
// function releases the file handles.
func New(cfg Config) (*zap.Logger, func() error) {
	encoder := newEncoder(cfg)
	var writers []*levelWriter
	var cores []zapcore.Core

	if cfg.LogInTerminal {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), zap.NewAtomicLevelAt(cfg.ZapLevel())))
	}
	if cfg.Directory != "" {
		for level := cfg.ZapLevel(); level <= zapcore.FatalLevel; level++ {
			w := newLevelWriter(cfg, level.String())
			writers = append(writers, w)
			cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(w), exactLevel(level)))
		}
	}

	logger := zap.New(zapcore.NewTee(cores...))
	if cfg.ShowCaller {
		logger = logger.WithOptions(zap.AddCaller())
	}

	closeFn := func() error {
		_ = logger.Sync()
		var lastErr error
		for _, w := range writers {
			if err := w.Close(); err != nil {
				lastErr = err
			}
		}
		return lastErr
	}
	return logger, closeFn
}

func newEncoder(cfg Config) zapcore.Encoder {
	encCfg := zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     timeEncoder(cfg.TimeFormat),
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
	if cfg.Format == "console" {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(encCfg)
	}
	return zapcore.NewJSONEncoder(encCfg)
}

func timeEncoder(layout string) zapcore.TimeEncoder {
	if layout == "" {
		layout = time.RFC3339
	}
	return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format(layout))
	}
}

func exactLevel(level zapcore.Level) zap.LevelEnablerFunc {
	return func(l zapcore.Level) bool {
		return l == level
	}
}
