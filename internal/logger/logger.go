package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New creates a new logger instance with the provided configuration
func New(cfg *Config) (*zap.Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	cfg = cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	level := getZapLevel(cfg.Level)
	var cores []zapcore.Core

	if cfg.File != "" {
		w := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
			LocalTime:  cfg.UseLocalTime,
		}

		fileEncoder := zap.NewProductionEncoderConfig()
		fileEncoder.TimeKey = "time"
		fileEncoder.EncodeTime = zapcore.ISO8601TimeEncoder
		fileEncoder.EncodeDuration = zapcore.StringDurationEncoder
		fileEncoder.EncodeLevel = zapcore.CapitalLevelEncoder

		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileEncoder),
			zapcore.AddSync(w),
			level,
		))
	}

	cores = append(cores, zapcore.NewCore(
		newConsoleEncoder(cfg, useColor(cfg)),
		zapcore.Lock(os.Stdout),
		level,
	))

	core := zapcore.NewTee(cores...)
	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

// newConsoleEncoder renders "<time> <LEVEL> <caller> <message> <fields>"
func newConsoleEncoder(cfg *Config, color bool) zapcore.Encoder {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.ConsoleSeparator = " "
	encoderConfig.EncodeTime = timeEncoder(cfg.TimeFormat, cfg.UseLocalTime)
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if color {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return newBlockEncoder(zapcore.NewConsoleEncoder(encoderConfig), len(cfg.TimeFormat)+1)
}

func timeEncoder(layout string, local bool) zapcore.TimeEncoder {
	return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		if !local {
			t = t.UTC()
		}
		enc.AppendString(t.Format(layout))
	}
}

func useColor(cfg *Config) bool {
	if cfg.Color != nil {
		return *cfg.Color
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// getZapLevel converts string level to zapcore.Level
func getZapLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
