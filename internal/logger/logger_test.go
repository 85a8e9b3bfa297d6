package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestBlockEncoderIndentsContinuationLines(t *testing.T) {
	cfg := DefaultConfig()
	enc := newConsoleEncoder(cfg, false)

	ts := time.Date(2024, 3, 1, 12, 30, 45, 123_000_000, time.Local)
	buf, err := enc.EncodeEntry(zapcore.Entry{
		Level:   zapcore.InfoLevel,
		Time:    ts,
		Message: "Published \"a.ovpn\"\nto \"b.ovpn\".",
	}, nil)
	require.NoError(t, err)
	defer buf.Free()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "2024-03-01 12:30:45.123 INFO"), lines[0])
	assert.Equal(t, strings.Repeat(" ", len(DefaultTimeFormat)+1)+"to \"b.ovpn\".", lines[1])
}

func TestBlockEncoderClone(t *testing.T) {
	enc := newConsoleEncoder(DefaultConfig(), false)
	clone := enc.Clone()
	_, ok := clone.(*blockEncoder)
	assert.True(t, ok)
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ovpnsync.log")
	color := false
	log, err := New(&Config{File: path, Level: "debug", Color: &color})
	require.NoError(t, err)

	log.Debug("cycle finished", zap.String("address", "5.6.7.8"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"cycle finished"`)
	assert.Contains(t, string(data), `"address":"5.6.7.8"`)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	bad := DefaultConfig()
	bad.Level = "verbose"
	assert.Error(t, bad.Validate())

	_, err := New(bad)
	assert.Error(t, err)

	filled := (&Config{}).SetDefaults()
	assert.Equal(t, "info", filled.Level)
	assert.Equal(t, DefaultTimeFormat, filled.TimeFormat)
}

func TestGetZapLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, getZapLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, getZapLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, getZapLevel("bogus"))
}
