package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.LevelInfo, &buf)

	assert.NotNil(t, logger)
	assert.NotNil(t, logger.logger)
}

func TestSlogLogger_Levels(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
		log   func(l Logger)
		want  string
	}{
		{"debug", slog.LevelDebug, func(l Logger) { l.Debug("test debug", "key", "value") }, "test debug"},
		{"info", slog.LevelInfo, func(l Logger) { l.Info("test info", "key", "value") }, "test info"},
		{"warn", slog.LevelWarn, func(l Logger) { l.Warn("test warn", "key", "value") }, "test warn"},
		{"error", slog.LevelError, func(l Logger) { l.Error("test error", "key", "value") }, "test error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewSlogLogger(tt.level, &buf))

			output := buf.String()
			assert.Contains(t, output, tt.want)
			assert.Contains(t, output, "key=value")
		})
	}
}

func TestSlogLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.LevelWarn, &buf)

	logger.Debug("debug message") // should be filtered out
	logger.Info("info message")   // should be filtered out
	logger.Warn("warn message")   // should appear
	logger.Error("error message") // should appear

	output := buf.String()
	assert.NotContains(t, output, "debug message")
	assert.NotContains(t, output, "info message")
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
}

func TestSlogLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.LevelInfo, &buf).With("run_id", "abc")

	logger.Info("launched")

	assert.Contains(t, buf.String(), "run_id=abc")
}

func TestSlogLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLoggerWithFormat(slog.LevelInfo, FormatJSON, &buf)

	logger.Info("json message", "exit_code", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "json message", entry["msg"])
	assert.Equal(t, float64(2), entry["exit_code"])
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.NotPanics(t, func() {
		logger.Error("nothing to see", "key", "value")
	})
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("verbose")
	assert.EqualError(t, err, "invalid log level: verbose")
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, format)

	format, err = ParseFormat("text")
	require.NoError(t, err)
	assert.Equal(t, FormatText, format)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
