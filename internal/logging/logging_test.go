package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		" warn ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNew_JSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roomload.log")

	logger, err := New("debug", "json", "roomload-test", path)
	require.NoError(t, err)
	logger.Debug("drawing processed", zap.Int("rooms", 3))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := string(data)
	assert.True(t, strings.Contains(line, `"timestamp"`), "expected ISO-8601 timestamp key: %s", line)
	assert.Contains(t, line, `"service_name":"roomload-test"`)
	assert.Contains(t, line, `"rooms":3`)
}

func TestNew_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roomload.log")

	logger, err := New("error", "json", "", path)
	require.NoError(t, err)
	logger.Info("hidden")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
}

func TestMust_FallsBackToNop(t *testing.T) {
	logger := Must("info", "json", "", "/nonexistent/dir/roomload.log")
	require.NotNil(t, logger)
	logger.Info("discarded")
}
