package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&Config{Level: "info", Format: "json", writer: &buf})
	require.NoError(t, err)

	log.Info("session established", slog.String("role", "technician"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "session established", record["msg"])
	assert.Equal(t, "technician", record["role"])
	assert.Equal(t, "INFO", record["level"])
}

func TestNew_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&Config{Level: "info", Format: "console", writer: &buf})
	require.NoError(t, err)

	log.Info("job updated", slog.String("job_id", "job-1"))

	out := buf.String()
	assert.Contains(t, out, "job updated")
	assert.Contains(t, out, "job-1")
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&Config{Level: "warn", Format: "json", writer: &buf})
	require.NoError(t, err)

	log.Info("dropped")
	log.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fieldsync.log")
	log, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	log.Info("written to file")

	assert.FileExists(t, path)
}

func TestNew_InvalidFileOutput(t *testing.T) {
	_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "fieldsync.log")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open log file")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"garbage", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.input), tt.input)
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&Config{Level: "info", Format: "json", writer: &buf})
	require.NoError(t, err)

	log.With(slog.String("component", "syncer")).Info("first")
	log.WithGroup("request").Info("second", slog.String("path", "/jobs"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"component":"syncer"`)
	assert.Contains(t, lines[1], `"request"`)
}
