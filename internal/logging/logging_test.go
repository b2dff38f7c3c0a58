// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/pubmed-harvest/pkg/types"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"info", zapcore.InfoLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"warning", zapcore.WarnLevel},
		{" Error ", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNew_FileOutputIsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "harvest.log")
	log, cleanup, err := New(types.LogConfig{Level: "info", File: path})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("search complete", zap.String("query", "crispr"), zap.Int("count", 532))
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1, "debug entry filtered at info level")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "search complete", entry["msg"])
	assert.Equal(t, "crispr", entry["query"])
	assert.Equal(t, 532.0, entry["count"])
}

func TestNew_BadLevel(t *testing.T) {
	_, _, err := New(types.LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_Stderr(t *testing.T) {
	log, cleanup, err := New(types.LogConfig{Level: "debug"})
	require.NoError(t, err)
	defer cleanup()
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, zapcore.WarnLevel)
	log.Info("quiet")
	log.Warn("download attempt failed", zap.String("id", "36912345"))

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "download attempt failed")
	assert.Contains(t, out, "36912345")
}
