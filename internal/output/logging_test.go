package output

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogOptionsLevel(t *testing.T) {
	tests := []struct {
		name string
		opts LogOptions
		want slog.Level
	}{
		{"default", LogOptions{}, slog.LevelWarn},
		{"verbose", LogOptions{Verbose: true}, slog.LevelInfo},
		{"debug", LogOptions{Debug: true}, slog.LevelDebug},
		{"debug over verbose", LogOptions{Verbose: true, Debug: true}, slog.LevelDebug},
		{"quiet over debug", LogOptions{Quiet: true, Debug: true}, levelSilent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.Level())
		})
	}
}

func TestSetupLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupLogger(&buf, LogOptions{})
	require.NoError(t, err)

	logger.Info("cache hit")
	logger.Warn("parse error")
	assert.NotContains(t, buf.String(), "cache hit")
	assert.Contains(t, buf.String(), "parse error")
}

func TestSetupLoggerQuiet(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupLogger(&buf, LogOptions{Quiet: true, Debug: true})
	require.NoError(t, err)

	logger.Error("check fault")
	assert.Empty(t, buf.String())
}

func TestSetupLoggerDebugSource(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupLogger(&buf, LogOptions{Debug: true})
	require.NoError(t, err)

	logger.Debug("visiting")
	assert.Contains(t, buf.String(), "visiting")
	assert.Contains(t, buf.String(), "source=")
}

func TestSetupLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupLogger(&buf, LogOptions{Format: "json"})
	require.NoError(t, err)

	WithComponent(logger, "runner").Warn("file not checked", "path", "src/A.java")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "runner", rec["component"])
	assert.Equal(t, "src/A.java", rec["path"])
	assert.Equal(t, "WARN", rec["level"])
}

func TestSetupLoggerUnknownFormat(t *testing.T) {
	_, err := SetupLogger(&bytes.Buffer{}, LogOptions{Format: "xml"})
	assert.ErrorContains(t, err, `unknown log format "xml"`)
}
