package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewWritesJSON(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "parkmap.log")
	l := New("debug", file)
	l.Debug("layer added", "name", "NDVI")
	require.NoError(t, l.Close())

	raw, err := os.ReadFile(file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &record))
	assert.Equal(t, "layer added", record["msg"])
	assert.Equal(t, "NDVI", record["name"])
	assert.Equal(t, "DEBUG", record["level"])
}
