package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/forest-guardian/park-indices-map/internal/properties"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"EE_PROJECT", "POINT_LON", "POINT_LAT", "MAX_CLOUD_COVERAGE", "ZOOM", "MAP_CACHE_TTL",
		"LOG_FILE", "REGION_GEOJSON", "DISCORD_ERROR_NOTIFICATION_URL", "DISCORD_SUCCESS_NOTIFICATION_URL"} {
		t.Setenv(key, "")
	}
	t.Setenv("ENGINE", "local")
	t.Setenv("ROOT_PATH", t.TempDir())
}

func TestApplyFlags(t *testing.T) {
	setTestEnv(t)
	cfg, err := properties.Load()
	require.NoError(t, err)

	cmd := newRunCmd()
	require.NoError(t, cmd.Flags().Set("max-cloud", "0"))
	applyFlags(cmd, cfg, runFlags{engine: "EarthEngine", country: "Portugal", maxCloud: 0})

	assert.Equal(t, properties.EngineEarthEngine, cfg.Engine)
	assert.Equal(t, "Portugal", cfg.Country)
	assert.Equal(t, 0.0, cfg.MaxCloudCoverage)
}

func TestRunRejectsUnknownEngineFlag(t *testing.T) {
	setTestEnv(t)
	root := newRootCmd()
	root.SetArgs([]string{"run", "--engine", "earthengin"})

	err := root.Execute()
	assert.ErrorContains(t, err, `invalid ENGINE: "earthengin"`)
}

func TestCatalogsCSV(t *testing.T) {
	var buf bytes.Buffer
	root := newRootCmd()
	root.SetOut(&buf)
	root.SetArgs([]string{"catalogs", "--csv"})

	require.NoError(t, root.Execute())
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "id,name,description", lines[0])
}

func TestIndicesCSV(t *testing.T) {
	var buf bytes.Buffer
	root := newRootCmd()
	root.SetOut(&buf)
	root.SetArgs([]string{"indices", "--csv", "--nir", "3000", "--red", "1000"})

	require.NoError(t, root.Execute())
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "0.5,"), lines[1])
}
