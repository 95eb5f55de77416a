package properties

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ROOT_PATH", "ENGINE", "EE_PROJECT", "START_DATE", "END_DATE", "POINT_LON", "POINT_LAT",
		"COUNTRY", "REGION_ASSET", "MAX_CLOUD_COVERAGE", "OUTPUT_HTML", "ZOOM", "MAP_CACHE_TTL", "LOG_FILE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EngineEarthEngine, cfg.Engine)
	assert.Equal(t, "2017-03-28", cfg.StartDate)
	assert.Equal(t, "2021-12-31", cfg.EndDate)
	assert.Equal(t, -6.434, cfg.PointLon)
	assert.Equal(t, 36.998, cfg.PointLat)
	assert.Equal(t, "Spain", cfg.Country)
	assert.Equal(t, "users/mafmonjaraz/DNP_limits", cfg.RegionAsset)
	assert.Equal(t, 100.0, cfg.MaxCloudCoverage)
	assert.Equal(t, "DNP_indices.html", cfg.OutputHTML)
	assert.Equal(t, 12, cfg.Zoom)
	assert.Equal(t, time.Hour, cfg.MapCacheTTL)
	assert.Equal(t, filepath.Join(".", "data", "logs", "parkmap.log"), cfg.LogFile)

	assert.ErrorContains(t, cfg.Validate(), "EE_PROJECT")
	cfg.EEProject = "my-project"
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENGINE", "LOCAL")
	t.Setenv("ROOT_PATH", "/srv/park")
	t.Setenv("MAX_CLOUD_COVERAGE", "20")
	t.Setenv("ZOOM", "10")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EngineLocal, cfg.Engine)
	assert.Equal(t, 20.0, cfg.MaxCloudCoverage)
	assert.Equal(t, 10, cfg.Zoom)
	assert.Equal(t, "/srv/park/data/catalogs", cfg.DataPath("catalogs"))
	assert.NoError(t, cfg.Validate())
}

func TestLoadInvalidValues(t *testing.T) {
	t.Setenv("ENGINE", "local")
	t.Setenv("POINT_LAT", "north")
	_, err := Load()
	assert.ErrorContains(t, err, "invalid POINT_LAT")

	t.Setenv("POINT_LAT", "")
	t.Setenv("MAP_CACHE_TTL", "soon")
	_, err = Load()
	assert.ErrorContains(t, err, "invalid MAP_CACHE_TTL")

	t.Setenv("MAP_CACHE_TTL", "")
	t.Setenv("ENGINE", "gdal")
	_, err = Load()
	assert.ErrorContains(t, err, "invalid ENGINE")
}

func TestValidateRejectsOverriddenEngine(t *testing.T) {
	t.Setenv("ENGINE", "local")
	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	cfg.Engine = "earthengin"
	assert.ErrorContains(t, cfg.Validate(), `invalid ENGINE: "earthengin"`)
}
