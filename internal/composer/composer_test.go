package composer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/forest-guardian/park-indices-map/internal/engine"
	"github.com/forest-guardian/park-indices-map/internal/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lstEngine(t *testing.T) *local.Engine {
	t.Helper()
	e := local.New()
	for day, v := range []float64{15000, 14000} {
		img, err := local.NewImage(local.Metadata{
			Time:      time.Date(2020, 7, day+1, 0, 0, 0, 0, time.UTC),
			Width:     1,
			Height:    1,
			Transform: local.GeoTransform{-6.5, 0.1, 0, 37.1, 0, -0.1},
		}, local.Band{Name: "LST_Day_1km", Data: []float64{v}}, local.Band{Name: "QC_Day", Data: []float64{0}})
		require.NoError(t, err)
		require.NoError(t, e.AddImages("MODIS/006/MOD11A1", img))
	}
	return e
}

func TestMeanOfAndLSTToCelsius(t *testing.T) {
	col := lstEngine(t).ImageCollection("MODIS/006/MOD11A1")
	celsius := LSTToCelsius(MeanOf(col, "LST_Day_1km")).(*local.Image)
	require.NoError(t, celsius.Err())
	assert.Equal(t, []string{"LST_Day_1km"}, celsius.BandNames())

	data, err := celsius.Band("LST_Day_1km")
	require.NoError(t, err)
	assert.InDelta(t, 14500*0.02-273.15, data[0], 1e-9)
}

func TestComposerKeepsLayerOrder(t *testing.T) {
	e := lstEngine(t)
	col := e.ImageCollection("MODIS/006/MOD11A1")
	temp := LSTToCelsius(MeanOf(col, "LST_Day_1km"))
	empty := MeanOf(col.FilterDate(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)), "LST_Day_1km")

	c, err := New("DNP indices", engine.Point(-6.434, 36.998), DefaultZoom)
	require.NoError(t, err)
	require.NoError(t, c.AddLayers(context.Background(), DefaultLayers(empty, temp, temp), false))

	layers := c.Layers()
	require.Len(t, layers, 3)
	assert.Equal(t, PrecipitationLayer, layers[0].Name)
	assert.Equal(t, string(engine.EmptyLayer), layers[0].Kind)
	assert.Equal(t, TemperatureLayer, layers[1].Name)
	assert.Equal(t, string(engine.OverlayLayer), layers[1].Kind)
	assert.Equal(t, NDVILayer, layers[2].Name)
	assert.NotEmpty(t, layers[2].Legend)

	path := filepath.Join(t.TempDir(), "DNP_indices.html")
	require.NoError(t, c.Save(path))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[36.998,-6.434]")
}

func TestAddLayerReportsEngineError(t *testing.T) {
	col := lstEngine(t).ImageCollection("MODIS/006/MOD11A1")
	c, err := New("x", engine.Point(0, 0), DefaultZoom)
	require.NoError(t, err)

	err = c.AddLayer(context.Background(), col.Mean(), TemperatureVis, TemperatureLayer)
	assert.ErrorContains(t, err, "expected one band")
	assert.Empty(t, c.Layers())
}

func TestNewRequiresCenter(t *testing.T) {
	_, err := New("x", engine.Geometry{}, DefaultZoom)
	assert.Error(t, err)
}
