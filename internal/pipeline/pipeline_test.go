package pipeline

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/forest-guardian/park-indices-map/internal/catalog"
	"github.com/forest-guardian/park-indices-map/internal/engine"
	"github.com/forest-guardian/park-indices-map/internal/local"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	discard = slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx     = context.Background()
	// 2x2 grid over [-6.5, -6.3] x [36.9, 37.1].
	grid = local.GeoTransform{-6.5, 0.1, 0, 37.1, 0, -0.1}
	park = engine.Polygon([][2]float64{{-6.5, 36.9}, {-6.4, 36.9}, {-6.4, 37.1}, {-6.5, 37.1}})
	poi  = engine.Point(-6.434, 36.998)
)

func scene(t *testing.T, day int, props map[string]float64, values map[string]float64, bands []string) *local.Image {
	t.Helper()
	out := make([]local.Band, len(bands))
	for i, name := range bands {
		v, ok := values[name]
		if !ok {
			v = 1000
		}
		out[i] = local.Band{Name: name, Data: []float64{v, v, v, v}}
	}
	img, err := local.NewImage(local.Metadata{
		ID:         "scene",
		Time:       time.Date(2020, 6, day, 11, 0, 0, 0, time.UTC),
		Width:      2,
		Height:     2,
		Transform:  grid,
		Properties: props,
	}, out...)
	require.NoError(t, err)
	return img
}

func testEngine(t *testing.T) *local.Engine {
	t.Helper()
	e := local.New()
	for _, c := range catalog.All() {
		e.DeclareCollection(c.ID, c.Bands)
	}

	s2, err := catalog.Lookup(catalog.SentinelSR)
	require.NoError(t, err)
	require.NoError(t, e.AddImages(s2.ID,
		scene(t, 1, map[string]float64{catalog.CloudCoverProperty: 5}, map[string]float64{"B4": 500, "B8": 3500}, s2.Bands),
		scene(t, 2, map[string]float64{catalog.CloudCoverProperty: 90}, map[string]float64{"B4": 1000, "B8": 1000}, s2.Bands),
	))

	temp, err := catalog.Lookup(catalog.Temperature)
	require.NoError(t, err)
	require.NoError(t, e.AddImages(temp.ID, scene(t, 1, nil, map[string]float64{"LST_Day_1km": 15000}, temp.Bands)))

	require.NoError(t, e.AddImages(catalog.Precipitation,
		scene(t, 1, nil, map[string]float64{"precipitation": 2}, []string{"precipitation"}),
		scene(t, 3, nil, map[string]float64{"precipitation": 4}, []string{"precipitation"}),
	))

	spain := geojson.NewFeature(orb.Polygon{{{-9, 36}, {3, 36}, {3, 44}, {-9, 44}, {-9, 36}}})
	spain.Properties[catalog.CountryNameProperty] = "Spain"
	e.AddFeatures(catalog.Countries, spain)
	return e
}

func june() DateRange {
	return DateRange{Start: time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC)}
}

func size(t *testing.T, col engine.Collection) int {
	t.Helper()
	n, err := col.Size(ctx)
	require.NoError(t, err)
	return n
}

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("2017-03-28", "2021-12-31")
	require.NoError(t, err)
	assert.Equal(t, "2017-03-28/2021-12-31", r.String())

	_, err = ParseDateRange("2021-12-31", "2017-03-28")
	assert.Error(t, err)
	_, err = ParseDateRange("28/03/2017", "2021-12-31")
	assert.ErrorContains(t, err, "invalid start date")
}

func TestLoadCatalog(t *testing.T) {
	e := testEngine(t)
	col := LoadCatalog(e, catalog.Precipitation, june(), poi, []string{"precipitation"})
	assert.Equal(t, 2, size(t, col))

	far := LoadCatalog(e, catalog.Precipitation, june(), engine.Point(10, 50), []string{"precipitation"})
	assert.Equal(t, 0, size(t, far))
}

func TestLoadCatalogUnknownID(t *testing.T) {
	col := LoadCatalog(testEngine(t), "NOT/A/CATALOG", june(), poi, []string{"b"})
	_, err := col.Size(ctx)
	var unknown *engine.UnknownCatalogError
	assert.ErrorAs(t, err, &unknown)
}

func TestCloudFilter(t *testing.T) {
	e := testEngine(t)
	col := e.ImageCollection(catalog.SentinelSR)

	assert.Same(t, col, CloudFilter(col, catalog.CloudCoverProperty, DefaultCloudThreshold))
	assert.Same(t, col, CloudFilter(col, catalog.CloudCoverProperty, 150))
	assert.Equal(t, 1, size(t, CloudFilter(col, catalog.CloudCoverProperty, 50)))
	assert.Equal(t, 1, size(t, CloudFilter(col, catalog.CloudCoverProperty, 90)))
	assert.Equal(t, 0, size(t, CloudFilter(col, catalog.CloudCoverProperty, 0)))
	assert.Equal(t, 0, size(t, CloudFilter(col, catalog.CloudCoverProperty, -1)))
}

func TestClipToCountryWithoutMatchMasksEverything(t *testing.T) {
	e := testEngine(t)
	col := e.ImageCollection(catalog.Precipitation)
	clipped := ClipToCountry(e, col, "Atlantis")
	require.Equal(t, size(t, col), size(t, clipped))

	for _, img := range clipped.(*local.Collection).Images() {
		data, err := img.Band("precipitation")
		require.NoError(t, err)
		for _, v := range data {
			assert.True(t, math.IsNaN(v))
		}
	}
}

func TestClipToCountry(t *testing.T) {
	e := testEngine(t)
	clipped := ClipToCountry(e, e.ImageCollection(catalog.Precipitation), "Spain")
	data, err := clipped.(*local.Collection).Images()[0].Band("precipitation")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, 2, 2}, data)
}

func TestClipToRegionKeepsOrder(t *testing.T) {
	e := testEngine(t)
	col := e.ImageCollection(catalog.Precipitation)
	clipped := ClipToRegion(col, park).(*local.Collection)
	require.Len(t, clipped.Images(), 2)
	assert.Equal(t, 1, clipped.Images()[0].Time().Day())
	assert.Equal(t, 3, clipped.Images()[1].Time().Day())

	data, err := clipped.Images()[0].Band("precipitation")
	require.NoError(t, err)
	assert.Equal(t, 2.0, data[0])
	assert.True(t, math.IsNaN(data[1]))
}

func TestRun(t *testing.T) {
	res, err := Run(ctx, testEngine(t), Options{
		Range:            june(),
		Point:            poi,
		Country:          "Spain",
		Region:           park,
		MaxCloudCoverage: 50,
		Report:           true,
	}, discard)
	require.NoError(t, err)

	ndvi := res.NDVI.(*local.Image)
	data, err := ndvi.Band("ndvi")
	require.NoError(t, err)
	assert.InDelta(t, (3500.0-500)/(3500+500), data[0], 1e-12)
	assert.True(t, math.IsNaN(data[1]))

	temp, err := res.Temperature.(*local.Image).Band("LST_Day_1km")
	require.NoError(t, err)
	assert.InDelta(t, 26.85, temp[0], 1e-9)

	prec, err := res.Precipitation.(*local.Image).Band("precipitation")
	require.NoError(t, err)
	assert.Equal(t, 3.0, prec[0])

	counts := map[string]int{}
	for _, row := range res.Report {
		counts[row.Catalog+" "+row.Stage] = row.Images
	}
	assert.Equal(t, 2, counts[catalog.SentinelSR+" loaded"])
	assert.Equal(t, 1, counts[catalog.SentinelSR+" cloud_filtered"])
	assert.Equal(t, 1, counts[catalog.SentinelSR+" clipped"])
	assert.Equal(t, 0, counts[catalog.GPP+" loaded"])
	assert.Equal(t, 0, counts[catalog.NPP+" loaded"])
	assert.Len(t, res.Report, 9)

	layers := res.Layers()
	require.Len(t, layers, 3)
	assert.Equal(t, "Precipitation", layers[0].Name)
}

func TestRunOverEmptyRange(t *testing.T) {
	day := time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)
	res, err := Run(ctx, testEngine(t), Options{
		Range:            DateRange{Start: day, End: day},
		Point:            poi,
		Country:          "Spain",
		Region:           park,
		MaxCloudCoverage: DefaultCloudThreshold,
		Report:           true,
	}, discard)
	require.NoError(t, err)

	for _, row := range res.Report {
		assert.Zero(t, row.Images, "%s %s", row.Catalog, row.Stage)
	}
	for _, spec := range res.Layers() {
		layer, err := spec.Image.Visualize(ctx, spec.Vis)
		require.NoError(t, err, spec.Name)
		assert.Equal(t, engine.EmptyLayer, layer.Kind, spec.Name)
	}
}
