package indices

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var vegetationPixel = DN{
	Blue:  450,
	Green: 800,
	Red:   600,
	Red2:  2200,
	NIR:   3200,
	SWIR1: 1800,
	SWIR2: 1000,
}

func TestNDVIIsExactNormalizedDifference(t *testing.T) {
	v := Compute(vegetationPixel)
	assert.Equal(t, (3200.0-600.0)/(3200.0+600.0), v.NDVI)
}

func TestNDVIRange(t *testing.T) {
	samples := []DN{
		vegetationPixel,
		{NIR: 0, Red: 10000},
		{NIR: 10000, Red: 0},
		{NIR: 1, Red: 1},
		{NIR: 7312, Red: 29},
	}
	for _, dn := range samples {
		ndvi := Compute(dn).NDVI
		assert.GreaterOrEqual(t, ndvi, -1.0)
		assert.LessOrEqual(t, ndvi, 1.0)
	}
}

func TestNormDiffZeroDenominatorIsNoData(t *testing.T) {
	assert.True(t, math.IsNaN(NormDiff(0, 0)))
}

func TestNormalizedDifferenceUsesRawBands(t *testing.T) {
	v := Compute(vegetationPixel)
	assert.Equal(t, (3200.0-800.0)/(3200.0+800.0), v.GNDVI)
	assert.Equal(t, (3200.0-1000.0)/(3200.0+1000.0), v.NDWI)
	assert.Equal(t, (3200.0-2200.0)/(3200.0+2200.0), v.RENDVI)
	assert.Equal(t, (3200.0-1800.0)/(3200.0+1800.0), v.NDII)
}

func TestExpressionIndicesUseScaledBands(t *testing.T) {
	nir, red, blue, red2 := 0.32, 0.06, 0.045, 0.22
	v := Compute(vegetationPixel)

	assert.InDelta(t, 2.5*(nir-red)/(nir+6*red-7.5*blue+1), v.EVI, 1e-12)
	assert.InDelta(t, 2.5*(nir-red)/(nir+2.4*red+1), v.EVI2, 1e-12)
	assert.InDelta(t, nir/red2, v.RERVI, 1e-12)
	assert.InDelta(t, 2.5*(nir-red2)/(nir+2.4*red2+1), v.REVI2, 1e-12)
}

func TestSingleScaling(t *testing.T) {
	v := Compute(vegetationPixel)

	once := vegetationPixel.Reflectance()
	nir, red := once.Band(NIR), once.Band(Red)
	assert.Equal(t, 0.32, nir)

	// Scaling twice would shrink the bands to 1e-8 magnitude and make the
	// constant term dominate the denominator.
	twiceNIR, twiceRed := nir/ReflectanceScale, red/ReflectanceScale
	doubled := 2.5 * (twiceNIR - twiceRed) / (twiceNIR + 2.4*twiceRed + 1)
	assert.NotEqual(t, doubled, v.EVI2)
	assert.InDelta(t, 2.5*(nir-red)/(nir+2.4*red+1), v.EVI2, 1e-12)
}

func TestDefinitionEvaluateMatchesCompute(t *testing.T) {
	v := Compute(vegetationPixel)
	for _, def := range Definitions {
		want, ok := v.Get(def.Name)
		require.True(t, ok, def.Name)
		assert.Equal(t, want, def.Evaluate(vegetationPixel), def.Name)
	}
}

func TestNamesOrder(t *testing.T) {
	assert.Equal(t,
		[]string{"ndvi", "gndvi", "ndwi", "evi", "evi2", "rendvi", "ndii", "rervi", "revi2"},
		Names())
}

func TestLSTToCelsius(t *testing.T) {
	assert.InDelta(t, 26.85, LSTToCelsius(15000), 1e-9)
	assert.InDelta(t, -273.15, LSTToCelsius(0), 1e-9)
}
