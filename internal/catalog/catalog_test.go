package catalog

import (
	"testing"

	"github.com/forest-guardian/park-indices-map/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	s2, err := Lookup(SentinelSR)
	require.NoError(t, err)
	assert.Len(t, s2.Bands, 21)
	assert.Contains(t, s2.Bands, "B8")

	temp, err := Lookup(Temperature)
	require.NoError(t, err)
	assert.Len(t, temp.Bands, 12)
	assert.Equal(t, "LST_Day_1km", temp.Bands[0])

	_, err = Lookup("NOT/A/CATALOG")
	var unknown *engine.UnknownCatalogError
	assert.ErrorAs(t, err, &unknown)
}

func TestAllReturnsCopies(t *testing.T) {
	all := All()
	require.Len(t, all, 5)
	all[2].Bands[0] = "changed"

	prec, err := Lookup(Precipitation)
	require.NoError(t, err)
	assert.Equal(t, []string{"precipitation"}, prec.Bands)
}
