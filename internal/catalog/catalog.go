// Package catalog lists the image collections the pipeline reads and the
// bands it loads from each.
package catalog

import "github.com/forest-guardian/park-indices-map/internal/engine"

const (
	SentinelSR    = "COPERNICUS/S2_SR"
	Temperature   = "MODIS/006/MOD11A1"
	Precipitation = "UCSB-CHG/CHIRPS/DAILY"
	GPP           = "MODIS/006/MOD17A2H"
	NPP           = "MODIS/006/MOD17A3HGF"

	// Countries is the boundary table used to clip to a country.
	Countries = "FAO/GAUL/2015/level0"
	// CountryNameProperty holds the country name in Countries.
	CountryNameProperty = "ADM0_NAME"

	// CloudCoverProperty is the Sentinel-2 scene cloud percentage.
	CloudCoverProperty = "CLOUDY_PIXEL_PERCENTAGE"
)

// Catalog describes one image collection.
type Catalog struct {
	ID          string   `csv:"id"`
	Name        string   `csv:"name"`
	Description string   `csv:"description"`
	Bands       []string `csv:"-"`
}

var catalogs = []Catalog{
	{
		ID:          SentinelSR,
		Name:        "S2",
		Description: "Sentinel-2 MSI level-2A surface reflectance",
		Bands: []string{
			"B1", "B2", "B3", "B4", "B5", "B6", "B7", "B8", "B8A", "B9", "B11", "B12",
			"AOT", "WVP", "SCL", "TCI_R", "TCI_G", "TCI_B", "QA10", "QA20", "QA60",
		},
	},
	{
		ID:          Temperature,
		Name:        "temp",
		Description: "MODIS Terra daily land surface temperature and emissivity",
		Bands: []string{
			"LST_Day_1km", "QC_Day", "Day_view_time", "Day_view_angle",
			"LST_Night_1km", "QC_Night", "Night_view_time", "Night_view_angle",
			"Emis_31", "Emis_32", "Clear_day_cov", "Clear_night_cov",
		},
	},
	{
		ID:          Precipitation,
		Name:        "prec",
		Description: "CHIRPS daily infrared precipitation with station data",
		Bands:       []string{"precipitation"},
	},
	{
		ID:          GPP,
		Name:        "gpp",
		Description: "MODIS Terra 8-day gross primary productivity",
		Bands:       []string{"Gpp", "PsnNet", "Psn_QC"},
	},
	{
		ID:          NPP,
		Name:        "npp",
		Description: "MODIS Terra yearly net primary productivity, gap filled",
		Bands:       []string{"Npp", "Npp_QC"},
	},
}

// All returns the catalogs in load order.
func All() []Catalog {
	out := make([]Catalog, len(catalogs))
	for i, c := range catalogs {
		c.Bands = append([]string(nil), c.Bands...)
		out[i] = c
	}
	return out
}

func Lookup(id string) (Catalog, error) {
	for _, c := range All() {
		if c.ID == id {
			return c, nil
		}
	}
	return Catalog{}, &engine.UnknownCatalogError{ID: id}
}
