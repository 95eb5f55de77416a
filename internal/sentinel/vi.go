// Package sentinel computes vegetation indices on Sentinel-2 surface
// reflectance images.
package sentinel

import (
	"github.com/forest-guardian/park-indices-map/internal/engine"
	"github.com/forest-guardian/park-indices-map/internal/indices"
)

// BandDictionary maps the semantic band names used by the index formulas
// to Sentinel-2 band ids.
var BandDictionary = map[string]string{
	indices.Blue:  "B2",
	indices.Green: "B3",
	indices.Red:   "B4",
	indices.Red2:  "B6",
	indices.NIR:   "B8",
	indices.SWIR1: "B11",
	indices.SWIR2: "B12",
}

// CalculateVI returns img with one band per vegetation index appended, in
// indices.Definitions order. Normalized differences use raw digital
// numbers; expression indices use reflectance (DN / 10000).
func CalculateVI(img engine.Image) engine.Image {
	out := img
	for _, def := range indices.Definitions {
		out = out.AddBands(index(img, def).Rename(def.Name))
	}
	return out
}

func index(img engine.Image, def indices.Definition) engine.Image {
	if def.Kind == indices.NormalizedDifferenceKind {
		return img.NormalizedDifference(BandDictionary[def.A], BandDictionary[def.B])
	}
	vars := make(map[string]engine.Image)
	for _, name := range indices.Vars(def.Expr) {
		vars[name] = img.Select(BandDictionary[name]).Divide(indices.ReflectanceScale)
	}
	return img.Expression(def.Expr, vars)
}
