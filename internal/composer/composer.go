// Package composer reduces the clipped collections to single images and
// assembles them as named layers of an interactive map.
package composer

import (
	"context"
	"fmt"

	"github.com/forest-guardian/park-indices-map/internal/engine"
	"github.com/forest-guardian/park-indices-map/internal/indices"
	"github.com/forest-guardian/park-indices-map/output"
	"github.com/schollz/progressbar/v3"
)

const DefaultZoom = 12

const (
	PrecipitationLayer = "Precipitation"
	TemperatureLayer   = "Land Surface Temperature"
	NDVILayer          = "NDVI"
)

var (
	PrecipitationVis = engine.VisParams{Min: 0, Max: 30, Palette: []string{"white", "blue", "gray", "purple"}}
	TemperatureVis   = engine.VisParams{Min: 0, Max: 40, Palette: []string{"white", "blue", "green", "yellow", "orange", "red"}}
	NDVIVis          = engine.VisParams{Min: 0, Max: 0.75, Palette: []string{"ff4545", "fbffbe", "a7ff7a", "009356", "1f1e6e"}}
)

// MeanOf is the pixelwise temporal mean of one band of col.
func MeanOf(col engine.Collection, band string) engine.Image {
	return col.Select(band).Mean()
}

// LSTToCelsius converts a MODIS LST image from scaled Kelvin to Celsius.
func LSTToCelsius(img engine.Image) engine.Image {
	return img.Multiply(indices.LSTScale).Add(indices.LSTOffset)
}

// LayerSpec is an image waiting to be added to the map.
type LayerSpec struct {
	Name  string
	Image engine.Image
	Vis   engine.VisParams
}

// DefaultLayers returns the three park layers in display order.
func DefaultLayers(precipitation, temperature, ndvi engine.Image) []LayerSpec {
	return []LayerSpec{
		{Name: PrecipitationLayer, Image: precipitation, Vis: PrecipitationVis},
		{Name: TemperatureLayer, Image: temperature, Vis: TemperatureVis},
		{Name: NDVILayer, Image: ndvi, Vis: NDVIVis},
	}
}

type Composer struct {
	title  string
	center [2]float64
	zoom   int
	layers []output.MapLayer
}

// New creates a map centred on point.
func New(title string, point engine.Geometry, zoom int) (*Composer, error) {
	if point.IsEmpty() {
		return nil, fmt.Errorf("map center is empty")
	}
	c := point.Bound().Center()
	return &Composer{title: title, center: [2]float64{c[1], c[0]}, zoom: zoom}, nil
}

// AddLayer renders img with vis through its engine and appends it as a
// toggleable layer. Layers keep insertion order.
func (c *Composer) AddLayer(ctx context.Context, img engine.Image, vis engine.VisParams, name string) error {
	layer, err := img.Visualize(ctx, vis)
	if err != nil {
		return fmt.Errorf("failed to visualize layer %s: %w", name, err)
	}
	legend, err := output.LegendDataURI(vis)
	if err != nil {
		return fmt.Errorf("failed to create legend of layer %s: %w", name, err)
	}

	c.layers = append(c.layers, output.MapLayer{
		Name:        name,
		Kind:        string(layer.Kind),
		URL:         layer.URL,
		Bounds:      layer.Bounds,
		Attribution: layer.Attribution,
		Legend:      legend,
	})
	return nil
}

// AddLayers adds specs in order, optionally showing a progress bar.
func (c *Composer) AddLayers(ctx context.Context, specs []LayerSpec, progress bool) error {
	var bar *progressbar.ProgressBar
	if progress {
		bar = progressbar.Default(int64(len(specs)), "Rendering layers")
	}
	for _, spec := range specs {
		if err := c.AddLayer(ctx, spec.Image, spec.Vis, spec.Name); err != nil {
			return err
		}
		if bar != nil {
			bar.Add(1)
		}
	}
	return nil
}

func (c *Composer) Layers() []output.MapLayer {
	return append([]output.MapLayer(nil), c.layers...)
}

// Save writes the map as one HTML document.
func (c *Composer) Save(path string) error {
	return output.CreateMapHTML(output.MapDocument{
		Title:  c.title,
		Center: c.center,
		Zoom:   c.zoom,
		Layers: c.layers,
	}, path)
}
