package engine

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// VisParams is the static display configuration of a single-band product.
type VisParams struct {
	Min     float64
	Max     float64
	Palette []string
}

func (v VisParams) Validate() error {
	if v.Max <= v.Min {
		return fmt.Errorf("invalid visualization range: min %g is not below max %g", v.Min, v.Max)
	}
	if len(v.Palette) == 0 {
		return fmt.Errorf("visualization palette is empty")
	}
	return nil
}

// LayerKind says how the composer places a layer on the map.
type LayerKind string

const (
	// TileLayer is an XYZ tile url template served by the remote engine.
	TileLayer LayerKind = "tile"
	// OverlayLayer is a single rendered image stretched over Bounds.
	OverlayLayer LayerKind = "overlay"
	// EmptyLayer carries no pixels; it still shows up in the layer control.
	EmptyLayer LayerKind = "empty"
)

// Layer is the displayable result of Image.Visualize.
type Layer struct {
	Kind LayerKind
	// URL is a tile template for TileLayer and a data URI for OverlayLayer.
	URL string
	// Bounds is [[south, west], [north, east]] for OverlayLayer.
	Bounds      [2][2]float64
	Attribution string
}

// Colors parses the palette. Entries are hex triplets with or without a
// leading '#', or CSS color names.
func (v VisParams) Colors() ([]color.RGBA, error) {
	colors := make([]color.RGBA, 0, len(v.Palette))
	for _, entry := range v.Palette {
		c, err := parseColor(entry)
		if err != nil {
			return nil, err
		}
		colors = append(colors, c)
	}
	return colors, nil
}

func parseColor(entry string) (color.RGBA, error) {
	name := strings.ToLower(strings.TrimSpace(entry))
	if c, ok := colornames.Map[name]; ok {
		return c, nil
	}
	c, err := colorful.Hex("#" + strings.TrimPrefix(name, "#"))
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid palette color %q: %w", entry, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// ColorAt maps value onto the palette, stretched linearly between Min and
// Max and clamped outside. Palette colors are evenly spaced and blended in
// RGB like the Earth Engine renderer. NaN maps to transparent.
func ColorAt(palette []color.RGBA, min, max, value float64) color.RGBA {
	if math.IsNaN(value) || len(palette) == 0 {
		return color.RGBA{}
	}
	if len(palette) == 1 {
		return palette[0]
	}

	t := (value - min) / (max - min)
	t = math.Max(0, math.Min(1, t))
	pos := t * float64(len(palette)-1)
	i := int(math.Floor(pos))
	if i >= len(palette)-1 {
		return palette[len(palette)-1]
	}

	from, _ := colorful.MakeColor(palette[i])
	to, _ := colorful.MakeColor(palette[i+1])
	r, g, b := from.BlendRgb(to, pos-float64(i)).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
