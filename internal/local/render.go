package local

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/forest-guardian/park-indices-map/internal/engine"
)

// render paints a single-band image with the palette and returns it as a
// PNG data URI overlay. North-up grids are assumed.
func render(img *Image, vis engine.VisParams) (engine.Layer, error) {
	if err := vis.Validate(); err != nil {
		return engine.Layer{}, err
	}
	palette, err := vis.Colors()
	if err != nil {
		return engine.Layer{}, err
	}
	if len(img.bands) != 1 {
		return engine.Layer{}, fmt.Errorf("Image.visualize: expected one band, got %d %v", len(img.bands), img.BandNames())
	}
	if img.size() == 0 {
		return engine.Layer{Kind: engine.EmptyLayer}, nil
	}

	w, h := img.meta.Width, img.meta.Height
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	data := img.bands[0].Data
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			canvas.SetRGBA(x, y, engine.ColorAt(palette, vis.Min, vis.Max, data[y*w+x]))
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return engine.Layer{}, fmt.Errorf("failed to encode overlay: %w", err)
	}

	fp := img.Footprint()
	return engine.Layer{
		Kind:   engine.OverlayLayer,
		URL:    "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Bounds: [2][2]float64{{fp.Min[1], fp.Min[0]}, {fp.Max[1], fp.Max[0]}},
	}, nil
}
