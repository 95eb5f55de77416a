package output

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/fogleman/gg"
	"github.com/forest-guardian/park-indices-map/internal/engine"
)

const (
	legendWidth     = 220
	legendBarHeight = 14
	legendHeight    = 34
	legendPadding   = 10
)

// CreateLegendImage draws the palette of vis as a horizontal colour bar
// labelled with its min and max, encoded as PNG.
func CreateLegendImage(vis engine.VisParams) ([]byte, error) {
	if err := vis.Validate(); err != nil {
		return nil, err
	}
	palette, err := vis.Colors()
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(legendWidth, legendHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	barWidth := legendWidth - 2*legendPadding
	for x := 0; x < barWidth; x++ {
		value := vis.Min + (vis.Max-vis.Min)*float64(x)/float64(barWidth-1)
		dc.SetColor(engine.ColorAt(palette, vis.Min, vis.Max, value))
		dc.DrawRectangle(float64(legendPadding+x), 2, 1, legendBarHeight)
		dc.Fill()
	}

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawRectangle(legendPadding, 2, float64(barWidth), legendBarHeight)
	dc.Stroke()

	labelY := float64(legendBarHeight + 10)
	dc.DrawStringAnchored(formatLabel(vis.Min), legendPadding, labelY, 0, 0.5)
	dc.DrawStringAnchored(formatLabel(vis.Max), float64(legendPadding+barWidth), labelY, 1, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode legend: %w", err)
	}
	return buf.Bytes(), nil
}

// LegendDataURI is CreateLegendImage as an inline image URL.
func LegendDataURI(vis engine.VisParams) (string, error) {
	png, err := CreateLegendImage(vis)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

func formatLabel(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}
