package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
)

// MapLayer is one toggleable layer of the map. Kind is "tile", "overlay"
// or "empty".
type MapLayer struct {
	Name        string        `json:"name"`
	Kind        string        `json:"kind"`
	URL         string        `json:"url,omitempty"`
	Bounds      [2][2]float64 `json:"bounds"`
	Attribution string        `json:"attribution,omitempty"`
	Legend      string        `json:"legend,omitempty"`
}

type MapDocument struct {
	Title string
	// Center is [lat, lon].
	Center [2]float64
	Zoom   int
	Layers []MapLayer
}

var mapTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <title>{{.Title}}</title>
    <link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css" />
    <script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
    <style>
        html, body { width: 100%; height: 100%; margin: 0; padding: 0; }
        #map { position: absolute; top: 0; bottom: 0; right: 0; left: 0; }
        .legend { background: white; padding: 6px 8px; border-radius: 4px; box-shadow: 0 0 6px rgba(0,0,0,0.3); }
        .legend div { font: 12px sans-serif; margin-bottom: 4px; }
        .legend img { display: block; }
    </style>
</head>
<body>
    <div id="map"></div>
    <script>
        const map = L.map('map', { center: {{.Center}}, zoom: {{.Zoom}} });
        L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {
            attribution: '&copy; OpenStreetMap contributors',
            maxZoom: 19
        }).addTo(map);

        const layers = {{.LayersJSON}};
        const overlays = {};
        layers.forEach(function (layer) {
            let l;
            if (layer.kind === 'tile') {
                l = L.tileLayer(layer.url, { attribution: layer.attribution || '' });
            } else if (layer.kind === 'overlay') {
                l = L.imageOverlay(layer.url, layer.bounds, { attribution: layer.attribution || '' });
            } else {
                l = L.layerGroup();
            }
            l.addTo(map);
            overlays[layer.name] = l;
        });
        L.control.layers(null, overlays, { collapsed: false }).addTo(map);

        const legend = L.control({ position: 'bottomleft' });
        legend.onAdd = function () {
            const div = L.DomUtil.create('div', 'legend');
            layers.forEach(function (layer) {
                if (!layer.legend) { return; }
                const title = L.DomUtil.create('div', '', div);
                title.textContent = layer.name;
                const img = L.DomUtil.create('img', '', div);
                img.src = layer.legend;
            });
            return div;
        };
        legend.addTo(map);
    </script>
</body>
</html>
`))

// CreateMapHTML writes doc as a single self-contained HTML page. Layers
// are added in order, so the last one is drawn on top.
func CreateMapHTML(doc MapDocument, outputPath string) error {
	layersJSON, err := json.Marshal(doc.Layers)
	if err != nil {
		return fmt.Errorf("failed to marshal layers to JSON: %w", err)
	}
	if doc.Layers == nil {
		layersJSON = []byte("[]")
	}

	data := struct {
		Title      string
		Center     [2]float64
		Zoom       int
		LayersJSON template.JS
	}{
		Title:      doc.Title,
		Center:     doc.Center,
		Zoom:       doc.Zoom,
		LayersJSON: template.JS(layersJSON),
	}

	var buf bytes.Buffer
	if err := mapTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render map: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	tmp := outputPath + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write map: %w", err)
	}
	if err := os.Rename(tmp, outputPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename map file: %w", err)
	}
	return nil
}
