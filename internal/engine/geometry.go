package engine

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Geometry is a client-side geometry in EPSG:4326 longitude/latitude. The
// zero value is the empty geometry, which contains and intersects nothing.
type Geometry struct {
	geom orb.Geometry
}

func Point(lon, lat float64) Geometry {
	return Geometry{geom: orb.Point{lon, lat}}
}

// Polygon builds a single-ring polygon from [lon, lat] vertices. The ring
// is closed if the last vertex differs from the first.
func Polygon(vertices [][2]float64) Geometry {
	ring := make(orb.Ring, 0, len(vertices)+1)
	for _, v := range vertices {
		ring = append(ring, orb.Point{v[0], v[1]})
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return Geometry{geom: orb.Polygon{ring}}
}

func FromOrb(g orb.Geometry) Geometry {
	return Geometry{geom: g}
}

// ParseGeoJSON accepts a GeoJSON geometry, feature or feature collection.
// Feature collections are unioned.
func ParseGeoJSON(data []byte) (Geometry, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Geometry{}, fmt.Errorf("failed to parse GeoJSON: %w", err)
	}

	switch probe.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return Geometry{}, fmt.Errorf("failed to parse GeoJSON feature collection: %w", err)
		}
		parts := make([]Geometry, 0, len(fc.Features))
		for _, f := range fc.Features {
			parts = append(parts, FromOrb(f.Geometry))
		}
		return Union(parts...), nil
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return Geometry{}, fmt.Errorf("failed to parse GeoJSON feature: %w", err)
		}
		return FromOrb(f.Geometry), nil
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return Geometry{}, fmt.Errorf("failed to parse GeoJSON geometry: %w", err)
		}
		return FromOrb(g.Coordinates), nil
	}
}

// Union merges geometries. Polygons and multipolygons merge into one
// multipolygon; anything else becomes a collection.
func Union(parts ...Geometry) Geometry {
	var polygons orb.MultiPolygon
	var collection orb.Collection
	onlyPolygons := true

	for _, p := range parts {
		if p.IsEmpty() {
			continue
		}
		collection = append(collection, p.geom)
		switch g := p.geom.(type) {
		case orb.Polygon:
			polygons = append(polygons, g)
		case orb.MultiPolygon:
			polygons = append(polygons, g...)
		default:
			onlyPolygons = false
		}
	}

	switch {
	case len(collection) == 0:
		return Geometry{}
	case len(collection) == 1:
		return Geometry{geom: collection[0]}
	case onlyPolygons:
		return Geometry{geom: polygons}
	}
	return Geometry{geom: collection}
}

func (g Geometry) Orb() orb.Geometry { return g.geom }

func (g Geometry) IsEmpty() bool {
	if g.geom == nil {
		return true
	}
	switch t := g.geom.(type) {
	case orb.Polygon:
		return len(t) == 0 || len(t[0]) == 0
	case orb.MultiPolygon:
		return len(t) == 0
	case orb.Collection:
		return len(t) == 0
	}
	return false
}

func (g Geometry) Bound() orb.Bound {
	if g.IsEmpty() {
		return orb.Bound{}
	}
	return g.geom.Bound()
}

// Contains reports whether p lies inside an areal geometry or coincides
// with a point geometry.
func (g Geometry) Contains(p orb.Point) bool {
	if g.IsEmpty() {
		return false
	}
	return contains(g.geom, p)
}

func contains(geom orb.Geometry, p orb.Point) bool {
	switch t := geom.(type) {
	case orb.Point:
		return t.Equal(p)
	case orb.Polygon:
		return planar.PolygonContains(t, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(t, p)
	case orb.Bound:
		return t.Contains(p)
	case orb.Collection:
		for _, part := range t {
			if contains(part, p) {
				return true
			}
		}
	}
	return false
}

// Intersects is a bounding-box test against b; points must fall inside b.
func (g Geometry) Intersects(b orb.Bound) bool {
	if g.IsEmpty() {
		return false
	}
	if p, ok := g.geom.(orb.Point); ok {
		return b.Contains(p)
	}
	return g.geom.Bound().Intersects(b)
}

// GeoJSON encodes the geometry as a GeoJSON geometry object. The empty
// geometry encodes as an empty GeometryCollection.
func (g Geometry) GeoJSON() ([]byte, error) {
	if g.IsEmpty() {
		return []byte(`{"type":"GeometryCollection","geometries":[]}`), nil
	}
	return geojson.NewGeometry(g.geom).MarshalJSON()
}

func (g Geometry) String() string {
	if g.IsEmpty() {
		return "GEOMETRYCOLLECTION EMPTY"
	}
	return wkt.MarshalString(g.geom)
}
