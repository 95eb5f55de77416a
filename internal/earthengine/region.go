package earthengine

import (
	"encoding/json"
	"fmt"

	"github.com/forest-guardian/park-indices-map/internal/engine"
	"github.com/paulmach/orb"
)

// Region is a server-side geometry, such as the union of a filtered table.
type Region struct {
	node *node
}

var _ engine.Region = (*Region)(nil)

func (r *Region) String() string {
	raw, _ := json.Marshal(serialize(r.node))
	return string(raw)
}

func regionNode(region engine.Region) (*node, error) {
	switch r := region.(type) {
	case *Region:
		return r.node, nil
	case engine.Geometry:
		return geometryNode(r.Orb())
	case *engine.Geometry:
		return geometryNode(r.Orb())
	case nil:
		return nil, fmt.Errorf("region is nil")
	}
	return nil, fmt.Errorf("region %T is not supported by the Earth Engine client", region)
}

func geometryNode(g orb.Geometry) (*node, error) {
	coords := func(c interface{}) map[string]*node {
		return map[string]*node{"coordinates": constant(c)}
	}

	switch t := g.(type) {
	case nil:
		return invoke("GeometryConstructors.MultiPolygon", coords([][][][2]float64{})), nil
	case orb.Point:
		return invoke("GeometryConstructors.Point", coords([2]float64(t))), nil
	case orb.Polygon:
		return invoke("GeometryConstructors.Polygon", coords(polygonCoords(t))), nil
	case orb.MultiPolygon:
		polygons := make([][][][2]float64, len(t))
		for i, p := range t {
			polygons[i] = polygonCoords(p)
		}
		return invoke("GeometryConstructors.MultiPolygon", coords(polygons)), nil
	case orb.Bound:
		return geometryNode(t.ToPolygon())
	case orb.Collection:
		parts := make([]*node, 0, len(t))
		for _, part := range t {
			n, err := geometryNode(part)
			if err != nil {
				return nil, err
			}
			parts = append(parts, n)
		}
		return invoke("GeometryConstructors.MultiGeometry", map[string]*node{"geometries": array(parts...)}), nil
	}
	return nil, fmt.Errorf("unsupported geometry type %s", g.GeoJSONType())
}

func polygonCoords(p orb.Polygon) [][][2]float64 {
	rings := make([][][2]float64, len(p))
	for i, ring := range p {
		rings[i] = make([][2]float64, len(ring))
		for j, pt := range ring {
			rings[i][j] = [2]float64(pt)
		}
	}
	return rings
}
