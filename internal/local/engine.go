// Package local is an in-memory raster engine. It evaluates every
// operation eagerly over float64 bands, using NaN for masked pixels, and
// renders visualized images as PNG overlays.
package local

import (
	"fmt"
	"sort"
	"sync"

	"github.com/forest-guardian/park-indices-map/internal/engine"
	"github.com/paulmach/orb/geojson"
)

type Engine struct {
	mu          sync.RWMutex
	collections map[string]*Collection
	features    map[string][]*geojson.Feature
}

var _ engine.Engine = (*Engine)(nil)

func New() *Engine {
	return &Engine{
		collections: map[string]*Collection{},
		features:    map[string][]*geojson.Feature{},
	}
}

// DeclareCollection registers an image collection with its band schema.
// Declaring an existing collection replaces its schema only.
func (e *Engine) DeclareCollection(id string, bands []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if col, ok := e.collections[id]; ok {
		col.schema = append([]string(nil), bands...)
		return
	}
	e.collections[id] = &Collection{images: []*Image{}, schema: append([]string(nil), bands...)}
}

// AddImages appends images to a collection, keeping it sorted by
// acquisition time. Images with errors are rejected.
func (e *Engine) AddImages(id string, images ...*Image) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	col, ok := e.collections[id]
	if !ok {
		col = &Collection{images: []*Image{}}
		e.collections[id] = col
	}
	for _, img := range images {
		if img.err != nil {
			return fmt.Errorf("failed to add image %s to %s: %w", img.meta.ID, id, img.err)
		}
		if col.schema == nil {
			col.schema = img.BandNames()
		}
	}

	col.images = append(col.images, images...)
	sort.SliceStable(col.images, func(i, j int) bool {
		return col.images[i].Time().Before(col.images[j].Time())
	})
	return nil
}

// AddFeatures appends features to a feature collection.
func (e *Engine) AddFeatures(id string, features ...*geojson.Feature) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.features[id] = append(e.features[id], features...)
}

func (e *Engine) ImageCollection(id string) engine.Collection {
	e.mu.RLock()
	defer e.mu.RUnlock()

	col, ok := e.collections[id]
	if !ok {
		return &Collection{err: &engine.UnknownCatalogError{ID: id}}
	}
	return &Collection{
		images: append([]*Image(nil), col.images...),
		schema: append([]string(nil), col.schema...),
	}
}

func (e *Engine) FeatureCollection(id string) engine.FeatureCollection {
	e.mu.RLock()
	defer e.mu.RUnlock()

	features, ok := e.features[id]
	if !ok {
		return &FeatureCollection{err: &engine.UnknownCatalogError{ID: id}}
	}
	return &FeatureCollection{features: append([]*geojson.Feature(nil), features...)}
}

// FeatureCollection is a list of GeoJSON features with string properties.
type FeatureCollection struct {
	features []*geojson.Feature
	err      error
}

var _ engine.FeatureCollection = (*FeatureCollection)(nil)

// FilterEquals keeps features whose property is exactly value.
func (fc *FeatureCollection) FilterEquals(property string, value string) engine.FeatureCollection {
	if fc.err != nil {
		return fc
	}
	out := make([]*geojson.Feature, 0, len(fc.features))
	for _, f := range fc.features {
		if v, ok := f.Properties[property].(string); ok && v == value {
			out = append(out, f)
		}
	}
	return &FeatureCollection{features: out}
}

func (fc *FeatureCollection) Geometry() engine.Region {
	if fc.err != nil {
		return failedRegion{err: fc.err}
	}
	parts := make([]engine.Geometry, 0, len(fc.features))
	for _, f := range fc.features {
		parts = append(parts, engine.FromOrb(f.Geometry))
	}
	return engine.Union(parts...)
}

// failedRegion carries a feature collection error to the operation that
// consumes the region.
type failedRegion struct {
	err error
}

func (r failedRegion) String() string { return "invalid region: " + r.err.Error() }

func asGeometry(region engine.Region) (engine.Geometry, error) {
	switch r := region.(type) {
	case engine.Geometry:
		return r, nil
	case *engine.Geometry:
		return *r, nil
	case failedRegion:
		return engine.Geometry{}, r.err
	case nil:
		return engine.Geometry{}, fmt.Errorf("region is nil")
	}
	return engine.Geometry{}, fmt.Errorf("region %T does not belong to the local engine", region)
}
