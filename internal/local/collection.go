package local

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/forest-guardian/park-indices-map/internal/engine"
)

// Collection is an ordered list of images sharing a band schema. The
// schema survives filtering so that an empty collection still knows which
// bands its images would have had.
type Collection struct {
	images []*Image
	schema []string
	err    error
}

var _ engine.Collection = (*Collection)(nil)

func (c *Collection) Images() []*Image { return c.images }

func (c *Collection) Err() error { return c.err }

func (c *Collection) Schema() []string { return c.schema }

func (c *Collection) filter(keep func(*Image) bool) engine.Collection {
	if c.err != nil {
		return c
	}
	out := make([]*Image, 0, len(c.images))
	for _, img := range c.images {
		if keep(img) {
			out = append(out, img)
		}
	}
	return &Collection{images: out, schema: c.schema}
}

func (c *Collection) FilterDate(start, end time.Time) engine.Collection {
	return c.filter(func(img *Image) bool {
		t := img.Time()
		if t.IsZero() {
			return false
		}
		return !t.Before(start) && t.Before(end)
	})
}

func (c *Collection) FilterBounds(region engine.Region) engine.Collection {
	if c.err != nil {
		return c
	}
	g, err := asGeometry(region)
	if err != nil {
		return &Collection{schema: c.schema, err: fmt.Errorf("Collection.filterBounds: %w", err)}
	}
	return c.filter(func(img *Image) bool {
		return g.Intersects(img.Footprint())
	})
}

// FilterMetadata drops images that lack the property.
func (c *Collection) FilterMetadata(name string, op engine.Operator, value float64) engine.Collection {
	var cmp func(float64) bool
	switch op {
	case engine.Equals:
		cmp = func(v float64) bool { return v == value }
	case engine.NotEquals:
		cmp = func(v float64) bool { return v != value }
	case engine.LessThan:
		cmp = func(v float64) bool { return v < value }
	case engine.GreaterThan:
		cmp = func(v float64) bool { return v > value }
	default:
		return &Collection{schema: c.schema, err: fmt.Errorf("Collection.filter: unknown operator %q", op)}
	}
	return c.filter(func(img *Image) bool {
		v, ok := img.Property(name)
		return ok && cmp(v)
	})
}

func (c *Collection) Select(bands ...string) engine.Collection {
	if c.err != nil || len(bands) == 0 {
		return c
	}
	selected := c.Map(func(img engine.Image) engine.Image { return img.Select(bands...) }).(*Collection)
	if selected.err == nil {
		selected.schema = append([]string(nil), bands...)
	}
	return selected
}

// Map applies fn to every image. On an empty collection fn is applied to a
// zero-size prototype to derive the resulting band schema.
func (c *Collection) Map(fn func(engine.Image) engine.Image) engine.Collection {
	if c.err != nil {
		return c
	}

	if len(c.images) == 0 {
		out := &Collection{images: []*Image{}}
		if proto, ok := fn(prototype(c.schema)).(*Image); ok && proto.err == nil {
			out.schema = proto.BandNames()
		}
		return out
	}

	out := make([]*Image, len(c.images))
	for i, img := range c.images {
		mapped, ok := fn(img).(*Image)
		if !ok {
			return &Collection{err: fmt.Errorf("Collection.map: function returned an image of another engine")}
		}
		if mapped.err != nil {
			return &Collection{err: mapped.err}
		}
		out[i] = mapped
	}
	return &Collection{images: out, schema: out[0].BandNames()}
}

// Mean is the pixelwise mean over all images, ignoring NaN. Pixels that are
// masked in every image stay masked. The mean of an empty collection is a
// zero-size image carrying the collection schema.
func (c *Collection) Mean() engine.Image {
	if c.err != nil {
		return failed(c.err)
	}
	if len(c.images) == 0 {
		return prototype(c.schema)
	}

	first := c.images[0]
	for _, img := range c.images[1:] {
		if err := first.sameGrid("reduce.mean", img); err != nil {
			return failed(err)
		}
	}

	bands := make([]Band, 0, len(first.bands))
	for _, b := range first.bands {
		sum := make([]float64, len(b.Data))
		count := make([]int, len(b.Data))
		for _, img := range c.images {
			data, err := img.Band(b.Name)
			if err != nil {
				return failed(fmt.Errorf("reduce.mean: %w", err))
			}
			for p, v := range data {
				if math.IsNaN(v) {
					continue
				}
				sum[p] += v
				count[p]++
			}
		}
		for p := range sum {
			if count[p] == 0 {
				sum[p] = math.NaN()
			} else {
				sum[p] /= float64(count[p])
			}
		}
		bands = append(bands, Band{Name: b.Name, Data: sum})
	}

	meta := Metadata{
		Width:      first.meta.Width,
		Height:     first.meta.Height,
		Transform:  first.meta.Transform,
		Properties: map[string]float64{},
	}
	return &Image{meta: meta, bands: bands}
}

func (c *Collection) Size(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if c.err != nil {
		return 0, c.err
	}
	return len(c.images), nil
}
