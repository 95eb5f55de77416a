package earthengine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/forest-guardian/park-indices-map/internal/engine"
)

// Collection is a lazy handle on a server-side image collection.
type Collection struct {
	client *Client
	node   *node
	depth  int
	err    error
}

var _ engine.Collection = (*Collection)(nil)

func (c *Collection) Err() error { return c.err }

func (c *Collection) Graph() Expression { return serialize(c.node) }

func (c *Collection) derive(n *node) *Collection {
	return &Collection{client: c.client, node: n, depth: c.depth}
}

func (c *Collection) filter(f *node) engine.Collection {
	if c.err != nil {
		return c
	}
	return c.derive(invoke("Collection.filter", map[string]*node{
		"collection": c.node,
		"filter":     f,
	}))
}

func date(t time.Time) *node {
	return invoke("Date", map[string]*node{"value": constant(t.UnixMilli())})
}

func (c *Collection) FilterDate(start, end time.Time) engine.Collection {
	return c.filter(invoke("Filter.dateRangeContains", map[string]*node{
		"leftValue":  invoke("DateRange", map[string]*node{"start": date(start), "end": date(end)}),
		"rightField": constant(engine.TimeStartProperty),
	}))
}

func (c *Collection) FilterBounds(region engine.Region) engine.Collection {
	if c.err != nil {
		return c
	}
	g, err := regionNode(region)
	if err != nil {
		return &Collection{client: c.client, err: fmt.Errorf("Collection.filterBounds: %w", err)}
	}
	return c.filter(invoke("Filter.intersects", map[string]*node{
		"leftField":  constant(".all"),
		"rightValue": g,
	}))
}

func (c *Collection) FilterMetadata(name string, op engine.Operator, value float64) engine.Collection {
	f, err := metadataFilter(name, op, constant(value))
	if err != nil {
		return &Collection{client: c.client, err: err}
	}
	return c.filter(f)
}

func metadataFilter(name string, op engine.Operator, value *node) (*node, error) {
	args := map[string]*node{"leftField": constant(name), "rightValue": value}
	switch op {
	case engine.Equals:
		return invoke("Filter.equals", args), nil
	case engine.NotEquals:
		return invoke("Filter.not", map[string]*node{"filter": invoke("Filter.equals", args)}), nil
	case engine.LessThan:
		return invoke("Filter.lessThan", args), nil
	case engine.GreaterThan:
		return invoke("Filter.greaterThan", args), nil
	}
	return nil, fmt.Errorf("Collection.filter: unknown operator %q", op)
}

func (c *Collection) Select(bands ...string) engine.Collection {
	if c.err != nil || len(bands) == 0 {
		return c
	}
	return c.Map(func(img engine.Image) engine.Image { return img.Select(bands...) })
}

// Map traces fn once against a placeholder image and sends the traced body
// as a function definition.
func (c *Collection) Map(fn func(engine.Image) engine.Image) engine.Collection {
	if c.err != nil {
		return c
	}
	name := fmt.Sprintf("_MAPPING_VAR_%d_0", c.depth)
	placeholder := &Image{client: c.client, node: argument(name), depth: c.depth + 1}

	body, ok := fn(placeholder).(*Image)
	if !ok {
		return &Collection{client: c.client, err: fmt.Errorf("Collection.map: function returned an image of another engine")}
	}
	if body.err != nil {
		return &Collection{client: c.client, err: body.err}
	}
	return c.derive(invoke("Collection.map", map[string]*node{
		"collection":    c.node,
		"baseAlgorithm": function([]string{name}, body.node),
	}))
}

func (c *Collection) Mean() engine.Image {
	if c.err != nil {
		return &Image{client: c.client, err: c.err}
	}
	return &Image{client: c.client, node: invoke("reduce.mean", map[string]*node{"collection": c.node}), depth: c.depth}
}

// Size is computed on the server.
func (c *Collection) Size(ctx context.Context) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	var n float64
	if err := c.client.compute(ctx, serialize(invoke("Collection.size", map[string]*node{"collection": c.node})), &n); err != nil {
		return 0, err
	}
	return int(math.Round(n)), nil
}

// FeatureCollection is a lazy handle on a server-side table.
type FeatureCollection struct {
	client *Client
	node   *node
}

var _ engine.FeatureCollection = (*FeatureCollection)(nil)

func (fc *FeatureCollection) FilterEquals(property string, value string) engine.FeatureCollection {
	return &FeatureCollection{client: fc.client, node: invoke("Collection.filter", map[string]*node{
		"collection": fc.node,
		"filter": invoke("Filter.equals", map[string]*node{
			"leftField":  constant(property),
			"rightValue": constant(value),
		}),
	})}
}

func (fc *FeatureCollection) Geometry() engine.Region {
	return &Region{node: invoke("Collection.geometry", map[string]*node{"collection": fc.node})}
}
