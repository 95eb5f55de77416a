package earthengine

import (
	"context"
	"fmt"

	"github.com/forest-guardian/park-indices-map/internal/engine"
	"github.com/forest-guardian/park-indices-map/internal/indices"
)

// Image is a lazy handle on a server-side image. Nothing is sent to the
// server until Visualize.
type Image struct {
	client *Client
	node   *node
	depth  int
	err    error
}

var _ engine.Image = (*Image)(nil)

func (img *Image) Err() error { return img.err }

// Graph returns the serialized expression of the image.
func (img *Image) Graph() Expression { return serialize(img.node) }

func (img *Image) derive(n *node) *Image {
	return &Image{client: img.client, node: n, depth: img.depth}
}

func (img *Image) fail(err error) *Image {
	return &Image{client: img.client, depth: img.depth, err: err}
}

func (img *Image) other(op string, o engine.Image) (*Image, error) {
	remote, ok := o.(*Image)
	if !ok {
		return nil, fmt.Errorf("%s: image %T does not belong to the Earth Engine client", op, o)
	}
	return remote, remote.err
}

func (img *Image) Select(names ...string) engine.Image {
	if img.err != nil || len(names) == 0 {
		return img
	}
	return img.derive(invoke("Image.select", map[string]*node{
		"input":         img.node,
		"bandSelectors": constant(names),
	}))
}

func (img *Image) Rename(names ...string) engine.Image {
	if img.err != nil {
		return img
	}
	return img.derive(invoke("Image.rename", map[string]*node{
		"input": img.node,
		"names": constant(names),
	}))
}

func (img *Image) AddBands(other engine.Image) engine.Image {
	if img.err != nil {
		return img
	}
	o, err := img.other("Image.addBands", other)
	if err != nil {
		return img.fail(err)
	}
	return img.derive(invoke("Image.addBands", map[string]*node{
		"dstImg": img.node,
		"srcImg": o.node,
	}))
}

func (img *Image) NormalizedDifference(a, b string) engine.Image {
	if img.err != nil {
		return img
	}
	return img.derive(invoke("Image.normalizedDifference", map[string]*node{
		"input":     img.node,
		"bandNames": constant([]string{a, b}),
	}))
}

var binaryAlgorithms = map[indices.Op]string{
	indices.OpAdd: "Image.add",
	indices.OpSub: "Image.subtract",
	indices.OpMul: "Image.multiply",
	indices.OpDiv: "Image.divide",
}

// Expression lowers e to image arithmetic. The result has one band named
// "expression".
func (img *Image) Expression(e indices.Expr, vars map[string]engine.Image) engine.Image {
	if img.err != nil {
		return img
	}
	n, err := img.lower(e, vars)
	if err != nil {
		return img.fail(fmt.Errorf("Image.expression: %w", err))
	}
	return img.derive(invoke("Image.rename", map[string]*node{
		"input": n,
		"names": constant([]string{"expression"}),
	}))
}

func (img *Image) lower(e indices.Expr, vars map[string]engine.Image) (*node, error) {
	switch t := e.(type) {
	case indices.Var:
		bound, ok := vars[string(t)]
		if !ok {
			return nil, fmt.Errorf("variable %q is not bound", string(t))
		}
		v, err := img.other("Image.expression", bound)
		if err != nil {
			return nil, err
		}
		return v.node, nil
	case indices.Const:
		return imageConstant(float64(t)), nil
	case indices.Binary:
		left, err := img.lower(t.Left, vars)
		if err != nil {
			return nil, err
		}
		right, err := img.lower(t.Right, vars)
		if err != nil {
			return nil, err
		}
		return invoke(binaryAlgorithms[t.Op], map[string]*node{"image1": left, "image2": right}), nil
	}
	return nil, fmt.Errorf("unsupported expression %T", e)
}

func imageConstant(v float64) *node {
	return invoke("Image.constant", map[string]*node{"value": constant(v)})
}

func (img *Image) scalar(algorithm string, v float64) engine.Image {
	if img.err != nil {
		return img
	}
	return img.derive(invoke(algorithm, map[string]*node{
		"image1": img.node,
		"image2": imageConstant(v),
	}))
}

func (img *Image) Add(value float64) engine.Image      { return img.scalar("Image.add", value) }
func (img *Image) Multiply(value float64) engine.Image { return img.scalar("Image.multiply", value) }
func (img *Image) Divide(value float64) engine.Image   { return img.scalar("Image.divide", value) }

func (img *Image) Clip(region engine.Region) engine.Image {
	if img.err != nil {
		return img
	}
	g, err := regionNode(region)
	if err != nil {
		return img.fail(fmt.Errorf("Image.clip: %w", err))
	}
	return img.derive(invoke("Image.clip", map[string]*node{
		"input":    img.node,
		"geometry": g,
	}))
}

// Visualize asks the server for a map id and returns its XYZ tile template.
func (img *Image) Visualize(ctx context.Context, vis engine.VisParams) (engine.Layer, error) {
	if img.err != nil {
		return engine.Layer{}, img.err
	}
	if err := vis.Validate(); err != nil {
		return engine.Layer{}, err
	}
	visualized := invoke("Image.visualize", map[string]*node{
		"image":   img.node,
		"min":     constant(vis.Min),
		"max":     constant(vis.Max),
		"palette": constant(vis.Palette),
	})
	url, err := img.client.tileURL(ctx, serialize(visualized))
	if err != nil {
		return engine.Layer{}, err
	}
	return engine.Layer{Kind: engine.TileLayer, URL: url, Attribution: Attribution}, nil
}
