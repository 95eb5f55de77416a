package local

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/forest-guardian/park-indices-map/internal/engine"
	"github.com/forest-guardian/park-indices-map/internal/indices"
	"github.com/paulmach/orb"
)

// GeoTransform follows the GDAL convention: pixel (x, y) maps to
// lon = t[0] + x*t[1] + y*t[2], lat = t[3] + x*t[4] + y*t[5].
type GeoTransform [6]float64

// PixelCenter returns the longitude/latitude of the centre of pixel (x, y).
func (t GeoTransform) PixelCenter(x, y int) orb.Point {
	fx, fy := float64(x)+0.5, float64(y)+0.5
	return orb.Point{
		t[0] + fx*t[1] + fy*t[2],
		t[3] + fx*t[4] + fy*t[5],
	}
}

func (t GeoTransform) corner(x, y int) orb.Point {
	fx, fy := float64(x), float64(y)
	return orb.Point{t[0] + fx*t[1] + fy*t[2], t[3] + fx*t[4] + fy*t[5]}
}

// Band is one raster layer. NaN marks masked (no-data) pixels.
type Band struct {
	Name string
	Data []float64
}

// Metadata describes the grid and properties shared by all bands of an
// image.
type Metadata struct {
	ID         string
	Time       time.Time
	Width      int
	Height     int
	Transform  GeoTransform
	Properties map[string]float64
}

// Image is an immutable multi-band raster. Every operation returns a new
// Image; a failed operation yields an image carrying the error, which is
// reported by Visualize or by the collection that holds it.
type Image struct {
	meta  Metadata
	bands []Band
	err   error
}

var _ engine.Image = (*Image)(nil)

// NewImage validates that every band covers the Width x Height grid.
func NewImage(meta Metadata, bands ...Band) (*Image, error) {
	size := meta.Width * meta.Height
	seen := map[string]bool{}
	for _, b := range bands {
		if len(b.Data) != size {
			return nil, &engine.GridMismatchError{Op: "NewImage " + b.Name, Width: meta.Width, Height: meta.Height, OtherWidth: len(b.Data), OtherHeight: 1}
		}
		if seen[b.Name] {
			return nil, fmt.Errorf("duplicate band name %q", b.Name)
		}
		seen[b.Name] = true
	}

	props := make(map[string]float64, len(meta.Properties)+1)
	for k, v := range meta.Properties {
		props[k] = v
	}
	if !meta.Time.IsZero() {
		props[engine.TimeStartProperty] = float64(meta.Time.UnixMilli())
	}
	meta.Properties = props

	return &Image{meta: meta, bands: bands}, nil
}

// prototype is a zero-size image with the given band names. Mapping a
// function over it derives the band schema of an empty collection.
func prototype(schema []string) *Image {
	bands := make([]Band, len(schema))
	for i, name := range schema {
		bands[i] = Band{Name: name}
	}
	return &Image{bands: bands}
}

func failed(err error) *Image { return &Image{err: err} }

func (img *Image) Err() error  { return img.err }
func (img *Image) Width() int  { return img.meta.Width }
func (img *Image) Height() int { return img.meta.Height }

func (img *Image) Property(name string) (float64, bool) {
	v, ok := img.meta.Properties[name]
	return v, ok
}

// Time returns the acquisition time, zero when unknown.
func (img *Image) Time() time.Time {
	ms, ok := img.meta.Properties[engine.TimeStartProperty]
	if !ok {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms)).UTC()
}

func (img *Image) BandNames() []string {
	names := make([]string, len(img.bands))
	for i, b := range img.bands {
		names[i] = b.Name
	}
	return names
}

// Band returns the pixels of the named band.
func (img *Image) Band(name string) ([]float64, error) {
	if img.err != nil {
		return nil, img.err
	}
	for _, b := range img.bands {
		if b.Name == name {
			return b.Data, nil
		}
	}
	return nil, &engine.MissingBandError{Band: name, Available: img.BandNames()}
}

// Footprint is the bounding box covered by the pixel grid.
func (img *Image) Footprint() orb.Bound {
	w, h := img.meta.Width, img.meta.Height
	t := img.meta.Transform
	b := orb.Bound{Min: t.corner(0, 0), Max: t.corner(0, 0)}
	for _, p := range []orb.Point{t.corner(w, 0), t.corner(0, h), t.corner(w, h)} {
		b = b.Extend(p)
	}
	return b
}

func (img *Image) size() int { return img.meta.Width * img.meta.Height }

func (img *Image) derive(bands []Band) *Image {
	return &Image{meta: img.meta, bands: bands}
}

// mapBands applies fn to every pixel of every band.
func (img *Image) mapBands(fn func(float64) float64) *Image {
	bands := make([]Band, len(img.bands))
	for i, b := range img.bands {
		data := make([]float64, len(b.Data))
		for p, v := range b.Data {
			data[p] = fn(v)
		}
		bands[i] = Band{Name: b.Name, Data: data}
	}
	return img.derive(bands)
}

func asLocal(op string, other engine.Image) (*Image, error) {
	o, ok := other.(*Image)
	if !ok {
		return nil, fmt.Errorf("%s: image %T does not belong to the local engine", op, other)
	}
	return o, o.err
}

func (img *Image) sameGrid(op string, other *Image) error {
	if img.meta.Width != other.meta.Width || img.meta.Height != other.meta.Height {
		return &engine.GridMismatchError{
			Op:    op,
			Width: img.meta.Width, Height: img.meta.Height,
			OtherWidth: other.meta.Width, OtherHeight: other.meta.Height,
		}
	}
	return nil
}

func (img *Image) Select(names ...string) engine.Image {
	if img.err != nil || len(names) == 0 {
		return img
	}
	bands := make([]Band, 0, len(names))
	for _, name := range names {
		data, err := img.Band(name)
		if err != nil {
			return failed(fmt.Errorf("Image.select: %w", err))
		}
		bands = append(bands, Band{Name: name, Data: data})
	}
	return img.derive(bands)
}

func (img *Image) Rename(names ...string) engine.Image {
	if img.err != nil {
		return img
	}
	if len(names) != len(img.bands) {
		return failed(fmt.Errorf("Image.rename: got %d names for %d bands", len(names), len(img.bands)))
	}
	bands := make([]Band, len(names))
	for i, b := range img.bands {
		bands[i] = Band{Name: names[i], Data: b.Data}
	}
	return img.derive(bands)
}

func (img *Image) AddBands(other engine.Image) engine.Image {
	if img.err != nil {
		return img
	}
	o, err := asLocal("Image.addBands", other)
	if err != nil {
		return failed(err)
	}
	if err := img.sameGrid("Image.addBands", o); err != nil {
		return failed(err)
	}

	bands := append(append([]Band{}, img.bands...), o.bands...)
	seen := map[string]bool{}
	for _, b := range bands {
		if seen[b.Name] {
			return failed(fmt.Errorf("Image.addBands: band %q already exists", b.Name))
		}
		seen[b.Name] = true
	}
	return img.derive(bands)
}

// NormalizedDifference computes (a-b)/(a+b) into a band named "nd". A
// negative value in either band masks the pixel.
func (img *Image) NormalizedDifference(a, b string) engine.Image {
	if img.err != nil {
		return img
	}
	x, err := img.Band(a)
	if err != nil {
		return failed(fmt.Errorf("Image.normalizedDifference: %w", err))
	}
	y, err := img.Band(b)
	if err != nil {
		return failed(fmt.Errorf("Image.normalizedDifference: %w", err))
	}

	nd := make([]float64, len(x))
	for p := range nd {
		if x[p] < 0 || y[p] < 0 {
			nd[p] = math.NaN()
			continue
		}
		nd[p] = indices.NormDiff(x[p], y[p])
	}
	return img.derive([]Band{{Name: "nd", Data: nd}})
}

// Expression evaluates e pixel by pixel into a band named "expression".
// Each variable must be bound to a single-band image on the same grid.
func (img *Image) Expression(e indices.Expr, vars map[string]engine.Image) engine.Image {
	if img.err != nil {
		return img
	}

	names := indices.Vars(e)
	data := make(map[string][]float64, len(names))
	for _, name := range names {
		bound, ok := vars[name]
		if !ok {
			return failed(fmt.Errorf("Image.expression: variable %q is not bound", name))
		}
		v, err := asLocal("Image.expression", bound)
		if err != nil {
			return failed(err)
		}
		if err := img.sameGrid("Image.expression", v); err != nil {
			return failed(err)
		}
		if len(v.bands) != 1 {
			return failed(fmt.Errorf("Image.expression: variable %q must have one band, has %d", name, len(v.bands)))
		}
		data[name] = v.bands[0].Data
	}

	out := make([]float64, img.size())
	pixel := make(map[string]float64, len(names))
	for p := range out {
		for name, values := range data {
			pixel[name] = values[p]
		}
		out[p] = e.Eval(pixel)
	}
	return img.derive([]Band{{Name: "expression", Data: out}})
}

func (img *Image) Add(value float64) engine.Image {
	if img.err != nil {
		return img
	}
	return img.mapBands(func(v float64) float64 { return v + value })
}

func (img *Image) Multiply(value float64) engine.Image {
	if img.err != nil {
		return img
	}
	return img.mapBands(func(v float64) float64 { return v * value })
}

func (img *Image) Divide(value float64) engine.Image {
	if img.err != nil {
		return img
	}
	return img.mapBands(func(v float64) float64 { return indices.Apply(indices.OpDiv, v, value) })
}

// Clip masks every pixel whose centre lies outside region. Clipping to the
// empty geometry masks the whole image.
func (img *Image) Clip(region engine.Region) engine.Image {
	if img.err != nil {
		return img
	}
	g, err := asGeometry(region)
	if err != nil {
		return failed(fmt.Errorf("Image.clip: %w", err))
	}

	inside := make([]bool, img.size())
	for y := 0; y < img.meta.Height; y++ {
		for x := 0; x < img.meta.Width; x++ {
			inside[y*img.meta.Width+x] = g.Contains(img.meta.Transform.PixelCenter(x, y))
		}
	}

	bands := make([]Band, len(img.bands))
	for i, b := range img.bands {
		data := make([]float64, len(b.Data))
		for p, v := range b.Data {
			if inside[p] {
				data[p] = v
			} else {
				data[p] = math.NaN()
			}
		}
		bands[i] = Band{Name: b.Name, Data: data}
	}
	return img.derive(bands)
}

func (img *Image) Visualize(ctx context.Context, vis engine.VisParams) (engine.Layer, error) {
	if img.err != nil {
		return engine.Layer{}, img.err
	}
	if err := ctx.Err(); err != nil {
		return engine.Layer{}, err
	}
	return render(img, vis)
}
