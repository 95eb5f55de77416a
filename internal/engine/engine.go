// Package engine defines the raster engine surface the pipeline is written
// against. Two engines implement it: the remote Earth Engine client, which
// builds a lazy expression graph, and the local in-memory engine, which
// evaluates eagerly. Errors are reported by terminal operations (Size,
// Visualize) rather than by every chained call.
package engine

import (
	"context"
	"time"

	"github.com/forest-guardian/park-indices-map/internal/indices"
)

// Operator is a metadata comparison used by Collection.FilterMetadata.
type Operator string

const (
	Equals      Operator = "equals"
	NotEquals   Operator = "not_equals"
	LessThan    Operator = "less_than"
	GreaterThan Operator = "greater_than"
)

// TimeStartProperty holds the acquisition time of an image in
// milliseconds since the Unix epoch.
const TimeStartProperty = "system:time_start"

type Engine interface {
	ImageCollection(id string) Collection
	FeatureCollection(id string) FeatureCollection
}

type Collection interface {
	// FilterDate keeps images acquired in [start, end).
	FilterDate(start, end time.Time) Collection
	FilterBounds(region Region) Collection
	FilterMetadata(name string, op Operator, value float64) Collection
	Select(bands ...string) Collection
	// Map applies fn to every image, preserving order and cardinality.
	Map(fn func(Image) Image) Collection
	// Mean reduces the collection to its pixelwise mean, ignoring masked
	// pixels.
	Mean() Image
	Size(ctx context.Context) (int, error)
}

type Image interface {
	Select(bands ...string) Image
	Rename(names ...string) Image
	AddBands(other Image) Image
	NormalizedDifference(a, b string) Image
	// Expression evaluates e with every variable bound to a single-band
	// image of vars.
	Expression(e indices.Expr, vars map[string]Image) Image
	Add(value float64) Image
	Multiply(value float64) Image
	Divide(value float64) Image
	// Clip masks every pixel outside region.
	Clip(region Region) Image
	// Visualize renders the image with vis and returns a displayable
	// source for the map composer.
	Visualize(ctx context.Context, vis VisParams) (Layer, error)
}

type FeatureCollection interface {
	FilterEquals(property string, value string) FeatureCollection
	// Geometry is the union of the remaining features. It is empty when
	// no feature is left.
	Geometry() Region
}

// Region is a geometry that an engine can filter or clip against. Geometry
// is the client-side implementation; engines may return their own.
type Region interface {
	String() string
}
