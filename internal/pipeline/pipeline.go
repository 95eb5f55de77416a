// Package pipeline loads the catalogs, filters clouds, computes the
// vegetation indices and clips everything to the country and the park.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/forest-guardian/park-indices-map/internal/catalog"
	"github.com/forest-guardian/park-indices-map/internal/composer"
	"github.com/forest-guardian/park-indices-map/internal/engine"
	"github.com/forest-guardian/park-indices-map/internal/sentinel"
	"github.com/forest-guardian/park-indices-map/output"
)

// DefaultCloudThreshold keeps every scene.
const DefaultCloudThreshold = 100.0

const dateLayout = "2006-01-02"

// DateRange is [Start, End).
type DateRange struct {
	Start time.Time
	End   time.Time
}

func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid start date: %w", err)
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid end date: %w", err)
	}
	if e.Before(s) {
		return DateRange{}, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return DateRange{Start: s, End: e}, nil
}

func (r DateRange) String() string {
	return r.Start.Format(dateLayout) + "/" + r.End.Format(dateLayout)
}

// LoadCatalog selects bands of the images of id acquired in r that
// intersect location. The id is not checked here; an unknown catalog fails
// at the first terminal operation.
func LoadCatalog(eng engine.Engine, id string, r DateRange, location engine.Region, bands []string) engine.Collection {
	return eng.ImageCollection(id).
		FilterDate(r.Start, r.End).
		FilterBounds(location).
		Select(bands...)
}

// CloudFilter keeps images whose field is strictly below threshold. A
// threshold of 100 or more returns col unchanged.
func CloudFilter(col engine.Collection, field string, threshold float64) engine.Collection {
	if threshold >= DefaultCloudThreshold {
		return col
	}
	return col.FilterMetadata(field, engine.LessThan, threshold)
}

// ClipToCountry clips every image to the boundary of country. A country
// name that matches nothing clips to the empty geometry, leaving every
// pixel masked.
func ClipToCountry(eng engine.Engine, col engine.Collection, country string) engine.Collection {
	boundary := eng.FeatureCollection(catalog.Countries).
		FilterEquals(catalog.CountryNameProperty, country).
		Geometry()
	return ClipToRegion(col, boundary)
}

// ClipToRegion clips every image to region, keeping order and count.
func ClipToRegion(col engine.Collection, region engine.Region) engine.Collection {
	return col.Map(func(img engine.Image) engine.Image {
		return img.Clip(region)
	})
}

type Options struct {
	Range DateRange
	// Point selects the scenes to load and centres the map.
	Point            engine.Geometry
	Country          string
	Region           engine.Region
	MaxCloudCoverage float64
	// Report counts the images of every stage; each count is a round trip
	// on a remote engine.
	Report bool
}

// Result holds the reduced images ready for the map and the stage counts.
type Result struct {
	Precipitation engine.Image
	Temperature   engine.Image
	NDVI          engine.Image
	Report        []output.ReportRow
}

// Layers returns the result as map layers in display order.
func (r *Result) Layers() []composer.LayerSpec {
	return composer.DefaultLayers(r.Precipitation, r.Temperature, r.NDVI)
}

type stage struct {
	catalog string
	name    string
	col     engine.Collection
}

func Run(ctx context.Context, eng engine.Engine, opts Options, logger *slog.Logger) (*Result, error) {
	load := func(id string) (engine.Collection, error) {
		c, err := catalog.Lookup(id)
		if err != nil {
			return nil, err
		}
		return LoadCatalog(eng, c.ID, opts.Range, opts.Point, c.Bands), nil
	}

	loaded := map[string]engine.Collection{}
	var stages []stage
	for _, c := range catalog.All() {
		col, err := load(c.ID)
		if err != nil {
			return nil, err
		}
		loaded[c.ID] = col
		stages = append(stages, stage{c.ID, "loaded", col})
	}
	logger.Info("catalogs loaded", "range", opts.Range.String(), "point", opts.Point.String())

	s2 := CloudFilter(loaded[catalog.SentinelSR], catalog.CloudCoverProperty, opts.MaxCloudCoverage)
	s2VI := s2.Map(sentinel.CalculateVI)
	s2Country := ClipToCountry(eng, s2VI, opts.Country)
	s2Clip := ClipToRegion(s2Country, opts.Region)
	tempClip := ClipToRegion(loaded[catalog.Temperature], opts.Region)
	precClip := ClipToRegion(loaded[catalog.Precipitation], opts.Region)

	stages = append(stages,
		stage{catalog.SentinelSR, "cloud_filtered", s2},
		stage{catalog.SentinelSR, "clipped", s2Clip},
		stage{catalog.Temperature, "clipped", tempClip},
		stage{catalog.Precipitation, "clipped", precClip},
	)

	result := &Result{
		Precipitation: composer.MeanOf(precClip, "precipitation"),
		Temperature:   composer.LSTToCelsius(composer.MeanOf(tempClip, "LST_Day_1km")),
		NDVI:          composer.MeanOf(s2Clip, "ndvi"),
	}

	if opts.Report {
		for _, st := range stages {
			n, err := st.col.Size(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to count %s %s: %w", st.catalog, st.name, err)
			}
			logger.Info("stage size", "catalog", st.catalog, "stage", st.name, "images", n)
			result.Report = append(result.Report, output.ReportRow{Catalog: st.catalog, Stage: st.name, Images: n})
		}
	}
	return result, nil
}
