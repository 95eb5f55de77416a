// Package geotiff fills the local engine from a directory tree of GeoTIFF
// scenes and GeoJSON boundary files:
//
//	<root>/data/catalogs/<catalog id, '/' replaced by '_'>/<scene>.tif
//	<root>/data/catalogs/<catalog id, '/' replaced by '_'>/<scene>.json
//	<root>/data/boundaries/<table id, '/' replaced by '_'>.geojson
//
// The JSON sidecar of a scene holds its acquisition time, metadata
// properties and band names.
package geotiff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/forest-guardian/park-indices-map/internal/catalog"
	"github.com/forest-guardian/park-indices-map/internal/local"
	"github.com/paulmach/orb/geojson"
	"github.com/schollz/progressbar/v3"
)

// Sidecar is the metadata file stored next to every scene.
type Sidecar struct {
	Time       time.Time          `json:"time"`
	Properties map[string]float64 `json:"properties"`
	Bands      []string           `json:"bands"`
}

type Loader struct {
	root     string
	logger   *slog.Logger
	progress bool
}

func NewLoader(root string, logger *slog.Logger, progress bool) *Loader {
	godal.RegisterAll()
	return &Loader{root: root, logger: logger, progress: progress}
}

func dirName(id string) string {
	return strings.ReplaceAll(id, "/", "_")
}

func (l *Loader) CatalogDir(id string) string {
	return filepath.Join(l.root, "data", "catalogs", dirName(id))
}

func (l *Loader) BoundaryFile(id string) string {
	return filepath.Join(l.root, "data", "boundaries", dirName(id)+".geojson")
}

// LoadCatalogs declares every catalog in eng and adds the scenes found on
// disk. A catalog without a directory stays empty.
func (l *Loader) LoadCatalogs(ctx context.Context, eng *local.Engine, catalogs []catalog.Catalog) error {
	for _, c := range catalogs {
		eng.DeclareCollection(c.ID, c.Bands)

		scenes, err := filepath.Glob(filepath.Join(l.CatalogDir(c.ID), "*.tif"))
		if err != nil {
			return fmt.Errorf("failed to list scenes of %s: %w", c.ID, err)
		}
		if len(scenes) == 0 {
			l.logger.Warn("no scenes found", "catalog", c.ID, "dir", l.CatalogDir(c.ID))
			continue
		}
		sort.Strings(scenes)

		var bar *progressbar.ProgressBar
		if l.progress {
			bar = progressbar.Default(int64(len(scenes)), "Loading "+c.Name)
		}
		for _, path := range scenes {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := ReadScene(path)
			if err != nil {
				return err
			}
			if err := eng.AddImages(c.ID, img); err != nil {
				return err
			}
			if bar != nil {
				bar.Add(1)
			}
		}
		l.logger.Info("catalog loaded", "catalog", c.ID, "scenes", len(scenes))
	}
	return nil
}

// ReadScene reads a GeoTIFF and its sidecar into a local image. Pixels equal
// to a band's no-data value become NaN.
func ReadScene(path string) (*local.Image, error) {
	sidecar, err := readSidecar(strings.TrimSuffix(path, filepath.Ext(path)) + ".json")
	if err != nil {
		return nil, err
	}

	ds, err := godal.Open(path, godal.ErrLogger(func(ec godal.ErrorCategory, code int, msg string) error {
		if ec == godal.CE_Warning {
			return nil
		}
		return errors.New(msg)
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer ds.Close()

	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("failed to read geotransform of %s: %w", path, err)
	}
	width, height := int(ds.Structure().SizeX), int(ds.Structure().SizeY)

	rasterBands := ds.Bands()
	if len(sidecar.Bands) != len(rasterBands) {
		return nil, fmt.Errorf("%s has %d bands but its sidecar names %d", path, len(rasterBands), len(sidecar.Bands))
	}

	bands := make([]local.Band, len(rasterBands))
	for i, band := range rasterBands {
		data := make([]float64, width*height)
		if err := band.Read(0, 0, data, width, height); err != nil {
			return nil, fmt.Errorf("failed to read band %s of %s: %w", sidecar.Bands[i], path, err)
		}
		if nodata, ok := band.NoData(); ok {
			for p, v := range data {
				if v == nodata {
					data[p] = math.NaN()
				}
			}
		}
		bands[i] = local.Band{Name: sidecar.Bands[i], Data: data}
	}

	return local.NewImage(local.Metadata{
		ID:         strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Time:       sidecar.Time,
		Width:      width,
		Height:     height,
		Transform:  local.GeoTransform(gt),
		Properties: sidecar.Properties,
	}, bands...)
}

func readSidecar(path string) (Sidecar, error) {
	var s Sidecar
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read sidecar: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse sidecar %s: %w", path, err)
	}
	if s.Time.IsZero() {
		return s, fmt.Errorf("sidecar %s has no time", path)
	}
	return s, nil
}

// LoadBoundaries registers the features of each boundary table found on
// disk. Missing tables are skipped, so using them fails later as an
// unknown collection.
func (l *Loader) LoadBoundaries(eng *local.Engine, ids ...string) error {
	for _, id := range ids {
		data, err := os.ReadFile(l.BoundaryFile(id))
		if errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("boundary table not found", "table", id, "file", l.BoundaryFile(id))
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read boundary table %s: %w", id, err)
		}

		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return fmt.Errorf("failed to parse boundary table %s: %w", id, err)
		}
		eng.AddFeatures(id, fc.Features...)
		l.logger.Info("boundary table loaded", "table", id, "features", len(fc.Features))
	}
	return nil
}
