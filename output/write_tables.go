package output

import (
	"fmt"
	"io"

	"github.com/forest-guardian/park-indices-map/internal/catalog"
	"github.com/forest-guardian/park-indices-map/internal/indices"
	"github.com/gocarina/gocsv"
)

// WriteIndexValues writes one CSV row of index values per pixel.
func WriteIndexValues(w io.Writer, values []indices.Values) error {
	if err := gocsv.Marshal(&values, w); err != nil {
		return fmt.Errorf("failed to write index values: %w", err)
	}
	return nil
}

// WriteCatalogs writes the catalog id, name and description as CSV.
func WriteCatalogs(w io.Writer, catalogs []catalog.Catalog) error {
	if err := gocsv.Marshal(&catalogs, w); err != nil {
		return fmt.Errorf("failed to write catalogs: %w", err)
	}
	return nil
}
