package engine

import (
	"fmt"
	"strings"
)

// MissingBandError reports a band selector that matched nothing.
type MissingBandError struct {
	Band      string
	Available []string
}

func (e *MissingBandError) Error() string {
	return fmt.Sprintf("band %q not found, available bands: [%s]", e.Band, strings.Join(e.Available, ", "))
}

type UnknownCatalogError struct {
	ID string
}

func (e *UnknownCatalogError) Error() string {
	return fmt.Sprintf("collection %q not found", e.ID)
}

// GridMismatchError is returned when pixelwise operations combine rasters
// of different shape.
type GridMismatchError struct {
	Op            string
	Width, Height int
	OtherWidth    int
	OtherHeight   int
}

func (e *GridMismatchError) Error() string {
	return fmt.Sprintf("%s: raster size %dx%d does not match %dx%d", e.Op, e.Width, e.Height, e.OtherWidth, e.OtherHeight)
}
