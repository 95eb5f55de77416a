package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// ReportRow is the number of images of a catalog after one pipeline stage.
type ReportRow struct {
	Catalog string `csv:"catalog"`
	Stage   string `csv:"stage"`
	Images  int    `csv:"images"`
}

// CreateRunReport writes rows as CSV, replacing any previous report.
func CreateRunReport(rows []ReportRow, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := gocsv.MarshalCSV(&rows, writer); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	writer.Flush()
	return writer.Error()
}
