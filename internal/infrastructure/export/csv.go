package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"ListingScanner/internal/ports"
)

// CSVExporter writes a header row followed by one line per row.
type CSVExporter struct{}

var _ ports.Exporter = CSVExporter{}

// Format names the exporter for --format selection.
func (CSVExporter) Format() string {
	return "csv"
}

// Export writes columns and rows as RFC 4180 CSV. The sheet name is unused.
func (CSVExporter) Export(w io.Writer, _ string, columns []string, rows [][]string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
