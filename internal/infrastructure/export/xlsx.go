package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"ListingScanner/internal/ports"
)

const (
	maxSheetName     = 31
	defaultSheetName = "Sheet1"
)

// XLSXExporter writes a single-sheet Excel workbook with text cells.
type XLSXExporter struct{}

var _ ports.Exporter = XLSXExporter{}

// Format names the exporter for --format selection.
func (XLSXExporter) Format() string {
	return "xlsx"
}

// Export writes columns as the header row and every row below it.
func (XLSXExporter) Export(w io.Writer, sheet string, columns []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	name := SheetName(sheet)
	if name != defaultSheetName {
		if err := f.SetSheetName(defaultSheetName, name); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	}

	if err := setRow(f, name, 1, columns); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}
	for i, row := range rows {
		if err := setRow(f, name, i+2, row); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", i, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SheetName makes s a valid worksheet name: no []:*?/\ and at most 31 characters.
func SheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, strings.TrimSpace(s))

	if runes := []rune(s); len(runes) > maxSheetName {
		s = string(runes[:maxSheetName])
	}
	if s == "" {
		return defaultSheetName
	}
	return s
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}

	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return f.SetSheetRow(sheet, cell, &cells)
}
