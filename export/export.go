// Package export encodes a filtered view for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"sentiment-dashboard/models"
	"sentiment-dashboard/pipeline"
)

const (
	CSVFilename  = "filtered_data.csv"
	CSVMime      = "text/csv"
	XLSXFilename = "filtered_data.xlsx"
	XLSXMime     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	sheetName       = "filtered_data"
	timestampLayout = "2006-01-02 15:04:05.999999999"
	offsetLayout    = "-07:00"
)

// FormatTimestamp renders t the way the source CSV wrote it: fractional
// seconds only when present, and the UTC offset unless t carries no zone.
func FormatTimestamp(t time.Time) string {
	if t.Location() == time.UTC {
		return t.Format(timestampLayout)
	}
	return t.Format(timestampLayout + offsetLayout)
}

// Header returns the export column order for v.
func Header(v pipeline.View) []string {
	return v.Dataset().Columns()
}

// Record renders one comment in the given column order.
func Record(c *models.Comment, columns []string) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		switch col {
		case models.ColPostCreatedTime:
			out[i] = FormatTimestamp(c.PostCreatedTime)
		case models.ColSide:
			out[i] = c.Side
		case models.ColSentiment:
			out[i] = c.Sentiment
		case models.ColCleanText:
			out[i], _ = c.Text()
		default:
			out[i] = c.Extra[col]
		}
	}
	return out
}

// WriteCSV writes the whole view as UTF-8 CSV with a header row.
func WriteCSV(w io.Writer, v pipeline.View) error {
	if v.Empty() {
		return pipeline.ErrEmptyResult
	}
	columns := Header(v)
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := 0; i < v.Len(); i++ {
		if err := cw.Write(Record(v.At(i), columns)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the whole view as a single-sheet Excel workbook.
func WriteXLSX(w io.Writer, v pipeline.View) error {
	if v.Empty() {
		return pipeline.ErrEmptyResult
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	columns := Header(v)
	if err := sw.SetRow("A1", toCells(columns)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := 0; i < v.Len(); i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, toCells(Record(v.At(i), columns))); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
