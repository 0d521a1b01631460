package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"epubtokens/internal/errors"
	"epubtokens/pkg/types"
)

// SheetName is the worksheet holding the results.
const SheetName = "Report"

// XLSXWriter writes the results as an Excel workbook with two extra
// columns, title and destination.
type XLSXWriter struct{}

// Write implements Writer.
func (XLSXWriter) Write(results []types.ProcessingResult, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return errors.NewReportWriteError(outputPath, errors.Unwritable, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	fail := func(err error) error {
		return errors.NewReportWriteError(outputPath, errors.IOError, err)
	}

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fail(err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fail(err)
	}

	setCell := func(col, rowNum int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, rowNum)
		if err != nil {
			return err
		}
		return f.SetCellValue(SheetName, cell, v)
	}

	headers := append(append([]string{}, Header...), "title", "destination")
	for i, h := range headers {
		if err := setCell(i+1, 1, h); err != nil {
			return fail(err)
		}
	}

	for i, r := range results {
		rowNum := i + 2
		values := []any{r.Path, nil, string(r.Status), r.Moved, r.Error, r.Title, r.Destination}
		if r.Tokens != nil {
			values[1] = *r.Tokens
		}
		for col, v := range values {
			if v == nil {
				continue
			}
			if err := setCell(col+1, rowNum, v); err != nil {
				return fail(fmt.Errorf("row %d (%s): %w", rowNum, r.Path, err))
			}
		}
	}

	widths := []struct {
		from, to string
		width    float64
	}{
		{"A", "A", 60}, // path
		{"B", "D", 14},
		{"E", "E", 48}, // error
		{"F", "F", 32}, // title
		{"G", "G", 60}, // destination
	}
	for _, w := range widths {
		if err := f.SetColWidth(SheetName, w.from, w.to, w.width); err != nil {
			return fail(err)
		}
	}

	if err := f.SaveAs(outputPath); err != nil {
		return errors.NewReportWriteError(outputPath, errors.IOError, err)
	}
	return nil
}
