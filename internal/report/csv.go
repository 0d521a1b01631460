package report

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"epubtokens/internal/errors"
	"epubtokens/pkg/types"
)

// CSVWriter writes the UTF-8 CSV report. An existing file is overwritten.
type CSVWriter struct{}

// Write implements Writer.
func (CSVWriter) Write(results []types.ProcessingResult, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return errors.NewReportWriteError(outputPath, errors.Unwritable, err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return errors.NewReportWriteError(outputPath, errors.Unwritable, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		f.Close()
		return errors.NewReportWriteError(outputPath, errors.IOError, err)
	}
	for _, r := range results {
		if err := w.Write(row(r)); err != nil {
			f.Close()
			return errors.NewReportWriteError(outputPath, errors.IOError, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return errors.NewReportWriteError(outputPath, errors.IOError, err)
	}
	if err := f.Close(); err != nil {
		return errors.NewReportWriteError(outputPath, errors.IOError, err)
	}
	return nil
}
