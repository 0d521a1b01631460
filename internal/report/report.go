// Package report serializes batch results for the user.
package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"epubtokens/internal/config"
	"epubtokens/pkg/types"
)

// Header is the column layout of the CSV report.
var Header = []string{"path", "tokens", "status", "moved", "error"}

// Writer writes one row per result, in order, to outputPath.
type Writer interface {
	Write(results []types.ProcessingResult, outputPath string) error
}

// WriterFunc adapts a function to Writer.
type WriterFunc func(results []types.ProcessingResult, outputPath string) error

// Write implements Writer.
func (f WriterFunc) Write(results []types.ProcessingResult, outputPath string) error {
	return f(results, outputPath)
}

// DefaultPath names a report after the run start time inside dir.
func DefaultPath(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("epub_token_counts_%s.csv", now.Format("20060102_150405")))
}

// CSVPath returns the CSV path for a requested report path. A workbook
// path gets a CSV sibling with the same base name.
func CSVPath(path string) string {
	if isWorkbook(path) {
		return strings.TrimSuffix(path, filepath.Ext(path)) + ".csv"
	}
	return path
}

// WorkbookPath returns the XLSX path that accompanies a CSV report.
func WorkbookPath(path string) string {
	if isWorkbook(path) {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".xlsx"
}

func isWorkbook(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

// New returns the writer for format. The CSV report is always written;
// "xlsx" adds a workbook next to it. A ".xlsx" output path selects the
// workbook as well.
func New(format string) Writer {
	return &multiWriter{xlsx: strings.EqualFold(format, config.FormatXLSX)}
}

type multiWriter struct {
	xlsx bool
}

func (m *multiWriter) Write(results []types.ProcessingResult, outputPath string) error {
	if err := (CSVWriter{}).Write(results, CSVPath(outputPath)); err != nil {
		return err
	}
	if m.xlsx || isWorkbook(outputPath) {
		return (XLSXWriter{}).Write(results, WorkbookPath(outputPath))
	}
	return nil
}

func row(r types.ProcessingResult) []string {
	return []string{
		r.Path,
		r.TokenString(),
		string(r.Status),
		fmt.Sprintf("%t", r.Moved),
		r.Error,
	}
}
