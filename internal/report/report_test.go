package report_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"epubtokens/internal/errors"
	"epubtokens/internal/report"
	"epubtokens/pkg/types"
)

func sampleResults() []types.ProcessingResult {
	return []types.ProcessingResult{
		{Path: "/books/a.epub", Title: "A", Tokens: types.IntPtr(500), Status: types.StatusOK, Moved: true, Destination: "/short/a.epub"},
		{Path: "/books/b, \"quoted\".epub", Status: types.StatusExtractFailed, Error: "malformed: zip: not a valid zip file"},
		{Path: "/books/c.epub", Title: "C", Tokens: types.IntPtr(1000), Status: types.StatusOK},
		{Path: "/books/d.epub", Tokens: types.IntPtr(10), Status: types.StatusMoveFailed, Error: "line one\nline two"},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "report.csv")
	results := sampleResults()

	require.NoError(t, report.CSVWriter{}.Write(results, path))

	records := readCSV(t, path)
	require.Len(t, records, len(results)+1)
	assert.Equal(t, report.Header, records[0])
	assert.Equal(t, []string{"/books/a.epub", "500", "ok", "true", ""}, records[1])
	assert.Equal(t, []string{"/books/b, \"quoted\".epub", "", "extractFailed", "false", "malformed: zip: not a valid zip file"}, records[2])
	assert.Equal(t, []string{"/books/c.epub", "1000", "ok", "false", ""}, records[3])
	assert.Equal(t, []string{"/books/d.epub", "10", "moveFailed", "false", "line one\nline two"}, records[4])
}

func TestCSVOverwritesAndHandlesEmptyRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale,data\n1,2\n3,4\n"), 0644))

	require.NoError(t, report.CSVWriter{}.Write(nil, path))

	records := readCSV(t, path)
	assert.Equal(t, [][]string{report.Header}, records)
}

func TestCSVUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := report.CSVWriter{}.Write(sampleResults(), filepath.Join(blocker, "report.csv"))
	require.Error(t, err)
	assert.True(t, errors.IsReportWrite(err))
	assert.Equal(t, errors.Unwritable, errors.ReasonOf(err))
}

func TestXLSXWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, report.XLSXWriter{}.Write(sampleResults(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(report.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, append(append([]string{}, report.Header...), "title", "destination"), rows[0])
	assert.Equal(t, "/books/a.epub", rows[1][0])
	assert.Equal(t, "500", rows[1][1])
	assert.Equal(t, "TRUE", rows[1][3])
	assert.Equal(t, "/short/a.epub", rows[1][6])
}

func TestXLSXLongErrorIsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	results := []types.ProcessingResult{
		{Path: "/books/long.epub", Status: types.StatusExtractFailed, Error: strings.Repeat("x", 40000)},
	}
	require.NoError(t, report.XLSXWriter{}.Write(results, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(report.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, rows[1][4], excelize.TotalCellChars, "cell is capped, not left empty")
}

func TestXLSXUnwritable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taken.xlsx")
	require.NoError(t, os.Mkdir(path, 0755))

	err := report.XLSXWriter{}.Write(sampleResults(), path)
	require.Error(t, err)
	assert.True(t, errors.IsReportWrite(err))
	assert.Equal(t, errors.IOError, errors.ReasonOf(err))
}

func TestNewSelectsFormats(t *testing.T) {
	t.Run("csv only", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "r.csv")
		require.NoError(t, report.New("csv").Write(sampleResults(), path))
		assert.FileExists(t, path)
		assert.NoFileExists(t, filepath.Join(dir, "r.xlsx"))
	})

	t.Run("xlsx format keeps csv", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "r.csv")
		require.NoError(t, report.New("xlsx").Write(sampleResults(), path))
		assert.FileExists(t, path)
		assert.FileExists(t, filepath.Join(dir, "r.xlsx"))
	})

	t.Run("xlsx path", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "r.xlsx")
		require.NoError(t, report.New("").Write(sampleResults(), path))
		assert.FileExists(t, path)
		assert.FileExists(t, filepath.Join(dir, "r.csv"))
		assert.Equal(t, filepath.Join(dir, "r.csv"), report.CSVPath(path))
	})
}

func TestDefaultPath(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
	assert.Equal(t, filepath.Join("out", "epub_token_counts_20240309_140507.csv"), report.DefaultPath("out", now))
}
