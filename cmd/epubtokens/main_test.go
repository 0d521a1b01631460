package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"epubtokens/internal/batch"
	"epubtokens/internal/config"
	"epubtokens/internal/errors"
	"epubtokens/internal/tokens"
	"epubtokens/pkg/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withWordTokenizer makes commands count whitespace separated words.
func withWordTokenizer(t *testing.T) {
	t.Helper()
	orig := newProcessor
	newProcessor = func(*config.Config) (*batch.Processor, error) {
		return batch.New(batch.WithTokenizer(tokens.Func(func(text string) (int, error) {
			return len(strings.Fields(text)), nil
		}))), nil
	}
	t.Cleanup(func() { newProcessor = orig })
}

// writeConfig writes a settings file that logs into dir.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	data := "logging:\n  file: " + filepath.Join(dir, "epubtokens.log") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRunCommandMovesShortBooks(t *testing.T) {
	withWordTokenizer(t)
	dir := t.TempDir()
	source := filepath.Join(dir, "in")
	dest := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(source, 0755))
	testutils.WriteEPUB(t, filepath.Join(source, "short.epub"), testutils.Book{
		Title:    "Short",
		Chapters: []string{testutils.ChapterOfWords("word", 5)},
	})
	testutils.WriteEPUB(t, filepath.Join(source, "long.epub"), testutils.Book{
		Title:    "Long",
		Chapters: []string{testutils.ChapterOfWords("word", 50)},
	})
	cfgPath := writeConfig(t, dir)

	out, err := execute(t, "--config", cfgPath, "run", "--plain",
		"--source", source, "--dest", dest, "--threshold", "1,0")
	require.NoError(t, err)

	assert.Contains(t, out, "[2/2]")
	assert.Contains(t, out, "Completed")
	assert.Contains(t, out, "Moved:     1")
	assert.FileExists(t, filepath.Join(dest, "short.epub"))
	assert.FileExists(t, filepath.Join(source, "long.epub"))

	reports, err := filepath.Glob(filepath.Join(dest, "epub_token_counts_*.csv"))
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	saved, err := config.LoadConfigFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, source, saved.Directories.Source)
	assert.Equal(t, dest, saved.Directories.Destination)
	assert.Equal(t, 10, saved.Settings.Threshold)
}

func TestRunCommandUsesSavedSettings(t *testing.T) {
	withWordTokenizer(t)
	dir := t.TempDir()
	source := filepath.Join(dir, "in")
	dest := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(source, 0755))
	testutils.WriteEPUB(t, filepath.Join(source, "a.epub"), testutils.Book{
		Title:    "A",
		Chapters: []string{testutils.ChapterOfWords("word", 3)},
	})
	cfgPath := writeConfig(t, dir)

	_, err := execute(t, "--config", cfgPath, "config", "set", "source", source)
	require.NoError(t, err)
	_, err = execute(t, "--config", cfgPath, "config", "set", "destination", dest)
	require.NoError(t, err)
	_, err = execute(t, "--config", cfgPath, "config", "set", "threshold", "100")
	require.NoError(t, err)

	report := filepath.Join(dir, "report.csv")
	out, err := execute(t, "--config", cfgPath, "run", "--plain", "--report", report)
	require.NoError(t, err)
	assert.Contains(t, out, report)
	assert.FileExists(t, filepath.Join(dest, "a.epub"))
	assert.FileExists(t, report)
}

func TestRunCommandRejectsBadInput(t *testing.T) {
	withWordTokenizer(t)
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	t.Run("threshold", func(t *testing.T) {
		_, err := execute(t, "--config", cfgPath, "run", "--plain",
			"--source", dir, "--dest", filepath.Join(dir, "out"), "--threshold", "lots")
		require.Error(t, err)
		assert.True(t, errors.IsConfiguration(err))
		assert.Equal(t, 2, exitCode(err))
	})

	t.Run("format", func(t *testing.T) {
		_, err := execute(t, "--config", cfgPath, "run", "--plain",
			"--source", dir, "--dest", filepath.Join(dir, "out"), "--format", "pdf")
		require.Error(t, err)
		assert.True(t, errors.IsConfiguration(err))
	})

	t.Run("missing source", func(t *testing.T) {
		out, err := execute(t, "--config", cfgPath, "run", "--plain",
			"--source", filepath.Join(dir, "nope"), "--dest", filepath.Join(dir, "out"), "--threshold", "5")
		require.Error(t, err)
		assert.True(t, errors.IsConfiguration(err))
		assert.Contains(t, out, "Failed")
	})
}

func TestConfigSetAndShow(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	_, err := execute(t, "--config", cfgPath, "config", "set", "report.format", "XLSX")
	require.NoError(t, err)

	out, err := execute(t, "--config", cfgPath, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "format: xlsx")
	assert.Contains(t, out, cfgPath)

	_, err = execute(t, "--config", cfgPath, "config", "set", "report.format", "pdf")
	assert.Error(t, err)

	_, err = execute(t, "--config", cfgPath, "config", "set", "colour", "blue")
	assert.Error(t, err)

	saved, err := config.LoadConfigFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, config.FormatXLSX, saved.Report.Format)
}

func TestWatchStatus(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	out, err := execute(t, "--config", cfgPath, "watch", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "not running")

	_, err = execute(t, "--config", cfgPath, "watch", "--stop")
	assert.Error(t, err)
}

func TestWatchRequiresSavedFolders(t *testing.T) {
	withWordTokenizer(t)
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	_, err := execute(t, "--config", cfgPath, "watch")
	assert.Error(t, err)
}
