//go:build !nogui

package gui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epubtokens/internal/batch"
	"epubtokens/internal/config"
	"epubtokens/internal/epub"
	"epubtokens/internal/tokens"
	"epubtokens/pkg/types"
)

func newTestApp(t *testing.T) (*App, string, string) {
	t.Helper()
	root := t.TempDir()
	source := filepath.Join(root, "library")
	dest := filepath.Join(root, "short")
	require.NoError(t, os.MkdirAll(source, 0755))
	for _, name := range []string{"a.epub", "b.epub"} {
		require.NoError(t, os.WriteFile(filepath.Join(source, name), []byte(name), 0644))
	}

	cfg := config.NewTestConfig("", "", 0)
	cfg.SetPath(filepath.Join(root, "config.yaml"))

	words := map[string]string{"a.epub": "one two", "b.epub": strings.Repeat("w ", 50)}
	processor := batch.New(
		batch.WithExtractor(func(path string) (epub.Document, error) {
			return epub.Document{Text: words[filepath.Base(path)]}, nil
		}),
		batch.WithTokenizer(tokens.Func(func(text string) (int, error) {
			return len(strings.Fields(text)), nil
		})),
	)

	a := newApp(test.NewApp(), cfg, processor)
	return a, source, dest
}

func waitFinish(t *testing.T, finished <-chan batch.Done) batch.Done {
	t.Helper()
	select {
	case done := <-finished:
		return done
	case <-time.After(10 * time.Second):
		t.Fatal("Timeout waiting for the run to finish")
		return nil
	}
}

func TestRunFromForm(t *testing.T) {
	a, source, dest := newTestApp(t)
	finished := make(chan batch.Done, 1)
	a.onFinish = func(done batch.Done) { finished <- done }

	test.Type(a.sourceEntry, source)
	test.Type(a.destEntry, dest)
	a.thresholdEntry.SetText("1,000")

	test.Tap(a.startButton)
	done := waitFinish(t, finished)

	completed, ok := done.(batch.CompletedEvent)
	require.True(t, ok)
	assert.Equal(t, 2, completed.Summary.Moved)
	assert.FileExists(t, filepath.Join(dest, "a.epub"))
	assert.Equal(t, 1.0, a.progressBar.Value)
	assert.Equal(t, "Completed", a.statusLabel.Text)
	assert.False(t, a.startButton.Disabled())
	assert.True(t, a.cancelButton.Disabled())

	saved, err := config.LoadConfigFile(a.cfg.Path())
	require.NoError(t, err)
	assert.Equal(t, source, saved.Directories.Source)
	assert.Equal(t, dest, saved.Directories.Destination)
	assert.Equal(t, 1000, saved.Settings.Threshold)
}

func TestInvalidThresholdDoesNotStart(t *testing.T) {
	a, source, dest := newTestApp(t)
	a.sourceEntry.SetText(source)
	a.destEntry.SetText(dest)
	a.thresholdEntry.SetText("lots")

	test.Tap(a.startButton)

	a.mu.Lock()
	defer a.mu.Unlock()
	assert.Nil(t, a.run)
	assert.FileExists(t, filepath.Join(source, "a.epub"))
	assert.False(t, a.startButton.Disabled())
}

func TestFailedRunReportsConfigurationError(t *testing.T) {
	a, source, _ := newTestApp(t)
	finished := make(chan batch.Done, 1)
	a.onFinish = func(done batch.Done) { finished <- done }

	a.sourceEntry.SetText(source)
	a.destEntry.SetText(source)
	a.thresholdEntry.SetText("10")

	test.Tap(a.startButton)
	done := waitFinish(t, finished)

	assert.Equal(t, batch.Failed, done.State())
	assert.Equal(t, "Failed", a.statusLabel.Text)
}

func TestSummaryText(t *testing.T) {
	completed := summaryText(batch.CompletedEvent{Summary: types.RunSummary{Total: 3, Succeeded: 2, Failed: 1, Moved: 1, ReportPath: "/r.csv"}})
	assert.Contains(t, completed, "Finished with 1 failed files")
	assert.Contains(t, completed, "Report: /r.csv")

	cancelled := summaryText(batch.CancelledEvent{Summary: types.RunSummary{Total: 10, Succeeded: 3}})
	assert.Contains(t, cancelled, "Cancelled after 3 of 10 files.")

	failed := summaryText(batch.FailedEvent{Err: assert.AnError})
	assert.Contains(t, failed, "The run failed")
}
