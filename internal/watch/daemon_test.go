package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epubtokens/internal/batch"
	"epubtokens/internal/config"
	"epubtokens/internal/watch"
	"epubtokens/pkg/types"
)

type fakeProcessor struct {
	mu     sync.Mutex
	runs   []config.RunConfig
	active int
	peak   int
}

func (f *fakeProcessor) Process(ctx context.Context, run config.RunConfig, emit func(batch.Event)) batch.Done {
	f.mu.Lock()
	f.runs = append(f.runs, run)
	f.active++
	if f.active > f.peak {
		f.peak = f.active
	}
	f.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	f.mu.Lock()
	f.active--
	f.mu.Unlock()

	done := batch.CompletedEvent{
		Summary: types.RunSummary{Total: 1, Succeeded: 1},
		Results: []types.ProcessingResult{{Path: "x", Status: types.StatusOK}},
		Config:  run,
	}
	if emit != nil {
		emit(done)
	}
	return done
}

func TestDaemonRunsOnStartAndAfterNewBooks(t *testing.T) {
	tmpDir := t.TempDir()
	source := filepath.Join(tmpDir, "library")
	require.NoError(t, os.Mkdir(source, 0755))

	cfg := config.NewTestConfig(source, filepath.Join(tmpDir, "short"), 1000)
	proc := &fakeProcessor{}

	daemon, err := watch.NewDaemon(cfg, proc)
	require.NoError(t, err)
	daemon.SetDebounce(50 * time.Millisecond)

	finished := make(chan batch.Done, 10)
	daemon.SetCallback(func(done batch.Done) { finished <- done })

	var observed int
	var observedMu sync.Mutex
	daemon.SetObserver(func(batch.Event) {
		observedMu.Lock()
		observed++
		observedMu.Unlock()
	})

	require.NoError(t, daemon.Start(context.Background()))
	defer daemon.Stop()

	waitRun := func() batch.Done {
		select {
		case done := <-finished:
			return done
		case <-time.After(5 * time.Second):
			t.Fatal("Timeout waiting for a run")
			return nil
		}
	}

	first := waitRun()
	assert.Equal(t, source, first.RunConfig().SourceDir)
	assert.Equal(t, 1000, first.RunConfig().Threshold)

	time.Sleep(100 * time.Millisecond)
	for _, name := range []string{"a.epub", "b.epub", "c.epub"} {
		require.NoError(t, os.WriteFile(filepath.Join(source, name), []byte(name), 0644))
	}
	waitRun()

	status := daemon.Status()
	assert.True(t, status.Running)
	assert.Equal(t, source, status.WatchDirectory)
	assert.GreaterOrEqual(t, status.Runs, 2)
	assert.False(t, status.LastActivity.IsZero())
	assert.Equal(t, 1, status.LastSummary.Succeeded)

	daemon.Stop()
	assert.False(t, daemon.Status().Running)

	proc.mu.Lock()
	defer proc.mu.Unlock()
	assert.Equal(t, 1, proc.peak, "runs never overlap")
	observedMu.Lock()
	defer observedMu.Unlock()
	assert.GreaterOrEqual(t, observed, 2)
}

func TestDaemonRequiresSource(t *testing.T) {
	cfg := config.NewTestConfig("", t.TempDir(), 10)
	daemon, err := watch.NewDaemon(cfg, &fakeProcessor{})
	require.NoError(t, err)
	assert.Error(t, daemon.Start(context.Background()))
}

func TestDaemonRestartsAfterStop(t *testing.T) {
	tmpDir := t.TempDir()
	source := filepath.Join(tmpDir, "library")
	require.NoError(t, os.Mkdir(source, 0755))

	cfg := config.NewTestConfig(source, filepath.Join(tmpDir, "short"), 1000)
	daemon, err := watch.NewDaemon(cfg, &fakeProcessor{})
	require.NoError(t, err)
	daemon.SetDebounce(50 * time.Millisecond)

	finished := make(chan batch.Done, 10)
	daemon.SetCallback(func(done batch.Done) { finished <- done })

	waitRun := func() {
		select {
		case <-finished:
		case <-time.After(5 * time.Second):
			t.Fatal("Timeout waiting for a run")
		}
	}

	require.NoError(t, daemon.Start(context.Background()))
	waitRun()
	daemon.Stop()
	assert.False(t, daemon.Status().Running)

	require.NoError(t, daemon.Start(context.Background()), "a stopped daemon starts again")
	defer daemon.Stop()
	waitRun()
	assert.True(t, daemon.Status().Running)

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(source, "late.epub"), []byte("late"), 0644))
	waitRun()
	assert.GreaterOrEqual(t, daemon.Status().Runs, 3)
}
