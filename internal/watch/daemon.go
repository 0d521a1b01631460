package watch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"

	"epubtokens/internal/batch"
	"epubtokens/internal/config"
	"epubtokens/internal/log"
	"epubtokens/pkg/types"
)

// DaemonStatus represents the current status of the daemon
type DaemonStatus struct {
	Running        bool
	WatchDirectory string
	LastActivity   time.Time
	Runs           int
	FilesProcessed int
	LastSummary    types.RunSummary
}

// Processor is the part of batch.Processor the daemon drives.
type Processor interface {
	Process(ctx context.Context, run config.RunConfig, emit func(batch.Event)) batch.Done
}

// Daemon runs a batch over the source directory once at start and again
// each time new books settle for the debounce interval. Runs never
// overlap.
type Daemon struct {
	config    *config.Config
	processor Processor
	pattern   glob.Glob
	watcher   *Watcher
	debounce  time.Duration

	observer func(batch.Event)
	callback func(batch.Done)

	mutex        sync.RWMutex
	running      bool
	lastActivity time.Time
	runs         int
	processed    int
	lastSummary  types.RunSummary

	cancel context.CancelFunc
	done   chan struct{}
}

// NewDaemon creates a daemon for the saved source and destination.
func NewDaemon(cfg *config.Config, processor Processor) (*Daemon, error) {
	pattern, err := glob.Compile(strings.ToLower(cfg.Settings.Pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern %q: %w", cfg.Settings.Pattern, err)
	}
	return &Daemon{
		config:    cfg,
		processor: processor,
		pattern:   pattern,
		debounce:  time.Duration(cfg.WatchMode.Debounce) * time.Second,
	}, nil
}

// SetDebounce overrides the configured quiet period.
func (d *Daemon) SetDebounce(debounce time.Duration) {
	d.debounce = debounce
}

// SetObserver sets a function receiving every batch event.
func (d *Daemon) SetObserver(fn func(batch.Event)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.observer = fn
}

// SetCallback sets a function to be called when a run ends.
func (d *Daemon) SetCallback(cb func(batch.Done)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = cb
}

// Start watches the source directory and performs the initial run. Each
// start uses a new watcher, so a stopped daemon can be started again.
func (d *Daemon) Start(ctx context.Context) error {
	d.mutex.Lock()
	if d.running {
		d.mutex.Unlock()
		return fmt.Errorf("daemon is already running")
	}
	d.mutex.Unlock()

	source := d.config.Directories.Source
	if source == "" {
		return fmt.Errorf("no source directory configured")
	}
	watcher, err := New(d.pattern)
	if err != nil {
		return err
	}
	if err := watcher.AddDirectory(source); err != nil {
		watcher.Close()
		return fmt.Errorf("error adding watch directory %s: %w", source, err)
	}
	if err := watcher.Start(); err != nil {
		watcher.Close()
		return fmt.Errorf("error starting watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	d.mutex.Lock()
	d.running = true
	d.watcher = watcher
	d.cancel = cancel
	d.done = done
	d.mutex.Unlock()

	go d.processEvents(ctx, watcher, done)
	return nil
}

// Stop halts the watcher, cancels a run in flight and waits for it to end.
func (d *Daemon) Stop() {
	d.mutex.Lock()
	if !d.running {
		d.mutex.Unlock()
		return
	}
	d.running = false
	cancel, done, watcher := d.cancel, d.done, d.watcher
	d.mutex.Unlock()

	cancel()
	watcher.Stop()
	<-done
}

// Status returns the current status of the daemon
func (d *Daemon) Status() DaemonStatus {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	return DaemonStatus{
		Running:        d.running,
		WatchDirectory: d.config.Directories.Source,
		LastActivity:   d.lastActivity,
		Runs:           d.runs,
		FilesProcessed: d.processed,
		LastSummary:    d.lastSummary,
	}
}

// processEvents is the only goroutine that starts runs, which keeps them
// sequential.
func (d *Daemon) processEvents(ctx context.Context, watcher *Watcher, done chan struct{}) {
	defer close(done)

	d.runBatch(ctx)

	timer := time.NewTimer(d.debounce)
	timer.Stop()

	for {
		select {
		case arrival, ok := <-watcher.Arrivals():
			if !ok {
				return
			}
			d.mutex.Lock()
			d.lastActivity = arrival.At
			d.mutex.Unlock()
			log.LogWithFields(log.F("file", arrival.Path)).Debug("New book detected")

			timer.Reset(d.debounce)

		case <-timer.C:
			d.runBatch(ctx)

		case <-ctx.Done():
			return
		}
	}
}

func (d *Daemon) runBatch(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	d.mutex.RLock()
	observer, callback := d.observer, d.callback
	d.mutex.RUnlock()

	done := d.processor.Process(ctx, d.config.RunConfig(), observer)

	d.mutex.Lock()
	d.runs++
	switch e := done.(type) {
	case batch.CompletedEvent:
		d.processed += len(e.Results)
		d.lastSummary = e.Summary
	case batch.CancelledEvent:
		d.processed += len(e.Results)
		d.lastSummary = e.Summary
	case batch.FailedEvent:
		d.processed += len(e.Results)
		d.lastSummary = e.Summary
		log.LogWithError(e.Err).Error("Watch run failed")
	}
	d.mutex.Unlock()

	if callback != nil {
		callback(done)
	}
}
