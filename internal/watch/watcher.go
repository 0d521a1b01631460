// Package watch reruns the batch whenever new books land in the source
// directory.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"epubtokens/internal/log"
)

// Arrival is a matching file that was created or rewritten.
type Arrival struct {
	Path string
	Size int64
	At   time.Time
	Op   fsnotify.Op
}

// Watcher monitors a directory for new or rewritten files whose
// lower-cased name matches a pattern.
type Watcher struct {
	directories []string
	pattern     glob.Glob

	arrivals  chan Arrival
	stopChan  chan struct{}
	fsWatcher *fsnotify.Watcher

	mutex   sync.RWMutex
	running bool
	stopped bool
}

// New creates a watcher reporting files that match pattern. A nil pattern
// matches every file.
func New(pattern glob.Glob) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		pattern:   pattern,
		arrivals:  make(chan Arrival, 64),
		stopChan:  make(chan struct{}),
		fsWatcher: fsWatcher,
	}, nil
}

// AddDirectory adds a directory to watch. Subdirectories are not watched.
func (w *Watcher) AddDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("error accessing directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("failed to add directory %s to watcher: %w", dir, err)
	}

	w.mutex.Lock()
	if !slices.Contains(w.directories, dir) {
		w.directories = append(w.directories, dir)
	}
	w.mutex.Unlock()
	log.LogWithFields(log.F("directory", dir)).Info("Watching directory")
	return nil
}

// Arrivals delivers matching files as they appear.
func (w *Watcher) Arrivals() <-chan Arrival {
	return w.arrivals
}

// Start begins the file watching process using fsnotify
func (w *Watcher) Start() error {
	w.mutex.Lock()
	if w.running {
		w.mutex.Unlock()
		return fmt.Errorf("watcher already running")
	}
	if w.stopped {
		w.mutex.Unlock()
		return fmt.Errorf("watcher was stopped, create a new one")
	}
	w.running = true
	w.stopChan = make(chan struct{})
	stop := w.stopChan
	w.mutex.Unlock()

	go w.loop(stop)

	log.Debug("Watcher started")
	return nil
}

// loop owns arrivals and closes it on exit.
func (w *Watcher) loop(stop <-chan struct{}) {
	defer close(w.arrivals)
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !w.matches(event.Name) {
				continue
			}

			// The file may be gone again by the time we look at it.
			info, err := os.Stat(event.Name)
			if err != nil {
				if !os.IsNotExist(err) {
					log.LogWithFields(log.F("file", event.Name), log.F("error", err)).Error("Error stating file")
				}
				continue
			}
			if !info.Mode().IsRegular() {
				continue
			}

			arrival := Arrival{
				Path: event.Name,
				Size: info.Size(),
				At:   time.Now(),
				Op:   event.Op,
			}

			select {
			case w.arrivals <- arrival:
			case <-stop:
				return
			default:
				log.LogWithFields(log.F("file", event.Name)).Warn("Event channel is full, dropped event")
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.LogWithFields(log.F("error", err)).Error("fsnotify watcher error")

		case <-stop:
			return
		}
	}
}

func (w *Watcher) matches(path string) bool {
	if w.pattern == nil {
		return true
	}
	return w.pattern.Match(strings.ToLower(filepath.Base(path)))
}

// Stop halts the watcher. Arrivals is closed once the event loop has
// exited.
func (w *Watcher) Stop() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if !w.running {
		return
	}

	close(w.stopChan)
	w.closeFS()
	w.running = false
	w.stopped = true

	log.Debug("Watcher stopped")
}

// Close releases a watcher that was never started.
func (w *Watcher) Close() {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if !w.running {
		w.closeFS()
		w.stopped = true
	}
}

func (w *Watcher) closeFS() {
	if err := w.fsWatcher.Close(); err != nil {
		log.LogWithFields(log.F("error", err)).Error("Error closing fsnotify watcher")
	}
}

// IsRunning returns whether the watcher is currently active
func (w *Watcher) IsRunning() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.running
}

// Directories returns the watched directories.
func (w *Watcher) Directories() []string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return slices.Clone(w.directories)
}
