package storage

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the burst of events a single append produces.
const debounceDelay = 100 * time.Millisecond

// TableWatcher reports changes to a fixed set of files inside one directory.
// Bursts of events are coalesced into a single notification.
type TableWatcher struct {
	fsWatcher *fsnotify.Watcher
	names     map[string]bool
	changes   chan struct{}
	done      chan struct{}
	logger    *slog.Logger

	mu      sync.Mutex
	pending *time.Timer
	stopped bool
}

// WatchTables starts watching dir for writes to any of the given file names.
func WatchTables(dir string, names []string, logger *slog.Logger) (*TableWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		_ = fsWatcher.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	w := &TableWatcher{
		fsWatcher: fsWatcher,
		names:     make(map[string]bool, len(names)),
		changes:   make(chan struct{}, 1),
		done:      make(chan struct{}),
		logger:    logger,
	}
	for _, n := range names {
		w.names[n] = true
	}

	go w.processEvents()
	return w, nil
}

// Changes delivers one value per coalesced burst of changes.
func (w *TableWatcher) Changes() <-chan struct{} { return w.changes }

// Close stops the watcher. Pending notifications are dropped.
func (w *TableWatcher) Close() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.pending != nil {
		w.pending.Stop()
	}
	w.mu.Unlock()

	close(w.done)
	return w.fsWatcher.Close()
}

func (w *TableWatcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", slog.Any("error", err))
		}
	}
}

func (w *TableWatcher) handleEvent(event fsnotify.Event) {
	// Rename covers writers that replace a file atomically.
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	if !w.names[filepath.Base(event.Name)] {
		return
	}
	w.logger.Debug("table changed", slog.String("path", event.Name), slog.String("op", event.Op.String()))

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(debounceDelay, w.notify)
}

func (w *TableWatcher) notify() {
	select {
	case w.changes <- struct{}{}:
	default:
		// A notification is already queued.
	}
}
