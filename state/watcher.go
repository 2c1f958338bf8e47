package state

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/console/logging"
)

// Watcher reloads a Store when its settings file changes on disk, so a
// flag toggled in another console instance shows up live.
type Watcher struct {
	watcher  *fsnotify.Watcher
	store    *Store
	file     string
	debounce time.Duration
	onReload func(*Store)
	logger   *logrus.Entry

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher watches the directory of p.Path. onReload runs after every
// debounced reload.
func NewWatcher(store *Store, p *FilePersister, debounce time.Duration, onReload func(*Store)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(p.Path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	return &Watcher{
		watcher:  w,
		store:    store,
		file:     filepath.Clean(p.Path),
		debounce: debounce,
		onReload: onReload,
		logger:   logging.NewLogger("settings-watcher"),
	}, nil
}

// Start processes file events. It blocks until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	defer w.stopTimer()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.file {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.schedule()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Error("Watcher error")
		case <-ctx.Done():
			w.watcher.Close()
			return
		}
	}
}

// schedule coalesces bursts of writes into one reload.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	if err := w.store.Reload(); err != nil {
		w.logger.WithError(err).Warn("Failed to reload settings")
		return
	}
	w.logger.Debug("Settings reloaded")
	if w.onReload != nil {
		w.onReload(w.store)
	}
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
