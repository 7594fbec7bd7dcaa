package bank

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// reloadDebounce collapses editor write bursts into one reload.
const reloadDebounce = 500 * time.Millisecond

// Watcher watches an external items JSON file and hands parsed items to a
// callback whenever the file changes. Editors replace files on save, so the
// parent directory is watched and events are filtered by name.
type Watcher struct {
	path    string
	onLoad  func([]Item)
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	timer   *time.Timer
	running bool
	done    chan struct{}
}

// NewWatcher creates a watcher for the given items file.
func NewWatcher(path string, onLoad func([]Item)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		path:    filepath.Clean(path),
		onLoad:  onLoad,
		watcher: fsWatcher,
		done:    make(chan struct{}),
	}, nil
}

// Start loads the file once and begins watching it for changes.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	w.running = true
	go w.eventLoop()

	// Initial load; a missing file is fine, it may appear later.
	if _, err := os.Stat(w.path); err == nil {
		w.load()
	}

	log.Info().Str("path", w.path).Msg("Items file watcher started")
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.done)
	w.watcher.Close()
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("Items file watcher error")
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(reloadDebounce, w.load)
}

func (w *Watcher) load() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		log.Warn().Err(err).Str("path", w.path).Msg("Failed to read items file")
		return
	}
	items, err := ParseItems(data)
	if err != nil {
		// Keep serving the previous bank on a bad edit.
		log.Error().Err(err).Str("path", w.path).Msg("Items file invalid, keeping current bank")
		return
	}
	log.Info().Int("items", len(items)).Str("path", w.path).Msg("Items file loaded")
	w.onLoad(items)
}
