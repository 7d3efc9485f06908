package oauth

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"vatfiler/pkg/logging"
)

const (
	// DefaultDebounceInterval is the time to wait before reloading after the
	// last change to the token file.
	DefaultDebounceInterval = 250 * time.Millisecond

	// DefaultPollInterval is used when fsnotify is not available.
	DefaultPollInterval = 5 * time.Second
)

// TokenFileWatcher reloads a Provider when the token file is changed by
// another process, for example `vatfiler auth logout` while the server runs.
// It watches the parent directory because the file is replaced by rename.
type TokenFileWatcher struct {
	mu sync.Mutex

	path         string
	onChange     func()
	debounce     time.Duration
	pollInterval time.Duration

	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
	running   bool

	lastModTime time.Time
	lastExists  bool

	debounceTimer *time.Timer
	debounceMu    sync.Mutex
}

// NewTokenFileWatcher creates a watcher that calls provider.Reload on change.
func NewTokenFileWatcher(path string, provider *Provider) *TokenFileWatcher {
	return newTokenFileWatcher(path, func() {
		if err := provider.Reload(); err != nil {
			logging.Error("TokenWatcher", err, "Failed to reload tokens after file change")
		}
	})
}

func newTokenFileWatcher(path string, onChange func()) *TokenFileWatcher {
	return &TokenFileWatcher{
		path:         path,
		onChange:     onChange,
		debounce:     DefaultDebounceInterval,
		pollInterval: DefaultPollInterval,
	}
}

// Start begins watching. Failure to set up fsnotify falls back to polling.
func (w *TokenFileWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	w.stopCh = make(chan struct{})
	w.running = true

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn("TokenWatcher", "fsnotify not available, falling back to polling: %v", err)
		go w.pollForChanges(w.stopCh)
		return nil
	}

	if err := watcher.Add(dir); err != nil {
		logging.Warn("TokenWatcher", "Failed to watch directory %s, falling back to polling: %v", dir, err)
		watcher.Close()
		go w.pollForChanges(w.stopCh)
		return nil
	}
	w.fsWatcher = watcher

	go w.processEvents(w.stopCh, watcher.Events, watcher.Errors)

	logging.Info("TokenWatcher", "Watching %s for changes", w.path)
	return nil
}

// processEvents handles fsnotify events. Channels are passed in so Stop
// can release the watcher without racing this goroutine.
func (w *TokenFileWatcher) processEvents(stopCh <-chan struct{}, eventsCh <-chan fsnotify.Event, errorsCh <-chan error) {
	for {
		select {
		case <-stopCh:
			return

		case event, ok := <-eventsCh:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-errorsCh:
			if !ok {
				return
			}
			logging.Error("TokenWatcher", err, "fsnotify error")
		}
	}
}

func (w *TokenFileWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != filepath.Base(w.path) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	logging.Debug("TokenWatcher", "Token file event: %s", event)
	w.triggerReloadDebounced()
}

// triggerReloadDebounced collapses the burst of events produced by a
// write-then-rename into one reload.
func (w *TokenFileWatcher) triggerReloadDebounced() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		running := w.running
		w.mu.Unlock()

		if running && w.onChange != nil {
			w.onChange()
		}
	})
}

func (w *TokenFileWatcher) pollForChanges(stopCh <-chan struct{}) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.checkForChanges()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if w.checkForChanges() {
				logging.Debug("TokenWatcher", "Token file change detected via polling")
				w.triggerReloadDebounced()
			}
		}
	}
}

// checkForChanges compares the file's presence and mtime with the last poll.
func (w *TokenFileWatcher) checkForChanges() bool {
	info, err := os.Stat(w.path)
	exists := err == nil

	var modTime time.Time
	if exists {
		modTime = info.ModTime()
	}

	changed := exists != w.lastExists || !modTime.Equal(w.lastModTime)
	w.lastExists = exists
	w.lastModTime = modTime
	return changed
}

// Stop stops watching. It is safe to call more than once.
func (w *TokenFileWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	close(w.stopCh)

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMu.Unlock()

	if w.fsWatcher != nil {
		if err := w.fsWatcher.Close(); err != nil {
			logging.Warn("TokenWatcher", "Error closing fsnotify watcher: %v", err)
		}
		w.fsWatcher = nil
	}

	logging.Info("TokenWatcher", "Stopped watching %s", w.path)
	return nil
}

// IsRunning returns whether the watcher is active.
func (w *TokenFileWatcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
