package allowlist

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher hot-reloads the merged allowlist whenever one of its backing
// files changes, for long-lived callers that cannot afford to re-read the
// allowlist on every request. `dcg serve-mcp` does not use one; it loads
// the allowlist once at startup. Short-lived hook invocations should call
// Load directly instead.
//
// Debounced on a 100ms window to coalesce editor save bursts, the same
// pattern joyshmitz-slb/internal/daemon/watcher.go uses for its state
// files.
type Watcher struct {
	paths []string

	mu      sync.RWMutex
	current *List

	fsw    *fsnotify.Watcher
	done   chan struct{}
	logger *log.Logger

	reloads atomic.Uint64
}

// NewWatcher loads paths once and begins watching their parent
// directories for changes (fsnotify cannot watch a path that does not yet
// exist, so a missing allowlist file's directory is watched instead).
func NewWatcher(paths []string) (*Watcher, error) {
	list, err := Load(paths, time.Now())
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		paths:   paths,
		current: list,
		fsw:     fsw,
		done:    make(chan struct{}),
		logger:  log.Default().WithPrefix("allowlist"),
	}
	for _, dir := range watchDirs(paths) {
		if err := fsw.Add(dir); err != nil {
			w.logger.Debug("could not watch directory", "dir", dir, "err", err)
		}
	}
	go w.loop()
	return w, nil
}

// Current returns the most recently loaded allowlist snapshot.
func (w *Watcher) Current() *List {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	var pending bool
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.isRelevant(ev.Name) {
				continue
			}
			pending = true
			timer.Reset(100 * time.Millisecond)
		case <-timer.C:
			if pending {
				w.reload()
				pending = false
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) isRelevant(name string) bool {
	for _, p := range w.paths {
		if p == name {
			return true
		}
	}
	return false
}

func (w *Watcher) reload() {
	list, err := Load(w.paths, time.Now())
	if err != nil {
		w.logger.Warn("reload failed, keeping previous snapshot", "err", err)
		return
	}
	for _, warning := range list.Warnings {
		w.logger.Warn("allowlist warning", "detail", warning)
	}
	w.mu.Lock()
	w.current = list
	w.mu.Unlock()
	w.reloads.Add(1)
}

func watchDirs(paths []string) []string {
	seen := map[string]struct{}{}
	var dirs []string
	for _, p := range paths {
		dir := parentDir(p)
		if dir == "" {
			continue
		}
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}
	return dirs
}

func parentDir(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return ""
}
