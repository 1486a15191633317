// Package watcher provides debounced watching of the board directory, so a
// running board notices sign-in, sign-out and config edits made by other
// commands.
package watcher

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay is the time to wait after the last file event before triggering
// a callback. This coalesces rapid changes (e.g., write-then-rename) into a
// single notification.
const debounceDelay = 100 * time.Millisecond

// Watcher watches directories for changes to a set of file names and invokes
// a callback, debounced, with the names that changed.
type Watcher struct {
	fsw      *fsnotify.Watcher
	names    map[string]bool
	delay    time.Duration
	mu       sync.Mutex
	timer    *time.Timer
	pending  map[string]bool
	callback func(changed []string)
}

// New creates a Watcher over dirs. Only events on files whose base name is in
// names are reported; an empty names watches everything.
func New(dirs, names []string, callback func(changed []string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, p := range dirs {
		if err := fsw.Add(p); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}

	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return &Watcher{
		fsw:      fsw,
		names:    set,
		delay:    debounceDelay,
		pending:  map[string]bool{},
		callback: callback,
	}, nil
}

// Run starts the watch loop. It blocks until the context is canceled.
// Errors from the underlying watcher are passed to the optional errFn callback.
func (w *Watcher) Run(ctx context.Context, errFn func(error)) {
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if len(w.names) > 0 && !w.names[name] {
				continue
			}
			w.debounce(name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if errFn != nil {
				errFn(err)
			}
		}
	}
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) debounce(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[name] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	changed := make([]string, 0, len(w.pending))
	for n := range w.pending {
		changed = append(changed, n)
	}
	w.pending = map[string]bool{}
	w.mu.Unlock()

	if len(changed) == 0 {
		return
	}
	sort.Strings(changed)
	w.callback(changed)
}
