// Package watcher provides directory watching with per-file debouncing for the
// event spool.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/mlagent/internal/log"
)

// Watcher monitors a directory and reports files matching a pattern once they
// have stopped changing for the debounce interval.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dir       string
	pattern   string
	debounce  time.Duration
	fired     chan string
	onReady   chan string
	done      chan struct{}
	timers    map[string]*time.Timer
}

// Config holds watcher configuration options.
type Config struct {
	Dir         string
	Pattern     string // filepath.Match pattern applied to base names
	DebounceDur time.Duration
}

// DefaultConfig returns sensible defaults for watching a spool directory.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:         dir,
		Pattern:     "*.json",
		DebounceDur: 200 * time.Millisecond,
	}
}

// New creates a new directory watcher.
func New(cfg Config) (*Watcher, error) {
	if cfg.Pattern == "" {
		cfg.Pattern = "*"
	}
	if _, err := filepath.Match(cfg.Pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", cfg.Pattern, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		dir:       cfg.Dir,
		pattern:   cfg.Pattern,
		debounce:  cfg.DebounceDur,
		fired:     make(chan string, 64),
		onReady:   make(chan string, 16),
		done:      make(chan struct{}),
		timers:    make(map[string]*time.Timer),
	}, nil
}

// Start begins watching the directory.
// Returns a channel that receives the path of each file that is ready. Files
// already present are reported first, in name order. The channel is closed
// when the watcher stops.
func (w *Watcher) Start() (<-chan string, error) {
	if err := w.fsWatcher.Add(w.dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", w.dir, err)
	}

	existing, err := w.backlog()
	if err != nil {
		return nil, err
	}

	go w.loop(existing)

	return w.onReady, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) backlog() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", w.dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && w.matches(e.Name()) {
			files = append(files, filepath.Join(w.dir, e.Name()))
		}
	}
	sort.Strings(files)
	if len(files) > 0 {
		log.Debug(log.CatWatcher, "Replaying spool backlog", "dir", w.dir, "files", len(files))
	}
	return files, nil
}

// loop processes file system events with per-file debouncing.
func (w *Watcher) loop(queue []string) {
	defer close(w.onReady)
	defer w.stopTimers()

	for {
		// Only offer a send when something is queued.
		var out chan string
		var next string
		if len(queue) > 0 {
			out = w.onReady
			next = queue[0]
		}

		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
				continue
			}
			w.schedule(event.Name)

		case path := <-w.fired:
			delete(w.timers, path)
			if _, err := os.Stat(path); err != nil {
				// Removed before it settled.
				continue
			}
			queue = append(queue, path)

		case out <- next:
			queue = queue[1:]

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "Watcher error", err, "dir", w.dir)

		case <-w.done:
			return
		}
	}
}

// schedule starts or resets the debounce timer for path.
func (w *Watcher) schedule(path string) {
	if timer, ok := w.timers[path]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		select {
		case w.fired <- path:
		case <-w.done:
		}
	})
}

func (w *Watcher) stopTimers() {
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
}

// isRelevantEvent checks if the event concerns a file we report.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	// Writers may create in place or rename a finished file into the directory.
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	return w.matches(filepath.Base(event.Name))
}

func (w *Watcher) matches(base string) bool {
	ok, _ := filepath.Match(w.pattern, base)
	return ok
}
