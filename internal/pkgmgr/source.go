package pkgmgr

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/mlagent/internal/log"
	"github.com/zjrosen/mlagent/internal/watcher"
)

// Source delivers lifecycle events. Events is closed after Close.
type Source interface {
	Events() <-chan LifecycleEvent
	Close() error
}

// ChanSource is an in-process Source fed by Send.
type ChanSource struct {
	events    chan LifecycleEvent
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
}

// NewChanSource creates a source with the given buffer size.
func NewChanSource(buffer int) *ChanSource {
	return &ChanSource{
		events: make(chan LifecycleEvent, buffer),
		done:   make(chan struct{}),
	}
}

var _ Source = (*ChanSource)(nil)

// Send delivers ev, blocking while the buffer is full.
// Returns false if the source is closed.
func (s *ChanSource) Send(ev LifecycleEvent) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

// Events implements Source.
func (s *ChanSource) Events() <-chan LifecycleEvent { return s.events }

// Close implements Source. Pending buffered events are still delivered.
func (s *ChanSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		close(s.events)
		s.mu.Unlock()
	})
	return nil
}

// SpoolConfig configures a SpoolSource.
type SpoolConfig struct {
	Dir      string
	Debounce time.Duration
}

// SpoolSource reads one JSON event per *.json file dropped in a directory.
// Delivered files are removed; undecodable ones are renamed to *.json.bad.
type SpoolSource struct {
	dir       string
	w         *watcher.Watcher
	events    chan LifecycleEvent
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// NewSpoolSource creates the spool directory if needed and starts watching it.
// Files already present are delivered first.
func NewSpoolSource(cfg SpoolConfig) (*SpoolSource, error) {
	if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}

	wcfg := watcher.DefaultConfig(cfg.Dir)
	if cfg.Debounce > 0 {
		wcfg.DebounceDur = cfg.Debounce
	}
	w, err := watcher.New(wcfg)
	if err != nil {
		return nil, err
	}
	ready, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return nil, err
	}

	s := &SpoolSource{
		dir:    cfg.Dir,
		w:      w,
		events: make(chan LifecycleEvent),
		done:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run(ready)
	log.Info(log.CatWatcher, "Watching event spool", "dir", cfg.Dir)
	return s, nil
}

var _ Source = (*SpoolSource)(nil)

// Events implements Source.
func (s *SpoolSource) Events() <-chan LifecycleEvent { return s.events }

// Close implements Source. Files not yet delivered stay in the spool.
func (s *SpoolSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.closeErr = s.w.Stop()
		s.wg.Wait()
	})
	return s.closeErr
}

func (s *SpoolSource) run(ready <-chan string) {
	defer s.wg.Done()
	defer close(s.events)

	for {
		select {
		case path, ok := <-ready:
			if !ok {
				return
			}
			ev, ok := s.read(path)
			if !ok {
				continue
			}
			select {
			case s.events <- ev:
				if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
					log.ErrorErr(log.CatWatcher, "Failed to remove spool file", err, "path", path)
				}
			case <-s.done:
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *SpoolSource) read(path string) (LifecycleEvent, bool) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the watched spool directory
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.ErrorErr(log.CatWatcher, "Failed to read spool file", err, "path", path)
		}
		return LifecycleEvent{}, false
	}

	ev, err := DecodeEvent(data)
	if err != nil {
		log.ErrorErr(log.CatWatcher, "Discarding malformed spool file", err, "path", path)
		if rerr := os.Rename(path, path+".bad"); rerr != nil {
			log.ErrorErr(log.CatWatcher, "Failed to quarantine spool file", rerr, "path", path)
		}
		return LifecycleEvent{}, false
	}
	log.Debug(log.CatWatcher, "Spool event read", "path", path, "event", ev.String())
	return ev, true
}

// Enqueue writes ev into the spool directory dir as <id>.json. The file is
// written under a temporary name and renamed so the watcher never sees a
// partial event. Returns the final path.
func Enqueue(dir string, ev LifecycleEvent) (string, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	data, err := ev.Encode()
	if err != nil {
		return "", err
	}

	tmp := filepath.Join(dir, "."+ev.ID+".tmp")
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write spool file: %w", err)
	}
	final := filepath.Join(dir, ev.ID+".json")
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to publish spool file: %w", err)
	}
	return final, nil
}
