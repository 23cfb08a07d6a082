package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher reports changes to a set of files. It watches their parent
// directories so editors that replace files by rename are still seen.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger

	mu    sync.Mutex
	files map[string]struct{}
	dirs  map[string]struct{}
}

// NewWatcher creates a watcher with no files.
func NewWatcher(debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{
		watcher:  w,
		debounce: debounce,
		logger:   logger,
		files:    map[string]struct{}{},
		dirs:     map[string]struct{}{},
	}, nil
}

// SetFiles replaces the watched file set. Empty paths are ignored.
func (w *Watcher) SetFiles(paths ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	files := map[string]struct{}{}
	dirs := map[string]struct{}{}
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %q: %w", p, err)
		}
		files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	for dir := range w.dirs {
		if _, keep := dirs[dir]; keep {
			continue
		}
		if err := w.watcher.Remove(dir); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
			w.logger.Warn("remove path from watcher", "dir", dir, "error", err)
		}
	}
	for dir := range dirs {
		if _, ok := w.dirs[dir]; ok {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			// The directory may not exist yet; keep going with the rest.
			w.logger.Warn("add path to watcher", "dir", dir, "error", err)
			delete(dirs, dir)
		}
	}

	w.files = files
	w.dirs = dirs
	w.logger.Debug("watching files", "count", len(files))
	return nil
}

func (w *Watcher) watched(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.files[filepath.Clean(name)]
	return ok
}

// Run calls onChange once per burst of events on watched files until ctx is
// done.
func (w *Watcher) Run(ctx context.Context, onChange func()) {
	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case evt, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.watched(evt.Name) || evt.Has(fsnotify.Chmod) {
				continue
			}
			w.logger.Debug("watched file changed", "file", evt.Name, "op", evt.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			onChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
