// Package reload watches a policy file and re-applies it on change.
package reload

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period after the last write before reloading.
const DefaultDebounce = 500 * time.Millisecond

// Func applies the file at path. An error keeps the previous state.
type Func func(path string) error

// Watcher triggers a reload when the watched file is written, created or
// renamed into place. The parent directory is watched so editors that
// replace the file atomically are still observed.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	reload   Func
	logger   *zap.Logger
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a Watcher for path. The file must exist.
func New(path string, reload Func, logger *zap.Logger, debounce time.Duration) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("reload: path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "reload: resolve path")
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, errors.Wrapf(err, "reload: stat %q", abs)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "failed to watch %q", abs)
	}

	return &Watcher{
		watcher:  fw,
		path:     abs,
		reload:   reload,
		logger:   logger.With(zap.String("path", abs)),
		debounce: debounce,
	}, nil
}

// Run blocks until ctx is cancelled or the underlying watcher closes.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	// Renames leave a window where the file is missing.
	if _, err := os.Stat(w.path); err != nil {
		w.logger.Debug("hot-reload skipped, file missing")
		return
	}
	if err := w.reload(w.path); err != nil {
		w.logger.Error("hot-reload failed", zap.Error(err))
		return
	}
	w.logger.Info("hot-reload: policies reloaded")
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
