package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after a change before reloading.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a config file whenever it changes.
type Watcher struct {
	path     string
	fn       func(*Config, error)
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher starts watching path. fn receives every reload result; a
// failed reload reports the error and keeps the previous configuration in
// the caller's hands.
//
// The directory is watched instead of the file so that editors replacing the
// file atomically are still observed.
func NewWatcher(path string, fn func(*Config, error)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("config: watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:     abs,
		fn:       fn,
		watcher:  fw,
		debounce: DefaultDebounce,
		logger:   slog.New(slog.DiscardHandler),
	}, nil
}

// SetLogger sets the logger for watch diagnostics.
func (w *Watcher) SetLogger(l *slog.Logger) {
	if l != nil {
		w.logger = l
	}
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			_ = w.watcher.Close()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.logger.Debug("config file changed", "file", event.Name, "op", event.Op.String())
			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.stopTimer()
	return w.watcher.Close()
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config reload failed", "file", w.path, "error", err)
	}
	w.fn(cfg, err)
}

// Watch reloads path on every change until ctx is done.
func Watch(ctx context.Context, path string, fn func(*Config, error)) error {
	w, err := NewWatcher(path, fn)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// WatchLevel keeps level in sync with the log level of the file at path
// until ctx is done. Invalid files leave level unchanged.
func WatchLevel(ctx context.Context, path string, level *slog.LevelVar) error {
	return Watch(ctx, path, func(cfg *Config, err error) {
		if err == nil {
			level.Set(cfg.Level())
		}
	})
}
