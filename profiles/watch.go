package profiles

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ramborogers/netswitch/logging"
)

// DefaultDebounce collapses the burst of events editors emit on save.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a profile file when it changes on disk.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(*Store, error)
	logger   *logging.Logger

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup

	mu    sync.Mutex
	timer *time.Timer
}

// Watch starts watching path and calls onChange with the reloaded store, or
// the load error, after each debounced change. The parent directory is
// watched so editors that replace the file by rename are still seen. The
// watch stops when ctx is done or Close is called.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func(*Store, error)) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		logger:   logging.WithComponent("profiles"),
		watcher:  fw,
	}
	w.wg.Add(1)
	go w.loop(ctx)
	return w, nil
}

// Close stops the watch and waits for the event loop to exit.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	w.wg.Wait()
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				w.schedule()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("profile watch error", "error", err)
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		store, err := Load(w.path)
		if err != nil {
			w.logger.Warn("profile reload failed", "path", w.path, "error", err)
		} else {
			w.logger.Info("profiles reloaded", "path", w.path, "users", store.Count())
		}
		w.onChange(store, err)
	})
}
