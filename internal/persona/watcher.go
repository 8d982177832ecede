package persona

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher refreshes a ModeStartup catalog when persona files change, so
// cached catalogs still pick up edits without a restart. Events are debounced
// because editors fire several per save.
type Watcher struct {
	catalog *Catalog
	fsw     *fsnotify.Watcher
}

// NewWatcher creates a watcher over the catalog's directory.
func NewWatcher(catalog *Catalog) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(catalog.dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{catalog: catalog, fsw: fsw}, nil
}

// Start runs the watch loop until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	go w.loop(ctx)
}

// Stop closes the underlying filesystem watcher.
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	const debounce = 500 * time.Millisecond

	var timer *time.Timer
	fire := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, w.catalog.Reload)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				fire()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("persona watcher error", "error", err)
		}
	}
}
