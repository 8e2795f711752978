// Package fixturewatch optionally hot-reloads fixture source: it
// watches a server's registered import-path directories with fsnotify
// and invalidates the fixture.Loader's cached source bytes for a path
// when that path's source changes, so the next Import picks up the
// edit without restarting the server. This is an operational
// convenience layered on top of, never required by, the core loader.
package fixturewatch

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Invalidator evicts a cached fixture's source bytes for path. It is
// satisfied by *fixture.Loader; this package takes the narrow
// interface so it never needs to import the yaegi-backed loader.
type Invalidator interface {
	Invalidate(path string)
}

// Watcher drives an fsnotify.Watcher and forwards write/rename/create
// events on watched paths to an Invalidator.
type Watcher struct {
	fsw  *fsnotify.Watcher
	inv  Invalidator
	log  *slog.Logger
	done chan struct{}
}

// New creates a Watcher backed by a fresh fsnotify.Watcher. Call Add
// for every directory that should be watched, then Run in its own
// goroutine.
func New(inv Invalidator, log *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{fsw: fsw, inv: inv, log: log, done: make(chan struct{})}, nil
}

// Add registers a directory for watching. It is a no-op wrapper
// around fsnotify's own Add, kept here so callers never import
// fsnotify directly.
func (w *Watcher) Add(path string) error {
	return w.fsw.Add(path)
}

// Run processes fsnotify events until Close is called. It is meant to
// run in its own goroutine for the lifetime of the server.
func (w *Watcher) Run() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Rename|fsnotify.Create) != 0 {
				w.inv.Invalidate(event.Name)
				if w.log != nil {
					w.log.Debug("fixture source changed, invalidated cache", "path", event.Name, "op", event.Op.String())
				}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.log != nil {
				w.log.Debug("fixture watcher error", "err", err)
			}
		case <-w.done:
			return
		}
	}
}

// Close stops Run and releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
