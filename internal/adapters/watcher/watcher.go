package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/travetto/travetto-sub016/internal/core/domain"
	"github.com/travetto/travetto-sub016/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

// alwaysSkipped are directories that are never watched.
var alwaysSkipped = map[string]bool{
	".git": true,
	".jj":  true,
}

const eventChannelBuffer = 100

// Watcher implements file system watching using fsnotify.
// fsnotify is not recursive, so every directory below the root is added
// and directories created later are added as they appear.
type Watcher struct {
	logger    ports.Logger
	fsWatcher *fsnotify.Watcher
	skip      ports.SkipDirFunc
	events    chan ports.WatchEvent
	stopOnce  sync.Once
}

// NewWatcher creates a new file system watcher.
func NewWatcher(logger ports.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrWatcherStartFailed.Error())
	}
	return &Watcher{
		logger:    logger,
		fsWatcher: watcher,
		events:    make(chan ports.WatchEvent, eventChannelBuffer),
	}, nil
}

// Start begins watching the given root directory recursively.
func (w *Watcher) Start(ctx context.Context, root string, skip ports.SkipDirFunc) error {
	w.skip = skip

	for dir := range w.directories(root) {
		if err := w.fsWatcher.Add(dir); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrWatcherStartFailed.Error()), "dir", dir)
		}
	}

	go w.processEvents(ctx)
	return nil
}

// Stop stops the watcher and releases all resources.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		err = w.fsWatcher.Close()
	})
	return err
}

// Events returns an iterator of file system events.
func (w *Watcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

// directories walks the tree below root and yields every watched directory.
func (w *Watcher) directories(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // Unreadable directories are not watched
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && w.skipped(path) {
				return fs.SkipDir
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func (w *Watcher) skipped(dir string) bool {
	if alwaysSkipped[filepath.Base(dir)] {
		return true
	}
	return w.skip != nil && w.skip(dir)
}

// processEvents converts raw fsnotify events to ports.WatchEvent.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			op, ok := convertOp(event.Op)
			if !ok {
				continue
			}

			if op == ports.OpCreate {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !w.adopt(ctx, event.Name) {
						return
					}
					continue
				}
			}

			if !w.send(ctx, ports.WatchEvent{Path: event.Name, Operation: op}) {
				return
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(fmt.Sprintf("watcher: file system error: %v", err))
		}
	}
}

// adopt watches a directory created after Start and reports the files it
// already holds, since their own create events may have been missed.
func (w *Watcher) adopt(ctx context.Context, dir string) bool {
	if w.skipped(dir) {
		return true
	}
	for sub := range w.directories(dir) {
		if err := w.fsWatcher.Add(sub); err != nil {
			w.logger.Warn(fmt.Sprintf("watcher: cannot watch %s: %v", sub, err))
			continue
		}
		entries, err := os.ReadDir(sub)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if !w.send(ctx, ports.WatchEvent{Path: filepath.Join(sub, entry.Name()), Operation: ports.OpCreate}) {
				return false
			}
		}
	}
	return true
}

func (w *Watcher) send(ctx context.Context, event ports.WatchEvent) bool {
	select {
	case w.events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// convertOp maps an fsnotify operation to a watch operation. Chmod is dropped.
func convertOp(op fsnotify.Op) (ports.WatchOp, bool) {
	switch {
	case op.Has(fsnotify.Write):
		return ports.OpWrite, true
	case op.Has(fsnotify.Create):
		return ports.OpCreate, true
	case op.Has(fsnotify.Remove):
		return ports.OpRemove, true
	case op.Has(fsnotify.Rename):
		return ports.OpRename, true
	default:
		return 0, false
	}
}
