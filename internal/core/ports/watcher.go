package ports

import (
	"context"
	"iter"
)

// WatchOp is the kind of change reported for a source file.
type WatchOp uint8

const (
	// OpCreate indicates a file was created.
	OpCreate WatchOp = iota
	// OpWrite indicates a file was modified.
	OpWrite
	// OpRemove indicates a file was removed.
	OpRemove
	// OpRename indicates a file was renamed away.
	OpRename
)

// WatchEvent is a change to a file below the watched root.
type WatchEvent struct {
	// Path is the absolute path of the file that changed.
	Path string
	// Operation is the type of change that occurred.
	Operation WatchOp
}

// SkipDirFunc reports whether a directory must not be watched.
type SkipDirFunc func(dir string) bool

// Watcher reports source changes below a workspace root.
//
//go:generate mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start begins watching root recursively, skipping directories matched by skip.
	Start(ctx context.Context, root string, skip SkipDirFunc) error
	// Stop stops the watcher and releases all resources.
	Stop() error
	// Events returns an iterator of file events. It ends when the watcher stops.
	Events() iter.Seq[WatchEvent]
}
