// Package fs provides file system adapters for walking, hashing and resolving sources.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
	"strings"

	"github.com/travetto/travetto-sub016/internal/core/domain"
)

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields all files below root, skipping VCS metadata and ignored directories.
// Ignores are matched against directory and file base names with filepath.Match.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if path != root {
				if skip, action := w.shouldSkip(d, ignores); skip {
					return action
				}
			}

			if d.IsDir() {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// WalkSources yields the Go source files below root.
// Directories Go itself ignores (leading "." or "_", testdata, vendor) are skipped too.
func (w *Walker) WalkSources(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for path := range w.WalkFiles(root, ignores) {
			if filepath.Ext(path) != domain.SourceExt {
				continue
			}
			if rel, err := filepath.Rel(root, path); err == nil && hasIgnoredSegment(rel) {
				continue
			}
			if !yield(path) {
				return
			}
		}
	}
}

// shouldSkip checks if an entry should be skipped based on ignore patterns.
// The returned error is filepath.SkipDir for directories and nil for files.
func (w *Walker) shouldSkip(d fs.DirEntry, ignores []string) (bool, error) {
	name := d.Name()

	if d.IsDir() && (name == ".git" || name == ".jj") {
		return true, filepath.SkipDir
	}

	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			if d.IsDir() {
				return true, filepath.SkipDir
			}
			return true, nil
		}
	}
	return false, nil
}

// hasIgnoredSegment reports whether a directory segment of rel is ignored by the go tool.
func hasIgnoredSegment(rel string) bool {
	segments := strings.Split(filepath.ToSlash(rel), "/")
	for _, seg := range segments[:len(segments)-1] {
		if strings.HasPrefix(seg, ".") || strings.HasPrefix(seg, "_") || seg == "testdata" || seg == "vendor" {
			return true
		}
	}
	return false
}
