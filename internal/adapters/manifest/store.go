// Package manifest persists the manifest index as a JSON file.
package manifest

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	fsadapter "github.com/travetto/travetto-sub016/internal/adapters/fs"
	"github.com/travetto/travetto-sub016/internal/core/domain"
	"github.com/travetto/travetto-sub016/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ManifestStore = (*Store)(nil)

// Store reads and writes the manifest file.
type Store struct {
	path       string
	modulePath string
}

// NewStore creates a Store for the manifest at path describing modulePath.
func NewStore(path, modulePath string) *Store {
	return &Store{path: path, modulePath: modulePath}
}

// Path returns the manifest file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the manifest. A missing manifest, one written by another format
// version, or one describing another module yields an empty manifest.
func (s *Store) Load() (*domain.Manifest, error) {
	//nolint:gosec // Path is derived from the configured cache directory
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NewManifest(s.modulePath), nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrManifestReadFailed.Error()), "path", s.path)
	}

	var m domain.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrManifestReadFailed.Error()), "path", s.path)
	}
	if m.Version != domain.ManifestVersion || m.ModulePath != s.modulePath {
		return domain.NewManifest(s.modulePath), nil
	}

	if m.Modules == nil {
		m.Modules = make(map[string]*domain.ManifestEntry)
	}
	for id, entry := range m.Modules {
		if entry == nil {
			delete(m.Modules, id)
			continue
		}
		entry.Module = id
	}
	return &m, nil
}

// Save replaces the manifest file atomically.
func (s *Store) Save(m *domain.Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrManifestWriteFailed.Error())
	}
	if err := os.MkdirAll(filepath.Dir(s.path), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrManifestWriteFailed.Error()), "path", s.path)
	}
	if err := fsadapter.WriteFileAtomic(s.path, append(data, '\n')); err != nil {
		return zerr.Wrap(err, domain.ErrManifestWriteFailed.Error())
	}
	return nil
}
