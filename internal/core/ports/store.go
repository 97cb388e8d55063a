package ports

import (
	"context"

	"github.com/travetto/travetto-sub016/internal/core/domain"
)

// CacheStore stores compiled output keyed by input hash.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type CacheStore interface {
	// Get retrieves the record for key.
	// Returns nil, nil on a miss. Corrupted records are reported as misses.
	Get(key string) (*domain.CacheRecord, error)

	// Put stores the record, replacing any record with the same key.
	Put(record domain.CacheRecord) error

	// Clear removes cache records. With all set it also removes compiled
	// outputs and the manifest. Clearing an empty cache is a no-op.
	Clear(ctx context.Context, all bool) error
}

// ManifestStore persists the manifest.
type ManifestStore interface {
	// Load reads the manifest. A missing manifest yields an empty one.
	Load() (*domain.Manifest, error)

	// Save replaces the persisted manifest.
	Save(m *domain.Manifest) error
}

// OutputStore writes compiled outputs and checks their trailing hash.
type OutputStore interface {
	// PathFor returns the output file path of a module id.
	PathFor(moduleID string) string

	// Write stores code at path followed by the hash trailer.
	Write(path string, code []byte, hash string) error

	// Verify reports whether the output at path exists and carries hash.
	Verify(path, hash string) (bool, error)

	// Remove deletes the output at path. A missing file is not an error.
	Remove(path string) error
}
