// Package cas implements the compile cache: records addressed by input hash.
package cas

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	fsadapter "github.com/travetto/travetto-sub016/internal/adapters/fs"
	"github.com/travetto/travetto-sub016/internal/core/domain"
	"github.com/travetto/travetto-sub016/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultMemorySize is the number of records kept in memory in front of the disk store.
const DefaultMemorySize = 512

var _ ports.CacheStore = (*Store)(nil)

// CorruptionFunc is called when a record on disk cannot be used.
type CorruptionFunc func(key string, err error)

// Store implements ports.CacheStore using one JSON file per key with an LRU in front.
type Store struct {
	dir       string
	mem       *lru.Cache[string, domain.CacheRecord]
	onCorrupt CorruptionFunc
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithCorruptionHook registers fn to observe corrupted records before they are discarded.
func WithCorruptionHook(fn CorruptionFunc) Option {
	return func(s *Store) {
		s.onCorrupt = fn
	}
}

// WithClock overrides the clock used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a Store for the cache directory dir.
func NewStore(dir string, opts ...Option) (*Store, error) {
	mem, err := lru.New[string, domain.CacheRecord](DefaultMemorySize)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreCreateFailed.Error())
	}

	s := &Store{
		dir: dir,
		mem: mem,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get retrieves the record stored under key. A miss returns nil, nil.
// Unreadable or inconsistent records are removed and reported as a miss.
func (s *Store) Get(key string) (*domain.CacheRecord, error) {
	if rec, ok := s.mem.Get(key); ok {
		return &rec, nil
	}

	filename := s.filename(key)
	//nolint:gosec // Path is constructed from the cache directory and a hex key
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		s.discard(key, filename, zerr.Wrap(err, domain.ErrStoreReadFailed.Error()))
		return nil, nil
	}

	var rec domain.CacheRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		s.discard(key, filename, zerr.Wrap(err, domain.ErrCacheCorruption.Error()))
		return nil, nil
	}
	if rec.Key != key || rec.SourceHash == "" {
		s.discard(key, filename, zerr.With(domain.ErrCacheCorruption, "stored_key", rec.Key))
		return nil, nil
	}

	s.mem.Add(key, rec)
	return &rec, nil
}

// Put stores the record under its key, replacing any previous record.
func (s *Store) Put(record domain.CacheRecord) error {
	if record.Key == "" {
		return zerr.With(domain.ErrStoreWriteFailed, "reason", "empty key")
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = s.now()
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}

	filename := s.filename(record.Key)
	if err := os.MkdirAll(filepath.Dir(filename), domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreCreateFailed.Error())
	}
	if err := fsadapter.WriteFileAtomic(filename, data); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}

	s.mem.Add(record.Key, record)
	return nil
}

// Clear removes all cache records. With all set, compiled outputs and the
// manifest are removed as well. Missing artifacts are not an error.
func (s *Store) Clear(ctx context.Context, all bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mem.Purge()

	targets := []string{domain.ObjectsPath(s.dir)}
	if all {
		targets = append(targets, domain.OutputPath(s.dir), domain.ManifestPath(s.dir))
	}

	var errs []error
	for _, target := range targets {
		if err := os.RemoveAll(target); err != nil {
			errs = append(errs, zerr.With(zerr.Wrap(err, domain.ErrStoreClearFailed.Error()), "path", target))
		}
	}
	return errors.Join(errs...)
}

func (s *Store) discard(key, filename string, err error) {
	s.mem.Remove(key)
	_ = os.Remove(filename)
	if s.onCorrupt != nil {
		s.onCorrupt(key, err)
	}
}

func (s *Store) filename(key string) string {
	shard := "00"
	if len(key) >= 2 {
		shard = key[:2]
	}
	return filepath.Join(domain.ObjectsPath(s.dir), shard, key+".json")
}
