package domain

import (
	"maps"
	"slices"
)

// ManifestEntry records one compiled source file.
type ManifestEntry struct {
	// Module is the module id, "<module path>/<relative file path>".
	Module string `json:"-"`
	// Package is the import path of the directory holding the file.
	Package string `json:"package"`
	// SourceFile is the canonical absolute path of the source.
	SourceFile string `json:"source_file"`
	// OutputFile is the absolute path of the compiled output.
	OutputFile string `json:"output_file,omitempty"`
	// ContentHash is the hash of the source bytes.
	ContentHash string `json:"hash"`
	// InputHash is the cache key the output was produced for.
	InputHash string `json:"input_hash,omitempty"`
	// Imports are the in-module packages imported statically.
	Imports []string `json:"imports,omitempty"`
	// LazyImports are the in-module packages referenced through lazy specifiers.
	LazyImports []string `json:"lazy_imports,omitempty"`
	// Dependencies are the module ids this file depends on.
	Dependencies []string `json:"dependencies,omitempty"`
	// Dependents are the module ids depending on this file.
	Dependents []string `json:"dependents,omitempty"`
	// Stale marks entries that must be recompiled by the next batch.
	Stale bool `json:"stale,omitempty"`
}

// Clone returns a deep copy of the entry.
func (e *ManifestEntry) Clone() *ManifestEntry {
	c := *e
	c.Imports = slices.Clone(e.Imports)
	c.LazyImports = slices.Clone(e.LazyImports)
	c.Dependencies = slices.Clone(e.Dependencies)
	c.Dependents = slices.Clone(e.Dependents)
	return &c
}

// Manifest is the persisted form of the manifest index.
type Manifest struct {
	Version    int                       `json:"version"`
	Generation uint64                    `json:"generation"`
	ModulePath string                    `json:"module"`
	Modules    map[string]*ManifestEntry `json:"modules"`
}

// NewManifest returns an empty manifest for the given module path.
func NewManifest(modulePath string) *Manifest {
	return &Manifest{
		Version:    ManifestVersion,
		ModulePath: modulePath,
		Modules:    make(map[string]*ManifestEntry),
	}
}

// ModuleSet is a set of module ids.
type ModuleSet map[string]struct{}

// NewModuleSet creates a set holding ids.
func NewModuleSet(ids ...string) ModuleSet {
	s := make(ModuleSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id into the set.
func (s ModuleSet) Add(id string) {
	s[id] = struct{}{}
}

// Has reports whether id is in the set.
func (s ModuleSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Merge adds all ids of other.
func (s ModuleSet) Merge(other ModuleSet) {
	maps.Copy(s, other)
}

// Sorted returns the ids in lexical order.
func (s ModuleSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}
