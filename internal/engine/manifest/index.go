// Package manifest implements the manifest index: the record of every compiled
// source, its output, its content hash and its dependency edges.
package manifest

import (
	"maps"
	"slices"

	"github.com/travetto/travetto-sub016/internal/core/domain"
	"go.trai.ch/zerr"
)

// Index is an in-memory manifest. It is not safe for concurrent use; the
// orchestrator serialises access and plans on clones.
type Index struct {
	modulePath string
	generation uint64
	entries    map[string]*domain.ManifestEntry
	bySource   map[string]string

	// Derived from entries by reindex.
	byPackage map[string][]string
	dirty     bool
}

// New creates an empty index for modulePath.
func New(modulePath string) *Index {
	return &Index{
		modulePath: modulePath,
		entries:    make(map[string]*domain.ManifestEntry),
		bySource:   make(map[string]string),
		byPackage:  make(map[string][]string),
	}
}

// FromManifest builds an index from a persisted manifest.
func FromManifest(m *domain.Manifest) *Index {
	idx := New(m.ModulePath)
	idx.generation = m.Generation
	for id, entry := range m.Modules {
		e := entry.Clone()
		e.Module = id
		idx.entries[id] = e
		idx.bySource[e.SourceFile] = id
	}
	idx.dirty = true
	return idx
}

// Manifest returns the persisted form of the index.
func (i *Index) Manifest() *domain.Manifest {
	i.ensureIndexed()
	m := domain.NewManifest(i.modulePath)
	m.Generation = i.generation
	for id, entry := range i.entries {
		m.Modules[id] = entry.Clone()
	}
	return m
}

// Clone returns an independent copy of the index.
func (i *Index) Clone() *Index {
	c := New(i.modulePath)
	c.generation = i.generation
	for id, entry := range i.entries {
		c.entries[id] = entry.Clone()
	}
	maps.Copy(c.bySource, i.bySource)
	c.dirty = true
	return c
}

// ModulePath returns the module path the index describes.
func (i *Index) ModulePath() string {
	return i.modulePath
}

// Generation returns the number of committed batches.
func (i *Index) Generation() uint64 {
	return i.generation
}

// Advance increments and returns the generation.
func (i *Index) Advance() uint64 {
	i.generation++
	return i.generation
}

// Len returns the number of entries.
func (i *Index) Len() int {
	return len(i.entries)
}

// Lookup returns a copy of the entry for a module id.
func (i *Index) Lookup(id string) (*domain.ManifestEntry, bool) {
	i.ensureIndexed()
	entry, ok := i.entries[id]
	if !ok {
		return nil, false
	}
	return entry.Clone(), true
}

// BySource returns a copy of the entry for a canonical source path.
func (i *Index) BySource(sourceFile string) (*domain.ManifestEntry, bool) {
	id, ok := i.bySource[sourceFile]
	if !ok {
		return nil, false
	}
	return i.Lookup(id)
}

// Entries returns copies of all entries ordered by module id.
func (i *Index) Entries() []*domain.ManifestEntry {
	i.ensureIndexed()
	ids := slices.Sorted(maps.Keys(i.entries))
	out := make([]*domain.ManifestEntry, 0, len(ids))
	for _, id := range ids {
		out = append(out, i.entries[id].Clone())
	}
	return out
}

// Upsert inserts or replaces an entry. Dependencies and dependents are
// derived from the imports of all entries and need not be set.
func (i *Index) Upsert(entry *domain.ManifestEntry) {
	e := entry.Clone()
	if old, ok := i.entries[e.Module]; ok && old.SourceFile != e.SourceFile {
		delete(i.bySource, old.SourceFile)
	}
	i.entries[e.Module] = e
	i.bySource[e.SourceFile] = e.Module
	i.dirty = true
}

// MarkStale flags an entry for recompilation.
func (i *Index) MarkStale(id string) {
	if entry, ok := i.entries[id]; ok {
		entry.Stale = true
	}
}

// Resolve maps a module id or canonical source path to its output file.
func (i *Index) Resolve(moduleSpecifier string) (string, error) {
	id, ok := moduleSpecifier, false
	if _, ok = i.entries[id]; !ok {
		id, ok = i.bySource[moduleSpecifier]
	}
	if !ok {
		return "", zerr.With(domain.ErrSourceNotFound, "specifier", moduleSpecifier)
	}

	entry := i.entries[id]
	if entry.OutputFile == "" {
		return "", zerr.With(zerr.With(domain.ErrSourceNotFound, "specifier", moduleSpecifier), "reason", "not compiled")
	}
	return entry.OutputFile, nil
}

// ResolvePackage maps a package import path to the output files of its sources.
func (i *Index) ResolvePackage(importPath string) ([]string, error) {
	i.ensureIndexed()
	ids, ok := i.byPackage[importPath]
	if !ok {
		return nil, zerr.With(domain.ErrSourceNotFound, "package", importPath)
	}

	outputs := make([]string, 0, len(ids))
	for _, id := range ids {
		out, err := i.Resolve(id)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// PackageFiles returns the module ids of a package in sorted order.
func (i *Index) PackageFiles(importPath string) []string {
	i.ensureIndexed()
	return slices.Clone(i.byPackage[importPath])
}

// RecordChange registers a new content hash for sourceFile. When the hash
// differs from the recorded one, or the entry is already stale, the entry and
// all of its transitive dependents are marked stale and returned. An
// unchanged hash returns only the file itself.
func (i *Index) RecordChange(sourceFile, newHash string) (domain.ModuleSet, error) {
	id, ok := i.bySource[sourceFile]
	if !ok {
		return nil, zerr.With(domain.ErrSourceNotFound, "source", sourceFile)
	}
	i.ensureIndexed()

	entry := i.entries[id]
	affected := domain.NewModuleSet(id)
	if entry.ContentHash == newHash && !entry.Stale {
		return affected, nil
	}

	entry.ContentHash = newHash
	entry.Stale = true
	for dep := range i.Dependents(id) {
		i.entries[dep].Stale = true
		affected.Add(dep)
	}
	return affected, nil
}

// Remove prunes the entry of a vanished source and every pointer to it.
// Its transitive dependents are marked stale and returned.
func (i *Index) Remove(sourceFile string) (domain.ModuleSet, error) {
	id, ok := i.bySource[sourceFile]
	if !ok {
		return nil, zerr.With(domain.ErrSourceNotFound, "source", sourceFile)
	}
	i.ensureIndexed()

	dependents := i.Dependents(id)
	for dep := range dependents {
		i.entries[dep].Stale = true
	}

	delete(i.entries, id)
	delete(i.bySource, sourceFile)
	i.dirty = true
	return dependents, nil
}

// Dependents returns the transitive dependents of a module id, excluding the id itself.
func (i *Index) Dependents(id string) domain.ModuleSet {
	i.ensureIndexed()
	seen := domain.NewModuleSet()
	queue := []string{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		entry, ok := i.entries[current]
		if !ok {
			continue
		}
		for _, dep := range entry.Dependents {
			if dep == id || seen.Has(dep) {
				continue
			}
			seen.Add(dep)
			queue = append(queue, dep)
		}
	}
	return seen
}

// CheckCycles verifies that static imports are acyclic at package granularity.
// Lazy imports do not take part: cycles through lazy specifiers are allowed.
func (i *Index) CheckCycles() error {
	return i.packageGraph().Validate()
}

// CyclicPackages returns every package on a static import cycle.
func (i *Index) CyclicPackages() []string {
	return i.packageGraph().Cyclic()
}

// StaticDependencies returns the module ids in the packages entry imports statically.
func (i *Index) StaticDependencies(id string) []string {
	i.ensureIndexed()
	entry, ok := i.entries[id]
	if !ok {
		return nil
	}
	deps := domain.NewModuleSet()
	for _, pkg := range entry.Imports {
		for _, dep := range i.byPackage[pkg] {
			if dep != id {
				deps.Add(dep)
			}
		}
	}
	return deps.Sorted()
}

func (i *Index) packageGraph() *domain.PackageGraph {
	i.ensureIndexed()
	g := domain.NewPackageGraph()
	for _, entry := range i.entries {
		g.AddPackage(entry.Package)
		for _, imp := range entry.Imports {
			if _, known := i.byPackage[imp]; known && imp != entry.Package {
				g.AddEdge(entry.Package, imp)
			}
		}
	}
	return g
}

func (i *Index) ensureIndexed() {
	if i.dirty {
		i.reindex()
	}
}

// reindex recomputes the package table and file level edges from imports.
func (i *Index) reindex() {
	i.byPackage = make(map[string][]string)
	for id, entry := range i.entries {
		i.byPackage[entry.Package] = append(i.byPackage[entry.Package], id)
	}
	for pkg := range i.byPackage {
		slices.Sort(i.byPackage[pkg])
	}

	dependents := make(map[string]domain.ModuleSet, len(i.entries))
	for id, entry := range i.entries {
		deps := domain.NewModuleSet()
		for _, pkg := range append(slices.Clone(entry.Imports), entry.LazyImports...) {
			for _, dep := range i.byPackage[pkg] {
				if dep != id {
					deps.Add(dep)
				}
			}
		}
		entry.Dependencies = deps.Sorted()
		for dep := range deps {
			if dependents[dep] == nil {
				dependents[dep] = domain.NewModuleSet()
			}
			dependents[dep].Add(id)
		}
	}
	for id, entry := range i.entries {
		entry.Dependents = dependents[id].Sorted()
	}
	i.dirty = false
}
