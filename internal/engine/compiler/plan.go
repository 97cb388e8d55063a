package compiler

import (
	"context"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/travetto/travetto-sub016/internal/core/domain"
	"github.com/travetto/travetto-sub016/internal/engine/manifest"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// job is one file scheduled in a batch.
type job struct {
	entry  *domain.ManifestEntry
	source []byte
	// static lists in-batch module ids this file imports statically.
	static []string
	// dependents lists in-batch module ids importing this file statically.
	dependents []string
	// failed is set when the file cannot be compiled at all.
	failed error
}

// batch is the plan of one compile pass, built on a snapshot of the index.
type batch struct {
	seq     uint64
	base    *manifest.Index // committed index the snapshot was cloned from
	index   *manifest.Index
	jobs    map[string]*job
	removed map[string]*domain.ManifestEntry
}

func (c *Compiler) plan(
	ctx context.Context,
	seq uint64,
	snapshot *manifest.Index,
	changed []string,
	result *domain.CompileResult,
) (*batch, error) {
	b := &batch{
		seq:     seq,
		index:   snapshot,
		jobs:    make(map[string]*job),
		removed: make(map[string]*domain.ManifestEntry),
	}
	affected := domain.NewModuleSet()
	sources := make(map[string][]byte)

	for _, path := range changed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		file, err := c.deps.Resolver.Canonical(path)
		if err != nil {
			result.Failed[path] = err
			continue
		}
		if !isBelow(c.deps.Resolver.Root(), file) {
			result.Failed[file] = zerr.With(domain.ErrPathOutsideRoot, "file", file)
			continue
		}
		if !c.compilable(file) {
			continue
		}
		if err := c.track(b, file, affected, sources, result); err != nil {
			result.Failed[file] = err
		}
	}

	c.sweepStale(b, affected)
	if err := c.loadSources(ctx, b, affected, sources, result); err != nil {
		return nil, err
	}

	ids := slices.DeleteFunc(affected.Sorted(), func(id string) bool {
		_, ok := sources[id]
		return !ok
	})
	parseErrs, err := c.refreshImports(ctx, b, ids, sources)
	if err != nil {
		return nil, err
	}

	cyclic := make(map[string]bool)
	for _, pkg := range b.index.CyclicPackages() {
		cyclic[pkg] = true
	}
	var cycleErr error
	if len(cyclic) > 0 {
		cycleErr = b.index.CheckCycles()
	}

	for _, id := range ids {
		entry, _ := b.index.Lookup(id)
		j := &job{entry: entry, source: sources[id], failed: parseErrs[id]}
		if j.failed == nil && cyclic[entry.Package] {
			j.failed = zerr.With(zerr.With(cycleErr, "file", entry.SourceFile), "package", entry.Package)
		}
		b.jobs[id] = j
	}
	for id, j := range b.jobs {
		// A job failing up front waits for nothing.
		if j.failed != nil {
			continue
		}
		for _, dep := range b.index.StaticDependencies(id) {
			if dj, ok := b.jobs[dep]; ok {
				j.static = append(j.static, dep)
				dj.dependents = append(dj.dependents, id)
			}
		}
	}
	for _, j := range b.jobs {
		slices.Sort(j.dependents)
	}
	return b, nil
}

// track records the current state of one reported file in the snapshot.
func (c *Compiler) track(
	b *batch,
	file string,
	affected domain.ModuleSet,
	sources map[string][]byte,
	result *domain.CompileResult,
) error {
	data, err := os.ReadFile(file) //nolint:gosec // Paths are canonical workspace sources
	if errors.Is(err, fs.ErrNotExist) {
		c.prune(b, file, affected, result)
		return nil
	}
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrSourceNotFound.Error()), "file", file)
	}

	if _, known := b.index.BySource(file); !known {
		b.index.Upsert(&domain.ManifestEntry{
			Module:     c.deps.Resolver.ModuleID(file),
			Package:    c.deps.Resolver.PackageOf(file),
			SourceFile: file,
		})
	}
	set, err := b.index.RecordChange(file, c.deps.Hasher.HashBytes(data))
	if err != nil {
		return err
	}
	affected.Merge(set)

	entry, _ := b.index.BySource(file)
	sources[entry.Module] = data
	return nil
}

// prune drops a vanished source from the snapshot. Its dependents become affected.
func (c *Compiler) prune(b *batch, file string, affected domain.ModuleSet, result *domain.CompileResult) {
	entry, ok := b.index.BySource(file)
	if !ok {
		return
	}
	dependents, err := b.index.Remove(file)
	if err != nil {
		return
	}
	affected.Merge(dependents)
	delete(affected, entry.Module)
	b.removed[entry.Module] = entry
	result.Removed[file] = struct{}{}
}

// sweepStale adds entries that are stale, never produced an output, or whose
// output no longer carries the recorded content hash.
func (c *Compiler) sweepStale(b *batch, affected domain.ModuleSet) {
	for _, entry := range b.index.Entries() {
		if affected.Has(entry.Module) {
			continue
		}
		if entry.Stale || entry.OutputFile == "" {
			affected.Add(entry.Module)
			continue
		}
		ok, err := c.deps.Outputs.Verify(entry.OutputFile, entry.ContentHash)
		if err != nil || !ok {
			c.deps.Logger.Debug(fmt.Sprintf("%v: %s", domain.ErrManifestStale, entry.Module))
			affected.Add(entry.Module)
		}
	}
}

// loadSources reads every affected file not read yet. A file whose content
// changed without being reported is recorded, which may affect more files.
func (c *Compiler) loadSources(
	ctx context.Context,
	b *batch,
	affected domain.ModuleSet,
	sources map[string][]byte,
	result *domain.CompileResult,
) error {
	for {
		var pending []*domain.ManifestEntry
		for _, id := range affected.Sorted() {
			if _, ok := sources[id]; ok {
				continue
			}
			if entry, ok := b.index.Lookup(id); ok {
				pending = append(pending, entry)
			} else {
				delete(affected, id)
			}
		}
		if len(pending) == 0 {
			return nil
		}

		for _, entry := range pending {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := c.track(b, entry.SourceFile, affected, sources, result); err != nil {
				result.Failed[entry.SourceFile] = err
				delete(affected, entry.Module)
			}
		}
	}
}

// refreshImports re-reads the static in-module imports of the given files.
func (c *Compiler) refreshImports(
	ctx context.Context,
	b *batch,
	ids []string,
	sources map[string][]byte,
) (map[string]error, error) {
	type parsed struct {
		imports []string
		err     error
	}
	results := make([]parsed, len(ids))
	entries := make([]*domain.ManifestEntry, len(ids))
	for i, id := range ids {
		entries[i], _ = b.index.Lookup(id)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Parallelism)
	for i, entry := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			imports, err := c.parseImports(entry.SourceFile, sources[entry.Module])
			results[i] = parsed{imports: imports, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failures := make(map[string]error)
	for i, entry := range entries {
		if results[i].err != nil {
			failures[entry.Module] = results[i].err
			continue
		}
		if !slices.Equal(entry.Imports, results[i].imports) {
			entry.Imports = results[i].imports
			b.index.Upsert(entry)
		}
	}
	return failures, nil
}

func (c *Compiler) parseImports(file string, source []byte) ([]string, error) {
	f, err := parser.ParseFile(token.NewFileSet(), file, source, parser.ImportsOnly)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrParseFailed.Error()), "file", file)
	}

	set := domain.NewModuleSet()
	for _, spec := range f.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		if _, ok := c.deps.Resolver.ResolveImport(path); ok {
			set.Add(path)
		}
	}
	if len(set) == 0 {
		return nil, nil
	}
	return set.Sorted(), nil
}

// compilable reports whether a reported path is a source the compiler owns.
func (c *Compiler) compilable(file string) bool {
	if filepath.Ext(file) != domain.SourceExt || strings.HasSuffix(file, "_test.go") {
		return false
	}
	return c.opts.CacheDir == "" || !isBelow(c.opts.CacheDir, file)
}

func isBelow(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
