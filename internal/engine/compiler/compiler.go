// Package compiler orchestrates incremental compile batches: it plans which
// files a change affects, compiles them in dependency order with bounded
// parallelism and commits the results to the manifest.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/travetto/travetto-sub016/internal/core/domain"
	"github.com/travetto/travetto-sub016/internal/core/ports"
	"github.com/travetto/travetto-sub016/internal/engine/manifest"
	"github.com/travetto/travetto-sub016/internal/engine/transform"
	"go.trai.ch/zerr"
)

// Batch statuses reported to metrics.
const (
	StatusOK         = "ok"
	StatusFailed     = "failed"
	StatusSuperseded = "superseded"
	StatusCancelled  = "cancelled"
	StatusReadonly   = "readonly"
)

// Options tune a compiler.
type Options struct {
	// Parallelism caps concurrent file compiles; zero means one per CPU.
	Parallelism int
	// Readonly serves cached outputs only and never writes.
	Readonly bool
	// Force skips cache lookups.
	Force bool
	// CacheDir is skipped when changes are reported below it.
	CacheDir string
}

// Deps are the collaborators of a compiler. Metrics may be nil.
type Deps struct {
	Resolver  ports.ModuleResolver
	Hasher    ports.Hasher
	Cache     ports.CacheStore
	Manifests ports.ManifestStore
	Outputs   ports.OutputStore
	Host      *transform.Host
	Tracer    ports.Tracer
	Metrics   ports.Metrics
	Logger    ports.Logger
}

// Compiler runs compile batches against one workspace.
type Compiler struct {
	deps        Deps
	opts        Options
	fingerprint string

	mu        sync.Mutex
	index     *manifest.Index
	loaded    bool
	seq       uint64
	committed uint64
	// carry holds files of superseded batches, replayed by the next batch.
	carry map[string]struct{}
}

// New creates a compiler. The manifest is loaded on first use.
func New(deps Deps, opts Options) *Compiler {
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.NumCPU()
	}
	if opts.CacheDir != "" {
		if dir, err := deps.Resolver.Canonical(opts.CacheDir); err == nil {
			opts.CacheDir = dir
		}
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	return &Compiler{
		deps:        deps,
		opts:        opts,
		fingerprint: deps.Host.Registry().Fingerprint(),
		carry:       make(map[string]struct{}),
	}
}

// Options returns the options the compiler runs with.
func (c *Compiler) Options() Options {
	return c.opts
}

// Compile compiles changed files and everything they affect.
//
// Per-file failures are reported in the result, not as an error. An error is
// returned when the batch could not run or commit, including cancellation,
// in which case nothing is committed. A batch whose snapshot was overtaken by
// another commit runs again on the newer manifest.
func (c *Compiler) Compile(ctx context.Context, changed []string) (*domain.CompileResult, error) {
	for {
		result, replay, err := c.compileOnce(ctx, changed)
		if !errors.Is(err, errSnapshotMoved) {
			return result, err
		}
		changed = replay
	}
}

// compileOnce runs one attempt of a batch. It returns the files it was given,
// carried files included, so a moved snapshot can be replayed.
func (c *Compiler) compileOnce(ctx context.Context, changed []string) (*domain.CompileResult, []string, error) {
	c.mu.Lock()
	c.ensureLoaded()
	base := c.index
	snapshot := base.Clone()
	if len(c.carry) > 0 {
		changed = append(slices.Clone(changed), slices.Sorted(maps.Keys(c.carry))...)
		clear(c.carry)
	}
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	ctx, span := c.deps.Tracer.Start(ctx, "compile", ports.WithAttribute(ports.AttrBatch, int64(seq)))
	defer span.End()

	result := domain.NewCompileResult()
	b, err := c.plan(ctx, seq, snapshot, changed, result)
	if err != nil {
		span.RecordError(err)
		c.deps.Metrics.BatchFinished(StatusCancelled, snapshot.Generation())
		return nil, changed, err
	}
	b.base = base

	run, err := c.execute(ctx, b)
	if err == nil {
		// A batch cancelled after its last job finished still must not commit.
		err = ctx.Err()
	}
	if err != nil {
		span.RecordError(err)
		c.deps.Metrics.BatchFinished(StatusCancelled, snapshot.Generation())
		return nil, changed, err
	}
	run.collect(result)

	if c.opts.Readonly {
		result.Generation = snapshot.Generation()
		c.deps.Metrics.BatchFinished(StatusReadonly, result.Generation)
		return result, changed, nil
	}

	if err := c.commit(b, run, result); err != nil {
		if !errors.Is(err, errSnapshotMoved) {
			span.RecordError(err)
		}
		return result, changed, err
	}
	return result, changed, nil
}

// Build compiles every source of the workspace and prunes manifest entries
// whose source disappeared.
func (c *Compiler) Build(ctx context.Context) (*domain.CompileResult, error) {
	files, err := c.deps.Resolver.Discover(ctx)
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[f] = true
	}

	c.mu.Lock()
	c.ensureLoaded()
	for _, entry := range c.index.Entries() {
		if !present[entry.SourceFile] {
			files = append(files, entry.SourceFile)
		}
	}
	c.mu.Unlock()

	return c.Compile(ctx, files)
}

// Resolve maps a module id or a source path to its compiled output.
func (c *Compiler) Resolve(spec string) (string, error) {
	if filepath.IsAbs(spec) || strings.HasPrefix(spec, ".") {
		canonical, err := c.deps.Resolver.Canonical(spec)
		if err != nil {
			return "", err
		}
		spec = canonical
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoaded()
	return c.index.Resolve(spec)
}

// Snapshot returns a copy of the committed manifest index.
func (c *Compiler) Snapshot() *manifest.Index {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLoaded()
	return c.index.Clone()
}

// Clean removes cached records; with all set, outputs and the manifest too.
// Batches still running when the manifest is dropped are superseded.
func (c *Compiler) Clean(ctx context.Context, all bool) error {
	if c.opts.Readonly {
		return zerr.With(domain.ErrCompileDisabled, "operation", "clean")
	}
	if err := c.deps.Cache.Clear(ctx, all); err != nil {
		return err
	}
	if !all {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = manifest.New(c.deps.Resolver.ModulePath())
	c.loaded = true
	clear(c.carry)
	c.seq++
	c.committed = c.seq
	return nil
}

// ensureLoaded reads the manifest once. Callers hold c.mu.
func (c *Compiler) ensureLoaded() {
	if c.loaded {
		return
	}
	c.loaded = true

	m, err := c.deps.Manifests.Load()
	if err != nil {
		c.deps.Logger.Warn(fmt.Sprintf("ignoring unreadable manifest, every file will be recompiled: %v", err))
		c.index = manifest.New(c.deps.Resolver.ModulePath())
		return
	}
	c.index = manifest.FromManifest(m)
}
