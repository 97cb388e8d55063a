// Package app implements the application layer for trvc.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/travetto/travetto-sub016/internal/adapters/cas"
	"github.com/travetto/travetto-sub016/internal/adapters/fs"
	"github.com/travetto/travetto-sub016/internal/adapters/linear"
	manifeststore "github.com/travetto/travetto-sub016/internal/adapters/manifest"
	"github.com/travetto/travetto-sub016/internal/adapters/watcher"
	"github.com/travetto/travetto-sub016/internal/core/domain"
	"github.com/travetto/travetto-sub016/internal/core/ports"
	"github.com/travetto/travetto-sub016/internal/engine/compiler"
	"github.com/travetto/travetto-sub016/internal/engine/transform"
	"github.com/travetto/travetto-sub016/internal/engine/transform/builtin"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	walker       *fs.Walker
	hasher       ports.Hasher
	tracer       ports.Tracer
	metrics      ports.Metrics
	renderer     *linear.Renderer
	newWatcher   watcher.Factory

	workDir  string
	debounce time.Duration
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	walker *fs.Walker,
	hasher ports.Hasher,
	tracer ports.Tracer,
	metrics ports.Metrics,
	renderer *linear.Renderer,
	newWatcher watcher.Factory,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		walker:       walker,
		hasher:       hasher,
		tracer:       tracer,
		metrics:      metrics,
		renderer:     renderer,
		newWatcher:   newWatcher,
		workDir:      ".",
		debounce:     watcher.DefaultDebounceWindow,
	}
}

// WithWorkDir sets the directory the workspace is discovered from.
func (a *App) WithWorkDir(dir string) *App {
	a.workDir = dir
	return a
}

// WithDebounce sets the window used to coalesce watch events.
func (a *App) WithDebounce(window time.Duration) *App {
	a.debounce = window
	return a
}

// presenter is implemented by loggers that can switch format and verbosity.
type presenter interface {
	SetJSON(enable bool)
	SetVerbose(enable bool)
}

// SetPresentation selects JSON logs and per-file progress output.
func (a *App) SetPresentation(jsonLogs, verbose bool) {
	if p, ok := a.logger.(presenter); ok {
		p.SetJSON(jsonLogs)
		p.SetVerbose(verbose)
	}
	if a.renderer == nil {
		return
	}
	if verbose && !jsonLogs {
		a.renderer.SetOutput(os.Stderr)
	} else {
		a.renderer.SetOutput(io.Discard)
	}
}

// CompileOptions configuration for the Compile method.
type CompileOptions struct {
	// Parallelism overrides the configured parallelism when positive.
	Parallelism int
	// Force bypasses cache reads.
	Force bool
}

// Compile compiles the given files, or the whole workspace when files is empty.
// Per-file failures are logged and returned joined under domain.ErrBuildFailed.
func (a *App) Compile(ctx context.Context, files []string, opts CompileOptions) (*domain.CompileResult, error) {
	c, _, err := a.open(opts)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	var result *domain.CompileResult
	if len(files) == 0 {
		result, err = c.Build(ctx)
	} else {
		result, err = c.Compile(ctx, files)
	}
	if err != nil {
		return result, err
	}

	a.report(result, started)
	return result, result.Err()
}

// Clean removes cached records, or with all set the whole cache directory state.
func (a *App) Clean(ctx context.Context, all bool) error {
	c, cfg, err := a.open(CompileOptions{})
	if err != nil {
		return err
	}
	if err := c.Clean(ctx, all); err != nil {
		return err
	}
	if all {
		a.logger.Info(fmt.Sprintf("removed %s", cfg.CacheDir))
	} else {
		a.logger.Info(fmt.Sprintf("removed cached records in %s", domain.ObjectsPath(cfg.CacheDir)))
	}
	return nil
}

// Resolve maps a module id or a source path to its compiled output file.
func (a *App) Resolve(_ context.Context, spec string) (string, error) {
	c, _, err := a.open(CompileOptions{})
	if err != nil {
		return "", err
	}
	return c.Resolve(spec)
}

// open loads the configuration and assembles a compiler for the workspace.
func (a *App) open(opts CompileOptions) (*compiler.Compiler, *domain.Config, error) {
	cfg, err := a.configLoader.Load(a.workDir)
	if err != nil {
		return nil, nil, zerr.Wrap(err, "failed to load configuration")
	}
	if opts.Parallelism > 0 {
		cfg.Parallelism = opts.Parallelism
	}

	resolver, err := fs.NewResolver(a.walker, cfg.Root, cfg.CacheDir, cfg.Exclude)
	if err != nil {
		return nil, nil, err
	}
	cache, err := cas.NewStore(cfg.CacheDir, cas.WithCorruptionHook(func(key string, err error) {
		a.logger.Debug(fmt.Sprintf("discarded cache record %s: %v", key, err))
	}))
	if err != nil {
		return nil, nil, err
	}

	registry := transform.NewRegistry()
	if err := builtin.Install(registry, cfg.Transformers); err != nil {
		return nil, nil, err
	}
	host := transform.NewHost(registry, transform.Env{Resolver: resolver, MetaImport: cfg.MetaImport})

	c := compiler.New(compiler.Deps{
		Resolver:  resolver,
		Hasher:    a.hasher,
		Cache:     cache,
		Manifests: manifeststore.NewStore(cfg.ManifestFile(), resolver.ModulePath()),
		Outputs:   fs.NewOutputs(cfg.OutputDir()),
		Host:      host,
		Tracer:    a.tracer,
		Metrics:   a.metrics,
		Logger:    a.logger,
	}, compiler.Options{
		Parallelism: cfg.Parallelism,
		Readonly:    cfg.Readonly,
		Force:       opts.Force,
		CacheDir:    cfg.CacheDir,
	})
	return c, cfg, nil
}

// report logs the summary line of a batch.
func (a *App) report(result *domain.CompileResult, started time.Time) {
	if result.Superseded {
		a.logger.Debug(fmt.Sprintf("batch superseded, generation %d already committed", result.Generation))
		return
	}
	msg := fmt.Sprintf("%d file(s) up to date, %d from cache, %d failed in %v (generation %d)",
		len(result.Succeeded), len(result.Cached), len(result.Failed),
		time.Since(started).Round(time.Millisecond), result.Generation)
	if len(result.AtRisk) > 0 {
		msg += fmt.Sprintf(", %d compiled against a failed dependency", len(result.AtRisk))
	}
	if len(result.Removed) > 0 {
		msg += fmt.Sprintf(", %d removed", len(result.Removed))
	}
	a.logger.Info(msg)
}
