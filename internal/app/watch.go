package app

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/travetto/travetto-sub016/internal/adapters/server"
	"github.com/travetto/travetto-sub016/internal/adapters/watcher"
	"github.com/travetto/travetto-sub016/internal/core/domain"
	"github.com/travetto/travetto-sub016/internal/core/ports"
	"github.com/travetto/travetto-sub016/internal/engine/compiler"
	"golang.org/x/sync/errgroup"
)

// WatchOptions configuration for the Watch method.
type WatchOptions struct {
	CompileOptions
	// Addr serves the status server when set.
	Addr string
}

// Watch builds the workspace, then compiles every batch of changes until ctx
// is done. A new batch cancels the running one and takes over its files.
func (a *App) Watch(ctx context.Context, opts WatchOptions) error {
	c, cfg, err := a.open(opts.CompileOptions)
	if err != nil {
		return err
	}
	session := &watchSession{app: a, compiler: c}

	started := time.Now()
	result, err := c.Build(ctx)
	if err != nil {
		return err
	}
	session.finish(result, started)

	w, err := a.newWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	g, ctx := errgroup.WithContext(ctx)
	if err := w.Start(ctx, cfg.Root, skipDirs(cfg)); err != nil {
		return err
	}
	a.logger.Info(fmt.Sprintf("watching %s", cfg.Root))

	if opts.Addr != "" {
		srv := server.New(session, a.metrics, a.logger)
		g.Go(func() error {
			return srv.Serve(ctx, opts.Addr, nil)
		})
	}

	debouncer := watcher.NewDebouncer(a.debounce, func(paths []string) {
		session.submit(ctx, paths)
	})
	g.Go(func() error {
		defer debouncer.Stop()
		for ev := range w.Events() {
			for _, path := range session.expand(ev) {
				debouncer.Add(path)
			}
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return w.Stop()
	})

	err = g.Wait()
	session.wait()
	return err
}

// skipDirs keeps the watcher out of the cache directory and excluded directories.
func skipDirs(cfg *domain.Config) ports.SkipDirFunc {
	return func(dir string) bool {
		if dir == cfg.CacheDir {
			return true
		}
		name := filepath.Base(dir)
		for _, pattern := range cfg.Exclude {
			if ok, _ := filepath.Match(pattern, name); ok {
				return true
			}
		}
		return false
	}
}

// watchSession runs the batches of one watch and implements server.StateSource.
type watchSession struct {
	app      *App
	compiler *compiler.Compiler

	mu       sync.Mutex
	wg       sync.WaitGroup
	seq      uint64
	cancel   context.CancelFunc
	inflight []string
	last     *domain.BatchSummary
}

var _ server.StateSource = (*watchSession)(nil)

// expand maps a watch event to the paths handed to the compiler. A removed or
// renamed directory stands for every known source below it.
func (s *watchSession) expand(ev ports.WatchEvent) []string {
	if filepath.Ext(ev.Path) == domain.SourceExt {
		return []string{ev.Path}
	}
	if ev.Operation != ports.OpRemove && ev.Operation != ports.OpRename {
		return nil
	}
	prefix := ev.Path + string(filepath.Separator)
	var paths []string
	for _, entry := range s.compiler.Snapshot().Entries() {
		if strings.HasPrefix(entry.SourceFile, prefix) {
			paths = append(paths, entry.SourceFile)
		}
	}
	return paths
}

// submit starts a batch for paths, cancelling the running batch and merging
// its files into the new one.
func (s *watchSession) submit(ctx context.Context, paths []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		return
	}

	if s.cancel != nil {
		s.cancel()
		set := make(map[string]struct{}, len(paths)+len(s.inflight))
		for _, p := range slices.Concat(paths, s.inflight) {
			set[p] = struct{}{}
		}
		paths = slices.Sorted(maps.Keys(set))
	}

	batchCtx, cancel := context.WithCancel(ctx)
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.inflight = paths

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		started := time.Now()
		result, err := s.compiler.Compile(batchCtx, paths)

		s.mu.Lock()
		if s.seq == seq {
			s.cancel = nil
			s.inflight = nil
		}
		s.mu.Unlock()

		switch {
		case err == nil:
			s.finish(result, started)
		case batchCtx.Err() != nil:
			s.app.logger.Debug(fmt.Sprintf("batch of %d file(s) cancelled", len(paths)))
		default:
			s.app.logger.Error(err)
		}
	}()
}

// finish reports a committed batch and records its summary.
func (s *watchSession) finish(result *domain.CompileResult, started time.Time) {
	s.app.report(result, started)
	if result.Superseded {
		return
	}
	if err := result.Err(); err != nil {
		s.app.logger.Error(err)
	}

	summary := result.Summary(started, time.Now())
	s.mu.Lock()
	s.last = &summary
	s.mu.Unlock()
}

func (s *watchSession) wait() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Manifest returns the last committed manifest.
func (s *watchSession) Manifest() *domain.Manifest {
	return s.compiler.Snapshot().Manifest()
}

// LastBatch returns the summary of the last committed batch.
func (s *watchSession) LastBatch() (domain.BatchSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return domain.BatchSummary{}, false
	}
	return *s.last, true
}
