package compiler

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/travetto/travetto-sub016/internal/core/domain"
	"github.com/travetto/travetto-sub016/internal/core/ports"
	"github.com/travetto/travetto-sub016/internal/engine/transform"
	"go.trai.ch/zerr"
)

// outcome is the result of one job.
type outcome struct {
	id        string
	status    domain.UnitStatus
	inputHash string
	output    []byte
	lazy      []string
	err       error
	elapsed   time.Duration
}

type runState struct {
	c   *Compiler
	b   *batch
	ctx context.Context

	inDegree  map[string]int
	ready     []string
	active    int
	resultsCh chan outcome
	done      map[string]*outcome
	atRisk    domain.ModuleSet
}

// execute compiles the jobs of a batch in dependency order. A job starts once
// every in-batch file it imports finished, successfully or not.
// A cancelled context drains the running jobs and returns the context error.
func (c *Compiler) execute(ctx context.Context, b *batch) (*runState, error) {
	state := c.newRunState(ctx, b)

	files := make([]string, 0, len(b.jobs))
	for _, j := range b.jobs {
		files = append(files, j.entry.SourceFile)
	}
	slices.Sort(files)
	c.deps.Tracer.EmitPlan(ctx, files)

	for !state.isDone() {
		state.schedule()

		if state.isDone() {
			break
		}

		if ctx.Err() != nil {
			if state.active == 0 {
				return nil, ctx.Err()
			}
			// Cancelled: only drain the jobs still running.
			state.active--
			state.finish(<-state.resultsCh)
			continue
		}

		select {
		case res := <-state.resultsCh:
			state.active--
			state.finish(res)
		case <-ctx.Done():
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	state.failStuck()
	return state, nil
}

func (c *Compiler) newRunState(ctx context.Context, b *batch) *runState {
	inDegree := make(map[string]int, len(b.jobs))
	for id, j := range b.jobs {
		inDegree[id] = len(j.static)
	}

	var ready []string
	for _, id := range slices.Sorted(maps.Keys(inDegree)) {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	return &runState{
		c:         c,
		b:         b,
		ctx:       ctx,
		inDegree:  inDegree,
		ready:     ready,
		resultsCh: make(chan outcome, c.opts.Parallelism),
		done:      make(map[string]*outcome, len(b.jobs)),
		atRisk:    domain.NewModuleSet(),
	}
}

func (s *runState) isDone() bool {
	return s.active == 0 && len(s.ready) == 0
}

func (s *runState) schedule() {
	for len(s.ready) > 0 && s.active < s.c.opts.Parallelism && s.ctx.Err() == nil {
		id := s.ready[0]
		s.ready = s.ready[1:]

		j := s.b.jobs[id]
		if j.failed != nil {
			s.finish(outcome{id: id, status: domain.UnitStatusFailed, err: j.failed})
			continue
		}

		key := s.inputKey(id)
		s.active++
		go func() {
			s.resultsCh <- s.compile(id, key)
		}()
	}
}

// finish records a job outcome and releases its dependents. Dependents of a
// failed or at risk job still compile but are reported at risk.
func (s *runState) finish(res outcome) {
	s.done[res.id] = &res

	switch {
	case res.err != nil:
		s.c.deps.Metrics.FileCompiled(ports.OutcomeFailed, res.elapsed)
	case res.status == domain.UnitStatusCached:
		s.c.deps.Metrics.FileCompiled(ports.OutcomeCached, res.elapsed)
	default:
		s.c.deps.Metrics.FileCompiled(ports.OutcomeCompiled, res.elapsed)
	}

	propagate := res.err != nil || s.atRisk.Has(res.id)
	for _, dep := range s.b.jobs[res.id].dependents {
		if propagate {
			s.atRisk.Add(dep)
		}
		s.inDegree[dep]--
		if s.inDegree[dep] == 0 {
			s.ready = append(s.ready, dep)
		}
	}
}

// failStuck fails jobs that never became ready. Cycles are rejected while
// planning, so this only guards against an inconsistent graph.
func (s *runState) failStuck() {
	for _, id := range slices.Sorted(maps.Keys(s.b.jobs)) {
		if _, ok := s.done[id]; ok {
			continue
		}
		err := zerr.With(domain.ErrModuleCycle, "file", s.b.jobs[id].entry.SourceFile)
		s.done[id] = &outcome{id: id, status: domain.UnitStatusFailed, err: err}
	}
}

// inputKey derives the cache key of a job from the transformer set, its
// content and the state of everything it depends on. It is called once all
// in-batch static dependencies finished.
func (s *runState) inputKey(id string) string {
	j := s.b.jobs[id]
	parts := []string{s.c.fingerprint, id, j.entry.ContentHash}

	static := domain.NewModuleSet(s.b.index.StaticDependencies(id)...)
	for _, dep := range j.entry.Dependencies {
		entry, ok := s.b.index.Lookup(dep)
		if !ok {
			continue
		}
		if !static.Has(dep) {
			parts = append(parts, dep+"~"+entry.ContentHash)
			continue
		}
		if res, ok := s.done[dep]; ok {
			if res.err != nil {
				parts = append(parts, dep+"!"+entry.ContentHash)
			} else {
				parts = append(parts, dep+"="+res.inputHash)
			}
			continue
		}
		hash := entry.InputHash
		if hash == "" {
			hash = entry.ContentHash
		}
		parts = append(parts, dep+"="+hash)
	}
	return s.c.deps.Hasher.Key(parts...)
}

func (s *runState) compile(id, key string) outcome {
	j := s.b.jobs[id]
	start := time.Now()

	ctx, span := s.c.deps.Tracer.Start(s.ctx, id, ports.WithAttribute(ports.AttrFile, j.entry.SourceFile))
	defer span.End()

	res := s.c.compileFile(ctx, j, key)
	res.id = id
	res.inputHash = key
	res.elapsed = time.Since(start)
	if res.err != nil {
		span.RecordError(res.err)
	}
	span.SetAttribute(ports.AttrCached, res.status == domain.UnitStatusCached)
	return res
}

func (c *Compiler) compileFile(ctx context.Context, j *job, key string) outcome {
	file := j.entry.SourceFile
	if !c.opts.Force {
		if res, ok := c.fromCache(j, key); ok {
			return res
		}
	}
	if c.opts.Readonly {
		return failed(zerr.With(domain.ErrCompileDisabled, "file", file))
	}

	unit := &domain.CompileUnit{
		SourceFile:  file,
		Module:      j.entry.Module,
		Package:     j.entry.Package,
		ContentHash: j.entry.ContentHash,
		Source:      j.source,
	}
	if err := transform.Parse(unit); err != nil {
		return failed(err)
	}
	if err := c.deps.Host.Transform(ctx, unit); err != nil {
		return failed(zerr.With(zerr.Wrap(err, domain.ErrTransformFailed.Error()), "file", file))
	}
	if err := c.deps.Host.Generate(unit); err != nil {
		return failed(zerr.With(err, "file", file))
	}

	record := domain.CacheRecord{
		Key:         key,
		SourceHash:  j.entry.ContentHash,
		Output:      unit.Output,
		LazyImports: unit.LazyImports,
		Timestamp:   time.Now(),
	}
	if err := c.deps.Cache.Put(record); err != nil {
		c.deps.Logger.Warn(zerr.With(zerr.Wrap(err, "failed to cache output"), "file", file).Error())
	}

	return outcome{status: domain.UnitStatusCompleted, output: unit.Output, lazy: unit.LazyImports}
}

// fromCache serves a job from the cache. In readonly mode a hit is only usable
// when the output on disk already carries the content hash.
func (c *Compiler) fromCache(j *job, key string) (outcome, bool) {
	record, err := c.deps.Cache.Get(key)
	switch {
	case err != nil:
		c.deps.Metrics.CacheLookup("corrupt")
		c.deps.Logger.Warn(zerr.With(err, "file", j.entry.SourceFile).Error())
		return outcome{}, false
	case record == nil:
		c.deps.Metrics.CacheLookup("miss")
		return outcome{}, false
	}
	c.deps.Metrics.CacheLookup("hit")

	if c.opts.Readonly {
		ok, err := c.deps.Outputs.Verify(c.deps.Outputs.PathFor(j.entry.Module), j.entry.ContentHash)
		if err != nil || !ok {
			return failed(zerr.With(zerr.With(domain.ErrCompileDisabled, "file", j.entry.SourceFile), "reason", "output missing")), true
		}
	}
	return outcome{status: domain.UnitStatusCached, output: record.Output, lazy: record.LazyImports}, true
}

// collect reports the outcome of every job.
func (s *runState) collect(result *domain.CompileResult) {
	for id, res := range s.done {
		file := s.b.jobs[id].entry.SourceFile
		if res.err != nil {
			result.Failed[file] = res.err
			continue
		}
		result.Succeeded[file] = struct{}{}
		if res.status == domain.UnitStatusCached {
			result.Cached[file] = struct{}{}
		}
		if s.atRisk.Has(id) {
			result.AtRisk[file] = struct{}{}
		}
	}
}

func failed(err error) outcome {
	return outcome{status: domain.UnitStatusFailed, err: err}
}
