package compiler_test

import (
	"context"
	"errors"
	"go/ast"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travetto/travetto-sub016/internal/adapters/cas"
	fsadapter "github.com/travetto/travetto-sub016/internal/adapters/fs"
	manifeststore "github.com/travetto/travetto-sub016/internal/adapters/manifest"
	"github.com/travetto/travetto-sub016/internal/adapters/telemetry"
	"github.com/travetto/travetto-sub016/internal/core/domain"
	"github.com/travetto/travetto-sub016/internal/core/ports"
	"github.com/travetto/travetto-sub016/internal/core/ports/mocks"
	"github.com/travetto/travetto-sub016/internal/engine/compiler"
	"github.com/travetto/travetto-sub016/internal/engine/transform"
	"github.com/travetto/travetto-sub016/internal/engine/transform/builtin"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type workspace struct {
	t        *testing.T
	root     string
	cacheDir string
	// manifests replaces the on-disk manifest store when set.
	manifests ports.ManifestStore
}

func newWorkspace(t *testing.T, files map[string]string) *workspace {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	w := &workspace{t: t, root: root, cacheDir: filepath.Join(root, domain.TrvDirName)}
	w.write(domain.ModFileName, "module example.com/app\n\ngo 1.25\n")
	for name, content := range files {
		w.write(name, content)
	}
	return w
}

func (w *workspace) path(name string) string {
	return filepath.Join(w.root, filepath.FromSlash(name))
}

func (w *workspace) write(name, content string) {
	w.t.Helper()
	p := w.path(name)
	require.NoError(w.t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(w.t, os.WriteFile(p, []byte(content), 0o600))
}

func (w *workspace) remove(name string) {
	w.t.Helper()
	require.NoError(w.t, os.Remove(w.path(name)))
}

// counter is a transformer that counts the files it transformed.
type counter struct {
	n atomic.Int32
}

func (c *counter) descriptor() transform.Descriptor {
	return transform.Descriptor{
		Name: "test.count", Phase: domain.PhaseAfter, Kind: domain.KindFile, Priority: 1,
		Visit: func(_ *transform.State, n ast.Node) (ast.Node, error) {
			c.n.Add(1)
			return n, nil
		},
	}
}

var failBoom = transform.Descriptor{
	Name: "test.boom", Phase: domain.PhaseBefore, Kind: domain.KindFunc, Priority: 1,
	Visit: func(_ *transform.State, n ast.Node) (ast.Node, error) {
		if n.(*ast.FuncDecl).Name.Name == "Boom" {
			return nil, zerr.New("boom")
		}
		return n, nil
	},
}

func (w *workspace) compiler(opts compiler.Options, extra ...transform.Descriptor) *compiler.Compiler {
	w.t.Helper()
	ctrl := gomock.NewController(w.t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()

	resolver, err := fsadapter.NewResolver(fsadapter.NewWalker(), w.root, w.cacheDir, nil)
	require.NoError(w.t, err)
	cache, err := cas.NewStore(w.cacheDir)
	require.NoError(w.t, err)

	registry := transform.NewRegistry()
	require.NoError(w.t, builtin.Install(registry, nil))
	for _, d := range extra {
		require.NoError(w.t, registry.Register(d))
	}
	host := transform.NewHost(registry, transform.Env{Resolver: resolver, MetaImport: domain.DefaultMetaImport})

	manifests := w.manifests
	if manifests == nil {
		manifests = manifeststore.NewStore(domain.ManifestPath(w.cacheDir), resolver.ModulePath())
	}

	opts.CacheDir = w.cacheDir
	return compiler.New(compiler.Deps{
		Resolver:  resolver,
		Hasher:    fsadapter.NewHasher(),
		Cache:     cache,
		Manifests: manifests,
		Outputs:   fsadapter.NewOutputs(domain.OutputPath(w.cacheDir)),
		Host:      host,
		Tracer:    telemetry.Discard,
		Logger:    logger,
	}, opts)
}

const (
	modelSource = `package model

type User struct {
	Name string
}
`
	serviceSource = `package service

import "example.com/app/model"

func Load() *model.User { return &model.User{} }
`
	boomSource = `package model

func Boom() {}
`
)

func TestCompiler_BuildThenCached(t *testing.T) {
	w := newWorkspace(t, map[string]string{
		"model/user.go":   modelSource,
		"service/load.go": serviceSource,
	})
	var count counter
	c := w.compiler(compiler.Options{Parallelism: 2}, count.descriptor())

	res, err := c.Build(t.Context())
	require.NoError(t, err)
	require.True(t, res.OK(), "%v", res.Err())
	assert.Equal(t, []string{w.path("model/user.go"), w.path("service/load.go")}, res.SucceededFiles())
	assert.Empty(t, res.Cached)
	assert.Equal(t, uint64(1), res.Generation)
	assert.Equal(t, int32(2), count.n.Load())

	out, err := c.Resolve("example.com/app/model/user.go")
	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "trvmeta.Register(")
	assert.Contains(t, string(data), domain.HashTrailerPrefix)

	entry, ok := c.Snapshot().Lookup("example.com/app/service/load.go")
	require.True(t, ok)
	assert.Equal(t, []string{"example.com/app/model"}, entry.Imports)
	assert.Equal(t, []string{"example.com/app/model/user.go"}, entry.Dependencies)

	// Nothing changed: every file is served from the cache.
	res, err = c.Build(t.Context())
	require.NoError(t, err)
	assert.Len(t, res.Cached, 2)
	assert.Equal(t, uint64(2), res.Generation)
	assert.Equal(t, int32(2), count.n.Load())

	// A fresh compiler over the same cache reuses every output.
	fresh := w.compiler(compiler.Options{}, count.descriptor())
	res, err = fresh.Compile(t.Context(), []string{w.path("model/user.go")})
	require.NoError(t, err)
	assert.Equal(t, []string{w.path("model/user.go")}, res.SucceededFiles())
	assert.Contains(t, res.Cached, w.path("model/user.go"))
	assert.Equal(t, int32(2), count.n.Load())
}

func TestCompiler_ChangePropagatesToDependents(t *testing.T) {
	w := newWorkspace(t, map[string]string{
		"model/user.go":   modelSource,
		"service/load.go": serviceSource,
	})
	c := w.compiler(compiler.Options{})
	_, err := c.Build(t.Context())
	require.NoError(t, err)

	w.write("model/user.go", strings.Replace(modelSource, "Name string", "Name string\n\tAge  int", 1))
	res, err := c.Compile(t.Context(), []string{w.path("model/user.go")})
	require.NoError(t, err)
	assert.Equal(t, []string{w.path("model/user.go"), w.path("service/load.go")}, res.SucceededFiles())
	assert.Empty(t, res.Cached)
}

func TestCompiler_FailureIsPerFile(t *testing.T) {
	w := newWorkspace(t, map[string]string{
		"model/user.go":   modelSource,
		"model/boom.go":   boomSource,
		"service/load.go": serviceSource,
		"other/other.go":  "package other\n\nfunc Other() {}\n",
	})
	c := w.compiler(compiler.Options{}, failBoom)

	res, err := c.Build(t.Context())
	require.NoError(t, err)
	require.Len(t, res.Failed, 1)
	assert.ErrorContains(t, res.Failed[w.path("model/boom.go")], "boom")
	assert.ErrorContains(t, res.Err(), domain.ErrBuildFailed.Error())

	assert.Contains(t, res.Succeeded, w.path("other/other.go"))
	assert.Contains(t, res.Succeeded, w.path("service/load.go"))
	assert.Contains(t, res.AtRisk, w.path("service/load.go"))
	assert.NotContains(t, res.AtRisk, w.path("other/other.go"))

	entry, ok := c.Snapshot().Lookup("example.com/app/model/boom.go")
	require.True(t, ok)
	assert.True(t, entry.Stale)
	assert.Empty(t, entry.OutputFile)

	// The failed file is retried by the next batch even when nothing is reported.
	w.write("model/boom.go", "package model\n\nfunc Fine() {}\n")
	res, err = c.Compile(t.Context(), nil)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Contains(t, res.Succeeded, w.path("model/boom.go"))
}

func TestCompiler_RemovedSourceIsPruned(t *testing.T) {
	w := newWorkspace(t, map[string]string{
		"model/user.go":   modelSource,
		"model/extra.go":  "package model\n\nfunc Extra() {}\n",
		"service/load.go": serviceSource,
	})
	c := w.compiler(compiler.Options{})
	_, err := c.Build(t.Context())
	require.NoError(t, err)

	out, err := c.Resolve("example.com/app/model/extra.go")
	require.NoError(t, err)

	w.remove("model/extra.go")
	res, err := c.Compile(t.Context(), []string{w.path("model/extra.go")})
	require.NoError(t, err)
	assert.Contains(t, res.Removed, w.path("model/extra.go"))
	assert.Contains(t, res.Succeeded, w.path("service/load.go"))

	_, err = c.Resolve("example.com/app/model/extra.go")
	assert.ErrorContains(t, err, domain.ErrSourceNotFound.Error())
	assert.NoFileExists(t, out)
}

func TestCompiler_MissingOutputIsRecompiled(t *testing.T) {
	w := newWorkspace(t, map[string]string{"model/user.go": modelSource})
	c := w.compiler(compiler.Options{})
	_, err := c.Build(t.Context())
	require.NoError(t, err)

	out, err := c.Resolve(w.path("model/user.go"))
	require.NoError(t, err)
	require.NoError(t, os.Remove(out))

	res, err := c.Compile(t.Context(), nil)
	require.NoError(t, err)
	assert.Contains(t, res.Succeeded, w.path("model/user.go"))
	assert.Contains(t, res.Cached, w.path("model/user.go"))
	assert.FileExists(t, out)
}

func TestCompiler_Readonly(t *testing.T) {
	w := newWorkspace(t, map[string]string{"model/user.go": modelSource})
	_, err := w.compiler(compiler.Options{}).Build(t.Context())
	require.NoError(t, err)

	ro := w.compiler(compiler.Options{Readonly: true})
	res, err := ro.Compile(t.Context(), []string{w.path("model/user.go")})
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Contains(t, res.Cached, w.path("model/user.go"))

	w.write("model/user.go", modelSource+"\nfunc New() *User { return nil }\n")
	res, err = ro.Compile(t.Context(), []string{w.path("model/user.go")})
	require.NoError(t, err)
	assert.ErrorContains(t, res.Failed[w.path("model/user.go")], domain.ErrCompileDisabled.Error())

	// Readonly never commits.
	out, err := ro.Resolve(w.path("model/user.go"))
	require.NoError(t, err)
	ok, err := fsadapter.NewOutputs("").Verify(out, fsadapter.NewHasher().HashBytes([]byte(modelSource)))
	require.NoError(t, err)
	assert.True(t, ok)

	assert.ErrorContains(t, ro.Clean(t.Context(), true), domain.ErrCompileDisabled.Error())
}

func TestCompiler_ImportCycle(t *testing.T) {
	w := newWorkspace(t, map[string]string{
		"a/a.go": "package a\n\nimport _ \"example.com/app/b\"\n",
		"b/b.go": "package b\n\nimport _ \"example.com/app/a\"\n",
		"c/c.go": "package c\n",
	})
	c := w.compiler(compiler.Options{})

	res, err := c.Build(t.Context())
	require.NoError(t, err)
	require.Len(t, res.Failed, 2)
	assert.ErrorContains(t, res.Failed[w.path("a/a.go")], domain.ErrModuleCycle.Error())
	assert.ErrorContains(t, res.Failed[w.path("b/b.go")], domain.ErrModuleCycle.Error())
	assert.Contains(t, res.Succeeded, w.path("c/c.go"))
}

func TestCompiler_Superseded(t *testing.T) {
	w := newWorkspace(t, map[string]string{
		"slow/slow.go": "package slow\n",
		"fast/fast.go": "package fast\n",
	})

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	block := transform.Descriptor{
		Name: "test.block", Phase: domain.PhaseAfter, Kind: domain.KindFile, Priority: 1,
		Visit: func(st *transform.State, n ast.Node) (ast.Node, error) {
			if strings.Contains(st.Module(), "slow") {
				once.Do(func() { close(started) })
				<-release
			}
			return n, nil
		},
	}
	c := w.compiler(compiler.Options{}, block)

	type outcome struct {
		res *domain.CompileResult
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		res, err := c.Compile(context.Background(), []string{w.path("slow/slow.go")})
		first <- outcome{res, err}
	}()
	<-started

	res, err := c.Compile(t.Context(), []string{w.path("fast/fast.go")})
	require.NoError(t, err)
	assert.False(t, res.Superseded)
	assert.Equal(t, uint64(1), res.Generation)

	close(release)
	got := <-first
	require.NoError(t, got.err)
	assert.True(t, got.res.Superseded)
	assert.Equal(t, uint64(1), got.res.Generation)
	_, err = c.Resolve(w.path("slow/slow.go"))
	require.Error(t, err)

	// The superseded file is carried into the next batch.
	res, err = c.Compile(t.Context(), nil)
	require.NoError(t, err)
	assert.Contains(t, res.Succeeded, w.path("slow/slow.go"))
	assert.Equal(t, uint64(2), res.Generation)
}

func TestCompiler_OlderBatchCommitsFirst(t *testing.T) {
	w := newWorkspace(t, map[string]string{
		"slow/slow.go": "package slow\n",
		"fast/fast.go": "package fast\n",
	})

	gates := map[string]chan struct{}{"slow": make(chan struct{}), "fast": make(chan struct{})}
	entered := map[string]chan struct{}{"slow": make(chan struct{}), "fast": make(chan struct{})}
	var onceSlow, onceFast sync.Once
	once := map[string]*sync.Once{"slow": &onceSlow, "fast": &onceFast}
	block := transform.Descriptor{
		Name: "test.block", Phase: domain.PhaseAfter, Kind: domain.KindFile, Priority: 1,
		Visit: func(st *transform.State, n ast.Node) (ast.Node, error) {
			for name, gate := range gates {
				if strings.Contains(st.Module(), name) {
					once[name].Do(func() { close(entered[name]) })
					<-gate
				}
			}
			return n, nil
		},
	}
	c := w.compiler(compiler.Options{}, block)

	type outcome struct {
		res *domain.CompileResult
		err error
	}
	run := func(file string) chan outcome {
		ch := make(chan outcome, 1)
		go func() {
			res, err := c.Compile(context.Background(), []string{w.path(file)})
			ch <- outcome{res, err}
		}()
		return ch
	}

	first := run("slow/slow.go")
	<-entered["slow"]
	second := run("fast/fast.go")
	<-entered["fast"]

	// The older batch commits while the newer one still works on its snapshot.
	close(gates["slow"])
	got := <-first
	require.NoError(t, got.err)
	assert.False(t, got.res.Superseded)
	assert.Equal(t, uint64(1), got.res.Generation)

	close(gates["fast"])
	got = <-second
	require.NoError(t, got.err)
	assert.False(t, got.res.Superseded)
	assert.Contains(t, got.res.Succeeded, w.path("fast/fast.go"))
	assert.Equal(t, uint64(2), got.res.Generation)

	_, err := c.Resolve(w.path("slow/slow.go"))
	require.NoError(t, err)
	_, err = c.Resolve(w.path("fast/fast.go"))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Snapshot().Len())
	assert.Equal(t, uint64(2), c.Snapshot().Generation())
}

func TestCompiler_CancelWaitsForRunningJobs(t *testing.T) {
	w := newWorkspace(t, map[string]string{"model/user.go": modelSource})

	entered := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	block := transform.Descriptor{
		Name: "test.block", Phase: domain.PhaseAfter, Kind: domain.KindFile, Priority: 1,
		Visit: func(_ *transform.State, n ast.Node) (ast.Node, error) {
			close(entered)
			<-release
			finished.Store(true)
			return n, nil
		},
	}
	c := w.compiler(compiler.Options{}, block)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() {
		_, err := c.Compile(ctx, []string{w.path("model/user.go")})
		done <- err
	}()

	<-entered
	cancel()
	close(release)

	require.ErrorIs(t, <-done, context.Canceled)
	assert.True(t, finished.Load())
	assert.Equal(t, 0, c.Snapshot().Len())
}

func TestCompiler_ManifestSaveFailure(t *testing.T) {
	w := newWorkspace(t, map[string]string{"model/user.go": modelSource})
	ctrl := gomock.NewController(t)
	store := mocks.NewMockManifestStore(ctrl)
	store.EXPECT().Load().Return(nil, errors.New("unexpected end of JSON input"))
	store.EXPECT().Save(gomock.Any()).DoAndReturn(func(m *domain.Manifest) error {
		assert.Equal(t, uint64(1), m.Generation)
		return errors.New("disk full")
	})
	w.manifests = store
	c := w.compiler(compiler.Options{})

	res, err := c.Compile(t.Context(), []string{w.path("model/user.go")})
	require.ErrorContains(t, err, "disk full")
	assert.Contains(t, res.Succeeded, w.path("model/user.go"))
}

func TestCompiler_Cancelled(t *testing.T) {
	w := newWorkspace(t, map[string]string{"model/user.go": modelSource})
	c := w.compiler(compiler.Options{})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := c.Build(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, c.Snapshot().Len())
}

func TestCompiler_IgnoresNonSources(t *testing.T) {
	w := newWorkspace(t, map[string]string{
		"model/user.go":      modelSource,
		"model/user_test.go": "package model\n",
		"README.md":          "# app\n",
	})
	c := w.compiler(compiler.Options{})

	res, err := c.Compile(t.Context(), []string{
		w.path("README.md"),
		w.path("model/user_test.go"),
		filepath.Join(w.cacheDir, "out", "x.go"),
	})
	require.NoError(t, err)
	assert.Empty(t, res.Succeeded)
	assert.Empty(t, res.Failed)

	res, err = c.Compile(t.Context(), []string{"/elsewhere/file.go"})
	require.NoError(t, err)
	assert.ErrorContains(t, res.Failed["/elsewhere/file.go"], domain.ErrPathOutsideRoot.Error())
}

func TestCompiler_CleanAll(t *testing.T) {
	w := newWorkspace(t, map[string]string{"model/user.go": modelSource})
	var count counter
	c := w.compiler(compiler.Options{}, count.descriptor())
	_, err := c.Build(t.Context())
	require.NoError(t, err)

	require.NoError(t, c.Clean(t.Context(), true))
	assert.Equal(t, 0, c.Snapshot().Len())
	assert.NoDirExists(t, filepath.Join(w.cacheDir, domain.OutputDirName))

	res, err := c.Build(t.Context())
	require.NoError(t, err)
	assert.Contains(t, res.Succeeded, w.path("model/user.go"))
	assert.Empty(t, res.Cached)
	assert.Equal(t, int32(2), count.n.Load())
}
