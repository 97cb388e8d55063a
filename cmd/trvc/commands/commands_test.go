package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travetto/travetto-sub016/cmd/trvc/commands"
	"github.com/travetto/travetto-sub016/internal/app"
	"github.com/travetto/travetto-sub016/internal/build"
	"github.com/travetto/travetto-sub016/internal/core/domain"
)

type mockApp struct {
	compileFunc func(ctx context.Context, files []string, opts app.CompileOptions) (*domain.CompileResult, error)
	cleanFunc   func(ctx context.Context, all bool) error
	watchFunc   func(ctx context.Context, opts app.WatchOptions) error
	resolveFunc func(ctx context.Context, spec string) (string, error)

	jsonLogs, verbose bool
}

func (m *mockApp) Compile(ctx context.Context, files []string, opts app.CompileOptions) (*domain.CompileResult, error) {
	if m.compileFunc != nil {
		return m.compileFunc(ctx, files, opts)
	}
	return domain.NewCompileResult(), nil
}

func (m *mockApp) Clean(ctx context.Context, all bool) error {
	if m.cleanFunc != nil {
		return m.cleanFunc(ctx, all)
	}
	return nil
}

func (m *mockApp) Watch(ctx context.Context, opts app.WatchOptions) error {
	if m.watchFunc != nil {
		return m.watchFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Resolve(ctx context.Context, spec string) (string, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, spec)
	}
	return "", nil
}

func (m *mockApp) SetPresentation(jsonLogs, verbose bool) {
	m.jsonLogs = jsonLogs
	m.verbose = verbose
}

func execute(t *testing.T, a commands.Application, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(a)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return buf.String(), err
}

func TestCommands_Compile(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var capturedOpts app.CompileOptions
		var capturedFiles []string
		mock := &mockApp{
			compileFunc: func(_ context.Context, files []string, opts app.CompileOptions) (*domain.CompileResult, error) {
				capturedFiles = files
				capturedOpts = opts
				return domain.NewCompileResult(), nil
			},
		}

		_, err := execute(t, mock, "compile", "a.go", "b.go", "-p", "3", "--force", "--verbose")
		require.NoError(t, err)
		assert.Equal(t, []string{"a.go", "b.go"}, capturedFiles)
		assert.Equal(t, app.CompileOptions{Parallelism: 3, Force: true}, capturedOpts)
		assert.True(t, mock.verbose)
		assert.False(t, mock.jsonLogs)
	})

	t.Run("build alias compiles the workspace", func(t *testing.T) {
		called := false
		mock := &mockApp{
			compileFunc: func(_ context.Context, files []string, _ app.CompileOptions) (*domain.CompileResult, error) {
				called = true
				assert.Empty(t, files)
				return domain.NewCompileResult(), nil
			},
		}

		_, err := execute(t, mock, "build", "--json")
		require.NoError(t, err)
		assert.True(t, called)
		assert.True(t, mock.jsonLogs)
	})

	t.Run("returns build failures", func(t *testing.T) {
		mock := &mockApp{
			compileFunc: func(context.Context, []string, app.CompileOptions) (*domain.CompileResult, error) {
				return nil, errors.Join(domain.ErrBuildFailed, errors.New("broken.go: syntax error"))
			},
		}

		_, err := execute(t, mock, "compile")
		require.ErrorIs(t, err, domain.ErrBuildFailed)
	})
}

func TestCommands_Clean(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantAll bool
	}{
		{name: "objects only", args: []string{"clean"}, wantAll: false},
		{name: "everything", args: []string{"clean", "--all"}, wantAll: true},
		{name: "shorthand", args: []string{"clean", "-a"}, wantAll: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAll bool
			mock := &mockApp{
				cleanFunc: func(_ context.Context, all bool) error {
					gotAll = all
					return nil
				},
			}

			_, err := execute(t, mock, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAll, gotAll)
		})
	}

	t.Run("rejects arguments", func(t *testing.T) {
		_, err := execute(t, &mockApp{}, "clean", "extra")
		require.Error(t, err)
	})
}

func TestCommands_Watch(t *testing.T) {
	var captured app.WatchOptions
	mock := &mockApp{
		watchFunc: func(_ context.Context, opts app.WatchOptions) error {
			captured = opts
			return nil
		},
	}

	_, err := execute(t, mock, "watch", "--addr", "127.0.0.1:9191", "-p", "2")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9191", captured.Addr)
	assert.Equal(t, 2, captured.Parallelism)
}

func TestCommands_Resolve(t *testing.T) {
	t.Run("prints the output file", func(t *testing.T) {
		mock := &mockApp{
			resolveFunc: func(_ context.Context, spec string) (string, error) {
				assert.Equal(t, "example.com/app/model/model.go", spec)
				return "/ws/.trv/out/example.com/app/model/model.go", nil
			},
		}

		out, err := execute(t, mock, "resolve", "example.com/app/model/model.go")
		require.NoError(t, err)
		assert.Equal(t, "/ws/.trv/out/example.com/app/model/model.go\n", out)
	})

	t.Run("requires exactly one argument", func(t *testing.T) {
		_, err := execute(t, &mockApp{}, "resolve")
		require.Error(t, err)
	})

	t.Run("returns lookup errors", func(t *testing.T) {
		mock := &mockApp{
			resolveFunc: func(context.Context, string) (string, error) {
				return "", domain.ErrSourceNotFound
			},
		}

		_, err := execute(t, mock, "resolve", "missing.go")
		require.ErrorIs(t, err, domain.ErrSourceNotFound)
	})
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "trvc version "+build.Version)

	out, err = execute(t, &mockApp{}, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, build.Commit)
}
