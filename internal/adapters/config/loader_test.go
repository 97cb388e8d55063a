package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travetto/travetto-sub016/internal/adapters/config"
	"github.com/travetto/travetto-sub016/internal/core/domain"
	"github.com/travetto/travetto-sub016/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func workspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
		require.NoError(t, os.WriteFile(path, []byte(content), domain.FilePerm))
	}
	return root
}

func newLoader(t *testing.T) (*config.Loader, *mocks.MockLogger) {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	return config.NewLoader(log), log
}

func TestLoad_Defaults(t *testing.T) {
	root := workspace(t, map[string]string{
		"go.mod":      "module example.com/app\n",
		"pkg/a/a.go": "package a\n",
	})
	loader, _ := newLoader(t)

	cfg, err := loader.Load(filepath.Join(root, "pkg", "a"))
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Root)
	assert.Empty(t, cfg.ConfigFile)
	assert.Equal(t, filepath.Join(root, ".trv"), cfg.CacheDir)
	assert.Equal(t, domain.DefaultMetaImport, cfg.MetaImport)
	assert.Zero(t, cfg.Parallelism)
	assert.False(t, cfg.Readonly)
	assert.Empty(t, cfg.Transformers)
}

func TestLoad_Trvfile(t *testing.T) {
	root := workspace(t, map[string]string{
		"go.mod": "module example.com/app\n",
		"trv.yaml": `
version: "1"
cache_dir: build/cache
parallelism: 3
meta_import: example.com/app/meta
exclude: ["generated", "*.pb.go"]
transformers:
  logsrc:
    enabled: false
  register: {}
  identity:
    priority: 5
`,
	})
	loader, _ := newLoader(t)

	cfg, err := loader.Load(root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "trv.yaml"), cfg.ConfigFile)
	assert.Equal(t, filepath.Join(root, "build", "cache"), cfg.CacheDir)
	assert.Equal(t, 3, cfg.Parallelism)
	assert.Equal(t, "example.com/app/meta", cfg.MetaImport)
	assert.Equal(t, []string{"generated", "*.pb.go"}, cfg.Exclude)

	require.Len(t, cfg.Transformers, 3)
	assert.Equal(t, "logsrc", cfg.Transformers[0].Name)
	assert.False(t, cfg.Transformers[0].Enabled)
	assert.Equal(t, "register", cfg.Transformers[1].Name)
	assert.True(t, cfg.Transformers[1].Enabled)
	assert.Nil(t, cfg.Transformers[1].Priority)
	assert.Equal(t, "identity", cfg.Transformers[2].Name)
	require.NotNil(t, cfg.Transformers[2].Priority)
	assert.Equal(t, 5, *cfg.Transformers[2].Priority)
}

func TestLoad_ConfiguredRoot(t *testing.T) {
	root := workspace(t, map[string]string{
		"trv.yaml":       "root: src\n",
		"src/go.mod":     "module example.com/app\n",
		"src/main/m.go":  "package main\n",
	})
	loader, _ := newLoader(t)

	cfg, err := loader.Load(filepath.Join(root, "src", "main"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "src"), cfg.Root)
	assert.Equal(t, filepath.Join(root, "src", ".trv"), cfg.CacheDir)
}

func TestLoad_EnvironmentOverlay(t *testing.T) {
	root := workspace(t, map[string]string{
		"go.mod":   "module example.com/app\n",
		"trv.yaml": "cache_dir: from-yaml\nparallelism: 2\n",
		".env":     "TRV_CACHE_DIR=from-dotenv\nTRV_PARALLELISM=4\nOTHER=ignored\n",
	})

	t.Run("dotenv overrides trv.yaml", func(t *testing.T) {
		loader, _ := newLoader(t)
		cfg, err := loader.Load(root)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "from-dotenv"), cfg.CacheDir)
		assert.Equal(t, 4, cfg.Parallelism)
		assert.False(t, cfg.Readonly)
	})

	t.Run("process environment overrides dotenv", func(t *testing.T) {
		t.Setenv("TRV_CACHE_DIR", "/tmp/trv-cache")
		t.Setenv("TRV_READONLY", "true")
		t.Setenv("TRV_PARALLELISM", "8")

		loader, _ := newLoader(t)
		cfg, err := loader.Load(root)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/trv-cache", cfg.CacheDir)
		assert.True(t, cfg.Readonly)
		assert.Equal(t, 8, cfg.Parallelism)
	})
}

func TestLoad_UnknownVersionWarns(t *testing.T) {
	root := workspace(t, map[string]string{
		"go.mod":   "module example.com/app\n",
		"trv.yaml": "version: \"7\"\n",
	})
	loader, log := newLoader(t)
	log.EXPECT().Warn(gomock.Any()).Times(1)

	_, err := loader.Load(root)
	require.NoError(t, err)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "malformed yaml",
			files:   map[string]string{"go.mod": "module m\n", "trv.yaml": "cache_dir: [\n"},
			wantErr: domain.ErrConfigParseFailed.Error(),
		},
		{
			name:    "transformers not a mapping",
			files:   map[string]string{"go.mod": "module m\n", "trv.yaml": "transformers: [a, b]\n"},
			wantErr: domain.ErrConfigParseFailed.Error(),
		},
		{
			name:    "negative parallelism",
			files:   map[string]string{"go.mod": "module m\n", "trv.yaml": "parallelism: -1\n"},
			wantErr: domain.ErrInvalidConfig.Error(),
		},
		{
			name:    "parallelism not a number",
			files:   map[string]string{"go.mod": "module m\n"},
			env:     map[string]string{"TRV_PARALLELISM": "many"},
			wantErr: domain.ErrInvalidConfig.Error(),
		},
		{
			name:    "readonly not a bool",
			files:   map[string]string{"go.mod": "module m\n"},
			env:     map[string]string{"TRV_READONLY": "sometimes"},
			wantErr: domain.ErrInvalidConfig.Error(),
		},
		{
			name:    "missing root",
			files:   map[string]string{"trv.yaml": "root: nowhere\n"},
			wantErr: domain.ErrInvalidConfig.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			root := workspace(t, tt.files)
			loader, _ := newLoader(t)

			_, err := loader.Load(root)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
