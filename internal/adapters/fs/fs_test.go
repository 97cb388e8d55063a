package fs_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travetto/travetto-sub016/internal/adapters/fs"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestWalker_WalkFiles(t *testing.T) {
	// tmp/
	//   .git/config
	//   ignored/file
	//   src/main.go
	//   README.md
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ".git", "config"), "git config")
	writeFile(t, filepath.Join(tmpDir, "ignored", "file"), "ignored content")
	writeFile(t, filepath.Join(tmpDir, "src", "main.go"), "package main")
	writeFile(t, filepath.Join(tmpDir, "README.md"), "# readme")

	walker := fs.NewWalker()
	files := slices.Collect(walker.WalkFiles(tmpDir, []string{"ignored"}))

	assert.ElementsMatch(t, []string{
		filepath.Join(tmpDir, "src", "main.go"),
		filepath.Join(tmpDir, "README.md"),
	}, files)
}

func TestWalker_WalkSources(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "a.go"), "package a")
	writeFile(t, filepath.Join(tmpDir, "notes.txt"), "notes")
	writeFile(t, filepath.Join(tmpDir, "testdata", "fixture.go"), "package fixture")
	writeFile(t, filepath.Join(tmpDir, "_scratch", "b.go"), "package b")
	writeFile(t, filepath.Join(tmpDir, "vendor", "x", "x.go"), "package x")
	writeFile(t, filepath.Join(tmpDir, "pkg", "c.go"), "package c")

	walker := fs.NewWalker()
	files := slices.Collect(walker.WalkSources(tmpDir, nil))

	assert.ElementsMatch(t, []string{
		filepath.Join(tmpDir, "a.go"),
		filepath.Join(tmpDir, "pkg", "c.go"),
	}, files)
}

func TestWalker_WalkFiles_StopsEarly(t *testing.T) {
	tmpDir := t.TempDir()
	for _, name := range []string{"a.go", "b.go", "c.go"} {
		writeFile(t, filepath.Join(tmpDir, name), "package x")
	}

	count := 0
	for range fs.NewWalker().WalkFiles(tmpDir, nil) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestHasher_HashFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "a.go")
	writeFile(t, path, "package a\n")

	h := fs.NewHasher()
	hash1, err := h.HashFile(path)
	require.NoError(t, err)
	assert.Len(t, hash1, 16)
	assert.Equal(t, h.HashBytes([]byte("package a\n")), hash1)

	writeFile(t, path, "package a // changed\n")
	hash2, err := h.HashFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, hash1, hash2)
}

func TestHasher_HashFile_Missing(t *testing.T) {
	h := fs.NewHasher()
	_, err := h.HashFile(filepath.Join(t.TempDir(), "missing.go"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open file")
}

func TestHasher_Key(t *testing.T) {
	h := fs.NewHasher()

	assert.Equal(t, h.Key("a", "b"), h.Key("a", "b"))
	assert.NotEqual(t, h.Key("ab", "c"), h.Key("a", "bc"))
	assert.NotEqual(t, h.Key("a", "b"), h.Key("b", "a"))
}
