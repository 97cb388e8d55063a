package fs

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/travetto/travetto-sub016/internal/core/domain"
	"github.com/travetto/travetto-sub016/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/mod/modfile"
)

var _ ports.ModuleResolver = (*Resolver)(nil)

// Resolver maps source files of one Go module to module ids and import paths.
type Resolver struct {
	root       string
	modulePath string
	cacheDir   string
	exclude    []string
	walker     *Walker
}

// NewResolver creates a Resolver for the module rooted at root.
// Files below cacheDir and directories matching exclude are never discovered.
func NewResolver(walker *Walker, root, cacheDir string, exclude []string) (*Resolver, error) {
	r := &Resolver{walker: walker, exclude: slices.Clone(exclude)}

	canonicalRoot, err := r.Canonical(root)
	if err != nil {
		return nil, err
	}
	r.root = canonicalRoot

	if cacheDir != "" {
		if r.cacheDir, err = r.Canonical(cacheDir); err != nil {
			return nil, err
		}
	}

	modPath, err := ReadModulePath(filepath.Join(r.root, domain.ModFileName))
	if err != nil {
		return nil, err
	}
	r.modulePath = modPath
	return r, nil
}

// ReadModulePath returns the module path declared in the go.mod at path.
func ReadModulePath(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is derived from the workspace root
	if err != nil {
		if os.IsNotExist(err) {
			return "", zerr.With(domain.ErrModuleFileNotFound, "path", path)
		}
		return "", zerr.With(zerr.Wrap(err, domain.ErrModuleFileInvalid.Error()), "path", path)
	}

	f, err := modfile.ParseLax(path, data, nil)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrModuleFileInvalid.Error()), "path", path)
	}
	if f.Module == nil || f.Module.Mod.Path == "" {
		return "", zerr.With(domain.ErrModuleFileInvalid, "path", path)
	}
	return f.Module.Mod.Path, nil
}

// Root returns the canonical workspace root.
func (r *Resolver) Root() string {
	return r.root
}

// ModulePath returns the module path declared in go.mod.
func (r *Resolver) ModulePath() string {
	return r.modulePath
}

// Canonical returns the absolute, cleaned and symlink free form of path.
// Paths that do not exist yet are resolved through their closest existing parent.
func (r *Resolver) Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to get absolute path"), "path", path)
	}

	var missing []string
	current := abs
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			parts := append([]string{resolved}, missing...)
			return filepath.Join(parts...), nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return abs, nil
		}
		missing = append([]string{filepath.Base(current)}, missing...)
		current = parent
	}
}

// ModuleID returns "<module path>/<relative path>" for a canonical source file.
// Files outside the root keep their slash separated absolute path.
func (r *Resolver) ModuleID(file string) string {
	rel, ok := r.relative(file)
	if !ok {
		return filepath.ToSlash(file)
	}
	return r.modulePath + "/" + rel
}

// PackageOf returns the import path of the directory holding file.
func (r *Resolver) PackageOf(file string) string {
	return r.importPathOf(filepath.Dir(file))
}

// ResolveImport maps an in-module import path to its directory.
func (r *Resolver) ResolveImport(importPath string) (string, bool) {
	if importPath == r.modulePath {
		return r.root, true
	}
	rest, ok := strings.CutPrefix(importPath, r.modulePath+"/")
	if !ok {
		return "", false
	}
	return filepath.Join(r.root, filepath.FromSlash(rest)), true
}

// ResolveSpecifier resolves a lazy specifier to a package import path.
// Relative specifiers are resolved against the directory of fromFile; other
// specifiers must be import paths inside the module. The target directory
// must hold at least one source file.
func (r *Resolver) ResolveSpecifier(fromFile, spec string) (string, error) {
	var dir string
	switch {
	case spec == "." || spec == ".." || strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../"):
		dir = filepath.Join(filepath.Dir(fromFile), filepath.FromSlash(spec))
	default:
		resolved, ok := r.ResolveImport(spec)
		if !ok {
			return "", zerr.With(zerr.With(domain.ErrSourceNotFound, "specifier", spec), "from", fromFile)
		}
		dir = resolved
	}

	if _, ok := r.relative(dir); !ok {
		return "", zerr.With(zerr.With(domain.ErrPathOutsideRoot, "specifier", spec), "from", fromFile)
	}
	if !hasSources(dir) {
		return "", zerr.With(zerr.With(domain.ErrSourceNotFound, "specifier", spec), "from", fromFile)
	}
	return r.importPathOf(dir), nil
}

// Discover lists every source file of the module in sorted order.
// Test files, nested modules and the cache directory are skipped.
func (r *Resolver) Discover(ctx context.Context) ([]string, error) {
	nested := make(map[string]bool)
	var files []string

	for path := range r.walker.WalkSources(r.root, r.exclude) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r.cacheDir != "" && isBelow(r.cacheDir, path) {
			continue
		}
		if strings.HasSuffix(path, "_test.go") {
			continue
		}
		if r.inNestedModule(filepath.Dir(path), nested) {
			continue
		}
		files = append(files, path)
	}

	slices.Sort(files)
	return files, nil
}

func (r *Resolver) inNestedModule(dir string, memo map[string]bool) bool {
	if dir == r.root || !isBelow(r.root, dir) {
		return false
	}
	if v, ok := memo[dir]; ok {
		return v
	}
	_, err := os.Stat(filepath.Join(dir, domain.ModFileName))
	v := err == nil || r.inNestedModule(filepath.Dir(dir), memo)
	memo[dir] = v
	return v
}

func (r *Resolver) relative(path string) (string, bool) {
	rel, err := filepath.Rel(r.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (r *Resolver) importPathOf(dir string) string {
	rel, ok := r.relative(dir)
	if !ok {
		return filepath.ToSlash(dir)
	}
	if rel == "." {
		return r.modulePath
	}
	return r.modulePath + "/" + rel
}

func hasSources(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == domain.SourceExt {
			return true
		}
	}
	return false
}

func isBelow(parent, path string) bool {
	rel, err := filepath.Rel(parent, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
