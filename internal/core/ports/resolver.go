package ports

import "context"

// ModuleResolver normalizes paths and resolves module sources relative to the workspace root.
//
//go:generate mockgen -destination=mocks/resolver_mock.go -package=mocks -source=resolver.go
type ModuleResolver interface {
	// Root returns the canonical workspace root.
	Root() string
	// ModulePath returns the module path declared in go.mod.
	ModulePath() string
	// Canonical returns the absolute, cleaned, symlink free form of path.
	Canonical(path string) (string, error)
	// ModuleID returns the module id of a canonical source file.
	ModuleID(file string) string
	// PackageOf returns the import path of the package holding a canonical source file.
	PackageOf(file string) string
	// ResolveImport maps an in-module import path to its directory.
	// It returns false for imports outside the module.
	ResolveImport(importPath string) (string, bool)
	// ResolveSpecifier resolves a lazy specifier written in fromFile to a package import path.
	ResolveSpecifier(fromFile, spec string) (string, error)
	// Discover lists every source file of the workspace in sorted order.
	Discover(ctx context.Context) ([]string, error)
}
