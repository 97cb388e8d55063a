package transform

import (
	"go/ast"
	"go/token"
	"path"
	"strconv"

	"github.com/travetto/travetto-sub016/internal/core/domain"
	"github.com/travetto/travetto-sub016/internal/core/ports"
	"golang.org/x/tools/go/ast/astutil"
)

// Env is the per-host environment every transformer state shares.
type Env struct {
	Resolver ports.ModuleResolver
	// MetaImport is the runtime registry package generated code imports.
	MetaImport string
}

// State is the per-file context handed to visitors.
type State struct {
	unit    *domain.CompileUnit
	env     Env
	lazy    domain.ModuleSet
	scratch map[string]any
}

func newState(unit *domain.CompileUnit, env Env) *State {
	if env.MetaImport == "" {
		env.MetaImport = domain.DefaultMetaImport
	}
	return &State{
		unit:    unit,
		env:     env,
		lazy:    domain.NewModuleSet(),
		scratch: make(map[string]any),
	}
}

// Unit returns the unit being transformed.
func (s *State) Unit() *domain.CompileUnit { return s.unit }

// File returns the file being transformed.
func (s *State) File() *ast.File { return s.unit.AST }

// Fset returns the file set positions resolve against.
func (s *State) Fset() *token.FileSet { return s.unit.Fset }

// Module returns the module id of the unit.
func (s *State) Module() string { return s.unit.Module }

// MetaImport returns the runtime registry import path.
func (s *State) MetaImport() string { return s.env.MetaImport }

// Position resolves the source position of n.
func (s *State) Position(n ast.Node) token.Position {
	if n == nil || !n.Pos().IsValid() {
		return token.Position{Filename: s.unit.SourceFile}
	}
	return s.unit.Fset.Position(n.Pos())
}

// ImportName returns the local name the file uses for importPath.
// Unnamed imports are assumed to use the last path element.
func (s *State) ImportName(importPath string) (string, bool) {
	for _, spec := range s.unit.AST.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil || p != importPath {
			continue
		}
		if spec.Name == nil {
			return path.Base(p), true
		}
		if spec.Name.Name == "_" || spec.Name.Name == "." {
			continue
		}
		return spec.Name.Name, true
	}
	return "", false
}

// AddImport adds a named import unless the file already has it.
func (s *State) AddImport(name, importPath string) bool {
	return astutil.AddNamedImport(s.unit.Fset, s.unit.AST, name, importPath)
}

// ResolveSpecifier resolves a relative or module specifier from this file.
func (s *State) ResolveSpecifier(spec string) (string, error) {
	return s.env.Resolver.ResolveSpecifier(s.unit.SourceFile, spec)
}

// RecordLazy records a package referenced through a lazy specifier.
func (s *State) RecordLazy(pkg string) {
	s.lazy.Add(pkg)
}

// LazyImports returns the recorded lazy packages in sorted order.
func (s *State) LazyImports() []string {
	return s.lazy.Sorted()
}

// Scratch returns per-file data stored under key, creating it on first use.
// Transformers of one provider share state across visits this way.
func Scratch[T any](s *State, key string, init func() *T) *T {
	if v, ok := s.scratch[key].(*T); ok {
		return v
	}
	v := init()
	s.scratch[key] = v
	return v
}

// TopLevelType reports whether ts is declared at package scope.
func (s *State) TopLevelType(ts *ast.TypeSpec) bool {
	return s.DeclOf(ts) != nil
}

// DeclOf returns the declaration holding a top-level type spec.
func (s *State) DeclOf(ts *ast.TypeSpec) *ast.GenDecl {
	for _, decl := range s.unit.AST.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			if spec == ts {
				return gen
			}
		}
	}
	return nil
}
