package domain

import (
	"go/ast"
	"go/token"
	"slices"
)

// CompileUnit is the in-memory state of one file during a single compile pass.
type CompileUnit struct {
	SourceFile string
	Module     string
	Package    string
	// ContentHash is the hash of Source.
	ContentHash string
	Source      []byte

	Fset *token.FileSet
	AST  *ast.File

	// Applied lists transformers in the order they first ran on this unit.
	Applied []string
	// LazyImports are packages referenced through lazy specifiers, discovered while transforming.
	LazyImports []string
	// Output is the generated code, set once code generation succeeded.
	Output []byte
}

// MarkApplied appends name unless it was already recorded.
func (u *CompileUnit) MarkApplied(name string) {
	if slices.Contains(u.Applied, name) {
		return
	}
	u.Applied = append(u.Applied, name)
}
