package domain

import (
	"fmt"
	"go/ast"
	"go/token"
)

// Phase selects when a transformer runs during a file's rewrite.
type Phase uint8

const (
	// PhaseBefore runs while walking the tree in pre-order.
	PhaseBefore Phase = iota + 1
	// PhaseAfter runs in post-order and, for file transformers, once the walk is done.
	PhaseAfter
)

// String returns the configuration name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseBefore:
		return "before"
	case PhaseAfter:
		return "after"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	return p == PhaseBefore || p == PhaseAfter
}

// NodeKind is the filter transformers register against.
type NodeKind uint8

const (
	// KindNone marks nodes no transformer can target.
	KindNone NodeKind = iota
	// KindCall is a call expression.
	KindCall
	// KindMethod is a function declaration with a receiver.
	KindMethod
	// KindFunc is a function declaration without a receiver.
	KindFunc
	// KindType is a type spec.
	KindType
	// KindImport is an import spec.
	KindImport
	// KindFile is the whole file; its after chain finalizes the file.
	KindFile
)

var nodeKindNames = map[NodeKind]string{
	KindNone:   "none",
	KindCall:   "call",
	KindMethod: "method",
	KindFunc:   "func",
	KindType:   "type",
	KindImport: "import",
	KindFile:   "file",
}

// String returns the configuration name of the kind.
func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k can be targeted by a transformer.
func (k NodeKind) Valid() bool {
	return k > KindNone && k <= KindFile
}

// KindOf classifies an AST node.
func KindOf(n ast.Node) NodeKind {
	switch n := n.(type) {
	case *ast.CallExpr:
		return KindCall
	case *ast.FuncDecl:
		if n.Recv != nil {
			return KindMethod
		}
		return KindFunc
	case *ast.TypeSpec:
		return KindType
	case *ast.ImportSpec:
		return KindImport
	case *ast.File:
		return KindFile
	default:
		return KindNone
	}
}

// TransformError reports a transformer failure with its source location.
type TransformError struct {
	File        string
	Pos         token.Position
	Transformer string
	Phase       Phase
	Kind        NodeKind
	Err         error
}

// Error implements the error interface.
func (e *TransformError) Error() string {
	loc := e.File
	if e.Pos.IsValid() {
		loc = fmt.Sprintf("%s:%d:%d", e.File, e.Pos.Line, e.Pos.Column)
	}
	return fmt.Sprintf("%s: %s: %s %s on %s: %v",
		ErrTransformFailed.Error(), loc, e.Transformer, e.Phase, e.Kind, e.Err)
}

// Unwrap returns both the transform sentinel and the visitor's error.
func (e *TransformError) Unwrap() []error {
	return []error{ErrTransformFailed, e.Err}
}
