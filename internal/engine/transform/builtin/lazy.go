package builtin

import (
	"go/ast"
	"go/token"
	"strconv"

	"github.com/travetto/travetto-sub016/internal/core/domain"
	"github.com/travetto/travetto-sub016/internal/engine/transform"
	"go.trai.ch/zerr"
)

// lazyProvider rewrites meta.Lazy("<specifier>") calls to the canonical
// import path and records the package as a lazy dependency of the file.
// Lazy edges take part in invalidation but not in cycle detection.
func lazyProvider() transform.Provider {
	return provider{name: LazyName, descriptors: []transform.Descriptor{
		{Name: "resolve", Phase: domain.PhaseBefore, Kind: domain.KindCall, Priority: lazyPriority, Visit: resolveLazy},
	}}
}

func resolveLazy(st *transform.State, n ast.Node) (ast.Node, error) {
	call := n.(*ast.CallExpr)
	lit, ok := lazySpecifier(st, call)
	if !ok {
		return n, nil
	}

	spec, err := strconv.Unquote(lit.Value)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "invalid lazy specifier"), "specifier", lit.Value)
	}
	resolved, err := st.ResolveSpecifier(spec)
	if err != nil {
		return nil, err
	}
	st.RecordLazy(resolved)

	if resolved == spec {
		return n, nil
	}
	out := *call
	out.Args = []ast.Expr{&ast.BasicLit{ValuePos: lit.ValuePos, Kind: token.STRING, Value: strconv.Quote(resolved)}}
	return &out, nil
}

// lazySpecifier matches <meta>.Lazy("literal").
func lazySpecifier(st *transform.State, call *ast.CallExpr) (*ast.BasicLit, bool) {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "Lazy" || len(call.Args) != 1 {
		return nil, false
	}
	x, ok := sel.X.(*ast.Ident)
	if !ok {
		return nil, false
	}
	name, ok := st.ImportName(st.MetaImport())
	if !ok || x.Name != name {
		return nil, false
	}
	lit, ok := call.Args[0].(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return nil, false
	}
	return lit, true
}
