package builtin

import (
	"fmt"
	"go/ast"
	"go/token"
	"slices"
	"strconv"

	"github.com/travetto/travetto-sub016/internal/core/domain"
	"github.com/travetto/travetto-sub016/internal/engine/transform"
)

// SourceAttr is the attribute key logsrc appends to slog calls.
const SourceAttr = "src"

const slogImport = "log/slog"

var slogLevels = map[string]bool{
	"Debug":        true,
	"Info":         true,
	"Warn":         true,
	"Error":        true,
	"DebugContext": true,
	"InfoContext":  true,
	"WarnContext":  true,
	"ErrorContext": true,
}

// logSourceProvider appends the call site to package level slog calls.
func logSourceProvider() transform.Provider {
	return provider{name: LogSourceName, descriptors: []transform.Descriptor{
		{Name: "call", Phase: domain.PhaseBefore, Kind: domain.KindCall, Priority: logSourcePriority, Visit: tagLogSource},
	}}
}

func tagLogSource(st *transform.State, n ast.Node) (ast.Node, error) {
	call := n.(*ast.CallExpr)
	if call.Ellipsis.IsValid() || !isSlogCall(st, call) || hasSourceAttr(call) {
		return n, nil
	}

	pos := st.Position(call)
	out := *call
	out.Args = append(slices.Clip(call.Args),
		&ast.BasicLit{Kind: token.STRING, Value: strconv.Quote(SourceAttr)},
		&ast.BasicLit{Kind: token.STRING, Value: strconv.Quote(fmt.Sprintf("%s:%d", st.Module(), pos.Line))},
	)
	return &out, nil
}

func isSlogCall(st *transform.State, call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || !slogLevels[sel.Sel.Name] {
		return false
	}
	x, ok := sel.X.(*ast.Ident)
	if !ok {
		return false
	}
	name, ok := st.ImportName(slogImport)
	return ok && x.Name == name
}

func hasSourceAttr(call *ast.CallExpr) bool {
	quoted := strconv.Quote(SourceAttr)
	return slices.ContainsFunc(call.Args, func(arg ast.Expr) bool {
		lit, ok := arg.(*ast.BasicLit)
		return ok && lit.Kind == token.STRING && lit.Value == quoted
	})
}
