package builtin

import (
	"go/ast"

	"github.com/travetto/travetto-sub016/internal/core/domain"
	"github.com/travetto/travetto-sub016/internal/engine/transform"
)

// identityProvider hashes every package level declaration so a running
// program can tell which types and functions changed between builds.
func identityProvider() transform.Provider {
	return provider{name: IdentityName, descriptors: []transform.Descriptor{
		{Name: "type", Phase: domain.PhaseBefore, Kind: domain.KindType, Priority: identityPriority, Visit: hashType},
		{Name: "func", Phase: domain.PhaseBefore, Kind: domain.KindFunc, Priority: identityPriority, Visit: hashFunc},
		{Name: "method", Phase: domain.PhaseBefore, Kind: domain.KindMethod, Priority: identityPriority, Visit: hashMethod},
	}}
}

func hashType(st *transform.State, n ast.Node) (ast.Node, error) {
	ts := n.(*ast.TypeSpec)
	if !registrable(ts.Name.Name) || !st.TopLevelType(ts) {
		return n, nil
	}
	collectedOf(st).typ(ts.Name.Name).Hash = hashNode(st, ts)
	return n, nil
}

func hashFunc(st *transform.State, n ast.Node) (ast.Node, error) {
	fd := n.(*ast.FuncDecl)
	if !registrable(fd.Name.Name) {
		return n, nil
	}
	collectedOf(st).fn(fd.Name.Name).Hash = hashNode(st, fd)
	return n, nil
}

func hashMethod(st *transform.State, n ast.Node) (ast.Node, error) {
	fd := n.(*ast.FuncDecl)
	recv := receiverType(fd)
	if !registrable(recv) || !registrable(fd.Name.Name) {
		return n, nil
	}
	collectedOf(st).method(recv, fd.Name.Name).Hash = hashNode(st, fd)
	return n, nil
}
