package builtin

import (
	"go/ast"
	"go/token"
	"maps"
	"slices"
	"strconv"

	"github.com/travetto/travetto-sub016/internal/core/domain"
	"github.com/travetto/travetto-sub016/internal/engine/transform"
	"github.com/travetto/travetto-sub016/pkg/meta"
)

// RegistryAlias is the import name generated registration code uses.
const RegistryAlias = "trvmeta"

// registerProvider appends an init function registering the declarations
// collected by identity and directives with the runtime registry.
func registerProvider() transform.Provider {
	return provider{name: RegisterName, descriptors: []transform.Descriptor{
		{Name: "emit", Phase: domain.PhaseAfter, Kind: domain.KindFile, Priority: registerPriority, Visit: emitRegistration},
	}}
}

// emitRegistration edits the file in place.
func emitRegistration(st *transform.State, n ast.Node) (ast.Node, error) {
	file := n.(*ast.File)
	c := collectedOf(st)
	unit := st.Unit()
	// The registry package cannot import itself.
	if c.empty() || unit.Package == st.MetaImport() {
		return n, nil
	}

	st.AddImport(RegistryAlias, st.MetaImport())
	file.Decls = append(file.Decls, registrationDecl(RegistryAlias, c.file(unit.Module, unit.Package)))
	return file, nil
}

// registrationDecl builds:
//
//	func init() { alias.Register(alias.File{...}) }
func registrationDecl(alias string, f meta.File) *ast.FuncDecl {
	fields := []ast.Expr{
		keyValue("Module", stringLit(f.Module)),
		keyValue("Package", stringLit(f.Package)),
	}
	if len(f.Types) > 0 {
		elts := make([]ast.Expr, len(f.Types))
		for i, t := range f.Types {
			elts[i] = typeLit(alias, t)
		}
		fields = append(fields, keyValue("Types", sliceLit(qualified(alias, "Type"), elts)))
	}
	if len(f.Funcs) > 0 {
		elts := make([]ast.Expr, len(f.Funcs))
		for i, fn := range f.Funcs {
			elts[i] = declLit(alias, fn.Name, fn.Hash, fn.Tags)
		}
		fields = append(fields, keyValue("Funcs", sliceLit(qualified(alias, "Func"), elts)))
	}

	call := &ast.CallExpr{
		Fun:  qualified(alias, "Register"),
		Args: []ast.Expr{&ast.CompositeLit{Type: qualified(alias, "File"), Elts: fields}},
	}
	return &ast.FuncDecl{
		Name: ast.NewIdent("init"),
		Type: &ast.FuncType{Params: &ast.FieldList{}},
		Body: &ast.BlockStmt{List: []ast.Stmt{&ast.ExprStmt{X: call}}},
	}
}

func typeLit(alias string, t meta.Type) ast.Expr {
	lit := declLit(alias, t.Name, t.Hash, t.Tags).(*ast.CompositeLit)
	if len(t.Methods) > 0 {
		elts := make([]ast.Expr, len(t.Methods))
		for i, m := range t.Methods {
			elts[i] = declLit(alias, m.Name, m.Hash, m.Tags)
		}
		lit.Elts = append(lit.Elts, keyValue("Methods", sliceLit(qualified(alias, "Method"), elts)))
	}
	return lit
}

// declLit builds the elided element {Name: ..., Hash: ..., Tags: ...}.
func declLit(alias, name, hash string, tags []meta.Tag) ast.Expr {
	elts := []ast.Expr{keyValue("Name", stringLit(name))}
	if hash != "" {
		elts = append(elts, keyValue("Hash", stringLit(hash)))
	}
	if len(tags) > 0 {
		tagElts := make([]ast.Expr, len(tags))
		for i, tag := range tags {
			tagElts[i] = tagLit(tag)
		}
		elts = append(elts, keyValue("Tags", sliceLit(qualified(alias, "Tag"), tagElts)))
	}
	return &ast.CompositeLit{Elts: elts}
}

func tagLit(tag meta.Tag) ast.Expr {
	elts := []ast.Expr{keyValue("Name", stringLit(tag.Name))}
	if len(tag.Args) > 0 {
		args := make([]ast.Expr, 0, len(tag.Args))
		for _, k := range slices.Sorted(maps.Keys(tag.Args)) {
			args = append(args, &ast.KeyValueExpr{Key: stringLit(k), Value: stringLit(tag.Args[k])})
		}
		mapType := &ast.MapType{Key: ast.NewIdent("string"), Value: ast.NewIdent("string")}
		elts = append(elts, keyValue("Args", &ast.CompositeLit{Type: mapType, Elts: args}))
	}
	return &ast.CompositeLit{Elts: elts}
}

func sliceLit(elt ast.Expr, elts []ast.Expr) ast.Expr {
	return &ast.CompositeLit{Type: &ast.ArrayType{Elt: elt}, Elts: elts}
}

func qualified(alias, name string) ast.Expr {
	return &ast.SelectorExpr{X: ast.NewIdent(alias), Sel: ast.NewIdent(name)}
}

func keyValue(key string, value ast.Expr) ast.Expr {
	return &ast.KeyValueExpr{Key: ast.NewIdent(key), Value: value}
}

func stringLit(s string) ast.Expr {
	return &ast.BasicLit{Kind: token.STRING, Value: strconv.Quote(s)}
}
