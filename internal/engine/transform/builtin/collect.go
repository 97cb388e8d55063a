package builtin

import (
	"bytes"
	"cmp"
	"fmt"
	"go/ast"
	"go/printer"
	"maps"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/travetto/travetto-sub016/internal/engine/transform"
	"github.com/travetto/travetto-sub016/pkg/meta"
)

const collectedKey = "builtin.collected"

// collected accumulates the declarations of one file for the registration emitter.
type collected struct {
	types map[string]*meta.Type
	funcs map[string]*meta.Func
}

func collectedOf(st *transform.State) *collected {
	return transform.Scratch(st, collectedKey, func() *collected {
		return &collected{
			types: make(map[string]*meta.Type),
			funcs: make(map[string]*meta.Func),
		}
	})
}

func (c *collected) typ(name string) *meta.Type {
	t, ok := c.types[name]
	if !ok {
		t = &meta.Type{Name: name}
		c.types[name] = t
	}
	return t
}

// method returns a pointer into the type's method slice; do not retain it.
func (c *collected) method(recv, name string) *meta.Method {
	t := c.typ(recv)
	for i := range t.Methods {
		if t.Methods[i].Name == name {
			return &t.Methods[i]
		}
	}
	t.Methods = append(t.Methods, meta.Method{Name: name})
	return &t.Methods[len(t.Methods)-1]
}

func (c *collected) fn(name string) *meta.Func {
	f, ok := c.funcs[name]
	if !ok {
		f = &meta.Func{Name: name}
		c.funcs[name] = f
	}
	return f
}

func (c *collected) empty() bool {
	return len(c.types) == 0 && len(c.funcs) == 0
}

func (c *collected) file(module, pkg string) meta.File {
	f := meta.File{Module: module, Package: pkg}
	for _, name := range slices.Sorted(maps.Keys(c.types)) {
		t := *c.types[name]
		t.Methods = slices.Clone(t.Methods)
		slices.SortFunc(t.Methods, func(a, b meta.Method) int { return cmp.Compare(a.Name, b.Name) })
		f.Types = append(f.Types, t)
	}
	for _, name := range slices.Sorted(maps.Keys(c.funcs)) {
		f.Funcs = append(f.Funcs, *c.funcs[name])
	}
	return f
}

// hashNode hashes the printed form of n, so formatting-only edits that gofmt
// would undo do not change the identity.
func hashNode(st *transform.State, n ast.Node) string {
	var buf bytes.Buffer
	cfg := printer.Config{Mode: printer.UseSpaces | printer.TabIndent, Tabwidth: 8}
	if err := cfg.Fprint(&buf, st.Fset(), n); err != nil {
		return ""
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(buf.Bytes()))
}

// receiverType returns the base type name of a method receiver.
func receiverType(fd *ast.FuncDecl) string {
	if fd.Recv == nil || len(fd.Recv.List) == 0 {
		return ""
	}
	expr := fd.Recv.List[0].Type
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.Ident:
			return e.Name
		default:
			return ""
		}
	}
}

// registrable reports whether a declared name can be referred to by the registry.
func registrable(name string) bool {
	return name != "" && name != "_" && name != "init"
}
