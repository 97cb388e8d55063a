package builtin

import (
	"go/ast"
	"strings"

	"github.com/travetto/travetto-sub016/internal/core/domain"
	"github.com/travetto/travetto-sub016/internal/engine/transform"
	"github.com/travetto/travetto-sub016/pkg/meta"
)

// DirectivePrefix starts a tag comment, e.g. //trv:model table=users.
const DirectivePrefix = "//trv:"

func directivesProvider() transform.Provider {
	return provider{name: DirectivesName, descriptors: []transform.Descriptor{
		{Name: "type", Phase: domain.PhaseBefore, Kind: domain.KindType, Priority: directivesPriority, Visit: tagType},
		{Name: "func", Phase: domain.PhaseBefore, Kind: domain.KindFunc, Priority: directivesPriority, Visit: tagFunc},
		{Name: "method", Phase: domain.PhaseBefore, Kind: domain.KindMethod, Priority: directivesPriority, Visit: tagMethod},
	}}
}

// ParseDirectives extracts the tags of a doc comment.
func ParseDirectives(doc *ast.CommentGroup) []meta.Tag {
	if doc == nil {
		return nil
	}
	var tags []meta.Tag
	for _, c := range doc.List {
		text, ok := strings.CutPrefix(c.Text, DirectivePrefix)
		if !ok {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		tag := meta.Tag{Name: fields[0]}
		for _, arg := range fields[1:] {
			if tag.Args == nil {
				tag.Args = make(map[string]string)
			}
			k, v, _ := strings.Cut(arg, "=")
			tag.Args[k] = v
		}
		tags = append(tags, tag)
	}
	return tags
}

func tagType(st *transform.State, n ast.Node) (ast.Node, error) {
	ts := n.(*ast.TypeSpec)
	if !registrable(ts.Name.Name) {
		return n, nil
	}
	decl := st.DeclOf(ts)
	if decl == nil {
		return n, nil
	}

	doc := ts.Doc
	// A lone spec's comment attaches to the declaration.
	if doc == nil && len(decl.Specs) == 1 {
		doc = decl.Doc
	}
	if tags := ParseDirectives(doc); len(tags) > 0 {
		t := collectedOf(st).typ(ts.Name.Name)
		t.Tags = append(t.Tags, tags...)
	}
	return n, nil
}

func tagFunc(st *transform.State, n ast.Node) (ast.Node, error) {
	fd := n.(*ast.FuncDecl)
	if !registrable(fd.Name.Name) {
		return n, nil
	}
	if tags := ParseDirectives(fd.Doc); len(tags) > 0 {
		f := collectedOf(st).fn(fd.Name.Name)
		f.Tags = append(f.Tags, tags...)
	}
	return n, nil
}

func tagMethod(st *transform.State, n ast.Node) (ast.Node, error) {
	fd := n.(*ast.FuncDecl)
	recv := receiverType(fd)
	if !registrable(recv) || !registrable(fd.Name.Name) {
		return n, nil
	}
	if tags := ParseDirectives(fd.Doc); len(tags) > 0 {
		m := collectedOf(st).method(recv, fd.Name.Name)
		m.Tags = append(m.Tags, tags...)
	}
	return n, nil
}
