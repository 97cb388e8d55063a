package transform

import (
	"bytes"
	"context"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"reflect"

	"github.com/travetto/travetto-sub016/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/tools/go/ast/astutil"
)

// Host walks a file and applies the registered transformer chains.
type Host struct {
	registry *Registry
	env      Env
}

// NewHost creates a host over a registry. The registry is frozen.
func NewHost(registry *Registry, env Env) *Host {
	registry.Freeze()
	return &Host{registry: registry, env: env}
}

// Registry returns the registry the host applies.
func (h *Host) Registry() *Registry {
	return h.registry
}

// Parse parses the unit's source into a fresh file set.
func Parse(unit *domain.CompileUnit) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, unit.SourceFile, unit.Source, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrParseFailed.Error()), "file", unit.SourceFile)
	}
	unit.Fset = fset
	unit.AST = file
	return nil
}

// Transform rewrites unit.AST in one depth-first pass.
//
// Before chains run in pre-order and after chains in post-order. A replaced
// node is walked again so transformers see the children of the replacement.
// File transformers run once the walk is done. The first failure aborts the
// pass and is returned as a *domain.TransformError.
func (h *Host) Transform(ctx context.Context, unit *domain.CompileUnit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if unit.AST == nil {
		if err := Parse(unit); err != nil {
			return err
		}
	}

	st := newState(unit, h.env)
	w := &walker{ctx: ctx, host: h, st: st}

	result := astutil.Apply(unit.AST, w.pre, w.post)
	if w.err != nil {
		return w.err
	}
	unit.AST = result.(*ast.File)

	file, err := h.fold(st, domain.PhaseAfter, domain.KindFile, unit.AST)
	if err != nil {
		return err
	}
	unit.AST = file.(*ast.File)
	unit.LazyImports = st.LazyImports()
	return nil
}

// Generate renders unit.AST back to formatted source into unit.Output.
func (h *Host) Generate(unit *domain.CompileUnit) error {
	var buf bytes.Buffer
	if err := format.Node(&buf, unit.Fset, unit.AST); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCodegenFailed.Error()), "file", unit.SourceFile)
	}
	unit.Output = buf.Bytes()
	return nil
}

// fold runs the chain for phase and kind over n.
func (h *Host) fold(st *State, phase domain.Phase, kind domain.NodeKind, n ast.Node) (ast.Node, error) {
	current := n
	for _, d := range h.registry.Chain(phase, kind) {
		next, err := invoke(st, d, current)
		if err != nil {
			return nil, transformError(st, d, current, err)
		}
		if isNil(next) || domain.KindOf(next) != kind {
			err = zerr.With(domain.ErrMalformedReplacement, "got", fmt.Sprintf("%T", next))
			return nil, transformError(st, d, current, err)
		}
		st.unit.MarkApplied(d.ID())
		current = next
	}
	return current, nil
}

func invoke(st *State, d Descriptor, n ast.Node) (out ast.Node, err error) {
	defer zerr.Defer(func(perr error) {
		err = zerr.Wrap(perr, "transformer panicked")
	})
	return d.Visit(st, n)
}

func transformError(st *State, d Descriptor, n ast.Node, err error) error {
	return &domain.TransformError{
		File:        st.unit.SourceFile,
		Pos:         st.Position(n),
		Transformer: d.ID(),
		Phase:       d.Phase,
		Kind:        d.Kind,
		Err:         err,
	}
}

func isNil(n ast.Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

type walker struct {
	ctx  context.Context
	host *Host
	st   *State
	err  error
}

func (w *walker) pre(c *astutil.Cursor) bool {
	if w.err != nil {
		return false
	}
	if err := w.ctx.Err(); err != nil {
		w.err = err
		return false
	}

	n := c.Node()
	kind := domain.KindOf(n)
	if kind == domain.KindNone || kind == domain.KindFile {
		return true
	}

	out, err := w.host.fold(w.st, domain.PhaseBefore, kind, n)
	if err != nil {
		w.err = err
		return false
	}
	if out == n {
		return true
	}

	// Cursor.Replace does not descend into the replacement, so walk it here.
	// The replacement's before chain already ran; its after chain runs in the nested walk.
	replaced := astutil.Apply(out, func(inner *astutil.Cursor) bool {
		if inner.Node() == out {
			return true
		}
		return w.pre(inner)
	}, w.post)
	if w.err != nil {
		return false
	}
	c.Replace(replaced)
	return false
}

func (w *walker) post(c *astutil.Cursor) bool {
	if w.err != nil {
		return false
	}

	n := c.Node()
	kind := domain.KindOf(n)
	if kind == domain.KindNone || kind == domain.KindFile {
		return true
	}

	out, err := w.host.fold(w.st, domain.PhaseAfter, kind, n)
	if err != nil {
		w.err = err
		return false
	}
	if out != n {
		c.Replace(out)
	}
	return true
}
