package transform_test

import (
	"go/ast"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travetto/travetto-sub016/internal/core/domain"
	"github.com/travetto/travetto-sub016/internal/engine/transform"
)

func noop(_ *transform.State, n ast.Node) (ast.Node, error) { return n, nil }

func names(chain []transform.Descriptor) []string {
	out := make([]string, len(chain))
	for i, d := range chain {
		out[i] = d.ID()
	}
	return out
}

func TestRegistry_ChainOrder(t *testing.T) {
	r := transform.NewRegistry()
	require.NoError(t, r.Register(transform.Descriptor{
		Name: "late", Phase: domain.PhaseBefore, Kind: domain.KindCall, Priority: 10, Visit: noop,
	}))
	require.NoError(t, r.Register(transform.Descriptor{
		Name: "early", Phase: domain.PhaseBefore, Kind: domain.KindCall, Priority: 5, Visit: noop,
	}))
	require.NoError(t, r.Register(transform.Descriptor{
		Name: "first-tie", Phase: domain.PhaseBefore, Kind: domain.KindCall, Priority: 10, Visit: noop,
	}))
	require.NoError(t, r.Register(transform.Descriptor{
		Name: "other-kind", Phase: domain.PhaseBefore, Kind: domain.KindType, Priority: 0, Visit: noop,
	}))

	assert.Equal(t, []string{"early", "late", "first-tie"}, names(r.Chain(domain.PhaseBefore, domain.KindCall)))

	r.Freeze()
	assert.Equal(t, []string{"early", "late", "first-tie"}, names(r.Chain(domain.PhaseBefore, domain.KindCall)))
	assert.Equal(t, []string{"other-kind"}, names(r.Chain(domain.PhaseBefore, domain.KindType)))
	assert.Empty(t, r.Chain(domain.PhaseAfter, domain.KindCall))
	assert.Len(t, r.VisitorsFor(domain.PhaseBefore, domain.KindCall), 3)
}

func TestRegistry_Frozen(t *testing.T) {
	r := transform.NewRegistry()
	r.Freeze()
	assert.True(t, r.Frozen())

	err := r.Register(transform.Descriptor{Name: "x", Phase: domain.PhaseBefore, Kind: domain.KindCall, Visit: noop})
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrRegistryFrozen.Error())
	assert.Zero(t, r.Len())
}

func TestRegistry_InvalidDescriptor(t *testing.T) {
	tests := []struct {
		name string
		d    transform.Descriptor
	}{
		{"missing name", transform.Descriptor{Phase: domain.PhaseBefore, Kind: domain.KindCall, Visit: noop}},
		{"missing visit", transform.Descriptor{Name: "x", Phase: domain.PhaseBefore, Kind: domain.KindCall}},
		{"bad phase", transform.Descriptor{Name: "x", Kind: domain.KindCall, Visit: noop}},
		{"bad kind", transform.Descriptor{Name: "x", Phase: domain.PhaseBefore, Visit: noop}},
		{"file before", transform.Descriptor{Name: "x", Phase: domain.PhaseBefore, Kind: domain.KindFile, Visit: noop}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := transform.NewRegistry().Register(tt.d)
			assert.ErrorContains(t, err, domain.ErrInvalidTransformer.Error())
		})
	}
}

type stubProvider struct {
	name        string
	descriptors []transform.Descriptor
}

func (p stubProvider) Name() string                         { return p.name }
func (p stubProvider) Transformers() []transform.Descriptor { return p.descriptors }

func TestRegistry_RegisterProvider(t *testing.T) {
	p := stubProvider{name: "stub", descriptors: []transform.Descriptor{
		{Name: "a", Phase: domain.PhaseBefore, Kind: domain.KindCall, Priority: 50, Visit: noop},
		{Name: "b", Phase: domain.PhaseAfter, Kind: domain.KindCall, Priority: 60, Visit: noop},
	}}

	r := transform.NewRegistry()
	override := 7
	require.NoError(t, r.RegisterProvider(p, &override))

	got := r.Descriptors()
	require.Len(t, got, 2)
	assert.Equal(t, "stub.a", got[0].ID())
	assert.Equal(t, 7, got[0].Priority)
	assert.Equal(t, 7, got[1].Priority)
	assert.Equal(t, 0, got[0].Seq)
	assert.Equal(t, 1, got[1].Seq)
}

func TestRegistry_Fingerprint(t *testing.T) {
	build := func(priority int) *transform.Registry {
		r := transform.NewRegistry()
		require.NoError(t, r.Register(transform.Descriptor{
			Name: "x", Phase: domain.PhaseBefore, Kind: domain.KindCall, Priority: priority, Visit: noop,
		}))
		return r
	}

	a, b := build(1), build(1)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	a.Freeze()
	assert.Equal(t, b.Fingerprint(), a.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), build(2).Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), transform.NewRegistry().Fingerprint())
	assert.Len(t, a.Fingerprint(), 16)
}

func TestApply_Fold(t *testing.T) {
	rename := func(name string) transform.VisitFunc {
		return func(_ *transform.State, n ast.Node) (ast.Node, error) {
			id := n.(*ast.Ident)
			return ast.NewIdent(id.Name + name), nil
		}
	}
	f, g := rename("f"), rename("g")

	folded, err := transform.Apply(nil, []transform.VisitFunc{f, g}, ast.NewIdent("x"))
	require.NoError(t, err)

	inner, err := f(nil, ast.NewIdent("x"))
	require.NoError(t, err)
	manual, err := g(nil, inner)
	require.NoError(t, err)

	assert.Equal(t, manual.(*ast.Ident).Name, folded.(*ast.Ident).Name)
	assert.Equal(t, "xfg", folded.(*ast.Ident).Name)

	same, err := transform.Apply(nil, nil, ast.NewIdent("y"))
	require.NoError(t, err)
	assert.Equal(t, "y", same.(*ast.Ident).Name)
}
