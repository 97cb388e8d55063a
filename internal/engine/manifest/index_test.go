package manifest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travetto/travetto-sub016/internal/core/domain"
	"github.com/travetto/travetto-sub016/internal/engine/manifest"
)

const mod = "example.com/app"

// chain builds a -> b -> c (a imports b, b imports c) plus an unrelated d.
func chain(t *testing.T) *manifest.Index {
	t.Helper()
	idx := manifest.New(mod)
	for _, e := range []*domain.ManifestEntry{
		{Module: mod + "/a/a.go", Package: mod + "/a", SourceFile: "/w/a/a.go", ContentHash: "a1", OutputFile: "/o/a", Imports: []string{mod + "/b", "fmt"}},
		{Module: mod + "/b/b.go", Package: mod + "/b", SourceFile: "/w/b/b.go", ContentHash: "b1", OutputFile: "/o/b", Imports: []string{mod + "/c"}},
		{Module: mod + "/c/c.go", Package: mod + "/c", SourceFile: "/w/c/c.go", ContentHash: "c1", OutputFile: "/o/c"},
		{Module: mod + "/d/d.go", Package: mod + "/d", SourceFile: "/w/d/d.go", ContentHash: "d1", OutputFile: "/o/d"},
	} {
		idx.Upsert(e)
	}
	return idx
}

func TestIndex_DerivedEdges(t *testing.T) {
	idx := chain(t)

	b, ok := idx.Lookup(mod + "/b/b.go")
	require.True(t, ok)
	assert.Equal(t, []string{mod + "/c/c.go"}, b.Dependencies)
	assert.Equal(t, []string{mod + "/a/a.go"}, b.Dependents)
}

func TestIndex_RecordChange_TransitiveClosure(t *testing.T) {
	idx := chain(t)

	affected, err := idx.RecordChange("/w/c/c.go", "c2")
	require.NoError(t, err)
	assert.Equal(t, []string{mod + "/a/a.go", mod + "/b/b.go", mod + "/c/c.go"}, affected.Sorted())

	for _, id := range affected.Sorted() {
		e, _ := idx.Lookup(id)
		assert.True(t, e.Stale, id)
	}
	d, _ := idx.Lookup(mod + "/d/d.go")
	assert.False(t, d.Stale)
}

func TestIndex_RecordChange_UnchangedHash(t *testing.T) {
	idx := chain(t)

	affected, err := idx.RecordChange("/w/c/c.go", "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{mod + "/c/c.go"}, affected.Sorted())
}

func TestIndex_RecordChange_StaleEntryPropagates(t *testing.T) {
	idx := chain(t)
	idx.MarkStale(mod + "/b/b.go")

	affected, err := idx.RecordChange("/w/b/b.go", "b1")
	require.NoError(t, err)
	assert.Equal(t, []string{mod + "/a/a.go", mod + "/b/b.go"}, affected.Sorted())
}

func TestIndex_RecordChange_Unknown(t *testing.T) {
	idx := chain(t)

	_, err := idx.RecordChange("/w/zzz.go", "x")
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrSourceNotFound.Error())
}

func TestIndex_LazyEdgesPropagate(t *testing.T) {
	idx := chain(t)
	d, _ := idx.Lookup(mod + "/d/d.go")
	d.LazyImports = []string{mod + "/a"}
	idx.Upsert(d)

	affected, err := idx.RecordChange("/w/c/c.go", "c2")
	require.NoError(t, err)
	assert.True(t, affected.Has(mod+"/d/d.go"))
}

func TestIndex_Remove_PrunesAndMarksDependents(t *testing.T) {
	idx := chain(t)

	dependents, err := idx.Remove("/w/b/b.go")
	require.NoError(t, err)
	assert.Equal(t, []string{mod + "/a/a.go"}, dependents.Sorted())

	_, ok := idx.Lookup(mod + "/b/b.go")
	assert.False(t, ok)

	a, _ := idx.Lookup(mod + "/a/a.go")
	assert.True(t, a.Stale)
	assert.Empty(t, a.Dependencies, "pointers to the removed file are pruned")

	c, _ := idx.Lookup(mod + "/c/c.go")
	assert.Empty(t, c.Dependents)
}

func TestIndex_Resolve(t *testing.T) {
	idx := chain(t)

	out, err := idx.Resolve(mod + "/a/a.go")
	require.NoError(t, err)
	assert.Equal(t, "/o/a", out)

	out, err = idx.Resolve("/w/b/b.go")
	require.NoError(t, err)
	assert.Equal(t, "/o/b", out)

	_, err = idx.Resolve(mod + "/missing.go")
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrSourceNotFound.Error())

	idx.Upsert(&domain.ManifestEntry{Module: mod + "/e/e.go", Package: mod + "/e", SourceFile: "/w/e/e.go"})
	_, err = idx.Resolve(mod + "/e/e.go")
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrSourceNotFound.Error())

	outs, err := idx.ResolvePackage(mod + "/c")
	require.NoError(t, err)
	assert.Equal(t, []string{"/o/c"}, outs)
}

func TestIndex_CheckCycles(t *testing.T) {
	idx := chain(t)
	require.NoError(t, idx.CheckCycles())

	c, _ := idx.Lookup(mod + "/c/c.go")
	c.Imports = []string{mod + "/a"}
	idx.Upsert(c)

	err := idx.CheckCycles()
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrModuleCycle.Error())
	assert.ElementsMatch(t, []string{mod + "/a", mod + "/b", mod + "/c"}, domain.CyclePackages(err))
}

func TestIndex_CheckCycles_LazyCycleAllowed(t *testing.T) {
	idx := chain(t)
	c, _ := idx.Lookup(mod + "/c/c.go")
	c.LazyImports = []string{mod + "/a"}
	idx.Upsert(c)

	require.NoError(t, idx.CheckCycles())
}

func TestIndex_ManifestRoundTrip(t *testing.T) {
	idx := chain(t)
	idx.Advance()

	restored := manifest.FromManifest(idx.Manifest())
	assert.Equal(t, uint64(1), restored.Generation())
	assert.Equal(t, idx.Entries(), restored.Entries())
}

func TestIndex_CloneIsIndependent(t *testing.T) {
	idx := chain(t)
	clone := idx.Clone()

	_, err := clone.RecordChange("/w/c/c.go", "c2")
	require.NoError(t, err)

	c, _ := idx.Lookup(mod + "/c/c.go")
	assert.Equal(t, "c1", c.ContentHash)
	assert.False(t, c.Stale)
}

func TestIndex_CyclicPackages(t *testing.T) {
	idx := chain(t)
	assert.Empty(t, idx.CyclicPackages())

	c, _ := idx.Lookup(mod + "/c/c.go")
	c.Imports = []string{mod + "/b"}
	idx.Upsert(c)
	idx.Upsert(&domain.ManifestEntry{
		Module: mod + "/e/e.go", Package: mod + "/e", SourceFile: "/w/e/e.go",
		Imports: []string{mod + "/f"},
	})
	idx.Upsert(&domain.ManifestEntry{
		Module: mod + "/f/f.go", Package: mod + "/f", SourceFile: "/w/f/f.go",
		Imports: []string{mod + "/e"},
	})

	assert.Equal(t, []string{mod + "/b", mod + "/c", mod + "/e", mod + "/f"}, idx.CyclicPackages())
}

func TestIndex_StaticDependencies(t *testing.T) {
	idx := chain(t)
	a, _ := idx.Lookup(mod + "/a/a.go")
	a.LazyImports = []string{mod + "/d"}
	idx.Upsert(a)

	assert.Equal(t, []string{mod + "/b/b.go"}, idx.StaticDependencies(mod+"/a/a.go"))
	a, _ = idx.Lookup(mod + "/a/a.go")
	assert.Equal(t, []string{mod + "/b/b.go", mod + "/d/d.go"}, a.Dependencies)
	assert.Nil(t, idx.StaticDependencies("missing"))
}
