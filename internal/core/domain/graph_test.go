package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travetto/travetto-sub016/internal/core/domain"
)

func TestPackageGraph_Validate(t *testing.T) {
	g := domain.NewPackageGraph()
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddPackage("d")
	require.NoError(t, g.Validate())
	assert.Empty(t, g.Cyclic())

	g.AddEdge("c", "a")
	err := g.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrModuleCycle.Error())
	assert.Equal(t, []string{"a", "b", "c"}, domain.CyclePackages(err))
}

func TestPackageGraph_Cyclic(t *testing.T) {
	g := domain.NewPackageGraph()
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")
	g.AddEdge("c", "a")
	g.AddEdge("x", "y")
	g.AddEdge("y", "z")
	g.AddEdge("z", "x")
	g.AddEdge("self", "self")

	assert.Equal(t, []string{"a", "b", "self", "x", "y", "z"}, g.Cyclic())
}

func TestCyclePackages_OtherError(t *testing.T) {
	assert.Nil(t, domain.CyclePackages(domain.ErrBuildFailed))
	assert.Nil(t, domain.CyclePackages(nil))
}
