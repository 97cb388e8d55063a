package wiring_test

import (
	"testing"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/require"
	"github.com/travetto/travetto-sub016/internal/app"
	_ "github.com/travetto/travetto-sub016/internal/wiring"
)

// TestGraftDependencies ensures that the dependency injection graph is valid
// at compile/test time. It checks that every node declaring a dependency
// actually uses it, and every used dependency is declared.
func TestGraftDependencies(t *testing.T) {
	// graft.AssertDepsValid infers the dependency ID from the package name of
	// the type used in Dep[T]. Nodes resolve `ports.Logger`, `ports.Tracer`,
	// etc., so it expects a dependency named "ports", which no node is.
	// TestGraftGraphResolves covers the graph at runtime instead.
	t.Skip("Skipping Graft validation due to static analysis limitation with shared ports package")
	graft.AssertDepsValid(t, "../../internal")
}

// TestGraftGraphResolves builds the full component graph the CLI starts from.
// It fails when a node cannot resolve one of its dependencies.
func TestGraftGraphResolves(t *testing.T) {
	components, _, err := graft.ExecuteFor[*app.Components](t.Context(), graft.DisableCache())
	require.NoError(t, err)
	require.NotNil(t, components.App)
	require.NotNil(t, components.Logger)
}
