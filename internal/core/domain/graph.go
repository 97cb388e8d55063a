// Package domain contains the core domain models of the incremental compiler.
package domain

import (
	"errors"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// PackageGraph represents static import edges between packages of one module.
type PackageGraph struct {
	edges map[string][]string
}

// NewPackageGraph creates a new empty PackageGraph.
func NewPackageGraph() *PackageGraph {
	return &PackageGraph{
		edges: make(map[string][]string),
	}
}

// AddPackage adds a package without edges.
func (g *PackageGraph) AddPackage(pkg string) {
	if _, ok := g.edges[pkg]; !ok {
		g.edges[pkg] = nil
	}
}

// AddEdge records that pkg imports dep.
func (g *PackageGraph) AddEdge(pkg, dep string) {
	g.AddPackage(dep)
	if slices.Contains(g.edges[pkg], dep) {
		return
	}
	g.edges[pkg] = append(g.edges[pkg], dep)
}

// Validate checks the graph for cycles using a depth first search.
// The returned error carries the cycle path and the packages that take part in it.
func (g *PackageGraph) Validate() error {
	visited := make(map[string]int, len(g.edges)) // 0: unvisited, 1: visiting, 2: visited
	var path []string

	var visit func(u string) error
	visit = func(u string) error {
		visited[u] = 1
		path = append(path, u)

		deps := slices.Clone(g.edges[u])
		slices.Sort(deps)
		for _, dep := range deps {
			if visited[dep] == 1 {
				return buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		return nil
	}

	// Sorted roots keep the reported cycle stable between runs.
	pkgs := make([]string, 0, len(g.edges))
	for pkg := range g.edges {
		pkgs = append(pkgs, pkg)
	}
	slices.Sort(pkgs)

	for _, pkg := range pkgs {
		if visited[pkg] == 0 {
			if err := visit(pkg); err != nil {
				return err
			}
		}
	}
	return nil
}

// Cyclic returns every package that lies on a cycle, in sorted order.
func (g *PackageGraph) Cyclic() []string {
	index := make(map[string]int, len(g.edges))
	low := make(map[string]int, len(g.edges))
	onStack := make(map[string]bool)
	var stack, cyclic []string
	next := 0

	// Tarjan's strongly connected components.
	var connect func(u string)
	connect = func(u string) {
		index[u], low[u] = next, next
		next++
		stack = append(stack, u)
		onStack[u] = true

		for _, v := range g.edges[u] {
			if _, seen := index[v]; !seen {
				connect(v)
				low[u] = min(low[u], low[v])
			} else if onStack[v] {
				low[u] = min(low[u], index[v])
			}
		}

		if low[u] != index[u] {
			return
		}
		var component []string
		for {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[v] = false
			component = append(component, v)
			if v == u {
				break
			}
		}
		if len(component) > 1 || slices.Contains(g.edges[u], u) {
			cyclic = append(cyclic, component...)
		}
	}

	for pkg := range g.edges {
		if _, seen := index[pkg]; !seen {
			connect(pkg)
		}
	}
	slices.Sort(cyclic)
	return cyclic
}

// buildCycleError constructs an error with cycle path metadata.
func buildCycleError(path []string, dep string) error {
	startIdx := slices.Index(path, dep)
	members := slices.Clone(path[startIdx:])
	cyclePath := strings.Join(append(slices.Clone(members), dep), " -> ")

	err := zerr.With(ErrModuleCycle, "cycle", cyclePath)
	return zerr.With(err, "packages", members)
}

// CyclePackages extracts the packages taking part in a cycle error returned by Validate.
func CyclePackages(err error) []string {
	var zErr *zerr.Error
	if !errors.As(err, &zErr) {
		return nil
	}
	pkgs, _ := zErr.Metadata()["packages"].([]string)
	return pkgs
}
