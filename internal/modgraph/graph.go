package modgraph

import (
	"fmt"

	"github.com/blendsdk/blend65/internal/ast"
)

// Edge is one import edge in the dependency multigraph, carrying the
// import's source location for diagnostics (spec §4.3).
type Edge struct {
	From, To string
	Loc      ast.Span
}

// Graph is a directed multigraph of module import edges. Duplicates are
// preserved (two `import` statements between the same pair of modules both
// show up, each with its own location) so diagnostics can point at every
// offending import.
type Graph struct {
	edges []Edge
	// adjacency is derived from edges for traversal; rebuilt by AddEdge.
	adjacency map[string][]Edge
}

// NewGraph creates an empty dependency graph.
func NewGraph() *Graph {
	return &Graph{adjacency: make(map[string][]Edge)}
}

// AddEdge records an import edge from -> to at loc.
func (g *Graph) AddEdge(from, to string, loc ast.Span) {
	e := Edge{From: from, To: to, Loc: loc}
	g.edges = append(g.edges, e)
	g.adjacency[from] = append(g.adjacency[from], e)
}

// Dependencies returns the modules that `name` directly imports.
func (g *Graph) Dependencies(name string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range g.adjacency[name] {
		if !seen[e.To] {
			seen[e.To] = true
			out = append(out, e.To)
		}
	}
	return out
}

// CycleError is returned by TopologicalOrder when the graph is not a DAG.
type CycleError struct {
	Cycles [][]string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular module dependency: %d cycle(s) found, e.g. %v", len(e.Cycles), e.Cycles[0])
}

// HasCycles reports whether the graph contains at least one cycle.
func (g *Graph) HasCycles() bool {
	return len(g.DetectCycles()) > 0
}

// DetectCycles returns every elementary cycle reachable via DFS back edges
// over every module that appears in the graph (as a source or a target),
// per spec §4.3.
func (g *Graph) DetectCycles() [][]string {
	nodes := g.allNodes()

	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(nodes))
	for _, n := range nodes {
		color[n] = white
	}

	var cycles [][]string
	var path []string

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		path = append(path, node)
		for _, dep := range g.Dependencies(node) {
			switch color[dep] {
			case white:
				dfs(dep)
			case gray:
				// Found a back edge dep is an ancestor on the current path.
				cycle := cycleFrom(path, dep)
				cycles = append(cycles, cycle)
			case black:
				// Cross edge into an already-fully-explored subtree; not a
				// cycle through the current path.
			}
		}
		path = path[:len(path)-1]
		color[node] = black
	}

	for _, n := range nodes {
		if color[n] == white {
			dfs(n)
		}
	}
	return cycles
}

// cycleFrom extracts the suffix of path starting at target, closing the
// loop back to target.
func cycleFrom(path []string, target string) []string {
	start := 0
	for i, n := range path {
		if n == target {
			start = i
			break
		}
	}
	cycle := append([]string(nil), path[start:]...)
	cycle = append(cycle, target)
	return cycle
}

func (g *Graph) allNodes() []string {
	seen := make(map[string]bool)
	var nodes []string
	for _, e := range g.edges {
		if !seen[e.From] {
			seen[e.From] = true
			nodes = append(nodes, e.From)
		}
		if !seen[e.To] {
			seen[e.To] = true
			nodes = append(nodes, e.To)
		}
	}
	return nodes
}

// TopologicalOrder returns every module reachable in the graph, leaves
// first (dependencies before dependents), per spec §4.3 and testable
// property 7. Fails with a *CycleError listing every cycle when the graph
// is not a DAG.
func (g *Graph) TopologicalOrder() ([]string, error) {
	if cycles := g.DetectCycles(); len(cycles) > 0 {
		return nil, &CycleError{Cycles: cycles}
	}

	visited := make(map[string]bool)
	var order []string

	var visit func(node string)
	visit = func(node string) {
		if visited[node] {
			return
		}
		visited[node] = true
		for _, dep := range g.Dependencies(node) {
			visit(dep)
		}
		// Post-order: a node is appended only after all of its
		// dependencies, so dependencies always precede dependents.
		order = append(order, node)
	}

	for _, n := range g.allNodes() {
		visit(n)
	}
	return order, nil
}
