// Package callgraph builds a per-module call graph and detects recursion,
// which Static Frame Allocation forbids (spec §4.5). Recursion detection is
// fatal: callers must not run subsequent passes over a module once this
// package reports any cycle, but every cycle is still collected before the
// caller decides to abort (spec §7).
package callgraph

import (
	"sort"

	"github.com/blendsdk/blend65/internal/ast"
)

// FuncInfo is one function node in the call graph.
type FuncInfo struct {
	Name string
	Loc  ast.Span
}

// CallSite is one edge: a call expression at Loc from the enclosing
// function to Callee.
type CallSite struct {
	Callee string
	Loc    ast.Span
}

// Graph is the call graph for a single module: one node per declared
// function, edges for every call expression found in a function body
// (spec §3, Call graph).
type Graph struct {
	Functions map[string]*FuncInfo
	Edges     map[string][]CallSite
}

// NewGraph creates an empty call graph.
func NewGraph() *Graph {
	return &Graph{
		Functions: make(map[string]*FuncInfo),
		Edges:     make(map[string][]CallSite),
	}
}

// AddFunction registers a function node.
func (g *Graph) AddFunction(name string, loc ast.Span) {
	if _, ok := g.Functions[name]; !ok {
		g.Functions[name] = &FuncInfo{Name: name, Loc: loc}
	}
}

// AddEdge records a call from caller to callee at loc.
func (g *Graph) AddEdge(caller, callee string, loc ast.Span) {
	g.Edges[caller] = append(g.Edges[caller], CallSite{Callee: callee, Loc: loc})
}

// RecursionKind classifies how a function participates in a call cycle.
type RecursionKind int

const (
	DirectRecursion RecursionKind = iota
	MutualRecursion
	IndirectRecursion
)

// RecursionError is one SFA-violating cycle found in the call graph (spec
// §4.5).
type RecursionError struct {
	Kind         RecursionKind
	FunctionName string
	FunctionLoc  ast.Span
	FirstCallLoc ast.Span
	CyclePath    []string
}

func (e *RecursionError) Error() string {
	return "recursion forbidden under Static Frame Allocation: " + e.FunctionName
}

// FixItNote is attached to every RecursionError for user-facing rendering.
const FixItNote = "Blend65 uses Static Frame Allocation (SFA): every local variable " +
	"is given a fixed, compile-time-known address, which requires the call graph " +
	"to be a DAG. Remove the cycle by converting the recursive call into an " +
	"explicit loop or a work-list driven by SFA-allocated storage."

// Stats summarizes a recursion check run (spec §4.5).
type Stats struct {
	FunctionsAnalyzed      int
	DirectRecursionCount   int
	IndirectCycleCount     int
	TotalRecursiveFunctions int
}

// CheckRecursion finds every cycle in g and classifies it. Errors are
// returned in a deterministic order (by the lexicographically first
// function name on each cycle) so diagnostics are stable across runs.
func CheckRecursion(g *Graph) ([]*RecursionError, Stats) {
	stats := Stats{FunctionsAnalyzed: len(g.Functions)}

	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(g.Functions))
	for name := range g.Functions {
		color[name] = white
	}

	var errs []*RecursionError
	recursiveFuncs := make(map[string]bool)
	var path []string

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		path = append(path, node)
		for _, site := range g.Edges[node] {
			switch color[site.Callee] {
			case white:
				if _, known := g.Functions[site.Callee]; known {
					dfs(site.Callee)
				}
			case gray:
				cycle := cycleFrom(path, site.Callee)
				for _, f := range cycle {
					recursiveFuncs[f] = true
				}
				errs = append(errs, classify(g, cycle, site.Loc))
			case black:
				// already fully explored; not part of a cycle on this path
			}
		}
		path = path[:len(path)-1]
		color[node] = black
	}

	var names []string
	for name := range g.Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if color[name] == white {
			dfs(name)
		}
	}

	stats.TotalRecursiveFunctions = len(recursiveFuncs)
	for _, e := range errs {
		switch e.Kind {
		case DirectRecursion:
			stats.DirectRecursionCount++
		default:
			stats.IndirectCycleCount++
		}
	}

	sort.SliceStable(errs, func(i, j int) bool {
		return errs[i].FunctionName < errs[j].FunctionName
	})

	return errs, stats
}

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
	return rotateToLexFirst(cycle)
}

// rotateToLexFirst rotates a closed cycle (first == last element) so it
// starts at its lexicographically first function, per spec §4.5's
// canonical-rotation rule for INDIRECT_RECURSION; mutual cycles are
// rotated the same way.
func rotateToLexFirst(cycle []string) []string {
	if len(cycle) <= 2 {
		return cycle // a direct self-cycle [f f] needs no rotation
	}
	body := cycle[:len(cycle)-1] // drop the duplicated closing element
	minIdx := 0
	for i, n := range body {
		if n < body[minIdx] {
			minIdx = i
		}
	}
	rotated := make([]string, 0, len(cycle))
	for i := 0; i < len(body); i++ {
		rotated = append(rotated, body[(minIdx+i)%len(body)])
	}
	rotated = append(rotated, rotated[0])
	return rotated
}

func classify(g *Graph, cycle []string, firstCallLoc ast.Span) *RecursionError {
	fn := cycle[0]
	kind := IndirectRecursion
	switch {
	case len(cycle) == 2 && cycle[0] == cycle[1]:
		kind = DirectRecursion
	case len(cycle) == 3 && cycle[0] == cycle[2]:
		kind = MutualRecursion
	}
	return &RecursionError{
		Kind:         kind,
		FunctionName: fn,
		FunctionLoc:  g.Functions[fn].Loc,
		FirstCallLoc: firstCallLoc,
		CyclePath:    cycle,
	}
}
