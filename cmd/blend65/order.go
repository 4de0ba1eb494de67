package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/blendsdk/blend65/internal/ast"
	"github.com/blendsdk/blend65/internal/modgraph"
)

// demoImports mirrors spec.md S2: A imports B, B imports C, so the expected
// topological order is [C B A].
var demoImports = map[string][]string{
	"A": {"B"},
	"B": {"C"},
	"C": nil,
}

func runOrder() {
	g := modgraph.NewGraph()
	for from, deps := range demoImports {
		for _, to := range deps {
			g.AddEdge(from, to, ast.Span{})
		}
	}
	order, err := g.TopologicalOrder()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(1)
	}
	fmt.Println(strings.Join(order, " "))
}
