package callgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blendsdk/blend65/internal/ast"
)

func TestDirectRecursionDetected(t *testing.T) {
	g := NewGraph()
	g.AddFunction("fib", ast.Span{})
	g.AddEdge("fib", "fib", ast.Span{})

	errs, stats := CheckRecursion(g)
	require.Len(t, errs, 1)
	assert.Equal(t, DirectRecursion, errs[0].Kind)
	assert.Equal(t, "fib", errs[0].FunctionName)
	assert.Equal(t, 1, stats.DirectRecursionCount)
	assert.Equal(t, 1, stats.TotalRecursiveFunctions)
}

func TestMutualRecursionDetected(t *testing.T) {
	g := NewGraph()
	g.AddFunction("isEven", ast.Span{})
	g.AddFunction("isOdd", ast.Span{})
	g.AddEdge("isEven", "isOdd", ast.Span{})
	g.AddEdge("isOdd", "isEven", ast.Span{})

	errs, stats := CheckRecursion(g)
	require.Len(t, errs, 1)
	assert.Equal(t, MutualRecursion, errs[0].Kind)
	assert.Equal(t, 2, stats.TotalRecursiveFunctions)
}

func TestIndirectRecursionDetected(t *testing.T) {
	g := NewGraph()
	for _, name := range []string{"a", "b", "c"} {
		g.AddFunction(name, ast.Span{})
	}
	g.AddEdge("a", "b", ast.Span{})
	g.AddEdge("b", "c", ast.Span{})
	g.AddEdge("c", "a", ast.Span{})

	errs, stats := CheckRecursion(g)
	require.Len(t, errs, 1)
	assert.Equal(t, IndirectRecursion, errs[0].Kind)
	assert.Equal(t, []string{"a", "b", "c", "a"}, errs[0].CyclePath)
	assert.Equal(t, 3, stats.TotalRecursiveFunctions)
}

func TestAcyclicCallGraphHasNoErrors(t *testing.T) {
	g := NewGraph()
	g.AddFunction("main", ast.Span{})
	g.AddFunction("helper", ast.Span{})
	g.AddEdge("main", "helper", ast.Span{})

	errs, stats := CheckRecursion(g)
	assert.Empty(t, errs)
	assert.Equal(t, 0, stats.TotalRecursiveFunctions)
	assert.Equal(t, 2, stats.FunctionsAnalyzed)
}

func TestCallToUnknownFunctionIgnored(t *testing.T) {
	g := NewGraph()
	g.AddFunction("main", ast.Span{})
	g.AddEdge("main", "externBuiltin", ast.Span{})

	errs, _ := CheckRecursion(g)
	assert.Empty(t, errs)
}

func TestRecursionErrorsAreDeterministicallyOrdered(t *testing.T) {
	g := NewGraph()
	g.AddFunction("z", ast.Span{})
	g.AddFunction("a", ast.Span{})
	g.AddEdge("z", "z", ast.Span{})
	g.AddEdge("a", "a", ast.Span{})

	errs, _ := CheckRecursion(g)
	require.Len(t, errs, 2)
	assert.Equal(t, "a", errs[0].FunctionName)
	assert.Equal(t, "z", errs[1].FunctionName)
}
