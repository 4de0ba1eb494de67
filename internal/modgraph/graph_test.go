package modgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blendsdk/blend65/internal/ast"
)

func TestTopologicalOrderCorrectness(t *testing.T) {
	// A imports B; B imports C.
	g := NewGraph()
	g.AddEdge("A", "B", ast.Span{})
	g.AddEdge("B", "C", ast.Span{})

	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "B", "A"}, order)

	index := make(map[string]int)
	for i, m := range order {
		index[m] = i
	}
	assert.Less(t, index["C"], index["B"])
	assert.Less(t, index["B"], index["A"])
}

func TestCycleDetectionSoundness(t *testing.T) {
	g := NewGraph()
	g.AddEdge("A", "B", ast.Span{})
	g.AddEdge("B", "A", ast.Span{})

	assert.True(t, g.HasCycles())
	cycles := g.DetectCycles()
	assert.Greater(t, len(cycles), 0)

	_, err := g.TopologicalOrder()
	require.Error(t, err)
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
}

func TestNoCyclesMeansCleanTopoSort(t *testing.T) {
	g := NewGraph()
	g.AddEdge("A", "B", ast.Span{})
	assert.False(t, g.HasCycles())
	_, err := g.TopologicalOrder()
	require.NoError(t, err)
}

func TestRegistryDuplicateRegistration(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("M", nil, "a.b65"))
	err := r.Register("M", nil, "b.b65")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.b65")
	assert.Contains(t, err.Error(), "b.b65")
}

func TestRegistryAddDependencyIdempotent(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("A", nil, "a.b65"))
	r.AddDependency("A", "B")
	r.AddDependency("A", "B")
	info := r.GetInfo("A")
	require.Len(t, info.Dependencies, 1)
}
