package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blendsdk/blend65/internal/ast"
)

func TestWrapAndAsReport(t *testing.T) {
	r := New(UndefinedVariable, SevError, nil, "undefined variable 'x'")
	err := WrapReport(r)
	require.Error(t, err)

	got, ok := AsReport(err)
	require.True(t, ok)
	assert.Same(t, r, got)
}

func TestAsReportMiss(t *testing.T) {
	_, ok := AsReport(assert.AnError)
	assert.False(t, ok)
}

func TestSinkOrderingAndErrors(t *testing.T) {
	s := NewSink()
	assert.False(t, s.HasErrors())

	s.Add(New(BreakOutsideLoop, SevWarning, nil, "warn"))
	assert.False(t, s.HasErrors())

	s.Add(New(UndefinedVariable, SevError, nil, "err"))
	assert.True(t, s.HasErrors())
	assert.Equal(t, 2, s.Len())
}

func TestSinkSortedBySpan(t *testing.T) {
	s := NewSink()
	late := ast.Span{Start: ast.Position{Line: 5, Col: 1}}
	early := ast.Span{Start: ast.Position{Line: 1, Col: 1}}
	s.Add(New(TypeMismatch, SevError, &late, "late"))
	s.Add(New(TypeMismatch, SevError, &early, "early"))

	sorted := s.SortedBySpan()
	require.Len(t, sorted, 2)
	assert.Equal(t, "early", sorted[0].Message)
	assert.Equal(t, "late", sorted[1].Message)
}

func TestReportBuilders(t *testing.T) {
	span := ast.Span{}
	r := New(DuplicateDeclaration, SevError, &span, "dup").
		WithData("name", "x").
		WithRelated("first declared here", span).
		WithFix("rename one of the declarations")

	assert.Equal(t, "x", r.Data["name"])
	require.Len(t, r.Related, 1)
	require.NotNil(t, r.Fix)

	js, err := r.ToJSON(true)
	require.NoError(t, err)
	assert.Contains(t, js, "blend65.diag/v1")
}
