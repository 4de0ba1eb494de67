package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blendsdk/blend65/internal/ast"
	"github.com/blendsdk/blend65/internal/buildconfig"
	"github.com/blendsdk/blend65/internal/diag"
)

func ident(name string) *ast.IdentifierExpr { return &ast.IdentifierExpr{Name: name} }
func intLit(v int64) *ast.LiteralExpr       { return &ast.LiteralExpr{Kind: ast.LitInt, Int: v} }
func namedType(name string) *ast.NamedTypeExpr {
	return &ast.NamedTypeExpr{Name: name}
}

func hasCode(sink *diag.Sink, code string) bool {
	for _, r := range sink.Reports() {
		if r.Code == code {
			return true
		}
	}
	return false
}

// S1 — Recursion detected: function f(): byte { return f() + 1 } aborts the
// pipeline before any IL or assembly is produced.
func TestCompileModuleAbortsOnDirectRecursion(t *testing.T) {
	mod := &ast.Module{Name: "M", Decls: []ast.Decl{
		&ast.FunctionDecl{Name: "f", ReturnType: namedType("byte"), Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.BinaryExpr{
				Op:    ast.OpAdd,
				Left:  &ast.CallExpr{Callee: ident("f")},
				Right: intLit(1),
			}},
		}}},
	}}

	p := New(buildconfig.Default())
	res, err := p.CompileModule(mod)

	require.Error(t, err)
	assert.True(t, hasCode(res.Sink, diag.DirectRecursion))
	assert.Nil(t, res.IL)
	assert.Empty(t, res.Assembly)
	assert.Empty(t, res.PRG)
}

// S5 — a module with a single empty main() compiles cleanly through to
// assembly text with no Invoker wired, so PRG stays empty without invoking a
// real acme binary.
func TestCompileModuleEmitsAssemblyForValidProgram(t *testing.T) {
	mod := &ast.Module{Name: "M", Decls: []ast.Decl{
		&ast.FunctionDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.ReturnStmt{},
		}}},
	}}

	p := New(buildconfig.Default())
	res, err := p.CompileModule(mod)

	require.NoError(t, err)
	assert.False(t, res.Sink.HasErrors())
	assert.NotEmpty(t, res.Assembly)
	assert.Contains(t, res.Assembly, "_main")
	assert.Nil(t, p.Invoker)
	assert.Empty(t, res.PRG)
}

// S4-adjacent: loop analysis is informational and must never gate
// compilation, even though it runs on every function with a body.
func TestCompileModulePopulatesLoopStatsWithoutFailing(t *testing.T) {
	mod := &ast.Module{Name: "M", Decls: []ast.Decl{
		&ast.FunctionDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.VarDeclStmt{Decl: &ast.VariableDecl{Name: "i", Type: namedType("byte"), Init: intLit(0)}},
			&ast.WhileStmt{
				Cond: &ast.BinaryExpr{Op: ast.OpLt, Left: ident("i"), Right: intLit(10)},
				Body: &ast.BlockStmt{Stmts: []ast.Stmt{
					&ast.ExpressionStmt{Expr: &ast.AssignmentExpr{
						Target: ident("i"),
						Value:  &ast.BinaryExpr{Op: ast.OpAdd, Left: ident("i"), Right: intLit(1)},
					}},
				}},
			},
			&ast.ReturnStmt{},
		}}},
	}}

	p := New(buildconfig.Default())
	res, err := p.CompileModule(mod)

	require.NoError(t, err)
	require.Len(t, res.LoopStats, 1)
	assert.Equal(t, "main", res.LoopStats[0].Function)
	assert.Equal(t, 1, res.LoopStats[0].NaturalLoops)
}

// CompileProgram orders dependencies (spec S2) before compiling the entry
// module, and registers every module's symbols into a shared table (spec S6)
// even though only the entry module is lowered to IL.
func TestCompileProgramOrdersDependenciesAndCompilesEntry(t *testing.T) {
	modA := &ast.Module{Name: "A", Imports: []*ast.Import{{From: "B"}}, Decls: []ast.Decl{
		&ast.FunctionDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{&ast.ReturnStmt{}}}},
	}}
	modB := &ast.Module{Name: "B", Decls: []ast.Decl{
		&ast.FunctionDecl{Name: "helper", Body: &ast.BlockStmt{Stmts: []ast.Stmt{&ast.ReturnStmt{}}}},
	}}

	p := New(buildconfig.Default())
	res, err := p.CompileProgram(map[string]*ast.Module{"A": modA, "B": modB}, "A")

	require.NoError(t, err)
	assert.Equal(t, "A", res.Module)
	assert.NotEmpty(t, res.Assembly)
}
