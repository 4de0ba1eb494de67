package main

// Blend65 has no lexer/parser in this repository (spec.md marks them as
// external collaborators, out of scope for the core). The driver exercises
// the pipeline against a small registry of hand-built ASTs instead of
// reading source text from disk, the way the teacher's cmd/typecheck
// exercised type inference against manually constructed AILANG ASTs before
// its own parser was wired up.

import (
	"sort"

	"github.com/blendsdk/blend65/internal/ast"
)

func ident(name string) *ast.IdentifierExpr { return &ast.IdentifierExpr{Name: name} }
func intLit(v int64) *ast.LiteralExpr       { return &ast.LiteralExpr{Kind: ast.LitInt, Int: v} }
func byteType() *ast.NamedTypeExpr          { return &ast.NamedTypeExpr{Name: "byte"} }

var demoModules = map[string]func() *ast.Module{
	"hello": func() *ast.Module {
		return &ast.Module{Name: "Hello", Decls: []ast.Decl{
			&ast.FunctionDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
				&ast.ReturnStmt{},
			}}},
		}}
	},
	"loop": func() *ast.Module {
		return &ast.Module{Name: "Loop", Decls: []ast.Decl{
			&ast.FunctionDecl{Name: "main", Body: &ast.BlockStmt{Stmts: []ast.Stmt{
				&ast.VarDeclStmt{Decl: &ast.VariableDecl{Name: "i", Type: byteType(), Init: intLit(0)}},
				&ast.WhileStmt{
					Cond: &ast.BinaryExpr{Op: ast.OpLt, Left: ident("i"), Right: intLit(10)},
					Body: &ast.BlockStmt{Stmts: []ast.Stmt{
						&ast.VarDeclStmt{Decl: &ast.VariableDecl{
							Name: "j", Type: byteType(),
							Init: &ast.BinaryExpr{Op: ast.OpMul, Left: ident("i"), Right: intLit(4)},
						}},
						&ast.ExpressionStmt{Expr: &ast.AssignmentExpr{
							Target: ident("i"),
							Value:  &ast.BinaryExpr{Op: ast.OpAdd, Left: ident("i"), Right: intLit(1)},
						}},
					}},
				},
				&ast.ReturnStmt{},
			}}},
		}}
	},
	"ternary": func() *ast.Module {
		return &ast.Module{Name: "Ternary", Decls: []ast.Decl{
			&ast.FunctionDecl{Name: "main", ReturnType: byteType(), Body: &ast.BlockStmt{Stmts: []ast.Stmt{
				&ast.ReturnStmt{Value: &ast.TernaryExpr{
					Cond: &ast.BinaryExpr{Op: ast.OpLt, Left: intLit(1), Right: intLit(2)},
					Then: intLit(10),
					Else: intLit(20),
				}},
			}}},
		}}
	},
	"recursion": func() *ast.Module {
		return &ast.Module{Name: "Recursion", Decls: []ast.Decl{
			&ast.FunctionDecl{Name: "f", ReturnType: byteType(), Body: &ast.BlockStmt{Stmts: []ast.Stmt{
				&ast.ReturnStmt{Value: &ast.BinaryExpr{
					Op:    ast.OpAdd,
					Left:  &ast.CallExpr{Callee: ident("f")},
					Right: intLit(1),
				}},
			}}},
		}}
	},
}

func demoNames() []string {
	names := make([]string, 0, len(demoModules))
	for n := range demoModules {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
