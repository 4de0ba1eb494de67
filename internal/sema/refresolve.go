package sema

import (
	"fmt"

	"github.com/blendsdk/blend65/internal/ast"
	"github.com/blendsdk/blend65/internal/diag"
	"github.com/blendsdk/blend65/internal/scope"
)

// resolveReferences is pass 3 (spec §4.4): binds every identifier
// expression to its declaring symbol via an in-chain lookup rooted at
// the scope pass 1 recorded for the statement containing it.
// UNDEFINED_VARIABLE is raised for anything that doesn't resolve.
func (a *Analyzer) resolveReferences(mod *ast.Module, moduleScope scope.ID) {
	for _, d := range mod.Decls {
		switch decl := d.(type) {
		case *ast.FunctionDecl:
			if decl.Body == nil {
				continue
			}
			fnScope := a.nodeScope[decl]
			for _, s := range decl.Body.Stmts {
				a.resolveStmtRefs(s, fnScope)
			}
		case *ast.VariableDecl:
			if decl.Init != nil {
				a.resolveExprRefs(decl.Init, moduleScope)
			}
		case *ast.ConstDecl:
			a.resolveExprRefs(decl.Value, moduleScope)
		}
	}
}

func (a *Analyzer) scopeOf(n ast.Node, fallback scope.ID) scope.ID {
	if id, ok := a.nodeScope[n]; ok {
		return id
	}
	return fallback
}

func (a *Analyzer) resolveStmtRefs(s ast.Stmt, outer scope.ID) {
	cur := a.scopeOf(s, outer)

	switch stmt := s.(type) {
	case *ast.BlockStmt:
		inner := a.scopeOf(stmt, cur)
		for _, s2 := range stmt.Stmts {
			a.resolveStmtRefs(s2, inner)
		}
	case *ast.VarDeclStmt:
		if stmt.Decl.Init != nil {
			a.resolveExprRefs(stmt.Decl.Init, cur)
		}
	case *ast.IfStmt:
		a.resolveExprRefs(stmt.Cond, cur)
		a.resolveStmtRefs(stmt.Then, cur)
		if stmt.Else != nil {
			a.resolveStmtRefs(stmt.Else, cur)
		}
	case *ast.WhileStmt:
		loopScope := a.scopeOf(stmt, cur)
		a.resolveExprRefs(stmt.Cond, loopScope)
		a.resolveStmtRefs(stmt.Body, loopScope)
	case *ast.DoWhileStmt:
		loopScope := a.scopeOf(stmt, cur)
		a.resolveStmtRefs(stmt.Body, loopScope)
		a.resolveExprRefs(stmt.Cond, loopScope)
	case *ast.ForStmt:
		loopScope := a.scopeOf(stmt, cur)
		a.resolveExprRefs(stmt.Start, loopScope)
		a.resolveExprRefs(stmt.End, loopScope)
		if stmt.Step != nil {
			a.resolveExprRefs(stmt.Step, loopScope)
		}
		a.resolveStmtRefs(stmt.Body, loopScope)
	case *ast.SwitchStmt:
		a.resolveSwitchRefs(stmt.Value, stmt.Cases, stmt.Default, cur)
	case *ast.MatchStmt:
		a.resolveSwitchRefs(stmt.Value, stmt.Cases, stmt.Default, cur)
	case *ast.ReturnStmt:
		if stmt.Value != nil {
			a.resolveExprRefs(stmt.Value, cur)
		}
	case *ast.ExpressionStmt:
		a.resolveExprRefs(stmt.Expr, cur)
	}
}

func (a *Analyzer) resolveSwitchRefs(value ast.Expr, cases []ast.SwitchCase, def []ast.Stmt, outer scope.ID) {
	a.resolveExprRefs(value, outer)
	for _, c := range cases {
		a.resolveExprRefs(c.Value, outer)
		for _, s := range c.Body {
			a.resolveStmtRefs(s, outer)
		}
	}
	for _, s := range def {
		a.resolveStmtRefs(s, outer)
	}
}

// resolveExprRefs recursively resolves every IdentifierExpr reachable
// from e, recording the bound symbol for the type checker to consult.
func (a *Analyzer) resolveExprRefs(e ast.Expr, cur scope.ID) {
	if e == nil {
		return
	}
	switch expr := e.(type) {
	case *ast.IdentifierExpr:
		sym := a.arena.LookupChain(cur, expr.Name)
		if sym == nil {
			a.report(diag.UndefinedVariable, diag.SevError, expr.Span(),
				fmt.Sprintf("undefined variable %q", expr.Name))
			return
		}
		a.exprSym[expr] = sym
	case *ast.BinaryExpr:
		a.resolveExprRefs(expr.Left, cur)
		a.resolveExprRefs(expr.Right, cur)
	case *ast.UnaryExpr:
		a.resolveExprRefs(expr.Operand, cur)
	case *ast.CallExpr:
		a.resolveExprRefs(expr.Callee, cur)
		for _, arg := range expr.Args {
			a.resolveExprRefs(arg, cur)
		}
	case *ast.MemberExpr:
		a.resolveExprRefs(expr.Base, cur)
	case *ast.IndexExpr:
		a.resolveExprRefs(expr.Base, cur)
		a.resolveExprRefs(expr.Index, cur)
	case *ast.AssignmentExpr:
		a.resolveExprRefs(expr.Target, cur)
		a.resolveExprRefs(expr.Value, cur)
	case *ast.ArrayLiteralExpr:
		for _, el := range expr.Elements {
			a.resolveExprRefs(el, cur)
		}
	case *ast.TernaryExpr:
		a.resolveExprRefs(expr.Cond, cur)
		a.resolveExprRefs(expr.Then, cur)
		a.resolveExprRefs(expr.Else, cur)
	}
}
