package sema

import (
	"fmt"

	"github.com/blendsdk/blend65/internal/ast"
	"github.com/blendsdk/blend65/internal/diag"
	"github.com/blendsdk/blend65/internal/scope"
	"github.com/blendsdk/blend65/internal/types"
)

// buildScopes is pass 1 (spec §4.4): it mirrors the AST's block/loop/
// switch/function structure into a.arena and declares every named
// entity into its owning scope, reporting duplicates with both source
// locations.
func (a *Analyzer) buildScopes(mod *ast.Module) scope.ID {
	moduleScope := a.arena.NewModuleScope(mod)
	a.moduleScope = moduleScope

	for _, d := range mod.Decls {
		a.nodeScope[d] = moduleScope
		switch decl := d.(type) {
		case *ast.FunctionDecl:
			a.declareFunctionSymbol(decl, moduleScope)
		case *ast.VariableDecl:
			a.declareSymbol(moduleScope, decl.Name, symbolKindFor(decl), decl, decl.IsExported, decl.IsConst, decl.Span())
		case *ast.ConstDecl:
			a.declareSymbol(moduleScope, decl.Name, scope.KindConstant, decl, false, true, decl.Span())
		case *ast.EnumDecl:
			a.declareEnum(decl, moduleScope)
		case *ast.MapDecl:
			a.declareSymbol(moduleScope, decl.Name, scope.KindMapVariable, decl, false, false, decl.Span())
		}
	}

	for _, d := range mod.Decls {
		if fn, ok := d.(*ast.FunctionDecl); ok {
			a.buildFunctionScope(fn, moduleScope)
		}
	}

	return moduleScope
}

func symbolKindFor(decl *ast.VariableDecl) scope.SymbolKind {
	switch decl.Storage {
	case ast.StorageZP:
		return scope.KindZPVariable
	case ast.StorageMap:
		return scope.KindMapVariable
	default:
		return scope.KindVariable
	}
}

func (a *Analyzer) declareSymbol(id scope.ID, name string, kind scope.SymbolKind, node ast.Node, exported, isConst bool, span ast.Span) *scope.Symbol {
	sym := &scope.Symbol{
		Name:       name,
		Kind:       kind,
		Decl:       node,
		Type:       types.Unresolved(),
		IsExported: exported,
		IsConst:    isConst,
		Loc:        span,
	}
	if !a.arena.Declare(id, sym) {
		existing := a.arena.LookupLocal(id, name)
		rep := diag.New(diag.DuplicateDeclaration, diag.SevError, &span,
			fmt.Sprintf("%q is already declared in this scope", name))
		if existing != nil {
			rep = rep.WithRelated("first declared here", existing.Loc)
		}
		a.sink.Add(rep)
		return existing
	}
	return sym
}

func (a *Analyzer) declareEnum(decl *ast.EnumDecl, id scope.ID) {
	enumSym := a.declareSymbol(id, decl.Name, scope.KindConstant, decl, false, true, decl.Span())
	if enumSym != nil {
		enumSym.Type = types.Word()
	}
	for _, m := range decl.Members {
		a.declareSymbol(id, m.Name, scope.KindConstant, decl, false, true, decl.Span())
	}
}

func (a *Analyzer) declareFunctionSymbol(decl *ast.FunctionDecl, moduleScope scope.ID) {
	sym := a.declareSymbol(moduleScope, decl.Name, scope.KindFunction, decl, decl.IsExported, false, decl.Span())
	if sym != nil {
		sym.Type = types.Unresolved()
	}
}

// buildFunctionScope creates the function's own scope, declares its
// parameters, records FunctionSymbol, and walks the body without
// introducing a redundant Block scope for the top-level body (spec
// ast.BlockStmt doc comment: the function body is the one exception).
func (a *Analyzer) buildFunctionScope(fn *ast.FunctionDecl, moduleScope scope.ID) {
	fnScope := a.arena.NewChildScope(moduleScope, scope.Function, fn)
	a.nodeScope[fn] = fnScope

	sym := a.arena.LookupLocal(moduleScope, fn.Name)
	a.arena.SetFunctionSymbol(fnScope, sym)

	for _, p := range fn.Params {
		a.declareSymbol(fnScope, p.Name, scope.KindParameter, p, false, false, p.Span())
	}

	if fn.Body != nil {
		a.nodeScope[fn.Body] = fnScope
		for _, s := range fn.Body.Stmts {
			a.walkStmt(s, fnScope)
		}
	}
}

// walkStmt mirrors a single statement's scope-introducing structure
// (spec §4.4 pass 1 / §4.2).
func (a *Analyzer) walkStmt(s ast.Stmt, cur scope.ID) {
	a.nodeScope[s] = cur

	switch stmt := s.(type) {
	case *ast.BlockStmt:
		blockScope := a.arena.NewChildScope(cur, scope.Block, stmt)
		a.nodeScope[stmt] = blockScope
		for _, inner := range stmt.Stmts {
			a.walkStmt(inner, blockScope)
		}

	case *ast.VarDeclStmt:
		a.declareSymbol(cur, stmt.Decl.Name, symbolKindFor(stmt.Decl), stmt.Decl, false, stmt.Decl.IsConst, stmt.Decl.Span())

	case *ast.IfStmt:
		a.walkBranch(stmt.Then, cur)
		if stmt.Else != nil {
			a.walkBranch(stmt.Else, cur)
		}

	case *ast.WhileStmt:
		loopScope := a.arena.NewChildScope(cur, scope.Loop, stmt)
		a.nodeScope[stmt] = loopScope
		a.walkLoopBody(stmt.Body, loopScope)

	case *ast.DoWhileStmt:
		loopScope := a.arena.NewChildScope(cur, scope.Loop, stmt)
		a.nodeScope[stmt] = loopScope
		a.walkLoopBody(stmt.Body, loopScope)

	case *ast.ForStmt:
		loopScope := a.arena.NewChildScope(cur, scope.Loop, stmt)
		a.nodeScope[stmt] = loopScope
		a.declareSymbol(loopScope, stmt.Counter, scope.KindVariable, stmt, false, false, stmt.Span())
		a.walkLoopBody(stmt.Body, loopScope)

	case *ast.SwitchStmt:
		a.walkSwitchLike(stmt.Cases, stmt.Default, cur, stmt)

	case *ast.MatchStmt:
		a.walkSwitchLike(stmt.Cases, stmt.Default, cur, stmt)

	case *ast.ReturnStmt, *ast.BreakStmt, *ast.ContinueStmt, *ast.ExpressionStmt:
		// leaf statements: no nested scope.
	}
}

// walkBranch handles an If arm: BlockStmt bodies get exactly one new
// Block scope (not two), single-statement arms walk in a fresh Block
// scope of their own so a bare `if (c) x = 1;` still isolates any
// VarDeclStmt the grammar might allow there.
func (a *Analyzer) walkBranch(s ast.Stmt, cur scope.ID) {
	if blk, ok := s.(*ast.BlockStmt); ok {
		branchScope := a.arena.NewChildScope(cur, scope.Block, blk)
		a.nodeScope[blk] = branchScope
		for _, inner := range blk.Stmts {
			a.walkStmt(inner, branchScope)
		}
		return
	}
	branchScope := a.arena.NewChildScope(cur, scope.Block, s)
	a.walkStmt(s, branchScope)
}

// walkLoopBody walks a loop's body directly in loopScope (no extra
// Block scope layered on top) when the body is itself a BlockStmt, so a
// loop introduces exactly one new scope.
func (a *Analyzer) walkLoopBody(body ast.Stmt, loopScope scope.ID) {
	if blk, ok := body.(*ast.BlockStmt); ok {
		a.nodeScope[blk] = loopScope
		for _, inner := range blk.Stmts {
			a.walkStmt(inner, loopScope)
		}
		return
	}
	a.walkStmt(body, loopScope)
}

func (a *Analyzer) walkSwitchLike(cases []ast.SwitchCase, def []ast.Stmt, cur scope.ID, node ast.Node) {
	switchScope := a.arena.NewChildScope(cur, scope.Switch, node)
	a.nodeScope[node] = switchScope

	for _, c := range cases {
		caseScope := a.arena.NewChildScope(switchScope, scope.Block, node)
		for _, s := range c.Body {
			a.walkStmt(s, caseScope)
		}
	}
	if def != nil {
		defScope := a.arena.NewChildScope(switchScope, scope.Block, node)
		for _, s := range def {
			a.walkStmt(s, defScope)
		}
	}
}
