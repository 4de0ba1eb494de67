package sema

import (
	"fmt"

	"github.com/blendsdk/blend65/internal/ast"
	"github.com/blendsdk/blend65/internal/diag"
	"github.com/blendsdk/blend65/internal/scope"
	"github.com/blendsdk/blend65/internal/types"
)

// checkTypes is pass 4 (spec §4.4): a layered type checker — literals,
// then expressions, then declarations, then statements — each layer
// enriching a.exprTypes. Scope traversal mirrors pass 1 exactly via
// a.nodeScope, so symbols resolve identically.
func (a *Analyzer) checkTypes(mod *ast.Module, moduleScope scope.ID) {
	for _, d := range mod.Decls {
		switch decl := d.(type) {
		case *ast.FunctionDecl:
			a.checkFunctionBody(decl)
		case *ast.VariableDecl:
			if decl.Init != nil {
				a.checkVarInit(decl, moduleScope)
			}
		case *ast.ConstDecl:
			a.checkExpr(decl.Value, moduleScope)
		}
	}
}

func (a *Analyzer) checkVarInit(decl *ast.VariableDecl, cur scope.ID) {
	initType := a.checkExpr(decl.Init, cur)
	sym := a.arena.LookupLocal(a.moduleScope, decl.Name)
	if decl.Type == nil {
		if arr, ok := decl.Init.(*ast.ArrayLiteralExpr); ok && len(arr.Elements) == 0 {
			a.report(diag.EmptyArrayNoType, diag.SevError, decl.Span(),
				fmt.Sprintf("array %q has no element type and no annotation to infer one", decl.Name))
			return
		}
		if sym != nil && sym.Type.Kind == types.KindUnresolved {
			sym.Type = initType
			if sym.Kind != scope.KindFunction {
				a.globals[decl.Name] = initType
			}
		}
		return
	}
	declType := a.resolveTypeExpr(decl.Type)
	if !types.CanAssign(initType, declType) {
		a.report(diag.TypeMismatch, diag.SevError, decl.Init.Span(),
			fmt.Sprintf("cannot assign %s to %q of type %s", initType.Name(), decl.Name, declType.Name()))
	}
}

func (a *Analyzer) checkFunctionBody(fn *ast.FunctionDecl) {
	if fn.Body == nil {
		return
	}
	fnScope := a.nodeScope[fn]
	sym := a.arena.LookupLocal(a.moduleScope, fn.Name)
	retType := types.Void()
	if sym != nil && sym.Type.IsFunction() {
		retType = sym.Type.Ret
	}
	for _, s := range fn.Body.Stmts {
		a.checkStmt(s, fnScope, retType)
	}
}

func (a *Analyzer) checkStmt(s ast.Stmt, outer scope.ID, retType *types.Type) {
	cur := a.scopeOf(s, outer)

	switch stmt := s.(type) {
	case *ast.BlockStmt:
		inner := a.scopeOf(stmt, cur)
		for _, s2 := range stmt.Stmts {
			a.checkStmt(s2, inner, retType)
		}

	case *ast.VarDeclStmt:
		if stmt.Decl.Init != nil {
			a.checkLocalVarInit(stmt.Decl, cur)
		}

	case *ast.IfStmt:
		condType := a.checkExpr(stmt.Cond, cur)
		a.requireBoolOrNumeric(condType, stmt.Cond.Span())
		a.checkStmt(stmt.Then, cur, retType)
		if stmt.Else != nil {
			a.checkStmt(stmt.Else, cur, retType)
		}

	case *ast.WhileStmt:
		loopScope := a.scopeOf(stmt, cur)
		condType := a.checkExpr(stmt.Cond, loopScope)
		a.requireBoolOrNumeric(condType, stmt.Cond.Span())
		a.checkStmt(stmt.Body, loopScope, retType)

	case *ast.DoWhileStmt:
		loopScope := a.scopeOf(stmt, cur)
		a.checkStmt(stmt.Body, loopScope, retType)
		condType := a.checkExpr(stmt.Cond, loopScope)
		a.requireBoolOrNumeric(condType, stmt.Cond.Span())

	case *ast.ForStmt:
		a.checkForStmt(stmt, cur, retType)

	case *ast.SwitchStmt:
		a.checkSwitchLike(stmt.Value, stmt.Cases, stmt.Default, cur, retType)
	case *ast.MatchStmt:
		a.checkSwitchLike(stmt.Value, stmt.Cases, stmt.Default, cur, retType)

	case *ast.ReturnStmt:
		a.checkReturn(stmt, retType)

	case *ast.BreakStmt:
		if !a.arena.IsInsideLoop(cur) && !a.arena.IsInsideSwitch(cur) {
			a.report(diag.BreakOutsideLoop, diag.SevError, stmt.Span(), "break used outside a loop or switch")
		}

	case *ast.ContinueStmt:
		if !a.arena.IsInsideLoop(cur) {
			a.report(diag.ContinueOutsideLoop, diag.SevError, stmt.Span(), "continue used outside a loop")
		}

	case *ast.ExpressionStmt:
		a.checkExpr(stmt.Expr, cur)
	}
}

func (a *Analyzer) checkLocalVarInit(decl *ast.VariableDecl, cur scope.ID) {
	initType := a.checkExpr(decl.Init, cur)
	sym := a.arena.LookupLocal(cur, decl.Name)
	if decl.Type == nil {
		if arr, ok := decl.Init.(*ast.ArrayLiteralExpr); ok && len(arr.Elements) == 0 {
			a.report(diag.EmptyArrayNoType, diag.SevError, decl.Span(),
				fmt.Sprintf("array %q has no element type and no annotation to infer one", decl.Name))
			return
		}
		if sym != nil && sym.Type.Kind == types.KindUnresolved {
			sym.Type = initType
		}
		return
	}
	declType := a.resolveTypeExpr(decl.Type)
	if sym != nil {
		sym.Type = declType
	}
	if !types.CanAssign(initType, declType) {
		a.report(diag.TypeMismatch, diag.SevError, decl.Init.Span(),
			fmt.Sprintf("cannot assign %s to %q of type %s", initType.Name(), decl.Name, declType.Name()))
	}
}

func (a *Analyzer) requireBoolOrNumeric(t *types.Type, span ast.Span) {
	if t == nil || t.Kind == types.KindUnresolved {
		return
	}
	if t.Kind != types.KindBool && !t.IsNumeric() {
		a.report(diag.InvalidConditionType, diag.SevError, span, "condition must be bool or numeric")
	}
}

func (a *Analyzer) checkForStmt(stmt *ast.ForStmt, outer scope.ID, retType *types.Type) {
	loopScope := a.scopeOf(stmt, outer)
	startType := a.checkExpr(stmt.Start, loopScope)
	endType := a.checkExpr(stmt.End, loopScope)
	if !startType.IsNumeric() {
		a.report(diag.ForRangeTypeMismatch, diag.SevError, stmt.Start.Span(), "for-loop start bound must be numeric")
	}
	if !endType.IsNumeric() {
		a.report(diag.ForRangeTypeMismatch, diag.SevError, stmt.End.Span(), "for-loop end bound must be numeric")
	}
	if stmt.Step != nil {
		stepType := a.checkExpr(stmt.Step, loopScope)
		if !stepType.IsNumeric() {
			a.report(diag.ForStepInvalid, diag.SevError, stmt.Step.Span(), "for-loop step must be numeric")
		}
	}

	counterSym := a.arena.LookupLocal(loopScope, stmt.Counter)
	if counterSym != nil {
		switch {
		case stmt.CounterType != nil:
			counterSym.Type = a.resolveTypeExpr(stmt.CounterType)
		case fitsByteLiteral(stmt.Start) && fitsByteLiteral(stmt.End):
			counterSym.Type = types.Byte()
		default:
			counterSym.Type = types.Word()
		}
	}

	a.checkStmt(stmt.Body, loopScope, retType)
}

func fitsByteLiteral(e ast.Expr) bool {
	lit, ok := e.(*ast.LiteralExpr)
	return ok && lit.Kind == ast.LitInt && types.FitsInByte(lit.Int)
}

func (a *Analyzer) checkSwitchLike(value ast.Expr, cases []ast.SwitchCase, def []ast.Stmt, outer scope.ID, retType *types.Type) {
	switchScope := a.scopeOf(value, outer)
	valueType := a.checkExpr(value, outer)
	if !valueType.IsNumeric() {
		a.report(diag.SwitchCaseTypeMismatch, diag.SevError, value.Span(), "switch/match value must be numeric")
	}

	seen := make(map[int64]bool)
	for _, c := range cases {
		caseType := a.checkExpr(c.Value, outer)
		if !caseType.IsNumeric() || !types.CanAssign(caseType, valueType) {
			a.report(diag.SwitchCaseTypeMismatch, diag.SevError, c.Value.Span(), "case value is not assignable to the switch subject type")
		}
		if lit, ok := c.Value.(*ast.LiteralExpr); ok && lit.Kind == ast.LitInt {
			if seen[lit.Int] {
				a.report(diag.DuplicateSwitchCase, diag.SevError, c.Value.Span(), "duplicate case value")
			}
			seen[lit.Int] = true
		}
		for _, s := range c.Body {
			a.checkStmt(s, switchScope, retType)
		}
	}
	for _, s := range def {
		a.checkStmt(s, switchScope, retType)
	}
}

func (a *Analyzer) checkReturn(stmt *ast.ReturnStmt, retType *types.Type) {
	if stmt.Value == nil {
		if retType != nil && retType.Kind != types.KindVoid {
			a.report(diag.MissingReturnValue, diag.SevError, stmt.Span(), "non-void function must return a value")
		}
		return
	}
	valueType := a.checkExpr(stmt.Value, a.scopeOf(stmt, a.moduleScope))
	if retType != nil && retType.Kind == types.KindVoid {
		a.report(diag.ReturnValueInVoid, diag.SevError, stmt.Value.Span(), "void function must not return a value")
		return
	}
	if retType != nil && !types.CanAssign(valueType, retType) {
		a.report(diag.ReturnTypeMismatch, diag.SevError, stmt.Value.Span(),
			fmt.Sprintf("cannot return %s from a function declared to return %s", valueType.Name(), retType.Name()))
	}
}
