package sema

import (
	"fmt"

	"github.com/blendsdk/blend65/internal/ast"
	"github.com/blendsdk/blend65/internal/diag"
	"github.com/blendsdk/blend65/internal/scope"
	"github.com/blendsdk/blend65/internal/types"
)

// checkExpr types one expression, recording the result in a.exprTypes and
// recursing into subexpressions. cur is the scope the expression is
// evaluated in, used only to look up the @map definition behind a member
// access (identifiers themselves were already bound in pass 3).
func (a *Analyzer) checkExpr(e ast.Expr, cur scope.ID) *types.Type {
	if e == nil {
		return types.Unresolved()
	}
	if t, ok := a.exprTypes[e]; ok {
		return t
	}

	var result *types.Type
	switch expr := e.(type) {
	case *ast.LiteralExpr:
		result = a.checkLiteral(expr)
	case *ast.IdentifierExpr:
		result = a.checkIdentifier(expr)
	case *ast.BinaryExpr:
		result = a.checkBinary(expr, cur)
	case *ast.UnaryExpr:
		result = a.checkUnary(expr, cur)
	case *ast.CallExpr:
		result = a.checkCall(expr, cur)
	case *ast.MemberExpr:
		result = a.checkMember(expr, cur)
	case *ast.IndexExpr:
		result = a.checkIndex(expr, cur)
	case *ast.AssignmentExpr:
		result = a.checkAssignment(expr, cur)
	case *ast.ArrayLiteralExpr:
		result = a.checkArrayLiteral(expr, cur)
	case *ast.TernaryExpr:
		result = a.checkTernary(expr, cur)
	default:
		result = types.Unresolved()
	}

	a.exprTypes[e] = result
	return result
}

func (a *Analyzer) checkLiteral(lit *ast.LiteralExpr) *types.Type {
	switch lit.Kind {
	case ast.LitInt:
		if !types.FitsInWord(lit.Int) {
			a.report(diag.NumericOverflow, diag.SevError, lit.Span(),
				fmt.Sprintf("literal %d does not fit in word", lit.Int))
		}
		return types.MinimumTypeFor(lit.Int)
	case ast.LitBool:
		return types.Bool()
	case ast.LitString:
		return types.String()
	default:
		return types.Unresolved()
	}
}

func (a *Analyzer) checkIdentifier(expr *ast.IdentifierExpr) *types.Type {
	sym, ok := a.exprSym[expr]
	if !ok || sym == nil {
		return types.Unresolved()
	}
	return sym.Type
}

func (a *Analyzer) checkBinary(expr *ast.BinaryExpr, cur scope.ID) *types.Type {
	left := a.checkExpr(expr.Left, cur)
	right := a.checkExpr(expr.Right, cur)

	switch expr.Op {
	case ast.OpLogicalAnd, ast.OpLogicalOr:
		a.requireKind(left, types.KindBool, expr.Left.Span())
		a.requireKind(right, types.KindBool, expr.Right.Span())
		return types.Bool()
	case ast.OpEq, ast.OpNe:
		if left.Kind != types.KindUnresolved && right.Kind != types.KindUnresolved &&
			!types.AreEqual(left, right) && !left.IsNumeric() && !right.IsNumeric() {
			a.report(diag.InvalidOperand, diag.SevError, expr.Span(), "comparison operands must share a type")
		}
		return types.Bool()
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		a.requireNumeric(left, expr.Left.Span())
		a.requireNumeric(right, expr.Right.Span())
		return types.Bool()
	default: // arithmetic and bitwise
		a.requireNumeric(left, expr.Left.Span())
		a.requireNumeric(right, expr.Right.Span())
		return types.Widest(left, right)
	}
}

func (a *Analyzer) requireNumeric(t *types.Type, span ast.Span) {
	if t != nil && t.Kind != types.KindUnresolved && !t.IsNumeric() {
		a.report(diag.InvalidOperand, diag.SevError, span, fmt.Sprintf("operand of type %s is not numeric", t.Name()))
	}
}

func (a *Analyzer) requireKind(t *types.Type, k types.Kind, span ast.Span) {
	if t != nil && t.Kind != types.KindUnresolved && t.Kind != k {
		a.report(diag.InvalidOperand, diag.SevError, span, fmt.Sprintf("expected %s, got %s", k, t.Name()))
	}
}

func (a *Analyzer) checkUnary(expr *ast.UnaryExpr, cur scope.ID) *types.Type {
	operand := a.checkExpr(expr.Operand, cur)

	switch expr.Op {
	case ast.OpNot:
		a.requireKind(operand, types.KindBool, expr.Operand.Span())
		return types.Bool()
	case ast.OpCompl, ast.OpPlus, ast.OpNeg:
		a.requireNumeric(operand, expr.Operand.Span())
		return operand
	case ast.OpAddr:
		if _, ok := expr.Operand.(*ast.IdentifierExpr); !ok {
			a.report(diag.InvalidOperand, diag.SevError, expr.Operand.Span(), "@ requires an identifier operand")
		}
		return types.Word()
	default:
		return types.Unresolved()
	}
}

func (a *Analyzer) checkCall(expr *ast.CallExpr, cur scope.ID) *types.Type {
	for _, arg := range expr.Args {
		a.checkExpr(arg, cur)
	}

	ident, ok := expr.Callee.(*ast.IdentifierExpr)
	if !ok {
		a.checkExpr(expr.Callee, cur)
		return types.Unresolved()
	}
	sym, ok := a.exprSym[ident]
	if !ok || sym == nil || !sym.Type.IsFunction() {
		return types.Unresolved()
	}

	fnType := sym.Type
	if len(expr.Args) != len(fnType.Params) {
		a.report(diag.ArgumentCountMismatch, diag.SevError, expr.Span(),
			fmt.Sprintf("%q expects %d argument(s), got %d", sym.Name, len(fnType.Params), len(expr.Args)))
	} else {
		for i, arg := range expr.Args {
			argType := a.exprTypes[arg]
			if !types.CanAssign(argType, fnType.Params[i]) {
				a.report(diag.ArgumentTypeMismatch, diag.SevError, arg.Span(),
					fmt.Sprintf("argument %d: cannot pass %s where %s is expected", i+1, argType.Name(), fnType.Params[i].Name()))
			}
		}
	}
	return fnType.Ret
}

func (a *Analyzer) checkMember(expr *ast.MemberExpr, cur scope.ID) *types.Type {
	a.checkExpr(expr.Base, cur)

	ident, ok := expr.Base.(*ast.IdentifierExpr)
	if !ok {
		a.report(diag.InvalidMemberAccess, diag.SevError, expr.Span(), "member access base must be a @map variable")
		return types.Unresolved()
	}
	sym, ok := a.exprSym[ident]
	if !ok || sym == nil || sym.Kind != scope.KindMapVariable {
		a.report(diag.InvalidMemberAccess, diag.SevError, expr.Span(),
			fmt.Sprintf("%q is not a @map variable", ident.Name))
		return types.Unresolved()
	}
	mapDecl, ok := sym.Decl.(*ast.MapDecl)
	if !ok {
		return types.Unresolved()
	}
	for _, f := range mapDecl.Fields {
		if f.Name == expr.Field {
			return a.resolveTypeExpr(f.Type)
		}
	}
	a.report(diag.InvalidMemberAccess, diag.SevError, expr.Span(),
		fmt.Sprintf("%q has no field %q", ident.Name, expr.Field))
	return types.Unresolved()
}

func (a *Analyzer) checkIndex(expr *ast.IndexExpr, cur scope.ID) *types.Type {
	base := a.checkExpr(expr.Base, cur)
	indexType := a.checkExpr(expr.Index, cur)

	if base.Kind != types.KindUnresolved && !base.IsArray() {
		a.report(diag.InvalidIndexBase, diag.SevError, expr.Base.Span(),
			fmt.Sprintf("cannot index into %s", base.Name()))
		return types.Unresolved()
	}
	a.requireNumeric(indexType, expr.Index.Span())
	if base.IsArray() {
		return base.Element
	}
	return types.Unresolved()
}

func (a *Analyzer) checkAssignment(expr *ast.AssignmentExpr, cur scope.ID) *types.Type {
	valueType := a.checkExpr(expr.Value, cur)
	targetType := a.checkExpr(expr.Target, cur)

	if !isLvalue(expr.Target) {
		a.report(diag.InvalidAssignmentTarget, diag.SevError, expr.Target.Span(), "assignment target must be an identifier, @map field, or array element")
		return targetType
	}
	if ident, ok := expr.Target.(*ast.IdentifierExpr); ok {
		if sym, ok := a.exprSym[ident]; ok && sym != nil && sym.IsConst {
			a.report(diag.ConstAssignment, diag.SevError, expr.Target.Span(),
				fmt.Sprintf("cannot assign to const %q", ident.Name))
			return targetType
		}
	}
	if !types.CanAssign(valueType, targetType) {
		a.report(diag.TypeMismatch, diag.SevError, expr.Span(),
			fmt.Sprintf("cannot assign %s to %s", valueType.Name(), targetType.Name()))
	}
	return targetType
}

func isLvalue(e ast.Expr) bool {
	switch e.(type) {
	case *ast.IdentifierExpr, *ast.MemberExpr, *ast.IndexExpr:
		return true
	default:
		return false
	}
}

func (a *Analyzer) checkArrayLiteral(expr *ast.ArrayLiteralExpr, cur scope.ID) *types.Type {
	if len(expr.Elements) == 0 {
		// Caller context (var decl) reports EMPTY_ARRAY_NO_TYPE when there is
		// no annotation; a bare literal with no surrounding context stays
		// unresolved here.
		return types.NewArray(types.Unresolved(), nil)
	}

	var widest *types.Type
	for _, el := range expr.Elements {
		t := a.checkExpr(el, cur)
		if widest == nil {
			widest = t
			continue
		}
		if !types.AreEqual(widest, t) {
			if widest.IsNumeric() && t.IsNumeric() {
				widest = types.Widest(widest, t)
				continue
			}
			a.report(diag.ArrayElementTypeMismatch, diag.SevError, el.Span(),
				fmt.Sprintf("array element type %s does not match preceding elements (%s)", t.Name(), widest.Name()))
		}
	}
	n := len(expr.Elements)
	return types.NewArray(widest, &n)
}

func (a *Analyzer) checkTernary(expr *ast.TernaryExpr, cur scope.ID) *types.Type {
	condType := a.checkExpr(expr.Cond, cur)
	a.requireBoolOrNumeric(condType, expr.Cond.Span())

	thenType := a.checkExpr(expr.Then, cur)
	elseType := a.checkExpr(expr.Else, cur)

	if types.CanAssign(elseType, thenType) {
		return thenType
	}
	if types.CanAssign(thenType, elseType) {
		return elseType
	}
	a.report(diag.TypeMismatch, diag.SevError, expr.Span(),
		fmt.Sprintf("ternary branches have incompatible types %s and %s", thenType.Name(), elseType.Name()))
	return thenType
}
