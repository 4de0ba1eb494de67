package sema

import (
	"github.com/blendsdk/blend65/internal/ast"
	"github.com/blendsdk/blend65/internal/scope"
	"github.com/blendsdk/blend65/internal/types"
)

// resolveTypes is pass 2 (spec §4.4): assigns declared types from
// annotations, falls back to a literal-shape guess for unannotated
// initializers, and resolves function signatures. Anything still
// Unresolved after this pass is backfilled by the type checker (pass 4)
// once full expression typing is available.
func (a *Analyzer) resolveTypes(mod *ast.Module, moduleScope scope.ID) {
	for _, d := range mod.Decls {
		switch decl := d.(type) {
		case *ast.FunctionDecl:
			a.resolveFunctionSignature(decl, moduleScope)
		case *ast.VariableDecl:
			a.resolveVarType(decl, moduleScope)
		case *ast.ConstDecl:
			a.resolveConstType(decl, moduleScope)
		}
	}
}

func (a *Analyzer) resolveTypeExpr(te ast.TypeExpr) *types.Type {
	if te == nil {
		return types.Unresolved()
	}
	switch t := te.(type) {
	case *ast.NamedTypeExpr:
		if builtin := types.GetBuiltin(t.Name); builtin != nil {
			return builtin
		}
		if sym := a.arena.LookupLocal(a.moduleScope, t.Name); sym != nil {
			return sym.Type
		}
		return types.Unresolved()
	case *ast.ArrayTypeExpr:
		return types.NewArray(a.resolveTypeExpr(t.Element), t.Length)
	case *ast.FunctionTypeExpr:
		params := make([]*types.Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = a.resolveTypeExpr(p)
		}
		return types.NewFunction(params, a.resolveTypeExpr(t.Return))
	default:
		return types.Unresolved()
	}
}

func (a *Analyzer) resolveFunctionSignature(decl *ast.FunctionDecl, moduleScope scope.ID) {
	sym := a.arena.LookupLocal(moduleScope, decl.Name)
	if sym == nil {
		return
	}
	paramTypes := make([]*types.Type, len(decl.Params))
	fnScope := a.nodeScope[decl]
	for i, p := range decl.Params {
		pt := a.resolveTypeExpr(p.Type)
		paramTypes[i] = pt
		if psym := a.arena.LookupLocal(fnScope, p.Name); psym != nil {
			psym.Type = pt
		}
	}
	ret := a.resolveTypeExpr(decl.ReturnType)
	if decl.ReturnType == nil {
		ret = types.Void()
	}
	sym.Type = types.NewFunction(paramTypes, ret)
}

func (a *Analyzer) resolveVarType(decl *ast.VariableDecl, moduleScope scope.ID) {
	sym := a.arena.LookupLocal(moduleScope, decl.Name)
	if sym == nil {
		return
	}
	sym.Type = a.inferDeclType(decl)
	a.globals[decl.Name] = sym.Type
}

func (a *Analyzer) resolveConstType(decl *ast.ConstDecl, moduleScope scope.ID) {
	sym := a.arena.LookupLocal(moduleScope, decl.Name)
	if sym == nil {
		return
	}
	if decl.Type != nil {
		sym.Type = a.resolveTypeExpr(decl.Type)
	} else {
		sym.Type = a.guessLiteralType(decl.Value)
	}
	a.globals[decl.Name] = sym.Type
}

func (a *Analyzer) inferDeclType(decl *ast.VariableDecl) *types.Type {
	if decl.Type != nil {
		return a.resolveTypeExpr(decl.Type)
	}
	if decl.Init != nil {
		if t := a.guessLiteralType(decl.Init); t.Kind != types.KindUnresolved {
			return t
		}
	}
	return types.Unresolved()
}

// guessLiteralType resolves the obvious, reference-free cases a literal
// initializer can have; anything requiring identifier lookup is left to
// the type checker once reference resolution has run.
func (a *Analyzer) guessLiteralType(e ast.Expr) *types.Type {
	lit, ok := e.(*ast.LiteralExpr)
	if !ok {
		return types.Unresolved()
	}
	switch lit.Kind {
	case ast.LitInt:
		return types.MinimumTypeFor(lit.Int)
	case ast.LitBool:
		return types.Bool()
	case ast.LitString:
		return types.String()
	default:
		return types.Unresolved()
	}
}
