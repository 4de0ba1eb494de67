// Package sema implements Blend65's semantic analyzer (spec §4.4): a
// four-pass walk over one module's AST — scope & symbol builder, type
// resolver, reference resolver, and a layered type checker — sharing a
// single scope.Arena and diag.Sink. Structured the way the teacher
// composes its own multi-file type checker: one orchestrator method
// calling ordered, independently testable layers over the same tree.
package sema

import (
	"github.com/blendsdk/blend65/internal/ast"
	"github.com/blendsdk/blend65/internal/diag"
	"github.com/blendsdk/blend65/internal/ilgen"
	"github.com/blendsdk/blend65/internal/scope"
	"github.com/blendsdk/blend65/internal/types"
)

// Result is everything the rest of the pipeline needs from one module's
// semantic analysis.
type Result struct {
	Arena    *scope.Arena
	Sink     *diag.Sink
	TypeInfo *ilgen.TypeInfo

	// nodeScope records which scope owns each statement/block node, so
	// later passes can recover scope context without re-walking from the
	// root.
	nodeScope map[ast.Node]scope.ID
}

// Analyzer runs the four passes over one module in order.
type Analyzer struct {
	arena       *scope.Arena
	sink        *diag.Sink
	nodeScope   map[ast.Node]scope.ID
	exprTypes   map[ast.Expr]*types.Type
	globals     map[string]*types.Type
	exprSym     map[ast.Expr]*scope.Symbol
	moduleScope scope.ID
}

// New creates an analyzer ready to run over one module.
func New() *Analyzer {
	return &Analyzer{
		arena:     scope.NewArena(),
		sink:      diag.NewSink(),
		nodeScope: make(map[ast.Node]scope.ID),
		exprTypes: make(map[ast.Expr]*types.Type),
		globals:   make(map[string]*types.Type),
		exprSym:   make(map[ast.Expr]*scope.Symbol),
	}
}

// Analyze runs scope/symbol building, type resolution, reference
// resolution, and type checking over mod in sequence. All four passes
// always run, even when an earlier pass has reported errors.
func (a *Analyzer) Analyze(mod *ast.Module) *Result {
	moduleScope := a.buildScopes(mod)
	a.resolveTypes(mod, moduleScope)
	a.resolveReferences(mod, moduleScope)
	a.checkTypes(mod, moduleScope)

	return &Result{
		Arena: a.arena,
		Sink:  a.sink,
		TypeInfo: &ilgen.TypeInfo{
			ExprTypes: a.exprTypes,
			Globals:   a.globals,
		},
		nodeScope: a.nodeScope,
	}
}

func (a *Analyzer) report(code string, sev diag.Severity, span ast.Span, msg string) {
	a.sink.Add(diag.New(code, sev, &span, msg))
}
