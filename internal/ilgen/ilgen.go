// Package ilgen lowers a semantically analyzed AST into Blend65's SSA IL
// (spec §4.8). It runs after the semantic analyzer and the (informational)
// loop analyzer, and before the code generator, per spec §2's pipeline.
package ilgen

import (
	"github.com/blendsdk/blend65/internal/ast"
	"github.com/blendsdk/blend65/internal/il"
	"github.com/blendsdk/blend65/internal/types"
)

// TypeInfo is the subset of semantic-analysis results the IL generator
// needs: resolved expression types and identifier bindings. The semantic
// analyzer (internal/sema) produces one of these per module; keeping it
// as its own small struct lets ilgen be built, tested, and reasoned about
// before sema exists.
type TypeInfo struct {
	// ExprTypes maps every expression node to its resolved source type.
	ExprTypes map[ast.Expr]*types.Type

	// Globals holds every module-level variable/constant by name; any
	// identifier not in Globals is assumed local to the current function.
	Globals map[string]*types.Type
}

func (ti *TypeInfo) typeOf(e ast.Expr) *types.Type {
	if ti == nil || ti.ExprTypes == nil {
		return nil
	}
	return ti.ExprTypes[e]
}

func (ti *TypeInfo) isGlobal(name string) bool {
	if ti == nil || ti.Globals == nil {
		return false
	}
	_, ok := ti.Globals[name]
	return ok
}

// loopFrame tracks the blocks break/continue must target, plus the
// per-variable placeholder PHI registers declared at loop entry so the
// back edge can backfill their second operand once the body is lowered
// (spec §4.8: "the lowering maintains a stack of loop contexts").
type loopFrame struct {
	continueTarget *il.Block
	breakTarget    *il.Block
	headerPhis     map[string]*il.Instruction
}

// Generator lowers one function body at a time into an il.Function.
type Generator struct {
	info *TypeInfo
	fn   *il.Function
	cur  *il.Block

	// locals maps a source-level local variable name to the register
	// currently holding its value at the lowering cursor's position.
	locals map[string]il.Reg

	loops []loopFrame
}

// NewGenerator creates a Generator that will consult info for type and
// global-binding information while lowering function bodies.
func NewGenerator(info *TypeInfo) *Generator {
	return &Generator{info: info}
}

// GenerateModule lowers every function declared at module scope.
func GenerateModule(name string, decls []*ast.FunctionDecl, info *TypeInfo) *il.Module {
	mod := il.NewModule(name)
	g := NewGenerator(info)
	for _, d := range decls {
		fn := g.GenerateFunction(d)
		mod.AddFunction(fn)
		if d.Name == "main" {
			mod.EntryPoint = "main"
		}
	}
	return mod
}

// GenerateFunction lowers one function declaration to SSA IL (spec §4.8).
func (g *Generator) GenerateFunction(decl *ast.FunctionDecl) *il.Function {
	paramTypes := make([]il.Type, len(decl.Params))
	for i := range decl.Params {
		paramTypes[i] = il.Byte // narrowed from TypeExpr by sema; ilgen only needs the IL shape
	}
	retType := il.Void
	if decl.ReturnType != nil {
		retType = il.Byte
	}

	fn := il.NewFunction(decl.Name, paramTypes, retType, decl.IsInterrupt)
	g.fn = fn
	g.locals = make(map[string]il.Reg)
	g.loops = nil

	entry := fn.NewBlock("entry")
	g.cur = entry

	for i, p := range decl.Params {
		reg := fn.NewReg(il.Byte, p.Name)
		instr := &il.Instruction{Opcode: il.OpConst, Result: &reg, Operands: []il.Value{il.ParamValue(i, il.Byte)}}
		fn.Emit(g.cur, instr)
		g.locals[p.Name] = reg
	}

	if decl.Body != nil {
		g.lowerStmt(decl.Body)
	}

	if g.cur.Terminator() == nil {
		fn.Emit(g.cur, &il.Instruction{Opcode: il.OpReturnVoid})
	}

	return fn
}

// emit appends instr to the current block and assigns it an ID.
func (g *Generator) emit(instr *il.Instruction) {
	g.fn.Emit(g.cur, instr)
}

// switchTo moves the lowering cursor to a new block.
func (g *Generator) switchTo(b *il.Block) {
	g.cur = b
}
