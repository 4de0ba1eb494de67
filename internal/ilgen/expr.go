package ilgen

import (
	"github.com/blendsdk/blend65/internal/ast"
	"github.com/blendsdk/blend65/internal/il"
	"github.com/blendsdk/blend65/internal/types"
)

// lowerExpr lowers e to an IL value, emitting whatever instructions are
// needed into the current block (spec §4.8).
func (g *Generator) lowerExpr(e ast.Expr) il.Value {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		return g.lowerLiteral(n)
	case *ast.IdentifierExpr:
		return g.lowerIdentifier(n)
	case *ast.BinaryExpr:
		return g.lowerBinary(n)
	case *ast.UnaryExpr:
		return g.lowerUnary(n)
	case *ast.CallExpr:
		return g.lowerCall(n)
	case *ast.TernaryExpr:
		return g.lowerTernary(n)
	case *ast.IndexExpr:
		return g.lowerIndex(n)
	case *ast.MemberExpr:
		return g.lowerMember(n)
	case *ast.AssignmentExpr:
		return g.lowerAssignment(n)
	case *ast.ArrayLiteralExpr:
		return g.lowerArrayLiteral(n)
	default:
		return il.ConstValue(il.Byte, 0)
	}
}

func (g *Generator) ilTypeOf(e ast.Expr) il.Type {
	return il.FromSourceType(g.info.typeOf(e))
}

func (g *Generator) lowerLiteral(n *ast.LiteralExpr) il.Value {
	switch n.Kind {
	case ast.LitBool:
		v := int64(0)
		if n.Bool {
			v = 1
		}
		return g.emitConst(il.Bool, v)
	case ast.LitInt:
		t := il.Byte
		if !types.FitsInByte(n.Int) {
			t = il.Word
		}
		return g.emitConst(t, n.Int)
	case ast.LitString:
		// Strings lower to a word-sized reference; the data section itself
		// is materialized later by the code generator from metadata.
		reg := g.fn.NewReg(il.Word, "")
		instr := &il.Instruction{Opcode: il.OpConst, Result: &reg, Operands: []il.Value{il.ConstValue(il.Word, 0)}}
		instr.Metadata.SourceExpr = n.Str
		g.emit(instr)
		return il.RegValue(reg)
	default:
		return il.ConstValue(il.Byte, 0)
	}
}

func (g *Generator) emitConst(t il.Type, v int64) il.Value {
	reg := g.fn.NewReg(t, "")
	g.emit(&il.Instruction{Opcode: il.OpConst, Result: &reg, Operands: []il.Value{il.ConstValue(t, v)}})
	return il.RegValue(reg)
}

func (g *Generator) lowerIdentifier(n *ast.IdentifierExpr) il.Value {
	if g.info.isGlobal(n.Name) {
		t := il.FromSourceType(g.info.Globals[n.Name])
		reg := g.fn.NewReg(t, n.Name)
		g.emit(&il.Instruction{Opcode: il.OpLoadGlobal, Result: &reg, Operands: []il.Value{il.GlobalValue(n.Name, t)}})
		return il.RegValue(reg)
	}
	if reg, ok := g.locals[n.Name]; ok {
		return il.RegValue(reg)
	}
	// Unresolved reference: the semantic analyzer already reported
	// UNDEFINED_VARIABLE; IL generation keeps going with a placeholder so
	// the rest of the function still lowers.
	return il.ConstValue(il.Byte, 0)
}

var binOpcodes = map[ast.BinaryOp]il.Opcode{
	ast.OpAdd: il.OpAdd, ast.OpSub: il.OpSub, ast.OpMul: il.OpMul, ast.OpDiv: il.OpDiv, ast.OpMod: il.OpMod,
	ast.OpAnd: il.OpAnd, ast.OpOr: il.OpOr, ast.OpXor: il.OpXor, ast.OpShl: il.OpShl, ast.OpShr: il.OpShr,
	ast.OpEq: il.OpCmpEq, ast.OpNe: il.OpCmpNe, ast.OpLt: il.OpCmpLt, ast.OpLe: il.OpCmpLe, ast.OpGt: il.OpCmpGt, ast.OpGe: il.OpCmpGe,
}

func isComparison(op ast.BinaryOp) bool {
	switch op {
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return true
	default:
		return false
	}
}

func (g *Generator) lowerBinary(n *ast.BinaryExpr) il.Value {
	if n.Op == ast.OpLogicalAnd || n.Op == ast.OpLogicalOr {
		return g.lowerShortCircuit(n)
	}

	left := g.lowerExpr(n.Left)
	right := g.lowerExpr(n.Right)

	opcode, ok := binOpcodes[n.Op]
	if !ok {
		opcode = il.OpAdd
	}

	resultType := il.Bool
	if !isComparison(n.Op) {
		resultType = widerILType(left.Type, right.Type)
	}

	reg := g.fn.NewReg(resultType, "")
	g.emit(&il.Instruction{Opcode: opcode, Result: &reg, Operands: []il.Value{left, right}})
	return il.RegValue(reg)
}

func widerILType(a, b il.Type) il.Type {
	if a == il.Word || b == il.Word {
		return il.Word
	}
	return il.Byte
}

var unaryOpcodes = map[ast.UnaryOp]il.Opcode{
	ast.OpNot: il.OpNot, ast.OpCompl: il.OpNot, ast.OpNeg: il.OpNeg,
}

func (g *Generator) lowerUnary(n *ast.UnaryExpr) il.Value {
	if n.Op == ast.OpPlus {
		return g.lowerExpr(n.Operand)
	}
	if n.Op == ast.OpAddr {
		// Address-of is only valid on identifier lvalues (spec §4.4); the
		// operand's global/local storage location is what codegen resolves.
		return g.lowerExpr(n.Operand)
	}
	operand := g.lowerExpr(n.Operand)
	opcode, ok := unaryOpcodes[n.Op]
	if !ok {
		opcode = il.OpNeg
	}
	reg := g.fn.NewReg(operand.Type, "")
	g.emit(&il.Instruction{Opcode: opcode, Result: &reg, Operands: []il.Value{operand}})
	return il.RegValue(reg)
}

func (g *Generator) lowerCall(n *ast.CallExpr) il.Value {
	var args []il.Value
	for _, a := range n.Args {
		args = append(args, g.lowerExpr(a))
	}
	callee := ""
	if id, ok := n.Callee.(*ast.IdentifierExpr); ok {
		callee = id.Name
	}

	if opcode, handled := intrinsicOpcode(callee); handled {
		return g.lowerIntrinsic(opcode, callee, args)
	}

	resultType := g.ilTypeOf(n)
	var result *il.Reg
	if resultType != il.Void {
		reg := g.fn.NewReg(resultType, "")
		result = &reg
	}
	g.emit(&il.Instruction{Opcode: il.OpCall, Result: result, CallTarget: callee, Operands: args})
	if result != nil {
		return il.RegValue(*result)
	}
	return il.Value{Kind: il.ValConstant, Type: il.Void}
}

func (g *Generator) lowerTernary(n *ast.TernaryExpr) il.Value {
	cond := g.lowerExpr(n.Cond)
	condBlock := g.cur

	thenBlock := g.fn.NewBlock("ternary.then")
	elseBlock := g.fn.NewBlock("ternary.else")
	mergeBlock := g.fn.NewBlock("ternary.merge")

	g.emit(&il.Instruction{Opcode: il.OpBranch, ThenBlock: thenBlock.ID, ElseBlock: elseBlock.ID, Operands: []il.Value{cond}})
	g.fn.AddEdge(condBlock.ID, thenBlock.ID)
	g.fn.AddEdge(condBlock.ID, elseBlock.ID)

	g.switchTo(thenBlock)
	thenVal := g.lowerExpr(n.Then)
	g.emit(&il.Instruction{Opcode: il.OpJump, Target: mergeBlock.ID})
	g.fn.AddEdge(thenBlock.ID, mergeBlock.ID)
	thenEnd := g.cur

	g.switchTo(elseBlock)
	elseVal := g.lowerExpr(n.Else)
	g.emit(&il.Instruction{Opcode: il.OpJump, Target: mergeBlock.ID})
	g.fn.AddEdge(elseBlock.ID, mergeBlock.ID)
	elseEnd := g.cur

	g.switchTo(mergeBlock)
	resultType := widerILType(thenVal.Type, elseVal.Type)
	reg := g.fn.NewReg(resultType, "")
	phi := &il.Instruction{Opcode: il.OpPhi, Result: &reg, PhiEdges: []il.PhiEdge{
		{Pred: thenEnd.ID, Value: thenVal},
		{Pred: elseEnd.ID, Value: elseVal},
	}}
	g.emit(phi)
	return il.RegValue(reg)
}

// lowerShortCircuit gives && and || the same predecessor/then/else/merge
// shape as the ternary operator, with a PHI merging the boolean result
// (spec §4.8).
func (g *Generator) lowerShortCircuit(n *ast.BinaryExpr) il.Value {
	left := g.lowerExpr(n.Left)
	condBlock := g.cur

	rhsBlock := g.fn.NewBlock("sc.rhs")
	mergeBlock := g.fn.NewBlock("sc.merge")

	var thenBlk, elseBlk il.BlockID
	if n.Op == ast.OpLogicalAnd {
		// left && right: only evaluate right if left is true.
		thenBlk, elseBlk = rhsBlock.ID, mergeBlock.ID
	} else {
		thenBlk, elseBlk = mergeBlock.ID, rhsBlock.ID
	}
	g.emit(&il.Instruction{Opcode: il.OpBranch, ThenBlock: thenBlk, ElseBlock: elseBlk, Operands: []il.Value{left}})
	g.fn.AddEdge(condBlock.ID, rhsBlock.ID)
	g.fn.AddEdge(condBlock.ID, mergeBlock.ID)

	g.switchTo(rhsBlock)
	right := g.lowerExpr(n.Right)
	g.emit(&il.Instruction{Opcode: il.OpJump, Target: mergeBlock.ID})
	g.fn.AddEdge(rhsBlock.ID, mergeBlock.ID)
	rhsEnd := g.cur

	g.switchTo(mergeBlock)
	reg := g.fn.NewReg(il.Bool, "")
	phi := &il.Instruction{Opcode: il.OpPhi, Result: &reg, PhiEdges: []il.PhiEdge{
		{Pred: condBlock.ID, Value: left},
		{Pred: rhsEnd.ID, Value: right},
	}}
	g.emit(phi)
	return il.RegValue(reg)
}

func (g *Generator) lowerIndex(n *ast.IndexExpr) il.Value {
	base := g.lowerExpr(n.Base)
	index := g.lowerExpr(n.Index)
	resultType := g.ilTypeOf(n)
	reg := g.fn.NewReg(resultType, "")
	g.emit(&il.Instruction{Opcode: il.OpLoad, Result: &reg, Operands: []il.Value{base, index}})
	return il.RegValue(reg)
}

func (g *Generator) lowerMember(n *ast.MemberExpr) il.Value {
	base := g.lowerExpr(n.Base)
	resultType := g.ilTypeOf(n)
	reg := g.fn.NewReg(resultType, "")
	instr := &il.Instruction{Opcode: il.OpVolatileRead, Result: &reg, Operands: []il.Value{base}}
	instr.Metadata.MapInfo = n.Field
	g.emit(instr)
	return il.RegValue(reg)
}

func (g *Generator) lowerArrayLiteral(n *ast.ArrayLiteralExpr) il.Value {
	// Array literals materialize into data storage during code generation;
	// ilgen only needs a placeholder handle carrying the element count.
	reg := g.fn.NewReg(il.Word, "")
	g.emit(&il.Instruction{Opcode: il.OpConst, Result: &reg, Operands: []il.Value{il.ConstValue(il.Word, int64(len(n.Elements)))}})
	return il.RegValue(reg)
}

func (g *Generator) lowerAssignment(n *ast.AssignmentExpr) il.Value {
	val := g.lowerExpr(n.Value)
	switch target := n.Target.(type) {
	case *ast.IdentifierExpr:
		if g.info.isGlobal(target.Name) {
			g.emit(&il.Instruction{Opcode: il.OpStoreGlobal, Operands: []il.Value{il.GlobalValue(target.Name, val.Type), val}})
		} else {
			reg := g.fn.NewReg(val.Type, target.Name)
			g.emit(&il.Instruction{Opcode: il.OpConst, Result: &reg, Operands: []il.Value{val}})
			g.locals[target.Name] = reg
		}
	case *ast.IndexExpr:
		base := g.lowerExpr(target.Base)
		index := g.lowerExpr(target.Index)
		g.emit(&il.Instruction{Opcode: il.OpStore, Operands: []il.Value{base, index, val}})
	case *ast.MemberExpr:
		base := g.lowerExpr(target.Base)
		instr := &il.Instruction{Opcode: il.OpVolatileWrite, Operands: []il.Value{base, val}}
		instr.Metadata.MapInfo = target.Field
		g.emit(instr)
	}
	return val
}
