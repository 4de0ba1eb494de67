package codegen

import (
	"fmt"

	"github.com/blendsdk/blend65/internal/asmil"
	"github.com/blendsdk/blend65/internal/il"
)

// regSlot assigns each virtual register a fixed zero-page scratch
// address. Blend65 has no register allocator yet (Non-goal, spec §9):
// every register gets its own byte (or word, for Type Word) slot,
// reused across functions since functions never run concurrently under
// Static Frame Allocation.
func (g *Generator) regSlot(r il.Reg) int {
	if addr, ok := g.regSlots[r.ID]; ok {
		return addr
	}
	size := 1
	if r.Type == il.Word {
		size = 2
	}
	addr := g.scratchNext
	g.regSlots[r.ID] = addr
	g.scratchNext += size
	return addr
}

// instruction performs instruction selection for one IL instruction,
// mapping it onto 6502 mnemonics and addressing modes (spec §4.9 step 6).
func (g *Generator) instruction(fn *il.Function, blk *il.Block, instr *il.Instruction) {
	switch instr.Opcode {
	case il.OpConst:
		g.selectConst(instr)
	case il.OpAdd, il.OpSub, il.OpAnd, il.OpOr, il.OpXor:
		g.selectBinaryALU(instr)
	case il.OpMul, il.OpDiv, il.OpMod:
		g.selectRuntimeCall(instr)
	case il.OpNeg, il.OpNot:
		g.selectUnary(instr)
	case il.OpShl, il.OpShr:
		g.selectShift(instr)
	case il.OpCmpEq, il.OpCmpNe, il.OpCmpLt, il.OpCmpLe, il.OpCmpGt, il.OpCmpGe:
		g.selectCompare(instr)
	case il.OpLoad:
		g.selectLoad(instr)
	case il.OpStore:
		g.selectStore(instr)
	case il.OpLoadGlobal:
		g.selectLoadGlobal(instr)
	case il.OpStoreGlobal:
		g.selectStoreGlobal(instr)
	case il.OpJump:
		g.b.Jump(blockLabelByID(fn, instr.Target))
	case il.OpBranch:
		g.selectBranch(fn, instr)
	case il.OpReturn:
		g.selectReturnValue(instr)
	case il.OpReturnVoid:
		g.b.Return()
	case il.OpCall:
		g.selectCall(instr)
	case il.OpPhi:
		g.selectPhi(instr)
	case il.OpIntrinsicPeek, il.OpIntrinsicPeekW:
		g.selectLoad(instr)
	case il.OpIntrinsicPoke, il.OpIntrinsicPokeW:
		g.selectStore(instr)
	case il.OpCPUSei:
		g.b.Implied("SEI")
	case il.OpCPUCli:
		g.b.Implied("CLI")
	case il.OpCPUNop:
		g.b.Implied("NOP")
	case il.OpCPUBrk:
		g.b.Implied("BRK")
	case il.OpCPUPha:
		g.b.Implied("PHA")
	case il.OpCPUPla:
		g.b.Implied("PLA")
	case il.OpCPUPhp:
		g.b.Implied("PHP")
	case il.OpCPUPlp:
		g.b.Implied("PLP")
	case il.OpIntrinsicLo, il.OpIntrinsicHi:
		g.selectLoHi(instr)
	case il.OpVolatileRead:
		g.selectLoad(instr)
	case il.OpVolatileWrite:
		g.selectStore(instr)
	case il.OpOptBarrier:
		g.b.Comment("opt_barrier", asmil.CommentInline)
	default:
		g.warn("codegen: no instruction selection rule for opcode %s", instr.Opcode)
	}
}

func (g *Generator) operandAddr(v il.Value) asmil.Operand {
	switch v.Kind {
	case il.ValConstant:
		return asmil.ValueOperand(int(v.ConstVal))
	case il.ValRegister:
		return asmil.ValueOperand(g.regSlot(v.Reg))
	case il.ValGlobal:
		return asmil.LabelOperand(v.Name)
	case il.ValLabel:
		return asmil.LabelOperand(v.Name)
	default:
		return asmil.ValueOperand(0)
	}
}

// loadIntoA emits the shortest sequence that leaves v in the accumulator.
func (g *Generator) loadIntoA(v il.Value) {
	switch v.Kind {
	case il.ValConstant:
		g.b.Immediate("LDA", int(v.ConstVal))
	case il.ValRegister:
		g.b.ZeroPage("LDA", g.regSlot(v.Reg))
	case il.ValGlobal:
		g.b.Absolute("LDA", asmil.LabelOperand(v.Name))
	default:
		g.b.Immediate("LDA", 0)
	}
}

func (g *Generator) storeFromA(dst *il.Reg) {
	if dst == nil {
		return
	}
	g.b.ZeroPage("STA", g.regSlot(*dst))
}

func (g *Generator) selectConst(instr *il.Instruction) {
	if len(instr.Operands) == 0 {
		return
	}
	g.loadIntoA(instr.Operands[0])
	g.storeFromA(instr.Result)
}

var aluMnemonic = map[il.Opcode]string{
	il.OpAdd: "ADC", il.OpSub: "SBC", il.OpAnd: "AND", il.OpOr: "ORA", il.OpXor: "EOR",
}

func (g *Generator) selectBinaryALU(instr *il.Instruction) {
	if len(instr.Operands) != 2 {
		g.warn("codegen: %s expects 2 operands, got %d", instr.Opcode, len(instr.Operands))
		return
	}
	mnemonic := aluMnemonic[instr.Opcode]
	if instr.Opcode == il.OpAdd {
		g.b.Implied("CLC")
	} else if instr.Opcode == il.OpSub {
		g.b.Implied("SEC")
	}
	g.loadIntoA(instr.Operands[0])
	rhs := g.operandAddr(instr.Operands[1])
	if instr.Operands[1].Kind == il.ValConstant {
		g.b.Immediate(mnemonic, rhs.Value)
	} else {
		g.b.ZeroPage(mnemonic, rhs.Value)
	}
	g.storeFromA(instr.Result)
}

// selectRuntimeCall lowers multiply/divide/modulo to a call into a
// runtime support routine: the 6502 has no hardware MUL/DIV, so these
// are library calls by convention rather than inline instruction
// sequences (spec §9 Non-goals: no peephole/register allocator, this
// mirrors the same "keep codegen simple, push complexity to a runtime
// helper" stance).
func (g *Generator) selectRuntimeCall(instr *il.Instruction) {
	helper := map[il.Opcode]string{il.OpMul: "__mul8", il.OpDiv: "__div8", il.OpMod: "__mod8"}[instr.Opcode]
	for _, op := range instr.Operands {
		g.loadIntoA(op)
		g.b.Implied("PHA")
	}
	g.b.Call(helper)
	g.storeFromA(instr.Result)
}

func (g *Generator) selectUnary(instr *il.Instruction) {
	if len(instr.Operands) != 1 {
		return
	}
	g.loadIntoA(instr.Operands[0])
	switch instr.Opcode {
	case il.OpNeg:
		g.b.Immediate("EOR", 0xFF)
		g.b.Implied("CLC")
		g.b.Immediate("ADC", 1)
	case il.OpNot:
		g.b.Immediate("EOR", 0xFF)
	}
	g.storeFromA(instr.Result)
}

func (g *Generator) selectShift(instr *il.Instruction) {
	if len(instr.Operands) != 2 {
		return
	}
	mnemonic := "ASL"
	if instr.Opcode == il.OpShr {
		mnemonic = "LSR"
	}
	g.loadIntoA(instr.Operands[0])
	if instr.Operands[1].Kind == il.ValConstant {
		for i := int64(0); i < instr.Operands[1].ConstVal; i++ {
			g.b.Accumulator(mnemonic)
		}
	}
	g.storeFromA(instr.Result)
}

var compareBranch = map[il.Opcode]string{
	il.OpCmpEq: "BEQ", il.OpCmpNe: "BNE",
	il.OpCmpLt: "BCC", il.OpCmpGe: "BCS",
}

func (g *Generator) selectCompare(instr *il.Instruction) {
	if len(instr.Operands) != 2 {
		return
	}
	g.loadIntoA(instr.Operands[0])
	rhs := g.operandAddr(instr.Operands[1])
	if instr.Operands[1].Kind == il.ValConstant {
		g.b.Immediate("CMP", rhs.Value)
	} else {
		g.b.ZeroPage("CMP", rhs.Value)
	}
	// The boolean result lives in the same scratch slot as any other
	// register: whenever the CMP has a result register it is materialized
	// here as a 0/1 byte, and a BRANCH on it (selectBranch) reloads that
	// byte and tests it against zero.
	if instr.Result != nil {
		g.materializeBoolFromFlags(instr.Opcode, *instr.Result)
	}
}

// materializeBoolFromFlags converts the flag state left by CMP into a
// 0/1 byte in the result slot, for CMP_* results consumed as ordinary
// values rather than immediately branched on.
func (g *Generator) materializeBoolFromFlags(op il.Opcode, dst il.Reg) {
	trueLabel := fmt.Sprintf("_bool_true_%d", g.boolLabelSeq)
	doneLabel := fmt.Sprintf("_bool_done_%d", g.boolLabelSeq)
	falseLabel := fmt.Sprintf("_bool_false_%d", g.boolLabelSeq)
	g.boolLabelSeq++

	switch op {
	case il.OpCmpLe: // A <= M: carry clear or zero set
		g.b.Branch("BCC", trueLabel)
		g.b.Branch("BEQ", trueLabel)
	case il.OpCmpGt: // A > M: carry set and zero clear
		g.b.Branch("BEQ", falseLabel)
		g.b.Branch("BCS", trueLabel)
		g.b.Label(falseLabel, asmil.LabelCode, false)
	default:
		branch, ok := compareBranch[op]
		if !ok {
			branch = "BEQ"
		}
		g.b.Branch(branch, trueLabel)
	}
	g.b.Immediate("LDA", 0)
	g.b.Jump(doneLabel)
	g.b.Label(trueLabel, asmil.LabelCode, false)
	g.b.Immediate("LDA", 1)
	g.b.Label(doneLabel, asmil.LabelCode, false)
	g.b.ZeroPage("STA", g.regSlot(dst))
}

func (g *Generator) selectLoad(instr *il.Instruction) {
	if len(instr.Operands) == 0 {
		return
	}
	addr := g.operandAddr(instr.Operands[0])
	if addr.Label != "" {
		g.b.Absolute("LDA", addr)
	} else {
		g.b.ZeroPage("LDA", addr.Value)
	}
	g.storeFromA(instr.Result)
}

func (g *Generator) selectStore(instr *il.Instruction) {
	if len(instr.Operands) < 2 {
		return
	}
	addr := g.operandAddr(instr.Operands[0])
	g.loadIntoA(instr.Operands[1])
	if addr.Label != "" {
		g.b.Absolute("STA", addr)
	} else {
		g.b.ZeroPage("STA", addr.Value)
	}
}

func (g *Generator) selectLoadGlobal(instr *il.Instruction) {
	if len(instr.Operands) == 0 {
		return
	}
	g.b.Absolute("LDA", asmil.LabelOperand(instr.Operands[0].Name))
	g.storeFromA(instr.Result)
}

func (g *Generator) selectStoreGlobal(instr *il.Instruction) {
	if len(instr.Operands) < 2 {
		return
	}
	g.loadIntoA(instr.Operands[1])
	g.b.Absolute("STA", asmil.LabelOperand(instr.Operands[0].Name))
}

func (g *Generator) selectBranch(fn *il.Function, instr *il.Instruction) {
	if len(instr.Operands) == 0 {
		g.b.Jump(blockLabelByID(fn, instr.ThenBlock))
		return
	}
	g.loadIntoA(instr.Operands[0])
	g.b.Immediate("CMP", 0)
	g.b.Branch("BNE", blockLabelByID(fn, instr.ThenBlock))
	g.b.Jump(blockLabelByID(fn, instr.ElseBlock))
}

func (g *Generator) selectReturnValue(instr *il.Instruction) {
	if len(instr.Operands) > 0 {
		g.loadIntoA(instr.Operands[0])
	}
	g.b.Return()
}

func (g *Generator) selectCall(instr *il.Instruction) {
	for i := len(instr.Operands) - 1; i >= 0; i-- {
		g.loadIntoA(instr.Operands[i])
		g.b.Implied("PHA")
	}
	g.b.Call("_" + instr.CallTarget)
	if instr.Result != nil {
		g.storeFromA(instr.Result)
	}
}

// selectPhi has nothing to emit at the PHI site itself: each predecessor
// writes the merged register's slot directly at the end of its own
// block (spec §4.7's PHI is a bookkeeping node, not a runtime operation;
// the 6502 has no SSA notion, so the "copy" the PHI represents is
// materialized as ordinary stores by the predecessor blocks before the
// jump that reaches this merge point).
func (g *Generator) selectPhi(instr *il.Instruction) {
	if instr.Result == nil {
		return
	}
	_ = g.regSlot(*instr.Result)
}

func (g *Generator) selectLoHi(instr *il.Instruction) {
	if len(instr.Operands) == 0 {
		return
	}
	addr := g.operandAddr(instr.Operands[0])
	if instr.Opcode == il.OpIntrinsicHi {
		g.b.Immediate("LDA", (addr.Value>>8)&0xFF)
	} else {
		g.b.Immediate("LDA", addr.Value&0xFF)
	}
	g.storeFromA(instr.Result)
}
