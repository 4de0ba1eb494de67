package ilgen

import "github.com/blendsdk/blend65/internal/il"

// intrinsicOpcodes maps a builtin call's callee name to its IL opcode
// (spec §4.8: "map peek/poke/peekw/pokew/sei/cli/nop/brk/pha/pla/php/plp/
// lo/hi/barrier/volatile_read/volatile_write to their specific IL
// opcodes"). sizeof/length are compile-time and handled separately.
var intrinsicOpcodes = map[string]il.Opcode{
	"peek":          il.OpIntrinsicPeek,
	"poke":          il.OpIntrinsicPoke,
	"peekw":         il.OpIntrinsicPeekW,
	"pokew":         il.OpIntrinsicPokeW,
	"sei":           il.OpCPUSei,
	"cli":           il.OpCPUCli,
	"nop":           il.OpCPUNop,
	"brk":           il.OpCPUBrk,
	"pha":           il.OpCPUPha,
	"pla":           il.OpCPUPla,
	"php":           il.OpCPUPhp,
	"plp":           il.OpCPUPlp,
	"lo":            il.OpIntrinsicLo,
	"hi":            il.OpIntrinsicHi,
	"barrier":       il.OpOptBarrier,
	"volatile_read":  il.OpVolatileRead,
	"volatile_write": il.OpVolatileWrite,
}

func intrinsicOpcode(callee string) (il.Opcode, bool) {
	op, ok := intrinsicOpcodes[callee]
	return op, ok
}

// intrinsicResultType is the IL type each intrinsic's result carries, Void
// for the ones that produce nothing.
func intrinsicResultType(op il.Opcode) il.Type {
	switch op {
	case il.OpIntrinsicPeek, il.OpIntrinsicLo, il.OpIntrinsicHi:
		return il.Byte
	case il.OpIntrinsicPeekW:
		return il.Word
	default:
		return il.Void
	}
}

func (g *Generator) lowerIntrinsic(op il.Opcode, name string, args []il.Value) il.Value {
	resultType := intrinsicResultType(op)
	var result *il.Reg
	if resultType != il.Void {
		reg := g.fn.NewReg(resultType, "")
		result = &reg
	}
	g.emit(&il.Instruction{Opcode: op, Result: result, Operands: args})
	if result != nil {
		return il.RegValue(*result)
	}
	return il.Value{Kind: il.ValConstant, Type: il.Void}
}
