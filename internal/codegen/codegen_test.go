package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blendsdk/blend65/internal/asmil"
	"github.com/blendsdk/blend65/internal/il"
)

func simpleModuleWithMain() *il.Module {
	mod := il.NewModule("demo")
	fn := il.NewFunction("main", nil, il.Void, false)
	entry := fn.NewBlock("entry")
	fn.Emit(entry, &il.Instruction{Opcode: il.OpReturnVoid})
	mod.AddFunction(fn)
	return mod
}

// TestBasicStubPrecedesCodeStart mirrors scenario S5: with the BASIC
// stub enabled, the emitted item sequence contains an origin at the
// configured Origin, then a second origin at CodeStart, and a `_start`
// label exists once code starts.
func TestBasicStubPrecedesCodeStart(t *testing.T) {
	cfg := DefaultConfig()
	g := NewGenerator(cfg)
	mod := g.Generate(simpleModuleWithMain())

	var origins []int
	var sawStart bool
	for _, it := range mod.Items {
		if it.Kind == asmil.ItemOrigin {
			origins = append(origins, it.OriginAddress)
		}
		if it.Kind == asmil.ItemLabel && it.LabelName == "_start" {
			sawStart = true
		}
	}
	require.Len(t, origins, 2)
	assert.Equal(t, cfg.Origin, origins[0])
	assert.Equal(t, cfg.CodeStart, origins[1])
	assert.True(t, sawStart)
}

func TestEntryPointCallsMainWhenPresent(t *testing.T) {
	g := NewGenerator(DefaultConfig())
	mod := g.Generate(simpleModuleWithMain())

	var sawCallMain bool
	for _, it := range mod.Items {
		if it.Kind == asmil.ItemInstruction && it.Mnemonic == "JSR" && it.Operand.Label == "_main" {
			sawCallMain = true
		}
	}
	assert.True(t, sawCallMain, "entry point must JSR _main when a main function exists")
}

func TestEntryPointWithoutMainJustReturns(t *testing.T) {
	g := NewGenerator(DefaultConfig())
	mod := g.Generate(il.NewModule("empty"))

	var sawJSR bool
	for _, it := range mod.Items {
		if it.Kind == asmil.ItemInstruction && it.Mnemonic == "JSR" {
			sawJSR = true
		}
	}
	assert.False(t, sawJSR, "with no main function, entry point must not JSR")
}

func TestGlobalsLayoutByStorageClass(t *testing.T) {
	mod := il.NewModule("globals")
	mod.AddGlobal(il.Global{Name: "counter", Type: il.Byte, Storage: "@zp"})
	mod.AddGlobal(il.Global{Name: "buffer", Type: il.Word, Storage: "@ram"})

	g := NewGenerator(DefaultConfig())
	out := g.Generate(mod)

	var labels []string
	for _, it := range out.Items {
		if it.Kind == asmil.ItemLabel {
			labels = append(labels, it.LabelName)
		}
	}
	assert.Contains(t, labels, "counter")
	assert.Contains(t, labels, "buffer")
}

func TestFooterReportsByteTotals(t *testing.T) {
	g := NewGenerator(DefaultConfig())
	mod := g.Generate(simpleModuleWithMain())

	last := mod.Items[len(mod.Items)-1]
	assert.Equal(t, asmil.ItemComment, last.Kind)
	assert.Contains(t, last.Text, "code_bytes=")
}

func TestReturnOpcodeLowersToRTS(t *testing.T) {
	mod := il.NewModule("ret")
	fn := il.NewFunction("compute", nil, il.Byte, false)
	entry := fn.NewBlock("entry")
	r := fn.NewReg(il.Byte, "x")
	fn.Emit(entry, &il.Instruction{Opcode: il.OpConst, Result: &r, Operands: []il.Value{il.ConstValue(il.Byte, 7)}})
	fn.Emit(entry, &il.Instruction{Opcode: il.OpReturn, Operands: []il.Value{il.RegValue(r)}})
	mod.AddFunction(fn)

	g := NewGenerator(DefaultConfig())
	out := g.Generate(mod)

	var sawRTS bool
	for _, it := range out.Items {
		if it.Kind == asmil.ItemInstruction && it.Mnemonic == "RTS" {
			sawRTS = true
		}
	}
	assert.True(t, sawRTS)
}
