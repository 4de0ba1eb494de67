// Package codegen lowers one finished il.Module into an asmil.Module
// (spec §4.9): globals-by-storage-class layout, the optional BASIC
// stub, the _start entry sequence, per-function instruction selection,
// and the footer stats summary.
package codegen

import (
	"fmt"

	"github.com/blendsdk/blend65/internal/ast"
	"github.com/blendsdk/blend65/internal/asmil"
	"github.com/blendsdk/blend65/internal/il"
)

// DefaultOrigin is the C64 BASIC-area load address (spec §4.9 step 1).
const DefaultOrigin = 0x0801

// DefaultCodeStart is the address immediately after the 12-byte BASIC
// stub (spec §4.9 step 3).
const DefaultCodeStart = 0x080D

// Config controls one code generation run.
type Config struct {
	Origin       int
	CodeStart    int
	EmitBasicStub bool
	ZeroPageBase int
	ZeroPageSize int
	RAMBase      int
}

// DefaultConfig returns the C64 defaults spec §4.9 names.
func DefaultConfig() Config {
	return Config{
		Origin:        DefaultOrigin,
		CodeStart:     DefaultCodeStart,
		EmitBasicStub: true,
		ZeroPageBase:  0x02,
		ZeroPageSize:  0xF0,
		RAMBase:       0xC000,
	}
}

// Warning is a non-fatal codegen diagnostic (e.g. zero-page overflow).
type Warning struct {
	Message string
}

// Generator drives one module's lowering to ASM-IL.
type Generator struct {
	cfg      Config
	b        *asmil.Builder
	warnings []Warning

	zpUsed  int
	ramUsed int
	ramNext int

	regSlots     map[il.RegID]int
	scratchNext  int
	boolLabelSeq int
}

func NewGenerator(cfg Config) *Generator {
	return &Generator{
		cfg:         cfg,
		ramNext:     cfg.RAMBase,
		regSlots:    make(map[il.RegID]int),
		scratchNext: cfg.ZeroPageBase + cfg.ZeroPageSize/2,
	}
}

func (g *Generator) warn(format string, args ...interface{}) {
	g.warnings = append(g.warnings, Warning{Message: fmt.Sprintf(format, args...)})
}

// Warnings returns every warning accumulated during Generate.
func (g *Generator) Warnings() []Warning { return g.warnings }

// Generate runs the full seven-step pipeline (spec §4.9) and returns the
// finished ASM-IL module.
func (g *Generator) Generate(mod *il.Module) asmil.Module {
	g.b = asmil.NewBuilder(mod.Name)

	g.header(mod)
	if g.cfg.EmitBasicStub {
		g.basicStub()
	} else {
		g.b.Origin(g.cfg.Origin)
	}
	g.entryPoint(mod)
	g.globals(mod)
	g.functions(mod)
	g.footer()

	return g.b.Finish()
}

// header emits the section banner and !to directive (spec §4.9 step 2).
func (g *Generator) header(mod *il.Module) {
	g.b.Comment(fmt.Sprintf("module %s", mod.Name), asmil.CommentBanner)
	g.b.Raw(fmt.Sprintf("!to \"%s.prg\", cbm", mod.Name))
	g.b.BlankLine()
}

// basicStub emits the 12-byte `10 SYS <code_start>` loader line as raw
// bytes, the ASCII-decimal code start address embedded in its text
// tokens, followed by an Origin(code_start) marker (spec §4.9 step 3).
func (g *Generator) basicStub() {
	g.b.Origin(g.cfg.Origin)
	g.b.Label("_basic_stub", asmil.LabelCode, false)

	sysLine := fmt.Sprintf("%d", g.cfg.CodeStart)
	nextLineAddr := g.cfg.Origin + 12
	lineNumber := 10

	g.b.Word(nextLineAddr)
	g.b.Word(lineNumber)
	g.b.Byte(0x9E) // BASIC token for SYS
	for _, c := range sysLine {
		g.b.Byte(int(c))
	}
	g.b.Zero(1) // statement terminator
	g.b.Word(0) // end-of-program link

	g.b.Origin(g.cfg.CodeStart)
}

// entryPoint emits the _start label and the JSR _main / RTS dispatch
// (spec §4.9 step 4). It emits no zero-page initialization.
func (g *Generator) entryPoint(mod *il.Module) {
	g.b.Label("_start", asmil.LabelCode, true)
	if _, ok := mod.Functions["main"]; ok {
		g.b.Call("_main")
	}
	g.b.Return()
	g.b.BlankLine()
}

// globals emits one section per storage class (spec §4.9 step 5).
func (g *Generator) globals(mod *il.Module) {
	for _, name := range sortedGlobalNames(mod) {
		glob := mod.Globals[name]
		switch glob.Storage {
		case ast.StorageZP.String():
			g.emitZP(glob)
		case ast.StorageRAM.String():
			g.emitRAM(glob)
		case ast.StorageData.String():
			g.emitData(glob)
		case ast.StorageMap.String():
			g.emitMapEquate(glob)
		default:
			g.emitRAM(glob)
		}
	}
}

func sortedGlobalNames(mod *il.Module) []string {
	names := make([]string, 0, len(mod.Globals))
	for n := range mod.Globals {
		names = append(names, n)
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	return names
}

func (g *Generator) emitZP(glob il.Global) {
	size := glob.Type.SizeBytes()
	if g.zpUsed+size > g.cfg.ZeroPageSize {
		g.warn("zero-page global %q overflows the %d-byte @zp budget", glob.Name, g.cfg.ZeroPageSize)
	}
	g.zpUsed += size
	g.b.Label(glob.Name, asmil.LabelData, true)
	g.b.Zero(size)
}

func (g *Generator) emitRAM(glob il.Global) {
	size := glob.Type.SizeBytes()
	g.ramUsed += size
	g.ramNext += size
	g.b.Label(glob.Name, asmil.LabelData, true)
	g.b.Zero(size)
}

func (g *Generator) emitData(glob il.Global) {
	g.b.Label(glob.Name, asmil.LabelData, true)
	switch glob.Type {
	case il.Word:
		g.b.Word(0)
	default:
		g.b.Byte(0)
	}
}

func (g *Generator) emitMapEquate(glob il.Global) {
	g.b.Comment(fmt.Sprintf("%s = @map (equate, no storage)", glob.Name), asmil.CommentInline)
}

// functions lowers every IL function in name order (spec §4.9 step 6).
func (g *Generator) functions(mod *il.Module) {
	names := make([]string, 0, len(mod.Functions))
	for n := range mod.Functions {
		names = append(names, n)
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	for _, name := range names {
		g.function(mod.Functions[name])
	}
}

func (g *Generator) function(fn *il.Function) {
	g.b.BlankLine()
	g.b.Label("_"+fn.Name, asmil.LabelCode, true)
	for _, blk := range fn.Blocks {
		g.block(fn, blk)
	}
}

func (g *Generator) block(fn *il.Function, blk *il.Block) {
	if blk.ID != fn.EntryBlock {
		g.b.Label(blockLabel(fn, blk), asmil.LabelCode, false)
	}
	for _, instr := range blk.Instructions {
		g.instruction(fn, blk, instr)
	}
}

func blockLabel(fn *il.Function, blk *il.Block) string {
	if blk.Label != "" {
		return fmt.Sprintf("_%s_%s", fn.Name, blk.Label)
	}
	return fmt.Sprintf("_%s_bb%d", fn.Name, blk.ID)
}

func blockLabelByID(fn *il.Function, id il.BlockID) string {
	for _, b := range fn.Blocks {
		if b.ID == id {
			return blockLabel(fn, b)
		}
	}
	return fmt.Sprintf("_%s_bb%d", fn.Name, id)
}

// footer emits the stats summary (spec §4.9 step 7).
func (g *Generator) footer() {
	mod := g.b.Finish()
	g.b.BlankLine()
	g.b.Comment(fmt.Sprintf("code_bytes=%d data_bytes=%d zp_bytes_used=%d ram_bytes_used=%d",
		mod.Stats.CodeBytes, mod.Stats.DataBytes, g.zpUsed, g.ramUsed), asmil.CommentBanner)
}
