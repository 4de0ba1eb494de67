package acme

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blendsdk/blend65/internal/asmil"
)

func TestEmitInstructionAddressingModes(t *testing.T) {
	b := asmil.NewBuilder("t")
	b.Immediate("LDA", 5)
	b.ZeroPage("STA", 0x10)
	b.Absolute("JSR", asmil.LabelOperand("_main"))
	mod := b.Finish()

	out := Emit(mod)
	assert.Contains(t, out, "LDA #$5")
	assert.Contains(t, out, "STA $10")
	assert.Contains(t, out, "JSR _main")
}

func TestEmitIndirectIndexedOperandSyntax(t *testing.T) {
	b := asmil.NewBuilder("t")
	b.IndirectY("LDA", 0x30)
	mod := b.Finish()
	out := Emit(mod)
	assert.Contains(t, out, "($30),y")
}

func TestEmitLabelsAreFlushLeft(t *testing.T) {
	b := asmil.NewBuilder("t")
	b.Label("_start", asmil.LabelCode, true)
	mod := b.Finish()
	out := Emit(mod)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "_start:", lines[0])
}

func TestEmitDataDirectives(t *testing.T) {
	b := asmil.NewBuilder("t")
	b.Byte(1, 2, 3)
	b.Word(0x1234)
	b.Fill(4, 0)
	mod := b.Finish()
	out := Emit(mod)

	assert.Contains(t, out, "!byte")
	assert.Contains(t, out, "!word")
	assert.Contains(t, out, "!fill 4")
}

func TestEmitOrigin(t *testing.T) {
	b := asmil.NewBuilder("t")
	b.Origin(0x0801)
	mod := b.Finish()
	out := Emit(mod)
	assert.Contains(t, out, "* = $0801")
}

func TestVICELabelsOnlyIncludeExportedLabels(t *testing.T) {
	b := asmil.NewBuilder("t")
	b.Origin(0xC000)
	b.Label("_start", asmil.LabelCode, true)
	b.Label("_internal", asmil.LabelCode, false)
	mod := b.Finish()

	out := VICELabels(mod)
	assert.Contains(t, out, "al C:$C000 ._start")
	assert.NotContains(t, out, "_internal")
}

func TestInvokerReportsUnavailableGracefully(t *testing.T) {
	inv := &Invoker{BinaryPath: "blend65-acme-definitely-not-installed"}
	assert.False(t, inv.Available())
}
