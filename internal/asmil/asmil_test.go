package asmil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLookupMatchesByteSizeByMode exercises testable property 12: bytes(mode)
// equals the size reported by the instruction table, and cycles is never
// negative for any legal combination.
func TestLookupMatchesByteSizeByMode(t *testing.T) {
	cases := []struct {
		mnemonic string
		mode     AddressingMode
		wantLen  int
	}{
		{"LDA", Immediate, 2},
		{"LDA", ZeroPage, 2},
		{"LDA", Absolute, 3},
		{"LDA", AbsoluteX, 3},
		{"STA", IndirectY, 2},
		{"JSR", Absolute, 3},
		{"RTS", Implied, 1},
		{"ASL", Accumulator, 1},
		{"BEQ", Relative, 2},
	}
	for _, c := range cases {
		bytes, cycles, ok := Lookup(c.mnemonic, c.mode)
		require.True(t, ok, "%s %s should be a legal combination", c.mnemonic, c.mode)
		assert.Equal(t, c.wantLen, bytes, "%s %s byte size", c.mnemonic, c.mode)
		assert.GreaterOrEqual(t, cycles, 0, "%s %s cycles must not be negative", c.mnemonic, c.mode)
	}
}

func TestLookupRejectsIllegalCombination(t *testing.T) {
	_, _, ok := Lookup("STA", Immediate)
	assert.False(t, ok, "STA has no immediate addressing mode")

	_, _, ok = Lookup("XYZ", Implied)
	assert.False(t, ok, "unknown mnemonic must not resolve")
}

func TestBuilderTracksAddressAndStats(t *testing.T) {
	b := NewBuilder("test")
	b.Origin(0x0810)
	b.Label("_start", LabelCode, true)
	b.Implied("SEI")
	b.Immediate("LDA", 0)
	b.Absolute("STA", LabelOperand("border_color"))
	b.Call("_main")
	b.Return()

	assert.Equal(t, 0x0810+1+2+3+3+1, b.CurrentAddress())

	mod := b.Finish()
	assert.Equal(t, 1+2+3+3+1, mod.Stats.CodeBytes)
	assert.Equal(t, 0, mod.Stats.DataBytes)
}

func TestBuilderDataDirectivesAdvanceAddress(t *testing.T) {
	b := NewBuilder("test")
	b.Byte(1, 2, 3)
	b.Word(0x1234)
	b.TextNullTerminated("hi")
	b.Zero(4)

	mod := b.Finish()
	assert.Equal(t, 3+2+3+4, mod.Stats.DataBytes)
	assert.Equal(t, 3+2+3+4, b.CurrentAddress())
	assert.Equal(t, 0, mod.Stats.CodeBytes)
}

func TestBuilderPanicsOnIllegalInstruction(t *testing.T) {
	b := NewBuilder("test")
	assert.Panics(t, func() {
		b.Immediate("STA", 1)
	})
}

func TestItemKindsRoundTripThroughModule(t *testing.T) {
	b := NewBuilder("m")
	b.Comment("banner", CommentBanner)
	b.BlankLine()
	b.Raw("!to \"out.prg\", cbm")
	mod := b.Finish()

	require.Len(t, mod.Items, 3)
	assert.Equal(t, ItemComment, mod.Items[0].Kind)
	assert.Equal(t, ItemBlankLine, mod.Items[1].Kind)
	assert.Equal(t, ItemRaw, mod.Items[2].Kind)
}
